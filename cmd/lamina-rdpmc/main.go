// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Minimal six-channel counter example: program every programmable counter,
// run an almost-empty gadget many times, and print what each channel saw.
// The floor it reports is the cost of the measurement scaffold itself.

//go:build linux && amd64

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"

	"github.com/eigenform/lamina/pkg/cpu"
	"github.com/eigenform/lamina/pkg/gadget"
	"github.com/eigenform/lamina/pkg/gadget/x86"
	"github.com/eigenform/lamina/pkg/measure"
	"github.com/eigenform/lamina/pkg/pmc"
)

const runs = 0x1000

var (
	devicePath string
	verbose    bool
)

func init() {
	flag.StringVar(&devicePath, "device", pmc.DevicePath, "Counter control device node")
	flag.BoolVar(&verbose, "verbose", false, "Enable verbose logging")
}

func main() {
	flag.Parse()

	var logger logr.Logger
	if verbose {
		zapLog, _ := zap.NewDevelopment()
		logger = zapr.NewLogger(zapLog)
	} else {
		logger = logr.Discard()
	}

	// The counter device only programs counters on its fixed target core.
	if err := cpu.PinToCore(pmc.TargetCore); err != nil {
		fmt.Fprintf(os.Stderr, "Error pinning to core %d: %v\n", pmc.TargetCore, err)
		os.Exit(1)
	}

	ctx, err := pmc.Open(logger, devicePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening counter device: %v\n", err)
		os.Exit(1)
	}
	defer ctx.Close()

	set := pmc.CounterSet{}.
		WithSlot(0, pmc.Event{ID: pmc.ExRetCops}).
		WithSlot(1, pmc.Event{ID: pmc.DeSrcOpDisp, Unit: 0x03}).
		WithSlot(2, pmc.Event{ID: pmc.ExRetInstr}).
		WithSlot(3, pmc.Event{ID: pmc.LsNotHaltedCyc}).
		WithSlot(4, pmc.Event{ID: pmc.LsIntTaken}).
		WithSlot(5, pmc.Event{ID: pmc.LsSmiRx})

	if err := ctx.Write(set); err != nil {
		fmt.Fprintf(os.Stderr, "Error programming counters: %v\n", err)
		os.Exit(1)
	}

	a := x86.NewAssembler()
	a.Nop(1)

	bank := gadget.NewCounterBank()
	buf, err := gadget.EmitCounterBank(bank, 1, 1, a.Bytes())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error emitting gadget: %v\n", err)
		os.Exit(1)
	}
	defer buf.Close()

	harness := measure.NewHarness(logger)
	agg := harness.RunCounterBank(buf, bank, runs)

	fmt.Printf("=== floor (%d runs) ===\n", runs)
	for i := range agg.Channels {
		ev, _, used := set.Slot(i)
		if !used {
			continue
		}
		summary := agg.Channels[i].Summary(1)
		fmt.Printf("%-20s min=%.3f avg=%.3f max=%.3f\n",
			ev.ID.String(), summary.Min, summary.Mean, summary.Max)
	}
}
