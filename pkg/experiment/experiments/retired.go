// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build linux && amd64

package experiments

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/eigenform/lamina/pkg/experiment"
	"github.com/eigenform/lamina/pkg/gadget"
	"github.com/eigenform/lamina/pkg/gadget/x86"
	"github.com/eigenform/lamina/pkg/measure"
	"github.com/eigenform/lamina/pkg/pmc"
)

const (
	retiredName   = "retired"
	retiredRuns   = 0x1000
	retiredIters  = 100
	retiredUnroll = 10
	retiredNops   = 4
)

func init() {
	experiment.Register(retiredName, NewRetiredInstructions)
}

// RetiredInstructions programs counter slot 0 to count retired
// instructions and measures two gadgets with it: the bare floor (two
// back-to-back counter reads with nothing in between) and a counted NOP
// loop whose retired-instruction total is known in advance. Sanity check
// for the whole counter path: device, control words, and RDPMC.
type RetiredInstructions struct {
	logger logr.Logger
	config experiment.Config
}

// NewRetiredInstructions builds the retired-instruction counter check.
func NewRetiredInstructions(logger logr.Logger, config experiment.Config) (experiment.Experiment, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &RetiredInstructions{logger: logger, config: config}, nil
}

func (e *RetiredInstructions) Name() string { return retiredName }

func (e *RetiredInstructions) Description() string {
	return "retired instruction counts for a floor gadget and a known NOP loop"
}

func (e *RetiredInstructions) Capabilities() experiment.Capabilities {
	return experiment.Capabilities{RequiresRoot: true, RequiresCounterDevice: true}
}

func (e *RetiredInstructions) Run(ctx context.Context) (*experiment.Result, error) {
	pctx, err := pmc.Open(e.logger, e.config.DevicePath)
	if err != nil {
		return nil, fmt.Errorf("opening counter device: %w", err)
	}
	defer pctx.Close()

	set := pmc.CounterSet{}.WithSlot(0, pmc.Event{ID: pmc.ExRetInstr})
	if err := pctx.Write(set); err != nil {
		return nil, fmt.Errorf("programming counters: %w", err)
	}

	harness := measure.NewHarness(e.logger)
	result := &experiment.Result{Name: retiredName}

	floor, err := gadget.EmitCounterFloor(0)
	if err != nil {
		return nil, fmt.Errorf("emitting floor gadget: %w", err)
	}
	defer floor.Close()

	if e.config.DumpGadgets {
		dumpGadget(e.logger, "floor", floor)
	}
	result.Rows = append(result.Rows, experiment.Row{
		Label:   "floor",
		Summary: harness.RunIter(floor, retiredRuns).Summary(1),
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body := frag(func(a *x86.Assembler) {
		for i := 0; i < retiredNops; i++ {
			a.Nop(1)
		}
	})
	nops, err := gadget.EmitCounterLoop(0, retiredIters, retiredUnroll, body)
	if err != nil {
		return nil, fmt.Errorf("emitting nop gadget: %w", err)
	}
	defer nops.Close()

	if e.config.DumpGadgets {
		dumpGadget(e.logger, "nops", nops)
	}
	result.Rows = append(result.Rows, experiment.Row{
		Label:   "nops",
		Summary: harness.RunIter(nops, retiredRuns).Summary(1),
	})

	return result, nil
}
