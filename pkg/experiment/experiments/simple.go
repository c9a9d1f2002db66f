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
	"runtime"
	"unsafe"

	"github.com/go-logr/logr"

	"github.com/eigenform/lamina/pkg/experiment"
	"github.com/eigenform/lamina/pkg/gadget"
	"github.com/eigenform/lamina/pkg/gadget/x86"
	"github.com/eigenform/lamina/pkg/measure"
)

const (
	simpleName    = "simple"
	simpleSamples = 0x400
	simpleIters   = 0x100
	simpleMaxNops = 0x2000
)

func init() {
	experiment.Register(simpleName, NewSimpleSweep)
}

// SimpleSweep measures a bare NOP-padded loop bracketed by a store/load
// pair through the scratch pointer, with no pointer chase: the baseline
// curve of loop cost against instruction count.
type SimpleSweep struct {
	logger logr.Logger
	config experiment.Config
}

// NewSimpleSweep builds the baseline loop-cost experiment.
func NewSimpleSweep(logger logr.Logger, config experiment.Config) (experiment.Experiment, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &SimpleSweep{logger: logger, config: config}, nil
}

func (e *SimpleSweep) Name() string { return simpleName }

func (e *SimpleSweep) Description() string {
	return "baseline loop cost against NOP count, no pointer chase"
}

func (e *SimpleSweep) Capabilities() experiment.Capabilities {
	return experiment.Capabilities{}
}

func (e *SimpleSweep) Run(ctx context.Context) (*experiment.Result, error) {
	slab := make([]uint64, 1024)
	defer runtime.KeepAlive(slab)
	scratch := uintptr(unsafe.Pointer(&slab[0]))

	head := frag(func(a *x86.Assembler) {
		a.MovMemReg(x86.R15, 0, x86.RAX)
		a.MovRegMem(x86.RAX, x86.R15, 0)
	})
	tail := frag(func(a *x86.Assembler) {
		a.MovNTIMemReg(x86.R15, 0, x86.R14)
		a.MovRegMem(x86.RAX, x86.R15, 0)
	})

	e.logger.V(1).Info("starting sweep",
		"experiment", simpleName,
		"points", simpleMaxNops+1,
		"samples", simpleSamples)

	harness := measure.NewHarness(e.logger)
	result := &experiment.Result{Name: simpleName}

	for n := 0; n <= simpleMaxNops; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		buf, err := gadget.EmitSimpleLoop(gadget.SimpleLoop{
			Scratch: scratch,
			Iters:   simpleIters,
			Head:    head,
			Body:    nop1,
			Count:   n,
			Tail:    tail,
		})
		if err != nil {
			return nil, fmt.Errorf("emitting gadget for %d nops: %w", n, err)
		}

		if e.config.DumpGadgets && n == 0 {
			dumpGadget(e.logger, simpleName, buf)
		}

		agg := harness.RunIter(buf, simpleSamples)
		if err := buf.Close(); err != nil {
			return nil, fmt.Errorf("releasing gadget for %d nops: %w", n, err)
		}

		result.Rows = append(result.Rows, experiment.Row{
			Label:   fmt.Sprintf("%03d", n),
			Summary: agg.Summary(float64(simpleIters)),
		})
	}
	return result, nil
}
