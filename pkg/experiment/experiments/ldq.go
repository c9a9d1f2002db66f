// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build linux && amd64

package experiments

import (
	"github.com/go-logr/logr"

	"github.com/eigenform/lamina/pkg/experiment"
	"github.com/eigenform/lamina/pkg/gadget/x86"
)

const ldqName = "ldq"

// Each padding instruction is an independent load off one of the chain
// pointers, consuming one load queue entry until it retires. The +64
// displacement lands on the next line of the same page, so the pads hit
// in L1 once the chase load has pulled the page in.
var (
	loadRdi = frag(func(a *x86.Assembler) { a.MovRegMem(x86.RAX, x86.RDI, 64) })
	loadRsi = frag(func(a *x86.Assembler) { a.MovRegMem(x86.RBX, x86.RSI, 64) })
)

func init() {
	experiment.Register(ldqName, NewLoadQueue)
}

// NewLoadQueue builds the load queue capacity experiment: load-padding
// between two dependent cache-missing loads.
func NewLoadQueue(logger logr.Logger, config experiment.Config) (experiment.Experiment, error) {
	return newChaseExperiment(logger, config,
		"load queue capacity via load-padding between cache-missing loads",
		chaseSweep{
			name:         ldqName,
			mazeCells:    0x10000000,
			mazeStride:   512,
			scratchWords: 512,
			samples:      1024,
			iters:        0x40,
			outer:        128,
			padMin:       0,
			padMax:       64,
			reflush:      true,
			bodyA:        loadRdi,
			bodyB:        loadRsi,
		})
}
