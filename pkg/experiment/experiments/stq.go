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

const stqName = "stq"

// Each padding instruction is a store through the other chain's pointer,
// consuming one store queue entry until it retires. The +8 displacement
// keeps the stores off the pointer words themselves.
var (
	storeRsi = frag(func(a *x86.Assembler) { a.MovMemReg(x86.RSI, 8, x86.RSI) })
	storeRdi = frag(func(a *x86.Assembler) { a.MovMemReg(x86.RDI, 8, x86.RDI) })
)

func init() {
	experiment.Register(stqName, NewStoreQueue)
}

// NewStoreQueue builds the store queue capacity experiment: store-padding
// between two dependent cache-missing loads.
func NewStoreQueue(logger logr.Logger, config experiment.Config) (experiment.Experiment, error) {
	return newChaseExperiment(logger, config,
		"store queue capacity via store-padding between cache-missing loads",
		chaseSweep{
			name:         stqName,
			mazeCells:    0x10000000,
			mazeStride:   512,
			scratchWords: 512,
			samples:      1024,
			iters:        0x10,
			outer:        512,
			padMin:       0,
			padMax:       64,
			reflush:      true,
			bodyA:        storeRsi,
			bodyB:        storeRdi,
		})
}
