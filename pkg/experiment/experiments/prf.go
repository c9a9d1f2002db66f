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

const prfName = "prf"

// Each padding instruction writes RAX, consuming one integer physical
// register file entry until it retires. R13 is the loop counter and is
// only read.
var addRaxR13 = frag(func(a *x86.Assembler) { a.AddRegReg(x86.RAX, x86.R13) })

func init() {
	experiment.Register(prfName, NewRegisterFile)
}

// NewRegisterFile builds the integer PRF capacity experiment: add-padding
// between two dependent cache-missing loads. The sweep stops overlapping
// the misses once the renamer runs out of free integer registers; on
// Zen 2 the PRF holds 180 entries with up to 38 mapped to architectural
// state.
func NewRegisterFile(logger logr.Logger, config experiment.Config) (experiment.Experiment, error) {
	return newChaseExperiment(logger, config,
		"integer physical register file capacity via add-padding between cache-missing loads",
		chaseSweep{
			name:         prfName,
			mazeCells:    0x10000000,
			mazeStride:   512,
			scratchWords: 512,
			samples:      1024,
			iters:        0x10,
			outer:        256,
			padMin:       0,
			padMax:       256,
			reflush:      true,
			bodyA:        addRaxR13,
			bodyB:        addRaxR13,
		})
}
