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
)

const robName = "rob"

func init() {
	experiment.Register(robName, NewReorderBuffer)
}

// NewReorderBuffer builds the reorder-buffer capacity experiment: two
// dependent cache-missing loads separated by 16..256 single-byte NOPs.
// While both loads fit in the reorder buffer they miss in parallel; once
// the padding pushes the second load out, the misses serialize and the
// measured cycles roughly double. On Zen 2 the knee lands at 223/224
// NOPs.
func NewReorderBuffer(logger logr.Logger, config experiment.Config) (experiment.Experiment, error) {
	return newChaseExperiment(logger, config,
		"reorder buffer capacity via NOP padding between cache-missing loads",
		chaseSweep{
			name:         robName,
			mazeCells:    0x2000000,
			mazeStride:   512,
			scratchWords: 512,
			samples:      64,
			iters:        0x1000,
			outer:        16,
			padMin:       16,
			padMax:       256,
			bodyA:        nop1,
			bodyB:        nop1,
		})
}
