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

	"github.com/eigenform/lamina/pkg/chase"
	"github.com/eigenform/lamina/pkg/experiment"
	"github.com/eigenform/lamina/pkg/gadget"
	"github.com/eigenform/lamina/pkg/measure"
)

// chaseSweep parameterizes one pointer-chase padding sweep: the maze
// geometry, the loop shape, and the two fragments measured between the
// dependent loads. The sweep variable is the inner unroll count, so each
// point runs pad copies of bodyA after the first load and pad copies of
// bodyB after the second.
type chaseSweep struct {
	name         string
	mazeCells    int
	mazeStride   int
	scratchWords int
	samples      int
	iters        int
	outer        int
	padMin       int
	padMax       int

	// reflush evicts the maze again before every sweep point instead of
	// only once after shuffling.
	reflush bool

	bodyA []byte
	bodyB []byte
}

// chaseExperiment drives a chaseSweep: emit one gadget per pad count,
// sample it, and report one row per point normalized by the work per run
// (iters × outer unroll).
type chaseExperiment struct {
	logger logr.Logger
	config experiment.Config
	desc   string
	sweep  chaseSweep
}

func newChaseExperiment(logger logr.Logger, config experiment.Config, desc string, sweep chaseSweep) (experiment.Experiment, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &chaseExperiment{logger: logger, config: config, desc: desc, sweep: sweep}, nil
}

func (e *chaseExperiment) Name() string        { return e.sweep.name }
func (e *chaseExperiment) Description() string { return e.desc }

func (e *chaseExperiment) Capabilities() experiment.Capabilities {
	return experiment.Capabilities{}
}

func (e *chaseExperiment) Run(ctx context.Context) (*experiment.Result, error) {
	sw := e.sweep

	maze, err := chase.New(sw.mazeCells)
	if err != nil {
		return nil, fmt.Errorf("allocating maze: %w", err)
	}
	defer maze.Close()

	rng := chase.NewXorshift64FromTSC()
	maze.Shuffle(rng, sw.mazeStride)
	maze.Flush()

	slab := make([]uint64, sw.scratchWords)
	defer runtime.KeepAlive(slab)
	scratch := uintptr(unsafe.Pointer(&slab[0]))

	e.logger.V(1).Info("starting sweep",
		"experiment", sw.name,
		"maze_bytes", maze.SizeBytes(),
		"points", sw.padMax-sw.padMin+1,
		"samples", sw.samples)

	harness := measure.NewHarness(e.logger)
	divisor := float64(sw.iters) * float64(sw.outer)

	result := &experiment.Result{Name: sw.name}
	for pad := sw.padMin; pad <= sw.padMax; pad++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if sw.reflush {
			maze.Flush()
		}

		buf, err := gadget.EmitChasePair(gadget.ChasePair{
			PtrA:    maze.Head(),
			PtrB:    maze.Mid(),
			Scratch: scratch,
			Iters:   sw.iters,
			Outer:   sw.outer,
			Inner:   pad,
			BodyA:   sw.bodyA,
			BodyB:   sw.bodyB,
		})
		if err != nil {
			return nil, fmt.Errorf("emitting gadget for pad %d: %w", pad, err)
		}

		if e.config.DumpGadgets && pad == sw.padMin {
			dumpGadget(e.logger, sw.name, buf)
		}

		agg := harness.RunIter(buf, sw.samples)
		if err := buf.Close(); err != nil {
			return nil, fmt.Errorf("releasing gadget for pad %d: %w", pad, err)
		}

		result.Rows = append(result.Rows, experiment.Row{
			Label:   fmt.Sprintf("%03d", pad),
			Summary: agg.Summary(divisor),
		})
	}
	return result, nil
}
