// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package measure

import (
	"github.com/go-logr/logr"

	"github.com/eigenform/lamina/pkg/cpu"
	"github.com/eigenform/lamina/pkg/gadget"
)

// Harness invokes measurement gadgets under a consistent cache discipline
// and collects their results. It does no pinning and no counter
// programming of its own; callers arrange core affinity and counter state
// before running.
type Harness struct {
	logger logr.Logger
}

// NewHarness returns a harness that logs through logger.
func NewHarness(logger logr.Logger) *Harness {
	return &Harness{logger: logger}
}

// RunOnce invokes the gadget a single time with no cache control.
func (h *Harness) RunOnce(buf *gadget.Buffer) uint64 {
	return buf.Call()
}

// RunIter invokes the gadget runs times and aggregates the results.
// Before every invocation the buffer's own backing lines are flushed so
// instruction fetch starts from the same cache state on each run. The
// loop does no I/O and skips nothing; every result is recorded in order.
func (h *Harness) RunIter(buf *gadget.Buffer, runs int) *Aggregate {
	h.logger.V(2).Info("running gadget", "bytes", buf.Len(), "runs", runs)
	agg := &Aggregate{}
	for i := 0; i < runs; i++ {
		cpu.FlushRange(buf.Addr(), buf.Len())
		agg.Record(buf.Call())
	}
	return agg
}

// RunCounterBank invokes a counter-bank gadget runs times with the same
// eviction discipline as RunIter, recording the six bank words after
// every invocation. The gadget's own return value is discarded; results
// live in the bank.
func (h *Harness) RunCounterBank(buf *gadget.Buffer, bank *gadget.CounterBank, runs int) *ChannelAggregate {
	h.logger.V(2).Info("running counter bank gadget", "bytes", buf.Len(), "runs", runs)
	agg := &ChannelAggregate{}
	for i := 0; i < runs; i++ {
		cpu.FlushRange(buf.Addr(), buf.Len())
		buf.Call()
		agg.Record(bank.Words())
	}
	return agg
}
