// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package measure

import (
	"github.com/aclements/go-moremath/stats"

	"github.com/eigenform/lamina/pkg/gadget"
)

// Aggregate accumulates the distribution of one measured quantity across
// repeated gadget runs: extrema, exact value frequencies, and every sample
// in arrival order. The zero value is ready to use.
type Aggregate struct {
	min     uint64
	max     uint64
	freq    map[uint64]int
	samples []uint64
}

// Record adds one sample.
func (a *Aggregate) Record(v uint64) {
	if len(a.samples) == 0 || v < a.min {
		a.min = v
	}
	if len(a.samples) == 0 || v > a.max {
		a.max = v
	}
	if a.freq == nil {
		a.freq = make(map[uint64]int)
	}
	a.freq[v]++
	a.samples = append(a.samples, v)
}

// Len returns the number of recorded samples.
func (a *Aggregate) Len() int { return len(a.samples) }

// Min returns the smallest sample, zero when empty.
func (a *Aggregate) Min() uint64 { return a.min }

// Max returns the largest sample, zero when empty.
func (a *Aggregate) Max() uint64 { return a.max }

// Samples returns a copy of the samples in arrival order.
func (a *Aggregate) Samples() []uint64 {
	out := make([]uint64, len(a.samples))
	copy(out, a.samples)
	return out
}

// Mode returns the most frequent sample value and its count. Ties go to
// the smallest value so results are deterministic.
func (a *Aggregate) Mode() (uint64, int) {
	var mode uint64
	count := 0
	for v, n := range a.freq {
		if n > count || (n == count && v < mode) {
			mode, count = v, n
		}
	}
	return mode, count
}

// Summary reduces the distribution to its descriptive statistics, with
// every statistic divided by divisor. Dividing by the work per run (loop
// iterations times unroll) converts raw deltas into per-item costs; a
// divisor of zero or less is treated as one.
func (a *Aggregate) Summary(divisor float64) Summary {
	if len(a.samples) == 0 {
		return Summary{}
	}
	if divisor <= 0 {
		divisor = 1
	}

	xs := make([]float64, len(a.samples))
	for i, v := range a.samples {
		xs[i] = float64(v)
	}
	sample := stats.Sample{Xs: xs}

	mode, modeCount := a.Mode()
	return Summary{
		Samples:   len(a.samples),
		Min:       float64(a.min) / divisor,
		Max:       float64(a.max) / divisor,
		Mean:      sample.Mean() / divisor,
		StdDev:    sample.StdDev() / divisor,
		Median:    sample.Quantile(0.5) / divisor,
		Mode:      float64(mode) / divisor,
		ModeCount: modeCount,
	}
}

// Summary holds the descriptive statistics of one measured distribution,
// normalized by the caller's divisor.
type Summary struct {
	Samples   int
	Min       float64
	Max       float64
	Mean      float64
	StdDev    float64
	Median    float64
	Mode      float64
	ModeCount int
}

// ChannelAggregate aggregates the six per-counter distributions a bank
// gadget produces, one Aggregate per counter slot.
type ChannelAggregate struct {
	Channels [gadget.NumCounters]Aggregate
}

// Record adds one result-block row, one sample per channel.
func (c *ChannelAggregate) Record(row [gadget.NumCounters]uint64) {
	for i, v := range row {
		c.Channels[i].Record(v)
	}
}
