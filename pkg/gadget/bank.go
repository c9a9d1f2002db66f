// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package gadget

import "unsafe"

// NumCounters is the number of programmable counters a bank gadget reads,
// matching the counter unit on the parts this code targets.
const NumCounters = 6

// CounterBank is the result block a bank gadget writes through its free
// pointer: one unsigned delta per programmable counter.
//
// The bank's address is baked into emitted code, so the caller must keep
// the CounterBank reachable for as long as any gadget emitted against it
// can still run. Go's collector does not move heap objects, so the address
// itself stays valid.
type CounterBank struct {
	words [NumCounters]uint64
}

// NewCounterBank returns a zeroed result block.
func NewCounterBank() *CounterBank {
	return &CounterBank{}
}

// Addr returns the address of the first word, as baked into emitted code.
func (b *CounterBank) Addr() uintptr {
	return uintptr(unsafe.Pointer(&b.words[0]))
}

// Words returns a copy of the per-counter deltas from the most recent run.
func (b *CounterBank) Words() [NumCounters]uint64 {
	return b.words
}

// Reset zeroes the result block. Gadgets zero it on entry anyway; Reset
// exists so a bank can be reused without carrying stale values between
// emissions.
func (b *CounterBank) Reset() {
	b.words = [NumCounters]uint64{}
}
