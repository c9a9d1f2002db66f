// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package chase

import "github.com/eigenform/lamina/pkg/cpu"

// Xorshift64 is a small xorshift-multiply PRNG used to shuffle mazes.
//
// It is not a source of cryptographic randomness and never needs to be: the
// only requirement is a cheap, seedable stream of draws that is deterministic
// for a given seed, so shuffles can be reproduced in tests.
type Xorshift64 struct {
	state uint64
}

// NewXorshift64 returns a generator seeded with seed. A zero seed would
// pin the generator at zero forever, so it is replaced with a fixed
// nonzero value.
func NewXorshift64(seed uint64) *Xorshift64 {
	if seed == 0 {
		seed = 1
	}
	return &Xorshift64{state: seed}
}

// NewXorshift64FromTSC returns a generator seeded from the timestamp
// counter.
func NewXorshift64FromTSC() *Xorshift64 {
	return NewXorshift64(cpu.ReadTSC())
}

// Next advances the generator and returns the next draw.
func (x *Xorshift64) Next() uint64 {
	v := x.state
	v ^= v >> 12
	v ^= v << 25
	v ^= v >> 27
	v *= 0x2545f4914f6cdd1d
	x.state = v
	return v
}
