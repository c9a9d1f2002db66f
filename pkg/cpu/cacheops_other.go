// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build !amd64

package cpu

import "time"

// FlushLine is a no-op on non-amd64 platforms; it exists so that pure data
// structure code (and its tests) builds everywhere.
func FlushLine(addr uintptr) {}

// Fence is a no-op on non-amd64 platforms.
func Fence() {}

// ReadTSC approximates a time-stamp counter read with the wall clock.
// Only used as a PRNG seed off amd64; never for measurement.
func ReadTSC() uint64 {
	return uint64(time.Now().UnixNano())
}
