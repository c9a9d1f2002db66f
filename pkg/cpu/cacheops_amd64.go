// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build amd64

package cpu

// FlushLine evicts the cache line containing addr from every level of the
// cache hierarchy (CLFLUSH). addr does not need to be line-aligned.
func FlushLine(addr uintptr)

// Fence serializes all prior loads and stores (MFENCE).
func Fence()

// ReadTSC returns the time-stamp counter, with prior instructions retired
// before the read (LFENCE; RDTSC).
func ReadTSC() uint64
