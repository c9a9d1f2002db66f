// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package cpu

// LineSize is the cache line size in bytes. Fixed at 64 on every x86-64
// part this code targets.
const LineSize = 64

// FlushRange evicts every cache line backing the size bytes starting at addr,
// then fences. Used to establish a known cold-cache state before a timed run.
func FlushRange(addr uintptr, size int) {
	if size <= 0 {
		return
	}
	end := addr + uintptr(size)
	for line := addr &^ (LineSize - 1); line < end; line += LineSize {
		FlushLine(line)
	}
	Fence()
}
