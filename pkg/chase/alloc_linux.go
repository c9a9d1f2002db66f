// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build linux

package chase

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// allocCells maps an anonymous region large enough for n cells and returns
// it as a cell slice along with its unmap function. Mapping the arena
// directly keeps it page-aligned and out of the Go heap, so cell addresses
// embedded into emitted code stay valid without GC coordination.
func allocCells(n int) ([]uintptr, func() error, error) {
	size := n * cellSize
	mem, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to map %d byte maze arena: %w", size, err)
	}

	cells := unsafe.Slice((*uintptr)(unsafe.Pointer(&mem[0])), n)
	return cells, func() error { return unix.Munmap(mem) }, nil
}
