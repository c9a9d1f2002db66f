// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package chase builds pointer-chasing mazes: arenas of pointer-sized cells
// permuted into a single cycle, so that walking the maze is a chain of
// serially-dependent loads the prefetchers cannot run ahead of. Measurement
// gadgets park their chase registers at maze entry points to keep a cache
// miss permanently in flight while padding instructions fill the structure
// under test.
package chase

import (
	"fmt"
	"unsafe"

	"github.com/eigenform/lamina/pkg/cpu"
)

const cellSize = int(unsafe.Sizeof(uintptr(0)))

// Maze is an arena of pointer-sized cells. After Shuffle, every stride-th
// cell holds the address of another such cell and the whole set forms one
// cycle; the cells in between still point at themselves.
//
// On Linux the arena is a dedicated anonymous mapping, so the first cell is
// page-aligned and the arena never moves. A Maze must not be used after
// Close.
type Maze struct {
	cells []uintptr
	free  func() error
}

// New allocates a maze of capacity cells with every cell pointing at
// itself.
func New(capacity int) (*Maze, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("maze capacity must be positive, got %d", capacity)
	}

	cells, free, err := allocCells(capacity)
	if err != nil {
		return nil, err
	}

	m := &Maze{cells: cells, free: free}
	m.Initialize()
	return m, nil
}

// Initialize points every cell back at itself, discarding any previous
// shuffle.
func (m *Maze) Initialize() {
	for i := range m.cells {
		m.cells[i] = m.cellAddr(i)
	}
}

// Shuffle links every stride-th cell into a single cycle of length
// Len()/stride, visiting the cells in a random order drawn from rng.
//
// The maze is re-initialized first, so repeated shuffles are independent.
// Cycles never degenerate: for more than one participating cell, no cell
// points at itself. A stride that is not positive or does not divide the
// capacity is a programming error and panics.
func (m *Maze) Shuffle(rng *Xorshift64, stride int) {
	if stride <= 0 || len(m.cells)%stride != 0 {
		panic(fmt.Sprintf("chase: stride %d does not divide maze capacity %d", stride, len(m.cells)))
	}

	m.Initialize()
	for i := len(m.cells)/stride - 1; i >= 1; i-- {
		j := int(rng.Next() % uint64(i))
		a, b := i*stride, j*stride
		m.cells[a], m.cells[b] = m.cells[b], m.cells[a]
	}
}

// Flush evicts every cache line backing the maze, so the next walk starts
// cold.
func (m *Maze) Flush() {
	cpu.FlushRange(m.cellAddr(0), m.SizeBytes())
}

// Walk follows the pointer chain for steps dereferences starting at addr
// and returns the final address. It performs the same loads a gadget's
// chase register performs, minus the surrounding measurement.
func (m *Maze) Walk(addr uintptr, steps int) uintptr {
	for i := 0; i < steps; i++ {
		addr = *(*uintptr)(unsafe.Pointer(addr))
	}
	return addr
}

// Head returns the address of the first cell.
func (m *Maze) Head() uintptr { return m.cellAddr(0) }

// Mid returns the address of the middle cell. Chase-pair gadgets use Head
// and Mid as their two entry points; with a cycle this long the two chains
// stay disjoint for any realistic iteration count.
func (m *Maze) Mid() uintptr { return m.cellAddr(len(m.cells) / 2) }

// Tail returns the address of the last cell.
func (m *Maze) Tail() uintptr { return m.cellAddr(len(m.cells) - 1) }

// Len returns the capacity in cells.
func (m *Maze) Len() int { return len(m.cells) }

// SizeBytes returns the arena size in bytes.
func (m *Maze) SizeBytes() int { return len(m.cells) * cellSize }

// Lines returns the number of cache lines backing the arena.
func (m *Maze) Lines() int { return m.SizeBytes() / cpu.LineSize }

// Close releases the arena. Close is idempotent.
func (m *Maze) Close() error {
	if m.cells == nil {
		return nil
	}
	m.cells = nil
	return m.free()
}

func (m *Maze) cellAddr(i int) uintptr {
	return uintptr(unsafe.Pointer(&m.cells[i]))
}
