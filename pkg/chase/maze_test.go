// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package chase_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigenform/lamina/pkg/chase"
)

func TestMazeNewRejectsBadCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1, -4096} {
		_, err := chase.New(capacity)
		assert.Error(t, err, "capacity %d", capacity)
	}
}

func TestMazeInitializeIdentity(t *testing.T) {
	m, err := chase.New(64)
	require.NoError(t, err)
	defer m.Close()

	// Every cell points at itself, so walks go nowhere.
	assert.Equal(t, m.Head(), m.Walk(m.Head(), 1))
	assert.Equal(t, m.Head(), m.Walk(m.Head(), 17))
	assert.Equal(t, m.Mid(), m.Walk(m.Mid(), 5))
	assert.Equal(t, m.Tail(), m.Walk(m.Tail(), 3))
}

func TestMazeShuffleSingleCycle(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		stride   int
	}{
		{name: "stride 1", capacity: 64, stride: 1},
		{name: "stride 4", capacity: 256, stride: 4},
		{name: "stride 8", capacity: 1024, stride: 8},
		{name: "two cells", capacity: 128, stride: 64},
		{name: "line stride", capacity: 4096, stride: 512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := chase.New(tt.capacity)
			require.NoError(t, err)
			defer m.Close()

			rng := chase.NewXorshift64(0xdeadbeef)
			m.Shuffle(rng, tt.stride)

			// Following the chain from the head must visit every
			// strided cell exactly once and land back on the head
			// after exactly cycleLen steps, never earlier.
			cycleLen := tt.capacity / tt.stride
			visited := map[uintptr]bool{m.Head(): true}

			addr := m.Head()
			for step := 1; step < cycleLen; step++ {
				addr = m.Walk(addr, 1)
				require.NotEqual(t, m.Head(), addr, "cycle closed early at step %d", step)
				require.False(t, visited[addr], "cell revisited at step %d", step)
				visited[addr] = true
			}
			assert.Equal(t, m.Head(), m.Walk(addr, 1))
			assert.Len(t, visited, cycleLen)
		})
	}
}

func TestMazeShuffleSingleCell(t *testing.T) {
	// A cycle over one cell is legal and degenerates to the identity.
	m, err := chase.New(64)
	require.NoError(t, err)
	defer m.Close()

	m.Shuffle(chase.NewXorshift64(1), 64)
	assert.Equal(t, m.Head(), m.Walk(m.Head(), 1))
}

func TestMazeShuffleReinitializes(t *testing.T) {
	m, err := chase.New(256)
	require.NoError(t, err)
	defer m.Close()

	m.Shuffle(chase.NewXorshift64(7), 1)
	m.Shuffle(chase.NewXorshift64(7), 1)

	// Two shuffles with identical draws must produce identical mazes;
	// without the re-initialization the second would compose with the
	// first.
	a := chase.NewXorshift64(7)
	reference, err := chase.New(256)
	require.NoError(t, err)
	defer reference.Close()
	reference.Shuffle(a, 1)

	addr, ref := m.Head(), reference.Head()
	for i := 0; i < 256; i++ {
		addr, ref = m.Walk(addr, 1), reference.Walk(ref, 1)
		require.Equal(t, ref-reference.Head(), addr-m.Head(), "step %d", i)
	}
}

func TestMazeShuffleBadStridePanics(t *testing.T) {
	m, err := chase.New(64)
	require.NoError(t, err)
	defer m.Close()

	rng := chase.NewXorshift64(1)
	assert.Panics(t, func() { m.Shuffle(rng, 0) })
	assert.Panics(t, func() { m.Shuffle(rng, -8) })
	assert.Panics(t, func() { m.Shuffle(rng, 7) })
}

func TestMazeGeometry(t *testing.T) {
	const capacity = 1024
	cellSize := int(unsafe.Sizeof(uintptr(0)))

	m, err := chase.New(capacity)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, capacity, m.Len())
	assert.Equal(t, capacity*cellSize, m.SizeBytes())
	assert.Equal(t, capacity*cellSize/64, m.Lines())

	assert.Equal(t, m.Head()+uintptr(capacity/2*cellSize), m.Mid())
	assert.Equal(t, m.Head()+uintptr((capacity-1)*cellSize), m.Tail())
}

func TestMazeFlush(t *testing.T) {
	m, err := chase.New(512)
	require.NoError(t, err)
	defer m.Close()

	m.Shuffle(chase.NewXorshift64(3), 8)
	m.Flush()

	// Flushing must not disturb the cycle.
	assert.Equal(t, m.Head(), m.Walk(m.Head(), 512/8))
}

func TestMazeCloseIdempotent(t *testing.T) {
	m, err := chase.New(64)
	require.NoError(t, err)

	require.NoError(t, m.Close())
	assert.NoError(t, m.Close())
}
