// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package gadget

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigenform/lamina/pkg/gadget/x86"
)

func TestBufferCallStub(t *testing.T) {
	a := x86.NewAssembler()
	a.MovRegImm64(x86.RAX, 0xdeadbeefcafef00d)
	a.Ret()

	buf, err := NewBuffer(a.Bytes())
	require.NoError(t, err)
	defer buf.Close()

	assert.Equal(t, uint64(0xdeadbeefcafef00d), buf.Call())
	assert.Equal(t, uint64(0xdeadbeefcafef00d), buf.Call())
}

// TestScaffoldExecutes runs the shared prologue, counted loop and epilogue
// with a body that just increments the accumulator, so the whole gadget
// skeleton is exercised without touching any privileged or
// vendor-specific instruction.
func TestScaffoldExecutes(t *testing.T) {
	const iters = 100

	a := x86.NewAssembler()
	emitProlog(a)
	emitLoop(a, iters, func() {
		a.SubRegImm8(x86.R14, -1)
	})
	a.MovRegReg(x86.RAX, x86.R14)
	emitEpilog(a)

	buf, err := NewBuffer(a.Bytes())
	require.NoError(t, err)
	defer buf.Close()

	assert.Equal(t, uint64(iters), buf.Call())
	assert.Equal(t, uint64(iters), buf.Call())
}

func TestBufferProperties(t *testing.T) {
	a := x86.NewAssembler()
	a.MovRegImm64(x86.RAX, 42)
	a.Ret()
	code := a.Bytes()

	buf, err := NewBuffer(code)
	require.NoError(t, err)
	defer buf.Close()

	assert.Equal(t, len(code), buf.Len())
	assert.Equal(t, code, buf.Bytes())
	assert.NotZero(t, buf.Addr())
	assert.Zero(t, buf.Addr()%4096, "mapping must be page-aligned")
}

func TestBufferDisasm(t *testing.T) {
	a := x86.NewAssembler()
	a.MovRegImm64(x86.RAX, 42)
	a.Lfence()
	a.Ret()

	buf, err := NewBuffer(a.Bytes())
	require.NoError(t, err)
	defer buf.Close()

	var sb strings.Builder
	require.NoError(t, buf.Disasm(&sb))

	listing := sb.String()
	assert.Contains(t, listing, "mov rax")
	assert.Contains(t, listing, "lfence")
	assert.Contains(t, listing, "ret")
	assert.Equal(t, 3, strings.Count(listing, "\n"))
}

func TestBufferRejectsEmpty(t *testing.T) {
	_, err := NewBuffer(nil)
	assert.Error(t, err)
	_, err = NewBuffer([]byte{})
	assert.Error(t, err)
}

func TestBufferUseAfterClose(t *testing.T) {
	a := x86.NewAssembler()
	a.Ret()

	buf, err := NewBuffer(a.Bytes())
	require.NoError(t, err)

	require.NoError(t, buf.Close())
	assert.NoError(t, buf.Close())
	assert.Panics(t, func() { buf.Addr() })
	assert.Panics(t, func() { buf.Bytes() })
}
