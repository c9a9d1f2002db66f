// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package x86_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/arch/x86/x86asm"

	"github.com/eigenform/lamina/pkg/gadget/x86"
)

func TestEncodings(t *testing.T) {
	tests := []struct {
		name string
		emit func(a *x86.Assembler)
		want []byte
	}{
		{
			name: "push rbp",
			emit: func(a *x86.Assembler) { a.Push(x86.RBP) },
			want: []byte{0x55},
		},
		{
			name: "push r15",
			emit: func(a *x86.Assembler) { a.Push(x86.R15) },
			want: []byte{0x41, 0x57},
		},
		{
			name: "pop rbx",
			emit: func(a *x86.Assembler) { a.Pop(x86.RBX) },
			want: []byte{0x5b},
		},
		{
			name: "pop r12",
			emit: func(a *x86.Assembler) { a.Pop(x86.R12) },
			want: []byte{0x41, 0x5c},
		},
		{
			name: "ret",
			emit: func(a *x86.Assembler) { a.Ret() },
			want: []byte{0xc3},
		},
		{
			name: "mfence",
			emit: func(a *x86.Assembler) { a.Mfence() },
			want: []byte{0x0f, 0xae, 0xf0},
		},
		{
			name: "lfence",
			emit: func(a *x86.Assembler) { a.Lfence() },
			want: []byte{0x0f, 0xae, 0xe8},
		},
		{
			name: "sfence",
			emit: func(a *x86.Assembler) { a.Sfence() },
			want: []byte{0x0f, 0xae, 0xf8},
		},
		{
			name: "rdpru",
			emit: func(a *x86.Assembler) { a.Rdpru() },
			want: []byte{0x0f, 0x01, 0xfd},
		},
		{
			name: "rdpmc",
			emit: func(a *x86.Assembler) { a.Rdpmc() },
			want: []byte{0x0f, 0x33},
		},
		{
			name: "rdtsc",
			emit: func(a *x86.Assembler) { a.Rdtsc() },
			want: []byte{0x0f, 0x31},
		},
		{
			name: "xor rax, rax",
			emit: func(a *x86.Assembler) { a.XorReg(x86.RAX, x86.RAX) },
			want: []byte{0x48, 0x31, 0xc0},
		},
		{
			name: "xor r14, r14",
			emit: func(a *x86.Assembler) { a.XorReg(x86.R14, x86.R14) },
			want: []byte{0x4d, 0x31, 0xf6},
		},
		{
			name: "xor rcx, rdx",
			emit: func(a *x86.Assembler) { a.XorReg(x86.RCX, x86.RDX) },
			want: []byte{0x48, 0x31, 0xd1},
		},
		{
			name: "mov rax, r14",
			emit: func(a *x86.Assembler) { a.MovRegReg(x86.RAX, x86.R14) },
			want: []byte{0x4c, 0x89, 0xf0},
		},
		{
			name: "mov rdi, imm64",
			emit: func(a *x86.Assembler) { a.MovRegImm64(x86.RDI, 0x1122334455667788) },
			want: []byte{0x48, 0xbf, 0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11},
		},
		{
			name: "mov r15, imm64",
			emit: func(a *x86.Assembler) { a.MovRegImm64(x86.R15, 1) },
			want: []byte{0x49, 0xbf, 0x01, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			name: "mov rcx, 1",
			emit: func(a *x86.Assembler) { a.MovRegImm(x86.RCX, 1) },
			want: []byte{0x48, 0xc7, 0xc1, 0x01, 0x00, 0x00, 0x00},
		},
		{
			name: "mov r13, 0x1000",
			emit: func(a *x86.Assembler) { a.MovRegImm(x86.R13, 0x1000) },
			want: []byte{0x49, 0xc7, 0xc5, 0x00, 0x10, 0x00, 0x00},
		},
		{
			name: "mov ecx, 3",
			emit: func(a *x86.Assembler) { a.MovERegImm(x86.RCX, 3) },
			want: []byte{0xb9, 0x03, 0x00, 0x00, 0x00},
		},
		{
			name: "mov r9d, imm32",
			emit: func(a *x86.Assembler) { a.MovERegImm(x86.R9, 1) },
			want: []byte{0x41, 0xb9, 0x01, 0x00, 0x00, 0x00},
		},
		{
			name: "mov rdi, [rdi]",
			emit: func(a *x86.Assembler) { a.MovRegMem(x86.RDI, x86.RDI, 0) },
			want: []byte{0x48, 0x8b, 0x3f},
		},
		{
			name: "mov rax, [rdi+64]",
			emit: func(a *x86.Assembler) { a.MovRegMem(x86.RAX, x86.RDI, 64) },
			want: []byte{0x48, 0x8b, 0x47, 0x40},
		},
		{
			name: "mov rbx, [rsi+64]",
			emit: func(a *x86.Assembler) { a.MovRegMem(x86.RBX, x86.RSI, 64) },
			want: []byte{0x48, 0x8b, 0x5e, 0x40},
		},
		{
			name: "mov rax, [r15]",
			emit: func(a *x86.Assembler) { a.MovRegMem(x86.RAX, x86.R15, 0) },
			want: []byte{0x49, 0x8b, 0x07},
		},
		{
			name: "mov rax, [rsp] needs sib",
			emit: func(a *x86.Assembler) { a.MovRegMem(x86.RAX, x86.RSP, 0) },
			want: []byte{0x48, 0x8b, 0x04, 0x24},
		},
		{
			name: "mov rax, [r12] needs sib",
			emit: func(a *x86.Assembler) { a.MovRegMem(x86.RAX, x86.R12, 0) },
			want: []byte{0x49, 0x8b, 0x04, 0x24},
		},
		{
			name: "mov rax, [rbp] needs disp8",
			emit: func(a *x86.Assembler) { a.MovRegMem(x86.RAX, x86.RBP, 0) },
			want: []byte{0x48, 0x8b, 0x45, 0x00},
		},
		{
			name: "mov rax, [r13] needs disp8",
			emit: func(a *x86.Assembler) { a.MovRegMem(x86.RAX, x86.R13, 0) },
			want: []byte{0x49, 0x8b, 0x45, 0x00},
		},
		{
			name: "mov rax, [rdi+disp32]",
			emit: func(a *x86.Assembler) { a.MovRegMem(x86.RAX, x86.RDI, 0x1000) },
			want: []byte{0x48, 0x8b, 0x87, 0x00, 0x10, 0x00, 0x00},
		},
		{
			name: "mov rax, [rdi-8]",
			emit: func(a *x86.Assembler) { a.MovRegMem(x86.RAX, x86.RDI, -8) },
			want: []byte{0x48, 0x8b, 0x47, 0xf8},
		},
		{
			name: "mov [rsi+8], rsi",
			emit: func(a *x86.Assembler) { a.MovMemReg(x86.RSI, 8, x86.RSI) },
			want: []byte{0x48, 0x89, 0x76, 0x08},
		},
		{
			name: "mov [r15], rax",
			emit: func(a *x86.Assembler) { a.MovMemReg(x86.R15, 0, x86.RAX) },
			want: []byte{0x49, 0x89, 0x07},
		},
		{
			name: "movnti [r15], r14",
			emit: func(a *x86.Assembler) { a.MovNTIMemReg(x86.R15, 0, x86.R14) },
			want: []byte{0x4d, 0x0f, 0xc3, 0x37},
		},
		{
			name: "add rax, r13",
			emit: func(a *x86.Assembler) { a.AddRegReg(x86.RAX, x86.R13) },
			want: []byte{0x4c, 0x01, 0xe8},
		},
		{
			name: "sub r14, rdx",
			emit: func(a *x86.Assembler) { a.SubRegReg(x86.R14, x86.RDX) },
			want: []byte{0x49, 0x29, 0xd6},
		},
		{
			name: "or rdx, rax",
			emit: func(a *x86.Assembler) { a.OrRegReg(x86.RDX, x86.RAX) },
			want: []byte{0x48, 0x09, 0xc2},
		},
		{
			name: "add [r15+8], rdx",
			emit: func(a *x86.Assembler) { a.AddMemReg(x86.R15, 8, x86.RDX) },
			want: []byte{0x49, 0x01, 0x57, 0x08},
		},
		{
			name: "sub [r15], rdx",
			emit: func(a *x86.Assembler) { a.SubMemReg(x86.R15, 0, x86.RDX) },
			want: []byte{0x49, 0x29, 0x17},
		},
		{
			name: "sub r13, 1",
			emit: func(a *x86.Assembler) { a.SubRegImm8(x86.R13, 1) },
			want: []byte{0x49, 0x83, 0xed, 0x01},
		},
		{
			name: "shl rdx, 32",
			emit: func(a *x86.Assembler) { a.ShlRegImm(x86.RDX, 32) },
			want: []byte{0x48, 0xc1, 0xe2, 0x20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := x86.NewAssembler()
			tt.emit(a)
			assert.Equal(t, tt.want, a.Bytes())
		})
	}
}

func TestJneRel32Backward(t *testing.T) {
	a := x86.NewAssembler()
	a.Nop(1)
	a.Nop(1)
	a.JneRel32(0)

	// jne at offset 2 is 6 bytes long; branching back to offset 0 needs
	// a displacement of -8.
	assert.Equal(t, []byte{0x90, 0x90, 0x0f, 0x85, 0xf8, 0xff, 0xff, 0xff}, a.Bytes())
}

func TestNopWidths(t *testing.T) {
	for width := 1; width <= 15; width++ {
		a := x86.NewAssembler()
		a.Nop(width)
		require.Equal(t, width, a.Len(), "width %d", width)

		inst, err := x86asm.Decode(a.Bytes(), 64)
		require.NoError(t, err, "width %d", width)
		assert.Equal(t, width, inst.Len, "width %d", width)
	}

	a := x86.NewAssembler()
	assert.Panics(t, func() { a.Nop(0) })
	assert.Panics(t, func() { a.Nop(16) })
}

func TestAlign(t *testing.T) {
	a := x86.NewAssembler()
	a.Align(64)
	assert.Equal(t, 0, a.Len(), "aligning an empty stream pads nothing")

	a.Ret()
	a.Align(64)
	assert.Equal(t, 64, a.Len())

	a.Align(64)
	assert.Equal(t, 64, a.Len(), "aligned stream stays put")

	a.Nop(1)
	a.Align(16)
	assert.Equal(t, 80, a.Len())

	assert.Panics(t, func() { a.Align(0) })
}

// TestEncodingsDecode round-trips a few encodings through a disassembler to
// guard against subtle modrm mistakes that byte tables alone might share.
func TestEncodingsDecode(t *testing.T) {
	tests := []struct {
		name string
		emit func(a *x86.Assembler)
		op   x86asm.Op
	}{
		{"mov imm64", func(a *x86.Assembler) { a.MovRegImm64(x86.RDI, 0xdeadbeef) }, x86asm.MOV},
		{"mov load", func(a *x86.Assembler) { a.MovRegMem(x86.RAX, x86.R13, 16) }, x86asm.MOV},
		{"mov store", func(a *x86.Assembler) { a.MovMemReg(x86.R12, 8, x86.RDX) }, x86asm.MOV},
		{"movnti", func(a *x86.Assembler) { a.MovNTIMemReg(x86.RDI, 0, x86.RAX) }, x86asm.MOVNTI},
		{"sub imm8", func(a *x86.Assembler) { a.SubRegImm8(x86.R13, 1) }, x86asm.SUB},
		{"shl", func(a *x86.Assembler) { a.ShlRegImm(x86.RDX, 32) }, x86asm.SHL},
		{"xor", func(a *x86.Assembler) { a.XorReg(x86.R10, x86.R10) }, x86asm.XOR},
		{"or", func(a *x86.Assembler) { a.OrRegReg(x86.RDX, x86.RAX) }, x86asm.OR},
		{"rdpmc", func(a *x86.Assembler) { a.Rdpmc() }, x86asm.RDPMC},
		{"lfence", func(a *x86.Assembler) { a.Lfence() }, x86asm.LFENCE},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := x86.NewAssembler()
			tt.emit(a)

			inst, err := x86asm.Decode(a.Bytes(), 64)
			require.NoError(t, err)
			assert.Equal(t, tt.op, inst.Op)
			assert.Equal(t, a.Len(), inst.Len)
		})
	}
}
