// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package x86 encodes the small x86-64 instruction vocabulary that
// measurement gadgets are assembled from: register moves and loads/stores,
// the fence and counter-read instructions, wide no-ops, and a backward
// conditional branch. Encodings follow the AMD64 Architecture Programmer's
// Manual; there is no relocation, no labels, and no attempt at generality
// beyond what gadget construction needs.
package x86

import "fmt"

// Reg names a 64-bit general-purpose register by its hardware encoding.
type Reg byte

const (
	RAX Reg = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

// Assembler accumulates encoded instructions into a byte buffer. Offsets
// returned by Len are relative to the buffer start; emitted code is
// position-independent except for JneRel32, whose target is a buffer
// offset.
type Assembler struct {
	code []byte
}

// NewAssembler returns an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{code: make([]byte, 0, 4096)}
}

// Bytes returns the encoded instruction stream.
func (a *Assembler) Bytes() []byte { return a.code }

// Len returns the current length of the instruction stream in bytes.
func (a *Assembler) Len() int { return len(a.code) }

// Raw appends arbitrary bytes, for instruction fragments prepared
// elsewhere.
func (a *Assembler) Raw(b ...byte) { a.code = append(a.code, b...) }

func (a *Assembler) emit(b ...byte) { a.code = append(a.code, b...) }

func (a *Assembler) imm32(v uint32) {
	a.emit(byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func (a *Assembler) imm64(v uint64) {
	a.imm32(uint32(v))
	a.imm32(uint32(v >> 32))
}

// rex builds a REX prefix. w selects 64-bit operand size; r, x and b extend
// the modrm reg field, the SIB index and the modrm rm / SIB base fields.
func rex(w, r, x, b bool) byte {
	p := byte(0x40)
	if w {
		p |= 0x08
	}
	if r {
		p |= 0x04
	}
	if x {
		p |= 0x02
	}
	if b {
		p |= 0x01
	}
	return p
}

func modRM(mod, reg, rm byte) byte {
	return mod<<6 | (reg&7)<<3 | rm&7
}

func sib(scale, index, base byte) byte {
	return scale<<6 | (index&7)<<3 | base&7
}

// memModRM encodes a [base+disp] operand against reg, choosing the shortest
// displacement form. RSP and R12 force a SIB byte; RBP and R13 cannot use
// the no-displacement form.
func (a *Assembler) memModRM(reg, base Reg, disp int32) {
	rm := byte(base) & 7
	needSIB := rm == 4

	var mod byte
	switch {
	case disp == 0 && rm != 5:
		mod = 0
	case disp >= -128 && disp <= 127:
		mod = 1
	default:
		mod = 2
	}

	a.emit(modRM(mod, byte(reg), rm))
	if needSIB {
		a.emit(sib(0, 4, rm))
	}
	switch mod {
	case 1:
		a.emit(byte(disp))
	case 2:
		a.imm32(uint32(disp))
	}
}

// Push emits push r.
func (a *Assembler) Push(r Reg) {
	if r >= R8 {
		a.emit(rex(false, false, false, true))
	}
	a.emit(0x50 | byte(r)&7)
}

// Pop emits pop r.
func (a *Assembler) Pop(r Reg) {
	if r >= R8 {
		a.emit(rex(false, false, false, true))
	}
	a.emit(0x58 | byte(r)&7)
}

// Ret emits a near return.
func (a *Assembler) Ret() { a.emit(0xc3) }

// Mfence emits a full memory fence.
func (a *Assembler) Mfence() { a.emit(0x0f, 0xae, 0xf0) }

// Lfence emits a load fence. On the parts this code targets LFENCE also
// serializes instruction dispatch, which is what gadgets use it for.
func (a *Assembler) Lfence() { a.emit(0x0f, 0xae, 0xe8) }

// Sfence emits a store fence.
func (a *Assembler) Sfence() { a.emit(0x0f, 0xae, 0xf8) }

// Rdpru emits RDPRU: read the processor register selected by ECX into
// EDX:EAX.
func (a *Assembler) Rdpru() { a.emit(0x0f, 0x01, 0xfd) }

// Rdpmc emits RDPMC: read the performance counter selected by ECX into
// EDX:EAX.
func (a *Assembler) Rdpmc() { a.emit(0x0f, 0x33) }

// Rdtsc emits RDTSC.
func (a *Assembler) Rdtsc() { a.emit(0x0f, 0x31) }

// XorReg emits xor dst, src (64-bit).
func (a *Assembler) XorReg(dst, src Reg) {
	a.emit(rex(true, src >= R8, false, dst >= R8), 0x31, modRM(3, byte(src), byte(dst)))
}

// MovRegReg emits mov dst, src (64-bit).
func (a *Assembler) MovRegReg(dst, src Reg) {
	a.emit(rex(true, src >= R8, false, dst >= R8), 0x89, modRM(3, byte(src), byte(dst)))
}

// MovRegImm64 emits mov r, imm64 with a full 8-byte immediate. The encoded
// length is fixed regardless of the value, which keeps gadget layout
// independent of the addresses baked into it.
func (a *Assembler) MovRegImm64(r Reg, v uint64) {
	a.emit(rex(true, false, false, r >= R8), 0xb8|byte(r)&7)
	a.imm64(v)
}

// MovRegImm emits mov r, imm32 sign-extended to 64 bits.
func (a *Assembler) MovRegImm(r Reg, v int32) {
	a.emit(rex(true, false, false, r >= R8), 0xc7, modRM(3, 0, byte(r)))
	a.imm32(uint32(v))
}

// MovERegImm emits mov r32, imm32, zero-extending into the full register.
func (a *Assembler) MovERegImm(r Reg, v uint32) {
	if r >= R8 {
		a.emit(rex(false, false, false, true))
	}
	a.emit(0xb8 | byte(r)&7)
	a.imm32(v)
}

// MovRegMem emits mov dst, [base+disp].
func (a *Assembler) MovRegMem(dst, base Reg, disp int32) {
	a.emit(rex(true, dst >= R8, false, base >= R8), 0x8b)
	a.memModRM(dst, base, disp)
}

// MovMemReg emits mov [base+disp], src.
func (a *Assembler) MovMemReg(base Reg, disp int32, src Reg) {
	a.emit(rex(true, src >= R8, false, base >= R8), 0x89)
	a.memModRM(src, base, disp)
}

// MovNTIMemReg emits movnti [base+disp], src, a non-temporal store.
func (a *Assembler) MovNTIMemReg(base Reg, disp int32, src Reg) {
	a.emit(rex(true, src >= R8, false, base >= R8), 0x0f, 0xc3)
	a.memModRM(src, base, disp)
}

// AddRegReg emits add dst, src (64-bit).
func (a *Assembler) AddRegReg(dst, src Reg) {
	a.emit(rex(true, src >= R8, false, dst >= R8), 0x01, modRM(3, byte(src), byte(dst)))
}

// SubRegReg emits sub dst, src (64-bit).
func (a *Assembler) SubRegReg(dst, src Reg) {
	a.emit(rex(true, src >= R8, false, dst >= R8), 0x29, modRM(3, byte(src), byte(dst)))
}

// OrRegReg emits or dst, src (64-bit).
func (a *Assembler) OrRegReg(dst, src Reg) {
	a.emit(rex(true, src >= R8, false, dst >= R8), 0x09, modRM(3, byte(src), byte(dst)))
}

// AddMemReg emits add [base+disp], src (64-bit).
func (a *Assembler) AddMemReg(base Reg, disp int32, src Reg) {
	a.emit(rex(true, src >= R8, false, base >= R8), 0x01)
	a.memModRM(src, base, disp)
}

// SubMemReg emits sub [base+disp], src (64-bit).
func (a *Assembler) SubMemReg(base Reg, disp int32, src Reg) {
	a.emit(rex(true, src >= R8, false, base >= R8), 0x29)
	a.memModRM(src, base, disp)
}

// SubRegImm8 emits sub r, imm8 with the immediate sign-extended to 64 bits.
func (a *Assembler) SubRegImm8(r Reg, v int8) {
	a.emit(rex(true, false, false, r >= R8), 0x83, modRM(3, 5, byte(r)), byte(v))
}

// ShlRegImm emits shl r, imm8 (64-bit).
func (a *Assembler) ShlRegImm(r Reg, v uint8) {
	a.emit(rex(true, false, false, r >= R8), 0xc1, modRM(3, 4, byte(r)), v)
}

// JneRel32 emits jne with a 4-byte relative displacement to the buffer
// offset target. The long form is emitted unconditionally so branch size
// never depends on loop body size.
func (a *Assembler) JneRel32(target int) {
	rel := int64(target) - int64(a.Len()+6)
	if rel < -1<<31 || rel >= 1<<31 {
		panic(fmt.Sprintf("x86: branch displacement %d out of range", rel))
	}
	a.emit(0x0f, 0x85)
	a.imm32(uint32(int32(rel)))
}
