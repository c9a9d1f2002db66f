// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package gadget

import (
	"fmt"
	"math"

	"github.com/eigenform/lamina/pkg/gadget/x86"
)

// saveRegs lists the registers every gadget saves on entry, in push order.
// RDI and RSI are not callee-saved in the SysV ABI but carry chase pointers,
// so gadgets preserve them anyway.
var saveRegs = [...]x86.Reg{
	x86.RBP, x86.RBX, x86.RDI, x86.RSI, x86.R12, x86.R13, x86.R14, x86.R15,
}

// zeroRegs lists the registers zeroed after the entry fences, so gadget
// execution starts from the same architectural state every run. RSP stays
// live.
var zeroRegs = [...]x86.Reg{
	x86.RAX, x86.RBX, x86.RCX, x86.RDX, x86.RSI, x86.RDI, x86.RBP,
	x86.R8, x86.R9, x86.R10, x86.R11, x86.R12, x86.R13, x86.R14, x86.R15,
}

// emitProlog emits the fixed gadget entry: save registers, drain the store
// queue and dispatch, zero the general-purpose registers, drain again.
func emitProlog(a *x86.Assembler) {
	for _, r := range saveRegs {
		a.Push(r)
	}
	a.Mfence()
	a.Lfence()
	for _, r := range zeroRegs {
		a.XorReg(r, r)
	}
	a.Lfence()
}

// emitEpilog emits the fixed gadget exit: restore registers and return.
func emitEpilog(a *x86.Assembler) {
	for i := len(saveRegs) - 1; i >= 0; i-- {
		a.Pop(saveRegs[i])
	}
	a.Ret()
	a.Lfence()
}

// emitRdpruRead reads the free-running counter selected by RCX into RDX,
// bracketed by fences so nothing drifts across the read. RAX is clobbered.
func emitRdpruRead(a *x86.Assembler) {
	a.Lfence()
	a.Rdpru()
	a.Lfence()
	a.ShlRegImm(x86.RDX, 32)
	a.OrRegReg(x86.RDX, x86.RAX)
}

// emitRdpmcRead reads the programmable counter selected by RCX into RDX,
// bracketed like emitRdpruRead.
func emitRdpmcRead(a *x86.Assembler) {
	a.Lfence()
	a.Rdpmc()
	a.Lfence()
	a.ShlRegImm(x86.RDX, 32)
	a.OrRegReg(x86.RDX, x86.RAX)
}

// emitLoop emits the counted measurement loop around body. The loop head is
// aligned to a 64-byte boundary and every iteration begins with a dispatch
// fence, so iteration n+1 cannot overlap iteration n.
func emitLoop(a *x86.Assembler, iters int, body func()) {
	a.MovRegImm(x86.R13, int32(iters))
	a.Align(64)
	head := a.Len()
	a.Lfence()
	body()
	a.SubRegImm8(x86.R13, 1)
	a.JneRel32(head)
	a.Lfence()
}

func checkIters(iters int) {
	if iters < 1 || iters > math.MaxInt32 {
		panic(fmt.Sprintf("gadget: iteration count %d out of range", iters))
	}
}

func checkCount(name string, n int) {
	if n < 0 {
		panic(fmt.Sprintf("gadget: negative %s count %d", name, n))
	}
}

func checkCounter(ctr int) {
	if ctr < 0 || ctr >= NumCounters {
		panic(fmt.Sprintf("gadget: counter index %d out of range", ctr))
	}
}

// ChasePair describes a gadget that walks two disjoint pointer chains while
// executing caller-supplied fragments between the dependent loads, measured
// with the free-running counter.
//
// Each loop iteration executes Outer copies of:
//
//	mov rdi, [rdi]
//	BodyA × Inner
//	mov rsi, [rsi]
//	BodyB × Inner
//
// PtrA and PtrB are the chain entry points, normally the head and middle of
// a shuffled maze so the chains stay disjoint. Scratch is loaded into R15
// for fragments that need somewhere to point.
type ChasePair struct {
	PtrA    uintptr
	PtrB    uintptr
	Scratch uintptr
	Iters   int
	Outer   int
	Inner   int
	BodyA   []byte
	BodyB   []byte
}

func chasePairImage(spec ChasePair) []byte {
	checkIters(spec.Iters)
	if spec.Outer < 1 {
		panic(fmt.Sprintf("gadget: outer unroll %d out of range", spec.Outer))
	}
	checkCount("inner unroll", spec.Inner)

	a := x86.NewAssembler()
	emitProlog(a)

	// Select APERF for every RDPRU in the gadget.
	a.MovRegImm(x86.RCX, 1)
	a.MovRegImm64(x86.RDI, uint64(spec.PtrA))
	a.MovRegImm64(x86.RSI, uint64(spec.PtrB))
	a.XorReg(x86.R14, x86.R14)
	a.MovRegImm64(x86.R15, uint64(spec.Scratch))

	emitRdpruRead(a)
	a.SubRegReg(x86.R14, x86.RDX)

	emitLoop(a, spec.Iters, func() {
		for o := 0; o < spec.Outer; o++ {
			a.MovRegMem(x86.RDI, x86.RDI, 0)
			for i := 0; i < spec.Inner; i++ {
				a.Raw(spec.BodyA...)
			}
			a.MovRegMem(x86.RSI, x86.RSI, 0)
			for i := 0; i < spec.Inner; i++ {
				a.Raw(spec.BodyB...)
			}
		}
	})

	emitRdpruRead(a)
	a.AddRegReg(x86.R14, x86.RDX)
	a.MovRegReg(x86.RAX, x86.R14)

	emitEpilog(a)
	return a.Bytes()
}

// EmitChasePair assembles the chase-pair gadget described by spec into an
// executable buffer. Invalid iteration or unroll counts panic.
func EmitChasePair(spec ChasePair) (*Buffer, error) {
	return NewBuffer(chasePairImage(spec))
}

// SimpleLoop describes a gadget that measures Head, Body × Count, Tail
// inside a counted loop with the free-running counter. There is no pointer
// chase; Scratch is loaded into R15 for fragments that store or load.
type SimpleLoop struct {
	Scratch uintptr
	Iters   int
	Head    []byte
	Body    []byte
	Count   int
	Tail    []byte
}

func simpleLoopImage(spec SimpleLoop) []byte {
	checkIters(spec.Iters)
	checkCount("body", spec.Count)

	a := x86.NewAssembler()
	emitProlog(a)

	a.MovRegImm(x86.RCX, 1)
	a.XorReg(x86.R14, x86.R14)
	a.MovRegImm64(x86.R15, uint64(spec.Scratch))

	emitRdpruRead(a)
	a.SubRegReg(x86.R14, x86.RDX)

	emitLoop(a, spec.Iters, func() {
		a.Raw(spec.Head...)
		for i := 0; i < spec.Count; i++ {
			a.Raw(spec.Body...)
		}
		a.Raw(spec.Tail...)
	})

	emitRdpruRead(a)
	a.AddRegReg(x86.R14, x86.RDX)
	a.MovRegReg(x86.RAX, x86.R14)

	emitEpilog(a)
	return a.Bytes()
}

// EmitSimpleLoop assembles the simple-loop gadget described by spec into an
// executable buffer.
func EmitSimpleLoop(spec SimpleLoop) (*Buffer, error) {
	return NewBuffer(simpleLoopImage(spec))
}

func counterFloorImage(ctr int) []byte {
	checkCounter(ctr)

	a := x86.NewAssembler()
	emitProlog(a)

	a.MovERegImm(x86.RCX, uint32(ctr))
	a.Rdpmc()
	a.Lfence()
	a.ShlRegImm(x86.RDX, 32)
	a.OrRegReg(x86.RDX, x86.RAX)
	a.SubRegReg(x86.R14, x86.RDX)

	a.Rdpmc()
	a.Lfence()
	a.ShlRegImm(x86.RDX, 32)
	a.OrRegReg(x86.RDX, x86.RAX)
	a.AddRegReg(x86.R14, x86.RDX)

	a.MovRegReg(x86.RAX, x86.R14)
	emitEpilog(a)
	return a.Bytes()
}

// EmitCounterFloor assembles a gadget that reads programmable counter ctr
// twice back to back and returns the delta: the measurement floor a counter
// shows with nothing at all in between.
func EmitCounterFloor(ctr int) (*Buffer, error) {
	return NewBuffer(counterFloorImage(ctr))
}

func counterLoopImage(ctr, iters, unroll int, body []byte) []byte {
	checkCounter(ctr)
	checkIters(iters)
	checkCount("unroll", unroll)

	a := x86.NewAssembler()
	emitProlog(a)

	a.MovERegImm(x86.RCX, uint32(ctr))
	emitRdpmcRead(a)
	a.SubRegReg(x86.R14, x86.RDX)

	emitLoop(a, iters, func() {
		for u := 0; u < unroll; u++ {
			a.Raw(body...)
		}
	})

	emitRdpmcRead(a)
	a.AddRegReg(x86.R14, x86.RDX)
	a.MovRegReg(x86.RAX, x86.R14)

	emitEpilog(a)
	return a.Bytes()
}

// EmitCounterLoop assembles a gadget that brackets a counted loop of
// body × unroll with reads of programmable counter ctr and returns the
// delta.
func EmitCounterLoop(ctr, iters, unroll int, body []byte) (*Buffer, error) {
	return NewBuffer(counterLoopImage(ctr, iters, unroll, body))
}

func counterBankImage(bank *CounterBank, iters, unroll int, body []byte) []byte {
	if bank == nil {
		panic("gadget: nil counter bank")
	}
	checkIters(iters)
	checkCount("unroll", unroll)

	a := x86.NewAssembler()
	emitProlog(a)

	a.MovRegImm64(x86.R15, uint64(bank.Addr()))

	// RAX is still zero from the prologue; store it to reset the block.
	for i := 0; i < NumCounters; i++ {
		a.MovMemReg(x86.R15, int32(i*8), x86.RAX)
	}
	for i := 0; i < NumCounters; i++ {
		a.MovERegImm(x86.RCX, uint32(i))
		emitRdpmcRead(a)
		a.SubMemReg(x86.R15, int32(i*8), x86.RDX)
	}

	emitLoop(a, iters, func() {
		for u := 0; u < unroll; u++ {
			a.Raw(body...)
		}
	})

	for i := 0; i < NumCounters; i++ {
		a.MovERegImm(x86.RCX, uint32(i))
		emitRdpmcRead(a)
		a.AddMemReg(x86.R15, int32(i*8), x86.RDX)
	}

	a.XorReg(x86.RAX, x86.RAX)
	emitEpilog(a)
	return a.Bytes()
}

// EmitCounterBank assembles a gadget that brackets a counted loop of
// body × unroll with reads of all six programmable counters, writing the
// per-counter deltas into bank and returning zero in RAX.
//
// The bank's address is baked into the code; keep the bank reachable for
// the life of the buffer.
func EmitCounterBank(bank *CounterBank, iters, unroll int, body []byte) (*Buffer, error) {
	return NewBuffer(counterBankImage(bank, iters, unroll, body))
}
