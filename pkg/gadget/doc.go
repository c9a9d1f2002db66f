// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package gadget emits self-contained x86-64 measurement routines into
// executable memory at runtime.
//
// A gadget is a parameterless function: it saves and restores the registers
// the Go runtime cares about, zeroes every general-purpose register, reads a
// free-running or programmable counter before and after a measured region,
// and returns the unsigned delta in RAX. Templates in this package build the
// scaffolding; callers contribute only the measured region, as raw
// instruction fragments encoded with the x86 subpackage.
//
// All gadgets obey one register contract:
//
//	RCX   counter selector (RDPRU register, or RDPMC counter index)
//	RDI   first chase pointer
//	RSI   second chase pointer
//	R13   loop counter
//	R14   measurement accumulator
//	R15   free pointer (scratch or result block)
//	RAX   RDX  clobbered by every counter read
//
// Fragments may use RAX, RBX, RDX, RBP and R8 through R12 freely, may follow
// RDI/RSI or dereference R15, and must leave RCX, R13 and R14 alone.
//
// The scaffolding cost is fixed: a 26-instruction prologue (8 pushes, two
// fences, 15 zeroing xors, one more fence), a 10-instruction epilogue
// (8 pops, ret, trailing fence), and 3 loop-maintenance instructions per
// iteration (the fence at the loop head, the decrement and the backward
// branch). Counter deltas therefore carry a constant offset that does not
// depend on the measured region's size.
package gadget
