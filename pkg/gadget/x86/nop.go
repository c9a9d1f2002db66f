// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package x86

import "fmt"

// nops holds the canonical multi-byte no-op encodings, indexed by width-1.
// Widths above 8 are the 8-byte form under 66h prefixes; width 10 and up
// also carry a CS segment override, matching the forms hardware decodes as
// a single op.
var nops = [15][]byte{
	{0x90},
	{0x66, 0x90},
	{0x0f, 0x1f, 0x00},
	{0x0f, 0x1f, 0x40, 0x00},
	{0x0f, 0x1f, 0x44, 0x00, 0x00},
	{0x66, 0x0f, 0x1f, 0x44, 0x00, 0x00},
	{0x0f, 0x1f, 0x80, 0x00, 0x00, 0x00, 0x00},
	{0x0f, 0x1f, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00},
	{0x66, 0x0f, 0x1f, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00},
	{0x66, 0x2e, 0x0f, 0x1f, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00},
	{0x66, 0x66, 0x2e, 0x0f, 0x1f, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00},
	{0x66, 0x66, 0x66, 0x2e, 0x0f, 0x1f, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00},
	{0x66, 0x66, 0x66, 0x66, 0x2e, 0x0f, 0x1f, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00},
	{0x66, 0x66, 0x66, 0x66, 0x66, 0x2e, 0x0f, 0x1f, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00},
	{0x66, 0x66, 0x66, 0x66, 0x66, 0x66, 0x2e, 0x0f, 0x1f, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00},
}

// Nop emits a single no-op instruction of exactly width bytes, 1 through 15.
func (a *Assembler) Nop(width int) {
	if width < 1 || width > len(nops) {
		panic(fmt.Sprintf("x86: no %d-byte nop encoding", width))
	}
	a.emit(nops[width-1]...)
}

// Align pads the instruction stream to the next multiple of boundary using
// the widest no-ops that fit. Padding with single-op no-ops keeps aligned
// loop entries cheap to decode when execution falls through the pad.
func (a *Assembler) Align(boundary int) {
	if boundary <= 0 {
		panic(fmt.Sprintf("x86: invalid alignment boundary %d", boundary))
	}
	pad := (boundary - a.Len()%boundary) % boundary
	for pad > 0 {
		w := pad
		if w > len(nops) {
			w = len(nops)
		}
		a.Nop(w)
		pad -= w
	}
}
