// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package gadget

import "unsafe"

// Buffer holds emitted code in executable memory.
//
// The backing mapping is created writable, filled, and then sealed
// read-execute, so a live Buffer is never writable. A Buffer must not be
// used after Close.
type Buffer struct {
	mem  []byte // whole mapping, page-granular
	code int    // bytes of emitted code at the start of mem
}

// Addr returns the entry point of the emitted code.
func (b *Buffer) Addr() uintptr {
	if b.mem == nil {
		panic("gadget: buffer used after Close")
	}
	return uintptr(unsafe.Pointer(&b.mem[0]))
}

// Len returns the emitted code size in bytes.
func (b *Buffer) Len() int { return b.code }

// Bytes returns the emitted code. The returned slice aliases the sealed
// mapping and must not be written to.
func (b *Buffer) Bytes() []byte {
	if b.mem == nil {
		panic("gadget: buffer used after Close")
	}
	return b.mem[:b.code]
}

// Call transfers control to the emitted code and returns the value it
// leaves in RAX. The code must follow the register contract described in
// the package documentation; in particular it must preserve callee-saved
// registers, which every template in this package does.
func (b *Buffer) Call() uint64 {
	return call(b.Addr())
}
