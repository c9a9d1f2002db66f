// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package gadget

import (
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/arch/x86/x86asm"
)

// Disasm writes a disassembly listing of the emitted code to w, one
// instruction per line with its runtime address and raw bytes. Bytes the
// decoder rejects are listed individually and decoding resumes at the next
// byte, so a listing is always produced.
func (b *Buffer) Disasm(w io.Writer) error {
	code := b.Bytes()
	base := uint64(b.Addr())

	for off := 0; off < len(code); {
		var text string
		var size int
		if inst, err := x86asm.Decode(code[off:], 64); err != nil {
			text = fmt.Sprintf(".byte 0x%02x", code[off])
			size = 1
		} else {
			text = x86asm.IntelSyntax(inst, base+uint64(off), nil)
			size = inst.Len
		}

		raw := hex.EncodeToString(code[off : off+size])
		if _, err := fmt.Fprintf(w, "%016x: %-32s %s\n", base+uint64(off), raw, text); err != nil {
			return err
		}
		off += size
	}
	return nil
}
