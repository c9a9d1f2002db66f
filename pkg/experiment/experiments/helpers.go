// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build linux && amd64

package experiments

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"

	"github.com/eigenform/lamina/pkg/gadget"
	"github.com/eigenform/lamina/pkg/gadget/x86"
)

// frag assembles one instruction sequence for use as a measured fragment.
func frag(emit func(*x86.Assembler)) []byte {
	a := x86.NewAssembler()
	emit(a)
	return a.Bytes()
}

// nop1 is the single-byte NOP fragment used by the padding sweeps.
var nop1 = frag(func(a *x86.Assembler) { a.Nop(1) })

// dumpGadget prints a disassembly of buf to stdout.
func dumpGadget(logger logr.Logger, name string, buf *gadget.Buffer) {
	fmt.Printf("%s gadget, %d bytes:\n", name, buf.Len())
	if err := buf.Disasm(os.Stdout); err != nil {
		logger.Error(err, "disassembling gadget", "gadget", name)
	}
}
