// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package gadget

// call transfers control to emitted code at addr and returns the value left
// in RAX. The code runs on the calling goroutine's stack and must preserve
// callee-saved registers.
//
//go:noescape
func call(addr uintptr) uint64
