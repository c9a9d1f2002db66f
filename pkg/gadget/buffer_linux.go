// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build linux

package gadget

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// NewBuffer copies code into a fresh anonymous mapping and seals it
// read-execute. The mapping is page-granular; code beyond len(code) is
// whatever the kernel zero-filled.
func NewBuffer(code []byte) (*Buffer, error) {
	if len(code) == 0 {
		return nil, errors.New("empty code buffer")
	}

	mem, err := unix.Mmap(-1, 0, len(code),
		unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("failed to map %d byte code buffer: %w", len(code), err)
	}

	copy(mem, code)

	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		munmapErr := unix.Munmap(mem)
		return nil, errors.Join(
			fmt.Errorf("failed to seal code buffer: %w", err), munmapErr)
	}

	return &Buffer{mem: mem, code: len(code)}, nil
}

// Close unmaps the buffer. Close is idempotent.
func (b *Buffer) Close() error {
	if b.mem == nil {
		return nil
	}
	mem := b.mem
	b.mem = nil
	return unix.Munmap(mem)
}
