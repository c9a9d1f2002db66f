// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build linux

package pmc

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"unsafe"

	"github.com/go-logr/logr"
	"golang.org/x/sys/unix"
)

// mu serializes every operation against the counter device. The kernel
// module applies descriptor writes to a single fixed core, so interleaved
// writers would silently reprogram each other's counters.
var mu sync.Mutex

// Context is an open handle to the kernel module's counter device.
//
// A Context remembers the last descriptor it successfully wrote. Closing a
// Context always writes the empty descriptor first, so counters never stay
// programmed after their owner goes away.
type Context struct {
	logger logr.Logger
	fd     int
	desc   CounterSet
	closed bool
}

// Open opens the counter device at path, or at DevicePath when path is
// empty.
//
// A missing device node reports ErrNotPresent; a node the caller may not
// open reports ErrAccessDenied. Both are errors.Is-matchable through the
// returned error.
func Open(logger logr.Logger, path string) (*Context, error) {
	if path == "" {
		path = DevicePath
	}

	mu.Lock()
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	mu.Unlock()
	if err != nil {
		switch {
		case errors.Is(err, unix.ENOENT), errors.Is(err, unix.ENODEV):
			return nil, fmt.Errorf("open %s: %w", path, ErrNotPresent)
		case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
			return nil, fmt.Errorf("open %s: %w", path, ErrAccessDenied)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	logger.V(1).Info("opened counter device", "path", path)
	return &Context{logger: logger, fd: fd}, nil
}

// Write programs all six counters from the descriptor in one ioctl. On
// success the descriptor becomes the Context's current state.
func (c *Context) Write(set CounterSet) error {
	mu.Lock()
	defer mu.Unlock()

	if c.closed {
		return fmt.Errorf("counter device: %w", os.ErrClosed)
	}

	words := set.Words()
	status, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(c.fd), cmdWriteCtl,
		uintptr(unsafe.Pointer(&words)))
	if errno != 0 {
		return fmt.Errorf("failed to write counter descriptor: %w", errno)
	}
	if status != 0 {
		return fmt.Errorf("counter descriptor write rejected: status %d", status)
	}

	c.desc = set
	c.logger.V(1).Info("programmed counter descriptor", "active", set.Active())
	return nil
}

// Clear programs the empty descriptor, disabling all six counters.
func (c *Context) Clear() error {
	return c.Write(CounterSet{})
}

// Descriptor returns the last descriptor successfully written through this
// Context.
func (c *Context) Descriptor() CounterSet {
	mu.Lock()
	defer mu.Unlock()
	return c.desc
}

// Close clears the counters and releases the device. It is safe to call
// more than once; calls after the first return nil.
func (c *Context) Close() error {
	if c == nil || c.closed {
		return nil
	}

	var errs []error
	if err := c.Clear(); err != nil {
		errs = append(errs, fmt.Errorf("failed to clear counters: %w", err))
	}

	mu.Lock()
	c.closed = true
	if err := unix.Close(c.fd); err != nil {
		errs = append(errs, fmt.Errorf("failed to close counter device: %w", err))
	}
	c.fd = -1
	mu.Unlock()

	return errors.Join(errs...)
}
