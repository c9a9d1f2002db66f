// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build !linux

package pmc

import (
	"fmt"

	"github.com/go-logr/logr"
)

// Context is an open handle to the kernel module's counter device. The
// device only exists on Linux; on other platforms Open always fails.
type Context struct{}

// Open reports ErrNotPresent on non-Linux platforms.
func Open(logger logr.Logger, path string) (*Context, error) {
	if path == "" {
		path = DevicePath
	}
	return nil, fmt.Errorf("open %s: %w", path, ErrNotPresent)
}

// Write reports ErrNotPresent on non-Linux platforms.
func (c *Context) Write(set CounterSet) error {
	return ErrNotPresent
}

// Clear reports ErrNotPresent on non-Linux platforms.
func (c *Context) Clear() error {
	return ErrNotPresent
}

// Descriptor returns the empty descriptor on non-Linux platforms.
func (c *Context) Descriptor() CounterSet {
	return CounterSet{}
}

// Close is a no-op on non-Linux platforms.
func (c *Context) Close() error {
	return nil
}
