// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build amd64

package cpu_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"

	"github.com/eigenform/lamina/pkg/cpu"
)

func TestReadTSCAdvances(t *testing.T) {
	first := cpu.ReadTSC()
	second := cpu.ReadTSC()
	assert.NotZero(t, first)
	assert.Greater(t, second, first)
}

func TestFlushRange(t *testing.T) {
	// Flushing valid memory must be harmless regardless of alignment.
	buf := make([]byte, 4096)
	addr := uintptr(unsafe.Pointer(&buf[0]))

	cpu.FlushRange(addr, len(buf))
	cpu.FlushRange(addr+3, 100)
	cpu.FlushRange(addr, 0)

	for i := range buf {
		assert.Zero(t, buf[i])
	}
}
