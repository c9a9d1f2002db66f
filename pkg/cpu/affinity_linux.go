// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build linux

package cpu

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sys/unix"
)

// PinToCore binds the calling goroutine to a single logical CPU.
//
// Cycle counts and performance-counter values are core-local, so measurement
// code must establish affinity once, before emitting or running any gadget,
// and never migrate afterwards. The goroutine is locked to its OS thread and
// stays locked for the life of the process.
func PinToCore(core int) error {
	if core < 0 {
		return fmt.Errorf("invalid core index %d", core)
	}

	runtime.LockOSThread()

	var set unix.CPUSet
	set.Zero()
	set.Set(core)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("failed to pin thread to core %d: %w", core, err)
	}
	return nil
}

// OnlineCPUs returns the logical CPUs currently online, read from the
// sysfs tree rooted at sysPath (normally "/sys").
func OnlineCPUs(sysPath string) ([]int, error) {
	path := filepath.Join(sysPath, "devices", "system", "cpu", "online")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cpus, err := ParseCPUList(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cpus, nil
}
