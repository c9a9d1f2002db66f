// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package pmc

import "errors"

const (
	// DevicePath is where the kernel module exposes its character device.
	DevicePath = "/dev/lamina"

	// TargetCore is the logical CPU whose counters the kernel module
	// programs. The module hardcodes core 0; measurement code must pin
	// itself there before running anything that reads the counters.
	TargetCore = 0

	// cmdWriteCtl is the device's single ioctl command: replace the
	// contents of all six PERF_CTL MSRs with the attached control words.
	cmdWriteCtl = 0x1000
)

var (
	// ErrNotPresent indicates the counter device does not exist, which
	// almost always means the kernel module is not loaded.
	ErrNotPresent = errors.New("counter device not present")

	// ErrAccessDenied indicates the counter device exists but the caller
	// may not open it.
	ErrAccessDenied = errors.New("counter device access denied")
)
