// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package pmc models the programmable performance counters of AMD Zen 2
// cores: the PERF_CTL control-word layout, a catalog of countable events,
// the six-slot descriptor covering the full counter unit, and the channel
// to the kernel module that writes the descriptor into the hardware.
//
// The kernel module exposes a character device (see DevicePath) whose single
// ioctl command accepts six 64-bit control words and applies them atomically
// to the PERF_CTL MSRs of TargetCore. Everything in this package other than
// Context is pure data manipulation and builds on any platform.
package pmc
