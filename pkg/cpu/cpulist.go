// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package cpu provides the low-level CPU control primitives the measurement
// code depends on: pinning the executing thread to a single core, discovering
// which cores are online, flushing cache lines, and serialized time-stamp
// counter reads.
package cpu

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCPUList parses a Linux kernel CPU list format string into a slice of
// CPU IDs. The format supports:
//   - Individual CPUs: "0", "1", "2"
//   - Ranges: "0-3" (includes 0, 1, 2, 3)
//   - Comma-separated combinations: "0,2-4,7"
//   - Empty string returns empty slice (not nil)
//
// This format is used in /sys/devices/system/cpu/online and
// /proc/self/status (Cpus_allowed_list).
//
// Examples:
//   - "0" -> [0]
//   - "0-3" -> [0, 1, 2, 3]
//   - "0,2-4,7" -> [0, 2, 3, 4, 7]
//   - "" -> []
func ParseCPUList(cpuList string) ([]int, error) {
	cpuList = strings.TrimSpace(cpuList)
	if cpuList == "" {
		return []int{}, nil
	}

	var cpus []int
	for _, part := range strings.Split(cpuList, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if strings.Contains(part, "-") {
			// Range format: "0-3"
			rangeParts := strings.Split(part, "-")
			if len(rangeParts) != 2 {
				return nil, fmt.Errorf("invalid CPU range: %s", part)
			}

			start, err := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
			if err != nil {
				return nil, fmt.Errorf("invalid CPU number in range: %s", rangeParts[0])
			}

			end, err := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
			if err != nil {
				return nil, fmt.Errorf("invalid CPU number in range: %s", rangeParts[1])
			}

			if start > end {
				return nil, fmt.Errorf("invalid CPU range (start > end): %s", part)
			}

			// Single-element ranges like "5-5" are accepted and treated as [5].
			// The kernel never produces them, but other input sources might.
			for cpu := start; cpu <= end; cpu++ {
				cpus = append(cpus, cpu)
			}
		} else {
			// Single CPU
			cpu, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid CPU number: %s", part)
			}
			cpus = append(cpus, cpu)
		}
	}

	return cpus, nil
}
