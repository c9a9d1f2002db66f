// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build linux

package kernel

import (
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

// GetCurrentVersion returns the running kernel version from uname(2).
func GetCurrentVersion() (*Version, error) {
	var utsname unix.Utsname
	if err := unix.Uname(&utsname); err != nil {
		return nil, fmt.Errorf("failed to get uname: %w", err)
	}

	release := strings.TrimRight(string(utsname.Release[:]), "\x00")
	return ParseVersion(release)
}
