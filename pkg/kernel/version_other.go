// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build !linux

package kernel

import "fmt"

// GetCurrentVersion is only implemented on Linux.
func GetCurrentVersion() (*Version, error) {
	return nil, fmt.Errorf("kernel version detection requires linux")
}
