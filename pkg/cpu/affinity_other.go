// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build !linux

package cpu

import "fmt"

// PinToCore is only supported on Linux.
func PinToCore(core int) error {
	return fmt.Errorf("core pinning is not supported on this platform")
}

// OnlineCPUs is only supported on Linux.
func OnlineCPUs(sysPath string) ([]int, error) {
	return nil, fmt.Errorf("online CPU discovery is not supported on this platform")
}
