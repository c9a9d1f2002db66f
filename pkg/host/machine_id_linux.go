// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build linux

package host

import (
	"fmt"
	"os"
	"strings"
)

// machineID returns a unique machine ID of the local system that is set
// during installation or boot.
// It attempts multiple sources in order of preference:
// 1. /etc/machine-id (systemd standard, most reliable)
// 2. /var/lib/dbus/machine-id (D-Bus machine ID, fallback)
func machineID() (string, error) {
	// This is the systemd standard and is persistent across reboots
	if data, err := os.ReadFile("/etc/machine-id"); err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	}

	if data, err := os.ReadFile("/var/lib/dbus/machine-id"); err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	}

	return "", fmt.Errorf("machine-id not found")
}
