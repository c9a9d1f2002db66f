// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package experiments provides the built-in measurement experiments:
// pointer-chase padding sweeps (rob, prf, stq, ldq), a bare loop-cost
// sweep (simple), and a retired-instruction counter check (retired).
//
// Importing this package populates the experiment registry; every driver
// registers itself in init(). The drivers emit and execute code, so they
// build only on linux/amd64.
package experiments
