// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build !linux

package chase

// allocCells falls back to an ordinary heap allocation. Go's collector does
// not move heap objects, so cell addresses stay stable, but page alignment
// is not guaranteed off Linux.
func allocCells(n int) ([]uintptr, func() error, error) {
	return make([]uintptr, n), func() error { return nil }, nil
}
