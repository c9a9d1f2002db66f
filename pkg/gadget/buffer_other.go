// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build !linux

package gadget

import "errors"

// NewBuffer reports an error on platforms without the anonymous-mapping
// path used to stage executable code.
func NewBuffer(code []byte) (*Buffer, error) {
	return nil, errors.New("executable code buffers require linux")
}

// Close is a no-op on platforms where NewBuffer never succeeds.
func (b *Buffer) Close() error {
	return nil
}
