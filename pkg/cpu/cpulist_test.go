// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package cpu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigenform/lamina/pkg/cpu"
)

func TestParseCPUList(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []int
		wantErr bool
	}{
		{
			name:  "single cpu",
			input: "0",
			want:  []int{0},
		},
		{
			name:  "simple range",
			input: "0-3",
			want:  []int{0, 1, 2, 3},
		},
		{
			name:  "mixed list",
			input: "0,2-4,7",
			want:  []int{0, 2, 3, 4, 7},
		},
		{
			name:  "whitespace tolerated",
			input: " 0, 2-4 ,7\n",
			want:  []int{0, 2, 3, 4, 7},
		},
		{
			name:  "single element range",
			input: "5-5",
			want:  []int{5},
		},
		{
			name:  "empty string",
			input: "",
			want:  []int{},
		},
		{
			name:    "reversed range",
			input:   "4-2",
			wantErr: true,
		},
		{
			name:    "garbage",
			input:   "zen2",
			wantErr: true,
		},
		{
			name:    "malformed range",
			input:   "1-2-3",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cpu.ParseCPUList(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
