// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package experiments_test

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigenform/lamina/pkg/experiment"
	_ "github.com/eigenform/lamina/pkg/experiment/experiments"
)

var driverNames = []string{"ldq", "prf", "retired", "rob", "simple", "stq"}

func TestDriversRegistered(t *testing.T) {
	names := experiment.Names()
	for _, want := range driverNames {
		assert.Contains(t, names, want)
	}
}

func TestDriversConstruct(t *testing.T) {
	for _, name := range driverNames {
		t.Run(name, func(t *testing.T) {
			factory, err := experiment.Get(name)
			require.NoError(t, err)

			// Construction with a zero config must succeed; defaults are
			// applied by the factory. Nothing runs here, so no hardware is
			// touched.
			exp, err := factory(logr.Discard(), experiment.Config{})
			require.NoError(t, err)
			assert.Equal(t, name, exp.Name())
			assert.NotEmpty(t, exp.Description())
		})
	}
}

func TestOnlyRetiredNeedsCounterDevice(t *testing.T) {
	for _, name := range driverNames {
		factory, err := experiment.Get(name)
		require.NoError(t, err)
		exp, err := factory(logr.Discard(), experiment.DefaultConfig())
		require.NoError(t, err)

		caps := exp.Capabilities()
		assert.Equal(t, name == "retired", caps.RequiresCounterDevice, name)
	}
}

func TestDriverRejectsBadConfig(t *testing.T) {
	factory, err := experiment.Get("rob")
	require.NoError(t, err)

	_, err = factory(logr.Discard(), experiment.Config{Core: -1})
	assert.Error(t, err)
}

func TestRunHonorsCancelledContext(t *testing.T) {
	factory, err := experiment.Get("simple")
	require.NoError(t, err)
	exp, err := factory(logr.Discard(), experiment.DefaultConfig())
	require.NoError(t, err)

	// The sweep checks the context before emitting its first gadget, so
	// a pre-cancelled run executes nothing.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = exp.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
