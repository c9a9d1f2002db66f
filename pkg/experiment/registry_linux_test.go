// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package experiment_test

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigenform/lamina/pkg/experiment"
)

type fakeExperiment struct {
	name string
}

func (f *fakeExperiment) Name() string        { return f.name }
func (f *fakeExperiment) Description() string { return "registry test stand-in" }

func (f *fakeExperiment) Capabilities() experiment.Capabilities {
	return experiment.Capabilities{}
}

func (f *fakeExperiment) Run(ctx context.Context) (*experiment.Result, error) {
	return &experiment.Result{Name: f.name}, nil
}

func fakeFactory(name string) experiment.Factory {
	return func(logger logr.Logger, config experiment.Config) (experiment.Experiment, error) {
		return &fakeExperiment{name: name}, nil
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	experiment.Register("fake-basic", fakeFactory("fake-basic"))

	factory, err := experiment.Get("fake-basic")
	require.NoError(t, err)

	exp, err := factory(logr.Discard(), experiment.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "fake-basic", exp.Name())

	result, err := exp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fake-basic", result.Name)
}

func TestRegistryDuplicatePanics(t *testing.T) {
	experiment.Register("fake-dup", fakeFactory("fake-dup"))
	assert.Panics(t, func() {
		experiment.Register("fake-dup", fakeFactory("fake-dup"))
	})
}

func TestRegistryGetMissing(t *testing.T) {
	_, err := experiment.Get("no-such-experiment")
	assert.Error(t, err)
}

func TestRegistryNamesSorted(t *testing.T) {
	experiment.Register("fake-zz", fakeFactory("fake-zz"))
	experiment.Register("fake-aa", fakeFactory("fake-aa"))

	names := experiment.Names()
	require.GreaterOrEqual(t, len(names), 2)
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "fake-aa")
	assert.Contains(t, names, "fake-zz")
}
