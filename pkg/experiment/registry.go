// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package experiment

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"sort"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

var (
	registry       = make(map[string]Factory)
	registryLogger = stdr.New(log.New(os.Stderr, "[experiment.registry] ", log.LstdFlags))
)

// Register adds a factory to the global registry under name.
//
// This function is called during package initialization (typically in
// init() functions) so that importing an experiments package is enough to
// populate the registry.
//
// On non-Linux platforms, this is a no-op to allow unit tests to run
// anywhere. It will panic if an experiment with the given name is already
// registered on Linux.
func Register(name string, factory Factory) {
	// No-op on non-Linux platforms
	if runtime.GOOS != "linux" {
		registryLogger.V(1).Info("Skipping experiment registration on non-Linux platform",
			"experiment", name, "platform", runtime.GOOS)
		return
	}

	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("Experiment %s already registered", name))
	}
	registry[name] = factory
}

// Get retrieves the factory registered under name.
func Get(name string) (Factory, error) {
	factory, exists := registry[name]
	if !exists {
		return nil, fmt.Errorf("experiment %s not found", name)
	}
	return factory, nil
}

// Names returns the registered experiment names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetRegistryLogger allows setting a custom logger for the registry.
// This should be called before any experiments are registered.
func SetRegistryLogger(logger logr.Logger) {
	registryLogger = logger
}
