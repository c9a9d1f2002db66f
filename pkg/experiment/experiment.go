// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package experiment

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/eigenform/lamina/pkg/measure"
	"github.com/eigenform/lamina/pkg/pmc"
)

// Experiment is one self-contained measurement program: it emits its own
// gadgets, walks its own sweep, and reports one row per sweep point.
// Implementations assume the calling goroutine is already pinned to the
// target core and locked to its OS thread.
type Experiment interface {
	Name() string
	Description() string
	Capabilities() Capabilities

	// Run executes the full sweep. ctx is only checked between sweep
	// points; a gadget invocation is never interrupted.
	Run(ctx context.Context) (*Result, error)
}

// Capabilities describes what an experiment needs from the host beyond a
// pinned core on a supported part.
type Capabilities struct {
	// RequiresRoot is set when the experiment executes instructions that
	// fault in unprivileged contexts unless the kernel has been configured
	// otherwise (RDPMC outside of perf, for instance).
	RequiresRoot bool

	// RequiresCounterDevice is set when the experiment programs the
	// performance counters through the counter control device.
	RequiresCounterDevice bool
}

// Config carries the per-run settings every experiment shares.
type Config struct {
	// Core is the logical CPU the run is pinned to. The counter control
	// device only programs counters on its fixed target core, so
	// counter-based experiments must run there.
	Core int

	// DevicePath is the counter control device node.
	DevicePath string

	// DumpGadgets prints a disassembly of each emitted gadget before it
	// runs.
	DumpGadgets bool
}

// DefaultConfig returns the default experiment configuration.
func DefaultConfig() Config {
	return Config{
		Core:       pmc.TargetCore,
		DevicePath: pmc.DevicePath,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.DevicePath == "" {
		c.DevicePath = pmc.DevicePath
	}
}

// Validate reports whether the configuration is usable.
func (c *Config) Validate() error {
	if c.Core < 0 {
		return fmt.Errorf("core must be non-negative, got %d", c.Core)
	}
	if c.DevicePath == "" {
		return fmt.Errorf("device path must not be empty")
	}
	return nil
}

// Result holds everything an experiment produced.
type Result struct {
	Name string
	Rows []Row
}

// Row is one sweep point: its label and the summarized distribution
// measured there.
type Row struct {
	Label string
	measure.Summary
}

// Factory constructs an experiment instance from a logger and the shared
// configuration.
type Factory func(logger logr.Logger, config Config) (Experiment, error)
