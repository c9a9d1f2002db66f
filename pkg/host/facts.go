// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package host identifies the machine a measurement ran on: a stable
// machine ID, the running kernel, and the CPU as CPUID reports it.
package host

import (
	"os"

	"github.com/go-logr/logr"
	"github.com/klauspost/cpuid/v2"

	"github.com/eigenform/lamina/pkg/kernel"
)

// Facts describes the host for a run's provenance header and for gating
// measurement on supported parts.
type Facts struct {
	MachineID     string
	Hostname      string
	KernelVersion string

	VendorID      cpuid.Vendor
	Vendor        string
	BrandName     string
	Family        int
	Model         int
	Stepping      int
	PhysicalCores int
	LogicalCores  int
	HasRDPRU      bool
}

// Collect gathers host facts best-effort: fields that cannot be
// determined stay at their zero values and are logged at V(1). Results
// from a machine without a machine ID or kernel version are still
// usable, just less traceable.
func Collect(logger logr.Logger) Facts {
	facts := Facts{
		VendorID:      cpuid.CPU.VendorID,
		Vendor:        cpuid.CPU.VendorString,
		BrandName:     cpuid.CPU.BrandName,
		Family:        cpuid.CPU.Family,
		Model:         cpuid.CPU.Model,
		Stepping:      cpuid.CPU.Stepping,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		LogicalCores:  cpuid.CPU.LogicalCores,
		HasRDPRU:      cpuid.CPU.Supports(cpuid.RDPRU),
	}

	if id, err := machineID(); err != nil {
		logger.V(1).Info("machine id unavailable", "error", err.Error())
	} else {
		facts.MachineID = id
	}

	if name, err := os.Hostname(); err != nil {
		logger.V(1).Info("hostname unavailable", "error", err.Error())
	} else {
		facts.Hostname = name
	}

	if v, err := kernel.GetCurrentVersion(); err != nil {
		logger.V(1).Info("kernel version unavailable", "error", err.Error())
	} else {
		facts.KernelVersion = v.Raw
	}

	return facts
}

// SupportsMeasurement reports whether the timing gadgets can run at all:
// an AMD part with RDPRU.
func (f Facts) SupportsMeasurement() bool {
	return f.VendorID == cpuid.AMD && f.HasRDPRU
}

// IsZen2Family reports whether the part is AMD family 17h, the family the
// event catalog and counter layout were written against.
func (f Facts) IsZen2Family() bool {
	return f.VendorID == cpuid.AMD && f.Family == 0x17
}
