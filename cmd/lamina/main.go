// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build linux

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"

	"github.com/eigenform/lamina/pkg/cpu"
	"github.com/eigenform/lamina/pkg/experiment"
	_ "github.com/eigenform/lamina/pkg/experiment/experiments"
	"github.com/eigenform/lamina/pkg/host"
	"github.com/eigenform/lamina/pkg/pmc"
)

var (
	experimentName  string
	core            int
	devicePath      string
	dumpGadgets     bool
	verbose         bool
	force           bool
	listExperiments bool
	listEvents      bool
)

func init() {
	flag.StringVar(&experimentName, "experiment", "", "Experiment to run (see -list)")
	flag.IntVar(&core, "cpu", pmc.TargetCore, "Logical CPU to pin the run to")
	flag.StringVar(&devicePath, "device", pmc.DevicePath, "Counter control device node")
	flag.BoolVar(&dumpGadgets, "dump", false, "Disassemble each gadget before running it")
	flag.BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&force, "force", false, "Run even when the CPU is unsupported")
	flag.BoolVar(&listExperiments, "list", false, "List available experiments and exit")
	flag.BoolVar(&listEvents, "list-events", false, "List documented counter events and exit")
}

func main() {
	flag.Parse()

	// Setup logging
	var logger logr.Logger
	if verbose {
		zapLog, _ := zap.NewDevelopment()
		logger = zapr.NewLogger(zapLog)
	} else {
		logger = logr.Discard()
	}

	if listExperiments {
		listAvailableExperiments(logger)
		return
	}

	if listEvents {
		listCatalogEvents()
		return
	}

	if experimentName == "" {
		fmt.Fprintf(os.Stderr, "Error: no experiment selected\n")
		fmt.Fprintf(os.Stderr, "Run with -list to see available experiments\n")
		os.Exit(1)
	}

	factory, err := experiment.Get(experimentName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Run with -list to see available experiments\n")
		os.Exit(1)
	}

	config := experiment.Config{
		Core:        core,
		DevicePath:  devicePath,
		DumpGadgets: dumpGadgets,
	}

	exp, err := factory(logger, config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating experiment %q: %v\n", experimentName, err)
		os.Exit(1)
	}

	facts := host.Collect(logger)
	printProvenance(facts)

	if !facts.SupportsMeasurement() || !facts.IsZen2Family() {
		if !force {
			fmt.Fprintf(os.Stderr, "Error: measurement needs an AMD family 17h part with RDPRU\n")
			fmt.Fprintf(os.Stderr, "Re-run with -force to measure anyway\n")
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Warning: unsupported CPU, results may be meaningless\n")
	}

	caps := exp.Capabilities()
	if caps.RequiresRoot && os.Geteuid() != 0 {
		fmt.Fprintf(os.Stderr, "Warning: %s normally requires root\n", exp.Name())
	}

	if err := cpu.PinToCore(config.Core); err != nil {
		fmt.Fprintf(os.Stderr, "Error pinning to core %d: %v\n", config.Core, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintf(os.Stderr, "\nReceived interrupt, stopping after the current sweep point...\n")
		cancel()
	}()

	fmt.Printf("=== %s: %s ===\n", exp.Name(), exp.Description())

	result, err := exp.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "Interrupted\n")
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error running %s: %v\n", exp.Name(), err)
		os.Exit(1)
	}

	for _, row := range result.Rows {
		fmt.Printf("%s: min=%.3f avg=%.3f max=%.3f\n", row.Label, row.Min, row.Mean, row.Max)
	}
}

// printProvenance records where a result came from, so saved output stays
// interpretable after the machine or kernel changes.
func printProvenance(facts host.Facts) {
	fmt.Printf("=== Host ===\n")
	if facts.MachineID != "" {
		fmt.Printf("Machine: %s\n", facts.MachineID)
	}
	if facts.Hostname != "" {
		fmt.Printf("Hostname: %s\n", facts.Hostname)
	}
	if facts.KernelVersion != "" {
		fmt.Printf("Kernel: %s\n", facts.KernelVersion)
	}
	fmt.Printf("CPU: %s (family 0x%02x model 0x%02x stepping %d)\n",
		facts.BrandName, facts.Family, facts.Model, facts.Stepping)
	fmt.Printf("Cores: %d physical, %d logical\n", facts.PhysicalCores, facts.LogicalCores)
	if !facts.HasRDPRU {
		fmt.Printf("RDPRU: not supported\n")
	}
	fmt.Printf("\n")
}

func listAvailableExperiments(logger logr.Logger) {
	fmt.Println("=== Available Experiments ===")

	for _, name := range experiment.Names() {
		factory, err := experiment.Get(name)
		if err != nil {
			continue
		}
		exp, err := factory(logger, experiment.DefaultConfig())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error describing %q: %v\n", name, err)
			continue
		}

		needs := ""
		if exp.Capabilities().RequiresCounterDevice {
			needs = " [counter device]"
		}
		fmt.Printf("  %-10s %s%s\n", name, exp.Description(), needs)
	}
}

func listCatalogEvents() {
	fmt.Println("=== Documented Counter Events ===")

	for _, id := range pmc.Catalog() {
		fmt.Printf("  0x%03x %-22s %s\n", uint16(id), id.String(), id.Describe())
	}
}
