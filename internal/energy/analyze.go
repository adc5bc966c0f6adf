package energy

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"

	"powertrace/internal/trace"

	"gonum.org/v1/gonum/stat"
)

// Options controls an analysis.
type Options struct {
	Device     int // reference device for detection and the advanced estimate
	Threshold  float64
	Margins    Margins
	Rule       Rule
	Alignment  trace.Alignment
	SimpleOnly bool // skip activity detection and the advanced estimate
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Threshold: DefaultThreshold,
		Margins:   DefaultMargins,
		Rule:      RuleTrapezoid,
		Alignment: trace.AlignIndex,
	}
}

// DeviceSummary describes one device of the averaged trace.
type DeviceSummary struct {
	Device int
	Mean   float64 // watts over the whole averaged trace
	StdDev float64 // population standard deviation in watts
	Kernel Estimate
}

// Analysis is the result of analyzing a set of repeated runs.
type Analysis struct {
	Options  Options
	Runs     int
	Averaged trace.Trace
	Kernel   Window
	Advanced *Advanced // nil when Options.SimpleOnly is set
	Simple   Estimate  // reference device over the kernel window
	Devices  []DeviceSummary
}

// Analyze averages the raw runs and estimates the average power of the reference device,
// then summarizes every device over the kernel window.
func Analyze(raw []trace.Trace, opts Options) (Analysis, error) {
	averaged, err := trace.AverageWith(raw, opts.Alignment)
	if err != nil {
		return Analysis{}, fmt.Errorf("averaging runs: %w", err)
	}
	if err := averaged.CheckDevice(opts.Device); err != nil {
		return Analysis{}, err
	}
	kernel, err := KernelWindow(raw, opts.Margins)
	if err != nil {
		return Analysis{}, err
	}
	a := Analysis{Options: opts, Runs: len(raw), Averaged: averaged, Kernel: kernel}
	slog.Info("analyzing runs", slog.Int("runs", a.Runs), slog.Int("samples", averaged.Len()), slog.String("kernel", kernel.String()))
	if !opts.SimpleOnly {
		active, err := DetectActivity(averaged, opts.Device, opts.Threshold)
		if err != nil {
			return Analysis{}, err
		}
		advanced, err := AdvancedRate(averaged, opts.Device, active, kernel, opts.Rule)
		if err != nil {
			return Analysis{}, err
		}
		a.Advanced = &advanced
	}
	for device := range averaged.DeviceCount() {
		series, err := averaged.Series(device)
		if err != nil {
			return Analysis{}, err
		}
		estimate, err := SimpleRate(averaged, device, kernel, opts.Rule)
		if err != nil {
			return Analysis{}, fmt.Errorf("device %d: %w", device, err)
		}
		mean, std := stat.PopMeanStdDev(series, nil)
		a.Devices = append(a.Devices, DeviceSummary{Device: device, Mean: mean, StdDev: std, Kernel: estimate})
		if device == opts.Device {
			a.Simple = estimate
		}
	}
	return a, nil
}
