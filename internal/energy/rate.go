package energy

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"math"

	"powertrace/internal/trace"
)

// Margins trims the start and end of a run to get the kernel window.
type Margins struct {
	Start float64 // seconds skipped after the first sample
	Stop  float64 // seconds dropped before the mean run end
}

// DefaultMargins are the margins used when none are configured.
var DefaultMargins = Margins{Start: 1.0, Stop: 1.0}

// KernelWindow returns the fixed-offset window in which the workload is assumed to run:
// it starts m.Start seconds in and stops m.Stop seconds before the mean last timestamp
// of the raw runs.
func KernelWindow(raw []trace.Trace, m Margins) (Window, error) {
	if len(raw) == 0 {
		return Window{}, trace.ErrNoTraces
	}
	w := Window{Start: m.Start, Stop: trace.MeanLastTimestamp(raw) - m.Stop}
	if w.Stop <= w.Start {
		return Window{}, fmt.Errorf("%w: kernel window %s is empty, runs are too short for margins %g s and %g s",
			ErrInvalidWindow, w, m.Start, m.Stop)
	}
	return w, nil
}

// Estimate is an energy over a window and the average power it corresponds to.
type Estimate struct {
	Energy float64 // joules
	Rate   float64 // watts
}

// Advanced is the idle corrected estimate and the terms it is built from.
type Advanced struct {
	Estimate
	Active           Window
	Idle             float64 // watts
	ActiveEnergy     float64 // joules over the active window, before correction
	IdleContribution float64 // joules removed for the idle stretch past the kernel end
}

// AdvancedRate integrates the device over the active window, subtracts the idle power
// drawn between the active and kernel stops, and spreads the rest over the kernel
// duration.
func AdvancedRate(t trace.Trace, device int, active, kernel Window, rule Rule) (Advanced, error) {
	if kernel.Duration() <= 0 {
		return Advanced{}, fmt.Errorf("%w: kernel window %s", ErrInvalidWindow, kernel)
	}
	idle, err := IdlePower(t, device, active)
	if err != nil {
		return Advanced{}, err
	}
	activeEnergy, err := Integrate(t, device, active, rule)
	if err != nil {
		return Advanced{}, fmt.Errorf("integrating active window: %w", err)
	}
	a := Advanced{
		Active:           active,
		Idle:             idle,
		ActiveEnergy:     activeEnergy,
		IdleContribution: idle * math.Abs(active.Stop-kernel.Stop),
	}
	a.Energy = a.ActiveEnergy - a.IdleContribution
	a.Rate = a.Energy / kernel.Duration()
	return a, nil
}

// SimpleRate integrates the device over the kernel window and divides by its duration.
// No idle correction is applied.
func SimpleRate(t trace.Trace, device int, kernel Window, rule Rule) (Estimate, error) {
	if kernel.Duration() <= 0 {
		return Estimate{}, fmt.Errorf("%w: kernel window %s", ErrInvalidWindow, kernel)
	}
	joules, err := Integrate(t, device, kernel, rule)
	if err != nil {
		return Estimate{}, fmt.Errorf("integrating kernel window: %w", err)
	}
	return Estimate{Energy: joules, Rate: joules / kernel.Duration()}, nil
}
