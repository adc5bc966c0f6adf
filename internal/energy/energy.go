// Package energy finds the active region of a power trace and turns power over time into
// energy and average power estimates.
package energy

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"errors"
	"fmt"
)

var (
	// ErrNoActivityDetected is returned when the smoothed derivative never exceeds the threshold.
	ErrNoActivityDetected = errors.New("no activity detected")
	// ErrInsufficientIdleSamples is returned when no sample lies outside the active window.
	ErrInsufficientIdleSamples = errors.New("no idle samples outside the active window")
	// ErrInsufficientSamples is returned when fewer than two samples are available.
	ErrInsufficientSamples = errors.New("at least two samples are required")
	// ErrInvalidWindow is returned when a window does not end after it starts.
	ErrInvalidWindow = errors.New("invalid window")
)

// Window is a closed time interval in seconds.
type Window struct {
	Start float64
	Stop  float64
}

// Duration returns the length of the window in seconds.
func (w Window) Duration() float64 {
	return w.Stop - w.Start
}

// Contains reports whether ts lies in the window, bounds included.
func (w Window) Contains(ts float64) bool {
	return ts >= w.Start && ts <= w.Stop
}

func (w Window) String() string {
	return fmt.Sprintf("[%.3f s, %.3f s]", w.Start, w.Stop)
}
