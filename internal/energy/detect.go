package energy

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"

	"powertrace/internal/trace"
)

// DefaultThreshold is the smoothed power change, in watts per sample, that marks activity.
const DefaultThreshold = 1.0

// DetectActivity locates the region of a trace where the reference device's power
// changes. The window runs from the first to the last sample whose smoothed derivative
// is strictly greater than threshold.
func DetectActivity(t trace.Trace, device int, threshold float64) (Window, error) {
	smoothed, err := SmoothedDerivative(t, device)
	if err != nil {
		return Window{}, err
	}
	first, last := -1, -1
	for i, v := range smoothed {
		if v > threshold {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return Window{}, fmt.Errorf("%w on device %d above %g W", ErrNoActivityDetected, device, threshold)
	}
	timestamps := t.Timestamps()
	a, b := timestamps[first], timestamps[last]
	w := Window{Start: min(a, b), Stop: max(a, b)}
	slog.Debug("detected activity", slog.Int("device", device), slog.Float64("start", w.Start), slog.Float64("stop", w.Stop))
	return w, nil
}

// IdlePower returns the mean power of a device over every sample strictly before
// active.Start or strictly after active.Stop.
func IdlePower(t trace.Trace, device int, active Window) (float64, error) {
	if err := t.CheckDevice(device); err != nil {
		return 0, err
	}
	var sum float64
	var count int
	for _, s := range t.Samples {
		if s.Timestamp < active.Start || s.Timestamp > active.Stop {
			sum += s.Power[device]
			count++
		}
	}
	if count == 0 {
		return 0, fmt.Errorf("%w: window %s covers the whole trace", ErrInsufficientIdleSamples, active)
	}
	return sum / float64(count), nil
}
