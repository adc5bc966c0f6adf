// Package trace loads per-run power samples and combines repeated runs into a single
// representative trace.
package trace

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultDeviceCount is the number of devices recorded by the measurement harness.
const DefaultDeviceCount = 4

// Sample is one power reading across all devices.
type Sample struct {
	Timestamp float64   // seconds since the first sample of the run
	Power     []float64 // watts, indexed by device
}

// Trace is the ordered list of samples from one measurement run.
type Trace struct {
	Source  string // file the samples were read from, or a synthetic name
	Samples []Sample
}

// Len returns the number of samples in the trace.
func (t Trace) Len() int {
	return len(t.Samples)
}

// DeviceCount returns the number of devices in the trace, or 0 for an empty trace.
func (t Trace) DeviceCount() int {
	if len(t.Samples) == 0 {
		return 0
	}
	return len(t.Samples[0].Power)
}

// Timestamps returns the sample timestamps in recorded order.
func (t Trace) Timestamps() []float64 {
	timestamps := make([]float64, len(t.Samples))
	for i, s := range t.Samples {
		timestamps[i] = s.Timestamp
	}
	return timestamps
}

// Series returns the power values of one device in recorded order.
func (t Trace) Series(device int) ([]float64, error) {
	if err := t.CheckDevice(device); err != nil {
		return nil, err
	}
	values := make([]float64, len(t.Samples))
	for i, s := range t.Samples {
		values[i] = s.Power[device]
	}
	return values, nil
}

// CheckDevice returns an error if device is not a valid index for the trace.
func (t Trace) CheckDevice(device int) error {
	if device < 0 || device >= t.DeviceCount() {
		return fmt.Errorf("device %d out of range, trace %q has %d device(s)", device, t.Source, t.DeviceCount())
	}
	return nil
}

// LastTimestamp returns the largest timestamp in the trace. Samples are not assumed
// to be sorted.
func (t Trace) LastTimestamp() float64 {
	var last float64
	for i, s := range t.Samples {
		if i == 0 || s.Timestamp > last {
			last = s.Timestamp
		}
	}
	return last
}

// MeanLastTimestamp returns the average of the traces' last timestamps.
func MeanLastTimestamp(traces []Trace) float64 {
	if len(traces) == 0 {
		return 0
	}
	var sum float64
	for _, t := range traces {
		sum += t.LastTimestamp()
	}
	return sum / float64(len(traces))
}

// MaxLastTimestamp returns the largest last timestamp across the traces.
func MaxLastTimestamp(traces []Trace) float64 {
	var maxEnd float64
	for i, t := range traces {
		if end := t.LastTimestamp(); i == 0 || end > maxEnd {
			maxEnd = end
		}
	}
	return maxEnd
}

// ErrMalformedInput matches any *MalformedInputError with errors.Is.
var ErrMalformedInput = errors.New("malformed input")

// MalformedInputError reports an input table that is missing expected columns or
// holds values that cannot be parsed.
type MalformedInputError struct {
	Source  string
	Missing []string // expected columns that were not found
	Reason  string
}

func (e *MalformedInputError) Error() string {
	var sb strings.Builder
	sb.WriteString("malformed input")
	if e.Source != "" {
		sb.WriteString(fmt.Sprintf(" %s", e.Source))
	}
	if len(e.Missing) > 0 {
		sb.WriteString(fmt.Sprintf(": missing column(s) %s", strings.Join(e.Missing, ", ")))
	}
	if e.Reason != "" {
		sb.WriteString(": " + e.Reason)
	}
	return sb.String()
}

// Is reports whether target is ErrMalformedInput.
func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}
