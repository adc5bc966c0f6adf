package trace

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

// Alignment selects how repeated runs are matched sample by sample before averaging.
type Alignment string

const (
	// AlignIndex pairs the i-th sample of every run and truncates to the shortest run.
	AlignIndex Alignment = "index"
	// AlignInterpolate resamples every run onto a shared time base before averaging.
	AlignInterpolate Alignment = "interpolate"
)

// ParseAlignment converts a configuration string to an Alignment.
func ParseAlignment(s string) (Alignment, error) {
	switch Alignment(s) {
	case AlignIndex, "":
		return AlignIndex, nil
	case AlignInterpolate:
		return AlignInterpolate, nil
	}
	return "", fmt.Errorf("unknown alignment %q, expected one of %s, %s", s, AlignIndex, AlignInterpolate)
}

// ErrNoTraces is returned when averaging is requested for an empty set of runs.
var ErrNoTraces = errors.New("no traces to average")

// AverageWith averages the traces using the requested alignment.
func AverageWith(traces []Trace, alignment Alignment) (Trace, error) {
	if alignment == AlignInterpolate {
		return AverageInterpolated(traces)
	}
	return Average(traces)
}

// Average combines repeated runs by index: the i-th output sample is the mean timestamp
// and mean per device power of every run's i-th sample. The result has as many samples
// as the shortest run; the tails of longer runs are dropped. Runs are assumed to share a
// similar sample rate, otherwise the i-th samples describe different moments.
func Average(traces []Trace) (Trace, error) {
	devices, length, err := checkTraces(traces)
	if err != nil {
		return Trace{}, err
	}
	n := float64(len(traces))
	samples := make([]Sample, 0, length)
	for i := range length {
		avg := Sample{Power: make([]float64, devices)}
		for _, t := range traces {
			avg.Timestamp += t.Samples[i].Timestamp
			for device, p := range t.Samples[i].Power {
				avg.Power[device] += p
			}
		}
		avg.Timestamp /= n
		for device := range avg.Power {
			avg.Power[device] /= n
		}
		samples = append(samples, avg)
	}
	for _, t := range traces {
		if dropped := t.Len() - length; dropped > 0 {
			slog.Debug("truncated trace to shortest run", slog.String("source", t.Source), slog.Int("dropped", dropped))
		}
	}
	return Trace{Source: "average", Samples: samples}, nil
}

// AverageInterpolated resamples every run onto a common time base before averaging.
// The base spans [0, earliest run end] with as many evenly spaced points as the longest
// run; values between samples are linearly interpolated.
func AverageInterpolated(traces []Trace) (Trace, error) {
	devices, _, err := checkTraces(traces)
	if err != nil {
		return Trace{}, err
	}
	points := 0
	end := 0.0
	sorted := make([]Trace, len(traces))
	for i, t := range traces {
		sorted[i] = sortedByTime(t)
		points = max(points, t.Len())
		if last := t.LastTimestamp(); i == 0 || last < end {
			end = last
		}
	}
	n := float64(len(traces))
	samples := make([]Sample, 0, points)
	cursors := make([]int, len(traces))
	for k := range points {
		ts := 0.0
		if points > 1 {
			ts = end * float64(k) / float64(points-1)
		}
		avg := Sample{Timestamp: ts, Power: make([]float64, devices)}
		for i, t := range sorted {
			for device, p := range interpolateAt(t, ts, &cursors[i]) {
				avg.Power[device] += p / n
			}
		}
		samples = append(samples, avg)
	}
	return Trace{Source: "average", Samples: samples}, nil
}

func checkTraces(traces []Trace) (devices int, length int, err error) {
	if len(traces) == 0 {
		err = ErrNoTraces
		return
	}
	devices = traces[0].DeviceCount()
	length = traces[0].Len()
	for _, t := range traces {
		if t.Len() == 0 {
			err = fmt.Errorf("trace %q has no samples", t.Source)
			return
		}
		if t.DeviceCount() != devices {
			err = fmt.Errorf("trace %q has %d device(s), expected %d", t.Source, t.DeviceCount(), devices)
			return
		}
		length = min(length, t.Len())
	}
	return
}

// sortedByTime returns a copy of the trace with samples in ascending timestamp order.
func sortedByTime(t Trace) Trace {
	samples := slices.Clone(t.Samples)
	slices.SortStableFunc(samples, func(a, b Sample) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})
	return Trace{Source: t.Source, Samples: samples}
}

// interpolateAt returns the per device power of a time-sorted trace at ts. cursor keeps
// the search position between calls with increasing ts.
func interpolateAt(t Trace, ts float64, cursor *int) []float64 {
	samples := t.Samples
	if ts <= samples[0].Timestamp {
		return samples[0].Power
	}
	last := len(samples) - 1
	if ts >= samples[last].Timestamp {
		return samples[last].Power
	}
	for *cursor < last && samples[*cursor+1].Timestamp < ts {
		*cursor++
	}
	lo, hi := samples[*cursor], samples[*cursor+1]
	span := hi.Timestamp - lo.Timestamp
	if span <= 0 {
		return hi.Power
	}
	frac := (ts - lo.Timestamp) / span
	power := make([]float64, len(lo.Power))
	for device := range power {
		power[device] = lo.Power[device] + frac*(hi.Power[device]-lo.Power[device])
	}
	return power
}
