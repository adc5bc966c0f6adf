package trace

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// DefaultSegmentCount is the number of time slices used for power distributions.
const DefaultSegmentCount = 20

// Distribution summarizes a set of power readings.
type Distribution struct {
	Count  int
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
	Mean   float64
}

// Segment is one equal-length time slice of a set of runs with the power distribution
// of every device inside it.
type Segment struct {
	Start    float64
	Stop     float64
	Midpoint float64 // rounded to 10 ms
	Devices  []Distribution
}

// Segments splits [0, latest run end] into count equal slices and gathers every raw
// sample of every run into the slices it falls in. Both slice bounds are inclusive, so a
// sample on a boundary is counted in both neighbours.
func Segments(traces []Trace, count int) ([]Segment, error) {
	if count <= 0 {
		return nil, fmt.Errorf("segment count must be positive, got %d", count)
	}
	devices, _, err := checkTraces(traces)
	if err != nil {
		return nil, err
	}
	length := MaxLastTimestamp(traces) / float64(count)
	segments := make([]Segment, 0, count)
	for i := range count {
		start := length * float64(i)
		stop := length * float64(i+1)
		values := make([][]float64, devices)
		for _, t := range traces {
			for _, s := range t.Samples {
				if s.Timestamp < start || s.Timestamp > stop {
					continue
				}
				for device, p := range s.Power {
					values[device] = append(values[device], p)
				}
			}
		}
		seg := Segment{
			Start:    start,
			Stop:     stop,
			Midpoint: math.Round((start+(stop-start)/2)*100) / 100,
			Devices:  make([]Distribution, devices),
		}
		for device := range devices {
			seg.Devices[device] = Distribute(values[device])
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// Distribute computes the distribution of values. An empty input yields a zero count
// and NaN statistics.
func Distribute(values []float64) Distribution {
	if len(values) == 0 {
		nan := math.NaN()
		return Distribution{Min: nan, Q1: nan, Median: nan, Q3: nan, Max: nan, Mean: nan}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return Distribution{
		Count:  len(sorted),
		Min:    sorted[0],
		Q1:     stat.Quantile(0.25, stat.LinInterp, sorted, nil),
		Median: stat.Quantile(0.5, stat.LinInterp, sorted, nil),
		Q3:     stat.Quantile(0.75, stat.LinInterp, sorted, nil),
		Max:    sorted[len(sorted)-1],
		Mean:   stat.Mean(sorted, nil),
	}
}
