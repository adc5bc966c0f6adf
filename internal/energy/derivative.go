package energy

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"math"

	"powertrace/internal/trace"
)

// smoothingDivisor sets the moving average window to one percent of the trace length.
const smoothingDivisor = 100

// Gradient returns the discrete derivative of values with unit spacing: central
// differences inside, one-sided differences at both ends.
func Gradient(values []float64) []float64 {
	n := len(values)
	g := make([]float64, n)
	if n < 2 {
		return g
	}
	g[0] = values[1] - values[0]
	g[n-1] = values[n-1] - values[n-2]
	for i := 1; i < n-1; i++ {
		g[i] = (values[i+1] - values[i-1]) / 2
	}
	return g
}

// MovingAverage smooths values with a flat window of size k. Output j averages
// values[j-(k-1)/2 : j-(k-1)/2+k], so an even window reaches one sample further ahead
// than behind. This is the placement a same-length convolution gives when the series is
// smoothed latest sample first, which is how the historical detector ordered it. Values
// outside the input count as zero, so the edges are pulled towards zero.
func MovingAverage(values []float64, k int) []float64 {
	n := len(values)
	k = max(1, min(k, n))
	out := make([]float64, n)
	behind := (k - 1) / 2
	for j := range n {
		var sum float64
		for i := j - behind; i < j-behind+k; i++ {
			if i >= 0 && i < n {
				sum += values[i]
			}
		}
		out[j] = sum / float64(k)
	}
	return out
}

// SmoothedDerivative returns the absolute gradient of a device's power, smoothed with a
// moving average one hundredth of the trace long (at least one sample).
func SmoothedDerivative(t trace.Trace, device int) ([]float64, error) {
	series, err := t.Series(device)
	if err != nil {
		return nil, err
	}
	if len(series) < 2 {
		return nil, ErrInsufficientSamples
	}
	g := Gradient(series)
	for i := range g {
		g[i] = math.Abs(g[i])
	}
	return MovingAverage(g, len(series)/smoothingDivisor), nil
}
