package trace

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegments(t *testing.T) {
	// two runs sampled every 0.25 s up to 2 s, device 0 steps from 10 W to 30 W at 1 s
	var traces []Trace
	for run := range 2 {
		tr := Trace{Source: "run"}
		for i := range 9 {
			ts := float64(i) * 0.25
			p := 10.0
			if ts > 1 {
				p = 30
			}
			tr.Samples = append(tr.Samples, Sample{Timestamp: ts, Power: []float64{p + float64(run), 5}})
		}
		traces = append(traces, tr)
	}
	segments, err := Segments(traces, 4)
	require.NoError(t, err)
	require.Len(t, segments, 4)

	assert.Equal(t, 0.0, segments[0].Start)
	assert.Equal(t, 0.5, segments[0].Stop)
	assert.Equal(t, 0.25, segments[0].Midpoint)
	assert.Equal(t, 1.75, segments[3].Midpoint)

	// [0, 0.5] holds 0, 0.25 and 0.5 from each run; 0.5 also lands in [0.5, 1]
	first := segments[0].Devices[0]
	assert.Equal(t, 6, first.Count)
	assert.Equal(t, 10.0, first.Min)
	assert.Equal(t, 11.0, first.Max)
	assert.InDelta(t, 10.5, first.Mean, 1e-12)
	assert.Equal(t, 6, segments[1].Devices[0].Count)

	last := segments[3].Devices[0]
	assert.Equal(t, 30.0, last.Min)
	assert.Equal(t, 31.0, last.Max)
	assert.LessOrEqual(t, last.Q1, last.Median)
	assert.LessOrEqual(t, last.Median, last.Q3)

	for _, seg := range segments {
		assert.Equal(t, 5.0, seg.Devices[1].Mean)
	}
}

func TestSegmentsEmptySlice(t *testing.T) {
	tr := Trace{Source: "sparse", Samples: []Sample{
		{Timestamp: 0, Power: []float64{1}},
		{Timestamp: 10, Power: []float64{2}},
	}}
	segments, err := Segments([]Trace{tr}, 5)
	require.NoError(t, err)
	require.Len(t, segments, 5)
	assert.Equal(t, 1, segments[0].Devices[0].Count)
	middle := segments[2].Devices[0]
	assert.Equal(t, 0, middle.Count)
	assert.True(t, math.IsNaN(middle.Mean))
	assert.True(t, math.IsNaN(middle.Median))
	assert.Equal(t, 1, segments[4].Devices[0].Count)
}

func TestSegmentsErrors(t *testing.T) {
	_, err := Segments([]Trace{rampTrace("a", 3, 1, 0)}, 0)
	assert.Error(t, err)
	_, err = Segments(nil, 3)
	assert.ErrorIs(t, err, ErrNoTraces)
}

func TestDistribute(t *testing.T) {
	d := Distribute([]float64{5, 1, 3, 2, 4})
	assert.Equal(t, 5, d.Count)
	assert.Equal(t, 1.0, d.Min)
	assert.Equal(t, 5.0, d.Max)
	assert.Equal(t, 3.0, d.Mean)
	assert.GreaterOrEqual(t, d.Median, d.Q1)
	assert.GreaterOrEqual(t, d.Q3, d.Median)
	assert.GreaterOrEqual(t, d.Q1, d.Min)
	assert.LessOrEqual(t, d.Q3, d.Max)

	single := Distribute([]float64{7})
	assert.Equal(t, 7.0, single.Min)
	assert.Equal(t, 7.0, single.Max)
}
