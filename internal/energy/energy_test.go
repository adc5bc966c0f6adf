package energy

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"powertrace/internal/trace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepTrace builds a two device run of n samples 10 ms apart. Device 0 draws active
// watts for samples in [from, to) and idle watts otherwise; device 1 draws 20 W.
func stepTrace(source string, n int, idle, active float64, from, to int) trace.Trace {
	tr := trace.Trace{Source: source}
	for i := range n {
		p := idle
		if i >= from && i < to {
			p = active
		}
		ts := float64(int64(i)*10_000_000) / 1e9
		tr.Samples = append(tr.Samples, trace.Sample{Timestamp: ts, Power: []float64{p, 20}})
	}
	return tr
}

// rampTrace has one device drawing 10+5t watts, sampled every 100 ms for one second.
func rampTrace() trace.Trace {
	tr := trace.Trace{Source: "ramp"}
	for i := range 11 {
		ts := float64(i) * 0.1
		tr.Samples = append(tr.Samples, trace.Sample{Timestamp: ts, Power: []float64{10 + 5*ts}})
	}
	return tr
}

func TestGradient(t *testing.T) {
	assert.InDeltaSlice(t, []float64{1, 1.5, 2.5, 3.5, 4}, Gradient([]float64{1, 2, 4, 7, 11}), 1e-12)
	assert.Equal(t, []float64{-3, -3}, Gradient([]float64{5, 2}))
	assert.Equal(t, []float64{0}, Gradient([]float64{9}))
}

func TestMovingAverage(t *testing.T) {
	in := []float64{0, 0, 5, 0, 0}
	tests := []struct {
		name string
		k    int
		want []float64
	}{
		{name: "identity", k: 1, want: in},
		{name: "non-positive window", k: 0, want: in},
		{name: "odd window", k: 3, want: []float64{0, 5.0 / 3, 5.0 / 3, 5.0 / 3, 0}},
		{name: "even window leans ahead", k: 4, want: []float64{1.25, 1.25, 1.25, 1.25, 0}},
		{name: "even window of two", k: 2, want: []float64{0, 2.5, 2.5, 0, 0}},
		{name: "zero padded edges", k: 5, want: []float64{1, 1, 1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDeltaSlice(t, tt.want, MovingAverage(in, tt.k), 1e-12)
		})
	}
	edges := MovingAverage([]float64{3, 3, 3, 3, 3}, 3)
	assert.InDelta(t, 2.0, edges[0], 1e-12)
	assert.InDelta(t, 3.0, edges[2], 1e-12)
}

func TestDetectActivity(t *testing.T) {
	tr := stepTrace("step", 500, 50, 200, 100, 400)
	w, err := DetectActivity(tr, 0, DefaultThreshold)
	require.NoError(t, err)
	// smoothing spreads each edge two samples either side
	assert.InDelta(t, 0.97, w.Start, 1e-9)
	assert.InDelta(t, 4.02, w.Stop, 1e-9)
	assert.Less(t, w.Start, 1.0)
	assert.Greater(t, w.Stop, 3.99)

	smoothed, err := SmoothedDerivative(tr, 0)
	require.NoError(t, err)
	require.Len(t, smoothed, 500)
	assert.InDelta(t, 15.0, smoothed[97], 1e-9)
	assert.Equal(t, 0.0, smoothed[96])
	assert.Equal(t, 0.0, smoothed[250])
}

func TestDetectActivityEvenSmoothingWindow(t *testing.T) {
	// 400 samples smooth over 4; the window reaches two samples ahead and one behind
	tr := stepTrace("step", 400, 50, 200, 100, 300)
	w, err := DetectActivity(tr, 0, DefaultThreshold)
	require.NoError(t, err)
	assert.InDelta(t, 0.97, w.Start, 1e-9)
	assert.InDelta(t, 3.01, w.Stop, 1e-9)

	smoothed, err := SmoothedDerivative(tr, 0)
	require.NoError(t, err)
	assert.InDelta(t, 75.0/4, smoothed[97], 1e-9)
	assert.Equal(t, 0.0, smoothed[102])
	assert.InDelta(t, 75.0/4, smoothed[301], 1e-9)
	assert.Equal(t, 0.0, smoothed[302])
}

func TestDetectActivityThresholdIsStrict(t *testing.T) {
	tr := stepTrace("step", 500, 50, 200, 100, 400)
	peak := slices.Max(must(SmoothedDerivative(tr, 0)))
	_, err := DetectActivity(tr, 0, peak)
	assert.ErrorIs(t, err, ErrNoActivityDetected)
	_, err = DetectActivity(tr, 0, peak-1e-9)
	assert.NoError(t, err)
}

func TestDetectActivityErrors(t *testing.T) {
	flat := stepTrace("flat", 200, 50, 50, 0, 0)
	_, err := DetectActivity(flat, 0, DefaultThreshold)
	assert.ErrorIs(t, err, ErrNoActivityDetected)

	single := trace.Trace{Samples: []trace.Sample{{Power: []float64{1}}}}
	_, err = DetectActivity(single, 0, DefaultThreshold)
	assert.ErrorIs(t, err, ErrInsufficientSamples)

	_, err = DetectActivity(flat, 2, DefaultThreshold)
	assert.Error(t, err)
}

func TestIdlePower(t *testing.T) {
	tr := stepTrace("step", 500, 50, 200, 100, 400)
	idle, err := IdlePower(tr, 0, Window{Start: 0.97, Stop: 4.02})
	require.NoError(t, err)
	assert.InDelta(t, 50.0, idle, 1e-12)

	// bounds are excluded from the idle set
	_, err = IdlePower(tr, 0, Window{Start: 0, Stop: tr.LastTimestamp()})
	assert.ErrorIs(t, err, ErrInsufficientIdleSamples)
}

func TestIntegrate(t *testing.T) {
	constant := stepTrace("constant", 300, 75, 75, 0, 0)
	tests := []struct {
		name   string
		tr     trace.Trace
		window Window
		rule   Rule
		want   float64
	}{
		{name: "constant power", tr: constant, window: Window{Start: 0.5, Stop: 2.5}, rule: RuleTrapezoid, want: 150},
		{name: "constant power legacy", tr: constant, window: Window{Start: 0.5, Stop: 2.5}, rule: RuleLegacyUpper, want: 150},
		{name: "linear ramp", tr: rampTrace(), window: Window{Start: 0, Stop: 2}, rule: RuleTrapezoid, want: 12.5},
		{name: "linear ramp legacy", tr: rampTrace(), window: Window{Start: 0, Stop: 2}, rule: RuleLegacyUpper, want: 13},
		{name: "bounds inclusive", tr: rampTrace(), window: Window{Start: 0.5, Stop: 1}, rule: RuleTrapezoid, want: 0.5 * (12.5 + 15) / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Integrate(tt.tr, 0, tt.window, tt.rule)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestIntegrateConstantPowerAtAnyDensity(t *testing.T) {
	constantAt := func(timestamps []float64) trace.Trace {
		tr := trace.Trace{Source: "constant"}
		for _, ts := range timestamps {
			tr.Samples = append(tr.Samples, trace.Sample{Timestamp: ts, Power: []float64{75}})
		}
		return tr
	}
	evenly := func(count int, per float64) []float64 {
		timestamps := make([]float64, count)
		for i := range timestamps {
			timestamps[i] = float64(i) / per
		}
		return timestamps
	}
	tests := []struct {
		name       string
		timestamps []float64
	}{
		{name: "1 ms", timestamps: evenly(3001, 1000)},
		{name: "10 ms", timestamps: evenly(301, 100)},
		{name: "250 ms", timestamps: evenly(13, 4)},
		{name: "irregular", timestamps: []float64{0, 0.3, 0.5, 0.51, 0.8, 1.37, 1.9, 2.05, 2.5, 2.9}},
	}
	window := Window{Start: 0.5, Stop: 2.5}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, rule := range []Rule{RuleTrapezoid, RuleLegacyUpper} {
				got, err := Integrate(constantAt(tt.timestamps), 0, window, rule)
				require.NoError(t, err)
				assert.InDelta(t, 75*window.Duration(), got, 1e-9, "rule %s", rule)
			}
		})
	}
}

func TestIntegrateOrderInvariant(t *testing.T) {
	tr := stepTrace("step", 500, 50, 200, 100, 400)
	w := Window{Start: 0.5, Stop: 4.5}
	want, err := Integrate(tr, 0, w, RuleTrapezoid)
	require.NoError(t, err)

	shuffled := trace.Trace{Source: "shuffled", Samples: slices.Clone(tr.Samples)}
	r := rand.New(rand.NewPCG(7, 11))
	r.Shuffle(len(shuffled.Samples), func(i, j int) {
		shuffled.Samples[i], shuffled.Samples[j] = shuffled.Samples[j], shuffled.Samples[i]
	})
	got, err := Integrate(shuffled, 0, w, RuleTrapezoid)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-9)
}

func TestIntegrateErrors(t *testing.T) {
	tr := rampTrace()
	_, err := Integrate(tr, 0, Window{Start: 0.45, Stop: 0.55}, RuleTrapezoid)
	assert.ErrorIs(t, err, ErrInsufficientSamples)
	_, err = Integrate(tr, 0, Window{Start: 5, Stop: 6}, RuleTrapezoid)
	assert.ErrorIs(t, err, ErrInsufficientSamples)
	_, err = Integrate(tr, 1, Window{Start: 0, Stop: 1}, RuleTrapezoid)
	assert.Error(t, err)
}

func TestParseRule(t *testing.T) {
	r, err := ParseRule("")
	require.NoError(t, err)
	assert.Equal(t, RuleTrapezoid, r)
	r, err = ParseRule("legacy-upper")
	require.NoError(t, err)
	assert.Equal(t, RuleLegacyUpper, r)
	_, err = ParseRule("simpson")
	assert.Error(t, err)
}

func TestKernelWindow(t *testing.T) {
	runs := []trace.Trace{stepTrace("a", 500, 0, 0, 0, 0), stepTrace("b", 301, 0, 0, 0, 0)}
	w, err := KernelWindow(runs, DefaultMargins)
	require.NoError(t, err)
	assert.Equal(t, 1.0, w.Start)
	assert.InDelta(t, (4.99+3.0)/2-1, w.Stop, 1e-9)

	_, err = KernelWindow(runs, Margins{Start: 2, Stop: 2.5})
	assert.ErrorIs(t, err, ErrInvalidWindow)
	_, err = KernelWindow(nil, DefaultMargins)
	assert.ErrorIs(t, err, trace.ErrNoTraces)
}

func TestRatesRejectEmptyKernel(t *testing.T) {
	tr := stepTrace("step", 500, 50, 200, 100, 400)
	_, err := SimpleRate(tr, 0, Window{Start: 2, Stop: 2}, RuleTrapezoid)
	assert.ErrorIs(t, err, ErrInvalidWindow)
	_, err = AdvancedRate(tr, 0, Window{Start: 1, Stop: 4}, Window{Start: 3, Stop: 1}, RuleTrapezoid)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestAnalyzeEndToEnd(t *testing.T) {
	runs := []trace.Trace{
		stepTrace("run1", 500, 48, 198, 100, 400),
		stepTrace("run2", 500, 52, 202, 100, 400),
	}
	a, err := Analyze(runs, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, a.Runs)
	assert.Equal(t, 500, a.Averaged.Len())

	require.NotNil(t, a.Advanced)
	assert.InDelta(t, 0.97, a.Advanced.Active.Start, 1e-9)
	assert.InDelta(t, 4.02, a.Advanced.Active.Stop, 1e-9)
	assert.InDelta(t, 50.0, a.Advanced.Idle, 1e-9)
	assert.InDelta(t, 602.5, a.Advanced.ActiveEnergy, 1e-6)
	assert.InDelta(t, 1.5, a.Advanced.IdleContribution, 1e-6)

	assert.Equal(t, 1.0, a.Kernel.Start)
	assert.InDelta(t, 3.99, a.Kernel.Stop, 1e-9)

	assert.InDelta(t, 201.0, a.Advanced.Rate, 0.01)
	assert.InEpsilon(t, 200.0, a.Advanced.Rate, 0.05)
	assert.InDelta(t, 200.0, a.Simple.Rate, 1.0)

	require.Len(t, a.Devices, 2)
	assert.InDelta(t, 20.0, a.Devices[1].Mean, 1e-9)
	assert.InDelta(t, 0.0, a.Devices[1].StdDev, 1e-9)
	assert.InDelta(t, 20.0, a.Devices[1].Kernel.Rate, 0.1)
	assert.Equal(t, a.Simple, a.Devices[0].Kernel)
	assert.InDelta(t, 0.6*200+0.4*50, a.Devices[0].Mean, 1e-9)
}

func TestAnalyzeSimpleOnly(t *testing.T) {
	flat := stepTrace("flat", 500, 60, 60, 0, 0)
	opts := DefaultOptions()
	_, err := Analyze([]trace.Trace{flat}, opts)
	assert.True(t, errors.Is(err, ErrNoActivityDetected))

	opts.SimpleOnly = true
	a, err := Analyze([]trace.Trace{flat}, opts)
	require.NoError(t, err)
	assert.Nil(t, a.Advanced)
	assert.InDelta(t, 60.0, a.Simple.Rate, 0.5)
}

func TestAnalyzeErrors(t *testing.T) {
	_, err := Analyze(nil, DefaultOptions())
	assert.ErrorIs(t, err, trace.ErrNoTraces)

	opts := DefaultOptions()
	opts.Device = 3
	_, err = Analyze([]trace.Trace{stepTrace("a", 500, 50, 200, 100, 400)}, opts)
	assert.Error(t, err)

	short := stepTrace("short", 150, 50, 200, 50, 100)
	_, err = Analyze([]trace.Trace{short}, DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
