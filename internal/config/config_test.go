package config

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"os"
	"path/filepath"
	"testing"

	"powertrace/internal/energy"
	"powertrace/internal/trace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "powertrace.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, energy.DefaultOptions(), cfg.AnalysisOptions())
	assert.Equal(t, trace.DefaultSegmentCount, cfg.Segments)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
device: 2
threshold: 2.5
stop_margin: 0.5
integration: legacy-upper
alignment: interpolate
benchmarks: [gemm, stream]
derived_metrics:
  - name: power_d0
    expression: e_d0 / duration
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Device)
	assert.Equal(t, 4, cfg.Devices)
	assert.Equal(t, 1.0, cfg.StartMargin)
	assert.Equal(t, []string{"gemm", "stream"}, cfg.Benchmarks)
	require.Len(t, cfg.DerivedMetrics, 1)
	assert.Equal(t, "e_d0 / duration", cfg.DerivedMetrics[0].Expression)

	opts := cfg.AnalysisOptions()
	assert.Equal(t, energy.RuleLegacyUpper, opts.Rule)
	assert.Equal(t, trace.AlignInterpolate, opts.Alignment)
	assert.Equal(t, energy.Margins{Start: 1, Stop: 0.5}, opts.Margins)
	assert.Equal(t, 2.5, opts.Threshold)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		want     string
	}{
		{name: "unknown key", contents: "treshold: 2\n", want: "treshold"},
		{name: "bad yaml", contents: "device: [\n", want: "parse"},
		{name: "device out of range", contents: "device: 4\n", want: "device"},
		{name: "negative counter device", contents: "counter_device: -1\n", want: "counter_device"},
		{name: "zero threshold", contents: "threshold: 0\n", want: "threshold"},
		{name: "negative margin", contents: "start_margin: -1\n", want: "margins"},
		{name: "zero segments", contents: "segments: 0\n", want: "segments"},
		{name: "bad rule", contents: "integration: simpson\n", want: "integration rule"},
		{name: "bad alignment", contents: "alignment: nearest\n", want: "alignment"},
		{name: "bad metric name", contents: "derived_metrics: [{name: 'a-b', expression: n}]\n", want: "metric name"},
		{name: "duplicate metric", contents: "derived_metrics: [{name: a, expression: n}, {name: a, expression: n}]\n", want: "duplicate"},
		{name: "empty expression", contents: "derived_metrics: [{name: a}]\n", want: "no expression"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.contents))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateModelCounterDevice(t *testing.T) {
	cfg, err := Load(writeConfig(t, "counter_device: 3\n"))
	require.NoError(t, err)
	assert.NoError(t, cfg.ValidateModel())

	// fewer devices only matters for a model build, which reads the counters
	cfg.Devices = 2
	cfg.Device = 1
	assert.NoError(t, cfg.Validate())
	err = cfg.ValidateModel()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "counter_device")
}
