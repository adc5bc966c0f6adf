package trace

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const powerCSV = `timestamp,power:device=0,power:device=1,power:device=2,power:device=3,ENERGY:device=0
1700000000000000000,50000000,20000000,20000000,20000000,1
1700000000010000000,51000000,20500000,20000000,20000000,2
1700000000020000000,200000000,21000000,20000000,20000000,3
1700000000035000000,199500000,21000000,20000000,20000000,4
`

func TestLoad(t *testing.T) {
	tr, err := Load(strings.NewReader(powerCSV), "power_0.csv", DefaultDeviceCount)
	require.NoError(t, err)
	require.Equal(t, 4, tr.Len())
	assert.Equal(t, 4, tr.DeviceCount())
	assert.Equal(t, "power_0.csv", tr.Source)

	// first timestamp is exactly zero, the rest are nanosecond offsets scaled to seconds
	assert.Equal(t, 0.0, tr.Samples[0].Timestamp)
	inputs := []int64{1700000000000000000, 1700000000010000000, 1700000000020000000, 1700000000035000000}
	for i, ts := range inputs {
		assert.Equal(t, float64(ts-inputs[0])/1e9, tr.Samples[i].Timestamp, "sample %d", i)
	}
	assert.InDelta(t, 0.035, tr.Samples[3].Timestamp, 1e-12)

	// microwatts to watts
	assert.InDelta(t, 50.0, tr.Samples[0].Power[0], 1e-12)
	assert.InDelta(t, 20.5, tr.Samples[1].Power[1], 1e-12)
	assert.InDelta(t, 199.5, tr.Samples[3].Power[0], 1e-12)
}

func TestLoadMalformed(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		devices     int
		wantMissing []string
	}{
		{
			name:        "missing device columns",
			input:       "timestamp,power:device=0,power:device=2\n1,2,3\n",
			devices:     4,
			wantMissing: []string{"power:device=1", "power:device=3"},
		},
		{
			name:        "missing timestamp",
			input:       "time,power:device=0\n1,2\n",
			devices:     1,
			wantMissing: []string{"timestamp"},
		},
		{
			name:    "empty input",
			input:   "",
			devices: 1,
		},
		{
			name:    "header only",
			input:   "timestamp,power:device=0\n",
			devices: 1,
		},
		{
			name:    "invalid timestamp",
			input:   "timestamp,power:device=0\nabc,2\n",
			devices: 1,
		},
		{
			name:    "invalid power",
			input:   "timestamp,power:device=0\n1,watts\n",
			devices: 1,
		},
		{
			name:    "ragged row",
			input:   "timestamp,power:device=0\n1,2,3\n",
			devices: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.input), "test.csv", tt.devices)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedInput)
			var malformed *MalformedInputError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, tt.wantMissing, malformed.Missing)
			assert.Contains(t, err.Error(), "test.csv")
		})
	}
}

func TestLoadIgnoresExtraColumnsAndOrder(t *testing.T) {
	input := "power:device=1,extra,timestamp,power:device=0\n7000000,x,100,5000000\n8000000,y,600,6000000\n"
	tr, err := Load(strings.NewReader(input), "reordered.csv", 2)
	require.NoError(t, err)
	require.Equal(t, 2, tr.Len())
	assert.Equal(t, []float64{5, 7}, tr.Samples[0].Power)
	assert.InDelta(t, 5e-7, tr.Samples[1].Timestamp, 1e-15)
}

func TestLoadFilesAndPowerFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"power_1.csv", "power_0.csv", "counter.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(powerCSV), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "power_dir"), 0755))

	paths, err := PowerFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "power_0.csv"), filepath.Join(dir, "power_1.csv")}, paths)

	traces, err := LoadFiles(paths, DefaultDeviceCount)
	require.NoError(t, err)
	require.Len(t, traces, 2)
	assert.Equal(t, paths[1], traces[1].Source)

	_, err = LoadFile(filepath.Join(dir, "missing.csv"), DefaultDeviceCount)
	assert.Error(t, err)

	_, err = PowerFiles(filepath.Join(dir, "nope"))
	assert.Error(t, err)
}

func TestTraceAccessors(t *testing.T) {
	tr := Trace{Source: "unsorted", Samples: []Sample{
		{Timestamp: 0, Power: []float64{1, 2}},
		{Timestamp: 3, Power: []float64{3, 4}},
		{Timestamp: 2, Power: []float64{5, 6}},
	}}
	assert.Equal(t, 3.0, tr.LastTimestamp())
	assert.Equal(t, []float64{0, 3, 2}, tr.Timestamps())
	series, err := tr.Series(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4, 6}, series)
	_, err = tr.Series(2)
	assert.Error(t, err)
	_, err = tr.Series(-1)
	assert.Error(t, err)

	other := Trace{Samples: []Sample{{Timestamp: 5, Power: []float64{0, 0}}}}
	assert.Equal(t, 4.0, MeanLastTimestamp([]Trace{tr, other}))
	assert.Equal(t, 5.0, MaxLastTimestamp([]Trace{tr, other}))
	assert.Equal(t, 0.0, MeanLastTimestamp(nil))
	assert.Equal(t, 0, Trace{}.DeviceCount())
}
