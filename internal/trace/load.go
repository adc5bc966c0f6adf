package trace

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// TimestampColumn is the name of the column holding integer nanosecond timestamps.
const TimestampColumn = "timestamp"

const (
	nanosecondsPerSecond = 1e9
	microwattsPerWatt    = 1e6
)

// PowerColumn returns the name of the column holding a device's power in microwatts.
func PowerColumn(device int) string {
	return fmt.Sprintf("power:device=%d", device)
}

// ColumnIndex maps each header name to its position. When a name repeats, the first
// occurrence wins.
func ColumnIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, ok := index[name]; !ok {
			index[name] = i
		}
	}
	return index
}

// MissingColumns returns the required columns absent from index, sorted by name.
func MissingColumns(index map[string]int, required ...string) []string {
	missing := mapset.NewSet(required...).Difference(mapset.NewSetFromMapKeys(index)).ToSlice()
	slices.Sort(missing)
	return missing
}

// Load reads one run's power table. Timestamps are converted to seconds relative to the
// first row and power to watts. deviceCount power columns are required.
func Load(r io.Reader, source string, deviceCount int) (Trace, error) {
	if deviceCount <= 0 {
		return Trace{}, fmt.Errorf("device count must be positive, got %d", deviceCount)
	}
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Trace{}, &MalformedInputError{Source: source, Reason: "no header row"}
		}
		return Trace{}, &MalformedInputError{Source: source, Reason: err.Error()}
	}
	index := ColumnIndex(header)
	required := []string{TimestampColumn}
	for device := range deviceCount {
		required = append(required, PowerColumn(device))
	}
	if missing := MissingColumns(index, required...); len(missing) > 0 {
		return Trace{}, &MalformedInputError{Source: source, Missing: missing}
	}
	powerIdx := make([]int, deviceCount)
	for device := range deviceCount {
		powerIdx[device] = index[PowerColumn(device)]
	}
	tsIdx := index[TimestampColumn]

	var (
		samples []Sample
		firstTS int64
	)
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Trace{}, &MalformedInputError{Source: source, Reason: err.Error()}
		}
		ts, err := strconv.ParseInt(strings.TrimSpace(record[tsIdx]), 10, 64)
		if err != nil {
			return Trace{}, &MalformedInputError{Source: source, Reason: fmt.Sprintf("row %d: invalid timestamp %q", row, record[tsIdx])}
		}
		if len(samples) == 0 {
			firstTS = ts
		}
		sample := Sample{
			Timestamp: float64(ts-firstTS) / nanosecondsPerSecond,
			Power:     make([]float64, deviceCount),
		}
		for device, col := range powerIdx {
			microwatts, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
			if err != nil {
				return Trace{}, &MalformedInputError{Source: source, Reason: fmt.Sprintf("row %d: invalid power %q for device %d", row, record[col], device)}
			}
			sample.Power[device] = microwatts / microwattsPerWatt
		}
		samples = append(samples, sample)
	}
	if len(samples) == 0 {
		return Trace{}, &MalformedInputError{Source: source, Reason: "no samples"}
	}
	slog.Debug("loaded power trace", slog.String("source", source), slog.Int("samples", len(samples)), slog.Int("devices", deviceCount))
	return Trace{Source: source, Samples: samples}, nil
}

// LoadFile reads the power table at path.
func LoadFile(path string, deviceCount int) (Trace, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return Trace{}, fmt.Errorf("failed to open power file: %w", err)
	}
	defer f.Close()
	return Load(f, path, deviceCount)
}

// LoadFiles reads every power table in paths, in order.
func LoadFiles(paths []string, deviceCount int) ([]Trace, error) {
	traces := make([]Trace, 0, len(paths))
	for _, path := range paths {
		t, err := LoadFile(path, deviceCount)
		if err != nil {
			return nil, err
		}
		traces = append(traces, t)
	}
	return traces, nil
}

// PowerFiles returns the power tables in a run directory: every regular file whose name
// contains "power", sorted by name.
func PowerFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read run directory: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.Contains(entry.Name(), "power") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}
