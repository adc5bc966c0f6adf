package model

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"powertrace/internal/config"
	"powertrace/internal/trace"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// StatusFunc receives progress updates, one per benchmark.
type StatusFunc func(benchmark string, status string)

// Options controls a model build.
type Options struct {
	Devices       int
	CounterDevice int      // device whose instruction counters are read
	SkipFailed    bool     // log and skip runs that fail instead of aborting
	Benchmarks    []string // benchmark directories to include, all when empty
	Derived       []config.DerivedMetric
	Status        StatusFunc
}

// BuildRun aggregates one run directory into a model row.
func BuildRun(dir string, devices int, counterDevice int) (Row, error) {
	counters, err := LoadCounters(filepath.Join(dir, CounterFile), devices, counterDevice)
	if err != nil {
		return Row{}, err
	}
	paths, err := trace.PowerFiles(dir)
	if err != nil {
		return Row{}, err
	}
	if len(paths) == 0 {
		return Row{}, &trace.MalformedInputError{Source: dir, Reason: "no power files"}
	}
	traces, err := trace.LoadFiles(paths, devices)
	if err != nil {
		return Row{}, err
	}
	row := Row{
		Source:      dir,
		Benchmark:   counters.Benchmark,
		Arr:         counters.Arr,
		N:           counters.N,
		Energy:      make([]float64, devices),
		PowerStdDev: make([]float64, devices),
	}
	if row.Duration, err = counters.Mean(columnDuration); err != nil {
		return Row{}, err
	}
	for device := range devices {
		if row.Energy[device], err = counters.Mean(EnergyColumn(device)); err != nil {
			return Row{}, err
		}
		var sum float64
		for _, t := range traces {
			series, err := t.Series(device)
			if err != nil {
				return Row{}, err
			}
			sum += stat.PopStdDev(series, nil)
		}
		row.PowerStdDev[device] = sum / float64(len(traces))
	}
	instructions := []*float64{&row.SQInsts, &row.SQInstsVALU, &row.SQInstsMFMA, &row.SQInstsSALU}
	for i, counter := range instructionCounters {
		if *instructions[i], err = counters.Mean(InstructionColumn(counter, counterDevice)); err != nil {
			return Row{}, err
		}
	}
	return row, nil
}

// Build walks a measurements tree, <root>/<benchmark>/<run>/, and tabulates every run.
// The table is sorted and carries the derived metrics.
func Build(root string, opts Options) (Table, error) {
	status := opts.Status
	if status == nil {
		status = func(string, string) {}
	}
	if _, err := compileDerived(opts.Derived, Table{Devices: opts.Devices}.Header()); err != nil {
		return Table{}, err
	}
	benchmarks, err := subdirectories(root)
	if err != nil {
		return Table{}, errors.Wrapf(err, "failed to read measurements directory %s", root)
	}
	if len(opts.Benchmarks) > 0 {
		wanted := mapset.NewSet(opts.Benchmarks...)
		if missing := wanted.Difference(mapset.NewSet(benchmarks...)); missing.Cardinality() > 0 {
			slog.Warn("requested benchmarks not found", slog.Any("benchmarks", missing.ToSlice()))
		}
		var filtered []string
		for _, b := range benchmarks {
			if wanted.Contains(b) {
				filtered = append(filtered, b)
			}
		}
		benchmarks = filtered
	}
	table := Table{Devices: opts.Devices}
	for _, benchmark := range benchmarks {
		runs, err := subdirectories(filepath.Join(root, benchmark))
		if err != nil {
			return Table{}, errors.Wrapf(err, "failed to read benchmark directory %s", benchmark)
		}
		failed := 0
		for i, run := range runs {
			status(benchmark, fmt.Sprintf("run %d/%d", i+1, len(runs)))
			dir := filepath.Join(root, benchmark, run)
			row, err := BuildRun(dir, opts.Devices, opts.CounterDevice)
			if err != nil {
				if !opts.SkipFailed {
					status(benchmark, "failed")
					return Table{}, errors.Wrapf(err, "failed to process run %s", dir)
				}
				slog.Warn("skipping run", slog.String("run", dir), slog.String("error", err.Error()))
				failed++
				continue
			}
			slog.Debug("processed run", slog.String("run", dir), slog.String("benchmark", row.Benchmark), slog.String("arr", row.Arr))
			table.Rows = append(table.Rows, row)
		}
		if failed > 0 {
			status(benchmark, fmt.Sprintf("done, %d of %d run(s) skipped", failed, len(runs)))
		} else {
			status(benchmark, fmt.Sprintf("done, %d run(s)", len(runs)))
		}
	}
	if len(table.Rows) == 0 {
		return Table{}, fmt.Errorf("no runs found under %s", root)
	}
	table.Sort()
	if err := table.AddDerived(opts.Derived); err != nil {
		return Table{}, err
	}
	return table, nil
}

// subdirectories returns the names of the directories in dir, sorted by name.
func subdirectories(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
