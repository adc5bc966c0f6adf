package model

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"powertrace/internal/trace"

	"github.com/pkg/errors"
)

// CounterFile is the name of the per run hardware counter table.
const CounterFile = "counter.csv"

// counter table column names
const (
	columnBenchmark = "benchmark"
	columnArr       = "arr"
	columnN         = "n"
	columnDuration  = "duration"
)

// EnergyColumn returns the name of the counter column holding a device's energy.
func EnergyColumn(device int) string {
	return fmt.Sprintf("ENERGY:device=%d", device)
}

// Instruction counters read from the counter device.
var instructionCounters = []string{
	"rocm:::SQ_INSTS",
	"rocm:::SQ_INSTS_VALU",
	"rocm:::SQ_INSTS_MFMA",
	"rocm:::SQ_INSTS_SALU",
}

// InstructionColumn returns the column name of an instruction counter on a device.
func InstructionColumn(counter string, device int) string {
	return fmt.Sprintf("%s:device=%d", counter, device)
}

// Counters is the content of one run's counter table. Identity fields come from the
// first row, numeric columns are kept whole.
type Counters struct {
	Source    string
	Benchmark string
	Arr       string
	N         string
	columns   map[string][]float64
}

// Mean returns the average of a numeric column.
func (c Counters) Mean(column string) (float64, error) {
	values, ok := c.columns[column]
	if !ok {
		return 0, fmt.Errorf("column %s not loaded from %s", column, c.Source)
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

// Rows returns the number of rows in the counter table.
func (c Counters) Rows() int {
	return len(c.columns[columnDuration])
}

// LoadCounters reads a counter table, requiring the identity columns, the energy of
// every device and the instruction counters of counterDevice.
func LoadCounters(path string, deviceCount int, counterDevice int) (Counters, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return Counters{}, err
	}
	defer f.Close()
	return ReadCounters(f, path, deviceCount, counterDevice)
}

// ReadCounters parses a counter table from r. source names the table in errors.
func ReadCounters(r io.Reader, source string, deviceCount int, counterDevice int) (Counters, error) {
	numeric := []string{columnDuration}
	for device := range deviceCount {
		numeric = append(numeric, EnergyColumn(device))
	}
	for _, counter := range instructionCounters {
		numeric = append(numeric, InstructionColumn(counter, counterDevice))
	}
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err == io.EOF {
		return Counters{}, &trace.MalformedInputError{Source: source, Reason: "no header"}
	}
	if err != nil {
		return Counters{}, errors.Wrapf(err, "failed to read counter table %s", source)
	}
	index := trace.ColumnIndex(header)
	required := append([]string{columnBenchmark, columnArr, columnN}, numeric...)
	if missing := trace.MissingColumns(index, required...); len(missing) > 0 {
		return Counters{}, &trace.MalformedInputError{Source: source, Missing: missing}
	}
	records, err := reader.ReadAll()
	if err != nil {
		return Counters{}, &trace.MalformedInputError{Source: source, Reason: err.Error()}
	}
	if len(records) == 0 {
		return Counters{}, &trace.MalformedInputError{Source: source, Reason: "no rows"}
	}
	c := Counters{
		Source:    source,
		Benchmark: strings.TrimSpace(records[0][index[columnBenchmark]]),
		Arr:       strings.TrimSpace(records[0][index[columnArr]]),
		N:         strings.TrimSpace(records[0][index[columnN]]),
		columns:   make(map[string][]float64, len(numeric)),
	}
	for line, record := range records {
		for _, column := range numeric {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[index[column]]), 64)
			if err != nil {
				return Counters{}, &trace.MalformedInputError{
					Source: source,
					Reason: fmt.Sprintf("row %d: invalid %s value %q", line+2, column, record[index[column]]),
				}
			}
			c.columns[column] = append(c.columns[column], v)
		}
	}
	return c, nil
}
