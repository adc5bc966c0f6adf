// Package model tabulates benchmark measurement runs into an energy and performance
// model: one row per run with its duration, per device energy and power variability,
// and instruction counts.
package model

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
)

// Row is the model entry for one measurement run.
type Row struct {
	Source      string // run directory
	Benchmark   string
	Arr         string
	N           string
	Duration    float64
	Energy      []float64 // mean counter energy, indexed by device
	PowerStdDev []float64 // watts, indexed by device
	SQInsts     float64
	SQInstsVALU float64
	SQInstsMFMA float64
	SQInstsSALU float64
	Derived     []float64 // values of Table.DerivedNames
}

// Table is the model: rows sorted by benchmark and array size.
type Table struct {
	Devices      int
	DerivedNames []string
	Rows         []Row
}

// Sort orders rows by benchmark name, then by array size. Numeric sizes compare by
// value and sort before non-numeric ones. The sort is stable, so sorting a sorted
// table leaves it unchanged.
func (t *Table) Sort() {
	slices.SortStableFunc(t.Rows, func(a, b Row) int {
		if c := cmp.Compare(a.Benchmark, b.Benchmark); c != 0 {
			return c
		}
		return compareArr(a.Arr, b.Arr)
	})
}

func compareArr(a, b string) int {
	av, aErr := strconv.ParseFloat(a, 64)
	bv, bErr := strconv.ParseFloat(b, 64)
	switch {
	case aErr == nil && bErr == nil:
		return cmp.Compare(av, bv)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	}
	return cmp.Compare(a, b)
}

// variable names of the fixed columns
const (
	varBenchmark   = "benchmark"
	varArr         = "arr"
	varN           = "n"
	varDuration    = "duration"
	varSQInsts     = "sq_insts"
	varSQInstsVALU = "sq_insts_valu"
	varSQInstsMFMA = "sq_insts_mfma"
	varSQInstsSALU = "sq_insts_salu"
)

func energyName(device int) string {
	return fmt.Sprintf("e_d%d", device)
}

func powerStdDevName(device int) string {
	return fmt.Sprintf("p_std_d%d", device)
}

// Header returns the column names of the model.
func (t Table) Header() []string {
	header := []string{varBenchmark, varArr, varN, varDuration}
	for device := range t.Devices {
		header = append(header, energyName(device))
	}
	for device := range t.Devices {
		header = append(header, powerStdDevName(device))
	}
	header = append(header, varSQInsts, varSQInstsVALU, varSQInstsMFMA, varSQInstsSALU)
	return append(header, t.DerivedNames...)
}

// Records returns the rows formatted as text, in Header order.
func (t Table) Records() [][]string {
	records := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		record := []string{row.Benchmark, row.Arr, row.N, formatFloat(row.Duration)}
		for _, values := range [][]float64{row.Energy, row.PowerStdDev} {
			for device := range t.Devices {
				record = append(record, formatFloat(valueAt(values, device)))
			}
		}
		for _, v := range []float64{row.SQInsts, row.SQInstsVALU, row.SQInstsMFMA, row.SQInstsSALU} {
			record = append(record, formatFloat(v))
		}
		for i := range t.DerivedNames {
			record = append(record, formatFloat(valueAt(row.Derived, i)))
		}
		records = append(records, record)
	}
	return records
}

// Variables returns the named values of a row for use in derived metric expressions.
// arr and n are numbers when they parse as numbers.
func (t Table) Variables(row Row) map[string]any {
	vars := map[string]any{
		varBenchmark:   row.Benchmark,
		varArr:         numberOrString(row.Arr),
		varN:           numberOrString(row.N),
		varDuration:    row.Duration,
		varSQInsts:     row.SQInsts,
		varSQInstsVALU: row.SQInstsVALU,
		varSQInstsMFMA: row.SQInstsMFMA,
		varSQInstsSALU: row.SQInstsSALU,
	}
	for device := range t.Devices {
		vars[energyName(device)] = valueAt(row.Energy, device)
		vars[powerStdDevName(device)] = valueAt(row.PowerStdDev, device)
	}
	for i, name := range t.DerivedNames {
		if i < len(row.Derived) {
			vars[name] = row.Derived[i]
		}
	}
	return vars
}

func valueAt(values []float64, i int) float64 {
	if i < len(values) {
		return values[i]
	}
	return math.NaN()
}

func numberOrString(s string) any {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return s
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
