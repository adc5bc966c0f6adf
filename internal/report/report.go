// Package report provides functions to generate reports in various formats such as txt, json, csv, xlsx.
package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"strings"

	"powertrace/internal/table"
)

const (
	FormatXlsx = "xlsx"
	FormatJson = "json"
	FormatTxt  = "txt"
	FormatCsv  = "csv"
	FormatProm = "prom"
	FormatAll  = "all"
)

const noDataFound = "No data found."

// FormatOptions are the formats Create can render.
var FormatOptions = []string{FormatTxt, FormatJson, FormatCsv, FormatXlsx}

// Create generates a report in the specified format from the tables.
// The function ensures that all fields have the same number of values before generating the report.
func Create(format string, allTableValues []table.TableValues) (out []byte, err error) {
	for _, tableValues := range allTableValues {
		if err = table.Validate(tableValues); err != nil {
			return nil, err
		}
	}
	switch format {
	case FormatTxt:
		return createTextReport(allTableValues)
	case FormatJson:
		return createJsonReport(allTableValues)
	case FormatCsv:
		return createCsvReport(allTableValues)
	case FormatXlsx:
		return createXlsxReport(allTableValues)
	}
	return nil, fmt.Errorf("expected one of %s, got %s", strings.Join(FormatOptions, ", "), format)
}

// ExpandFormats replaces FormatAll with the given formats and removes duplicates,
// keeping the order of first appearance.
func ExpandFormats(formats []string, all []string) []string {
	var expanded []string
	seen := make(map[string]bool)
	for _, format := range formats {
		candidates := []string{format}
		if format == FormatAll {
			candidates = all
		}
		for _, c := range candidates {
			if !seen[c] {
				seen[c] = true
				expanded = append(expanded, c)
			}
		}
	}
	return expanded
}
