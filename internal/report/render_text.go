package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"powertrace/internal/table"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func createTextReport(allTableValues []table.TableValues) (out []byte, err error) {
	var sb strings.Builder
	for _, tableValues := range allTableValues {
		sb.WriteString(fmt.Sprintf("%s\n", tableValues.Name))
		for range len(tableValues.Name) {
			sb.WriteString("=")
		}
		sb.WriteString("\n")
		if tableValues.NumRows() == 0 {
			msg := noDataFound
			if tableValues.NoDataFound != "" {
				msg = tableValues.NoDataFound
			}
			sb.WriteString(msg + "\n\n")
			continue
		}
		// custom renderer defined?
		if tableValues.TextTableRendererFunc != nil {
			sb.WriteString(tableValues.TextTableRendererFunc(tableValues))
		} else {
			sb.WriteString(DefaultTextTableRendererFunc(tableValues))
		}
		sb.WriteString("\n")
	}
	out = []byte(sb.String())
	return
}

// readable adds thousands separators to large numeric values, e.g., 1234567.5 becomes
// 1,234,567.5. Other values are returned unchanged.
func readable(p *message.Printer, value string) string {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.Abs(f) < 1000 || math.IsInf(f, 0) {
		return value
	}
	decimals := 0
	if dot := strings.IndexByte(value, '.'); dot >= 0 {
		decimals = len(value) - dot - 1
	}
	if strings.ContainsAny(value, "eE") {
		decimals = 2
	}
	return p.Sprintf(fmt.Sprintf("%%.%df", decimals), f)
}

func DefaultTextTableRendererFunc(tableValues table.TableValues) string {
	p := message.NewPrinter(language.English) // use printer to get commas at thousands
	var sb strings.Builder
	if tableValues.HasRows { // print the field names as column headings across the top of the table
		values := make([][]string, len(tableValues.Fields))
		for i, field := range tableValues.Fields {
			for _, val := range field.Values {
				values[i] = append(values[i], readable(p, val))
			}
		}
		// find the longest item per column -- can be the field name (column header) or a value
		maxFieldLen := make([]int, len(tableValues.Fields))
		for i, field := range tableValues.Fields {
			// the last column shouldn't occupy more space than the value
			if i == len(tableValues.Fields)-1 {
				continue
			}
			maxFieldLen[i] = len(field.Name)
			for _, val := range values[i] {
				maxFieldLen[i] = max(maxFieldLen[i], len(val))
			}
		}
		columnSpacing := 3
		// print the field names
		for i, field := range tableValues.Fields {
			sb.WriteString(fmt.Sprintf("%-*s", maxFieldLen[i]+columnSpacing, field.Name))
		}
		sb.WriteString("\n")
		// underline the field names
		for i, field := range tableValues.Fields {
			sb.WriteString(fmt.Sprintf("%-*s", maxFieldLen[i]+columnSpacing, strings.Repeat("-", len(field.Name))))
		}
		sb.WriteString("\n")
		for row := range tableValues.NumRows() {
			for i := range tableValues.Fields {
				sb.WriteString(fmt.Sprintf("%-*s", maxFieldLen[i]+columnSpacing, values[i][row]))
			}
			sb.WriteString("\n")
		}
	} else {
		// get the longest field name to format the table nicely
		maxFieldNameLen := 0
		for _, field := range tableValues.Fields {
			maxFieldNameLen = max(maxFieldNameLen, len(field.Name))
		}
		// print the field names followed by their value
		for _, field := range tableValues.Fields {
			var value string
			if len(field.Values) > 0 {
				value = readable(p, field.Values[0])
			}
			sb.WriteString(fmt.Sprintf("%s%-*s %s\n", field.Name, maxFieldNameLen-len(field.Name)+1, ":", value))
		}
	}
	return sb.String()
}
