// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package table defines the field/value tables that analysis results are reduced to
// before rendering, and builds them from power analyses and models.
package table

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Field represents the values for a field in a table
type Field struct {
	Name        string
	Description string // optional description of the field
	Values      []string
}

// TableValues combines the table definition with the resulting fields and their values
type TableValues struct {
	TableDefinition
	Fields []Field
}

type TextTableRenderer func(TableValues) string
type XlsxTableRenderer func(TableValues, *excelize.File, string, *int)

// TableDefinition defines the structure of a table in the report
type TableDefinition struct {
	Name        string
	HasRows     bool   // table is meant to be displayed in row form, i.e., a field may have multiple values
	NoDataFound string // message to display when no data is found
	// optional renderers, the report's default renderer is used when nil
	TextTableRendererFunc TextTableRenderer
	XlsxTableRendererFunc XlsxTableRenderer
}

// NumRows returns the number of values held by each field.
func (tv TableValues) NumRows() int {
	if len(tv.Fields) == 0 {
		return 0
	}
	return len(tv.Fields[0].Values)
}

// GetFieldIndex returns the index of a field with the given name in the TableValues structure.
// Returns:
//   - int: The index of the field if found and valid, -1 otherwise
//   - error: nil if successful, an error describing the issue otherwise
func GetFieldIndex(fieldName string, tableValues TableValues) (int, error) {
	for i, field := range tableValues.Fields {
		if field.Name == fieldName {
			if len(field.Values) == 0 {
				return -1, fmt.Errorf("field [%s] does not have associated value(s)", field.Name)
			}
			return i, nil
		}
	}
	return -1, fmt.Errorf("field [%s] not found in table [%s]", fieldName, tableValues.Name)
}

// FromRecords builds a row table from a header and records in header order.
func FromRecords(definition TableDefinition, header []string, records [][]string) (TableValues, error) {
	tv := TableValues{TableDefinition: definition, Fields: make([]Field, len(header))}
	for i, name := range header {
		tv.Fields[i] = Field{Name: name, Values: make([]string, 0, len(records))}
	}
	for r, record := range records {
		if len(record) != len(header) {
			return TableValues{}, fmt.Errorf("table %s, record %d has %d value(s), expected %d", definition.Name, r, len(record), len(header))
		}
		for i, value := range record {
			tv.Fields[i].Values = append(tv.Fields[i].Values, value)
		}
	}
	return tv, Validate(tv)
}

// Records returns the table's values row by row, in field order.
func (tv TableValues) Records() [][]string {
	records := make([][]string, tv.NumRows())
	for r := range records {
		records[r] = make([]string, len(tv.Fields))
		for i, field := range tv.Fields {
			records[r][i] = field.Values[r]
		}
	}
	return records
}

// Validate checks that a table has a name, that its fields have names, and that every
// field holds the same number of values.
func Validate(tableValues TableValues) error {
	if tableValues.Name == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	// no field values is a valid state
	if len(tableValues.Fields) == 0 {
		return nil
	}
	for i, field := range tableValues.Fields {
		if field.Name == "" {
			return fmt.Errorf("table %s, field %d, name cannot be empty", tableValues.Name, i)
		}
	}
	numEntries := len(tableValues.Fields[0].Values)
	for i, field := range tableValues.Fields {
		if len(field.Values) != numEntries {
			return fmt.Errorf("table %s, field %d, %s, number of entries must be the same for all fields, expected %d, got %d", tableValues.Name, i, field.Name, numEntries, len(field.Values))
		}
	}
	return nil
}
