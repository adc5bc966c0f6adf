package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"powertrace/internal/table"
)

// createCsvReport writes each table as a header line followed by its rows. Tables
// are separated by an empty line; a single table is a plain CSV file.
func createCsvReport(allTableValues []table.TableValues) (out []byte, err error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for i, tableValues := range allTableValues {
		if i > 0 {
			w.Flush()
			buf.WriteString("\n")
		}
		header := make([]string, len(tableValues.Fields))
		for j, field := range tableValues.Fields {
			header[j] = field.Name
		}
		if err = w.Write(header); err != nil {
			return nil, fmt.Errorf("failed to write csv header for %s: %w", tableValues.Name, err)
		}
		if err = w.WriteAll(tableValues.Records()); err != nil {
			return nil, fmt.Errorf("failed to write csv rows for %s: %w", tableValues.Name, err)
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
