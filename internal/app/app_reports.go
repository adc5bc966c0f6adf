// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package app

// This file contains the report writing shared by the analysis commands.

import (
	"fmt"
	"log/slog"
	"os"

	"powertrace/internal/report"
	"powertrace/internal/table"
	"powertrace/internal/util"
)

// WriteReports renders the tables in each format and writes them to
// <outputDir>/<baseName>.<format>. It returns the paths of the written files.
func WriteReports(outputDir string, baseName string, formats []string, tables []table.TableValues) ([]string, error) {
	var paths []string
	for _, format := range formats {
		reportBytes, err := report.Create(format, tables)
		if err != nil {
			return paths, fmt.Errorf("failed to create %s report: %w", format, err)
		}
		path, err := util.WriteFile(outputDir, fmt.Sprintf("%s.%s", baseName, format), reportBytes)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			slog.Error(err.Error())
			return paths, err
		}
		slog.Info("wrote report", slog.String("path", path))
		paths = append(paths, path)
	}
	return paths, nil
}

// PrintReportPaths lists the written files on stdout.
func PrintReportPaths(paths []string) {
	if len(paths) == 0 {
		return
	}
	fmt.Println("Report files:")
	for _, path := range paths {
		fmt.Printf("  %s\n", path)
	}
}
