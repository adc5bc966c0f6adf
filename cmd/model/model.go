// Package model is a subcommand of the root command. It builds a table with one row per
// benchmark run from a measurements directory, for fitting power models.
package model

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"powertrace/internal/app"
	"powertrace/internal/config"
	"powertrace/internal/model"
	"powertrace/internal/progress"
	"powertrace/internal/report"
	"powertrace/internal/table"
	"powertrace/internal/util"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const cmdName = "model"

var examples = []string{
	fmt.Sprintf("  Build the model table:                   $ %s %s --input ./measurements", app.Name, cmdName),
	fmt.Sprintf("  Keep going when a run is incomplete:     $ %s %s --input ./measurements --skip-failed", app.Name, cmdName),
	fmt.Sprintf("  Selected benchmarks, csv output only:    $ %s %s --input ./measurements --benchmark gemm,stream --format csv", app.Name, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName,
	Short:         "Build a power model table from benchmark measurements",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	PreRunE:       validateFlags,
	GroupID:       "primary",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
}

var (
	flagInput         string
	flagFormat        []string
	flagDevices       int
	flagCounterDevice int
	flagBenchmarks    []string
	flagSkipFailed    bool
)

const (
	flagDevicesName       = "devices"
	flagCounterDeviceName = "counter-device"
	flagBenchmarkName     = "benchmark"
	flagSkipFailedName    = "skip-failed"
)

var formatOptions = []string{report.FormatCsv, report.FormatTxt, report.FormatJson, report.FormatXlsx}

func init() {
	defaults := config.Default()
	Cmd.Flags().StringVar(&flagInput, app.FlagInputName, "", "")
	Cmd.Flags().StringSliceVar(&flagFormat, app.FlagFormatName, []string{report.FormatAll}, "")
	Cmd.Flags().IntVar(&flagDevices, flagDevicesName, defaults.Devices, "")
	Cmd.Flags().IntVar(&flagCounterDevice, flagCounterDeviceName, defaults.CounterDevice, "")
	Cmd.Flags().StringSliceVar(&flagBenchmarks, flagBenchmarkName, nil, "")
	Cmd.Flags().BoolVar(&flagSkipFailed, flagSkipFailedName, false, "")

	Cmd.SetUsageFunc(usageFunc)
}

func usageFunc(cmd *cobra.Command) error {
	cmd.Printf("Usage: %s [flags]\n\n", cmd.CommandPath())
	cmd.Printf("Examples:\n%s\n\n", cmd.Example)
	cmd.Println("Flags:")
	for _, group := range getFlagGroups() {
		cmd.Printf("  %s:\n", group.GroupName)
		for _, flag := range group.Flags {
			flagDefault := ""
			if cmd.Flags().Lookup(flag.Name).DefValue != "" {
				flagDefault = fmt.Sprintf(" (default: %s)", cmd.Flags().Lookup(flag.Name).DefValue)
			}
			cmd.Printf("    --%-20s %s%s\n", flag.Name, flag.Help, flagDefault)
		}
	}
	cmd.Println("\nGlobal Flags:")
	cmd.Root().PersistentFlags().VisitAll(func(pf *pflag.Flag) {
		flagDefault := ""
		if pf.DefValue != "" {
			flagDefault = fmt.Sprintf(" (default: %s)", pf.DefValue)
		}
		cmd.Printf("  --%-20s %s%s\n", pf.Name, pf.Usage, flagDefault)
	})
	return nil
}

func getFlagGroups() []app.FlagGroup {
	flags := []app.Flag{
		{
			Name: app.FlagInputName,
			Help: "measurements directory laid out as <benchmark>/<arr>/<n>/",
		},
		{
			Name: flagDevicesName,
			Help: "number of devices in the power and counter files",
		},
		{
			Name: flagCounterDeviceName,
			Help: "device whose instruction counters are reported",
		},
		{
			Name: flagBenchmarkName,
			Help: "benchmark directories to include, all when not set",
		},
		{
			Name: flagSkipFailedName,
			Help: "skip runs that cannot be processed instead of stopping",
		},
		{
			Name: app.FlagFormatName,
			Help: fmt.Sprintf("choose output format(s) from: %s", strings.Join(append([]string{report.FormatAll}, formatOptions...), ", ")),
		},
	}
	return []app.FlagGroup{{GroupName: "Options", Flags: flags}}
}

func validateFlags(cmd *cobra.Command, args []string) error {
	if flagInput == "" {
		return app.FlagValidationError(cmd, fmt.Sprintf("--%s is required", app.FlagInputName))
	}
	if exists, err := util.DirectoryExists(flagInput); err != nil || !exists {
		return app.FlagValidationError(cmd, fmt.Sprintf("input directory not found: %s", flagInput))
	}
	for _, format := range flagFormat {
		if format != report.FormatAll && !slices.Contains(formatOptions, format) {
			return app.FlagValidationError(cmd, fmt.Sprintf("format options are: %s", strings.Join(append([]string{report.FormatAll}, formatOptions...), ", ")))
		}
	}
	return nil
}

// applyFlags overrides the configuration with the flags set on the command line.
func applyFlags(flags *pflag.FlagSet, cfg config.Config) config.Config {
	if flags.Changed(flagDevicesName) {
		cfg.Devices = flagDevices
		// keep a file supplied reference device valid when fewer devices are requested
		cfg.Device = min(cfg.Device, flagDevices-1)
	}
	if flags.Changed(flagCounterDeviceName) {
		cfg.CounterDevice = flagCounterDevice
	}
	if flags.Changed(flagBenchmarkName) {
		cfg.Benchmarks = flagBenchmarks
	}
	return cfg
}

// boardStatus shows build progress on a status board, adding a line for every
// benchmark the first time it reports.
func boardStatus(board *progress.Board) model.StatusFunc {
	return func(benchmark string, status string) {
		if err := board.Status(benchmark, status); err == nil {
			return
		}
		if err := board.Add(benchmark); err != nil {
			slog.Debug(err.Error())
			return
		}
		if err := board.Status(benchmark, status); err != nil {
			slog.Debug(err.Error())
		}
	}
}

func runCmd(cmd *cobra.Command, args []string) error {
	appContext, err := app.FromCommand(cmd)
	if err != nil {
		return err
	}
	cfg := applyFlags(cmd.Flags(), appContext.Config)
	if err := cfg.ValidateModel(); err != nil {
		return app.FlagValidationError(cmd, err.Error())
	}
	root, err := util.AbsPath(flagInput)
	if err != nil {
		return err
	}
	board := progress.NewBoard()
	modelTable, err := model.Build(root, model.Options{
		Devices:       cfg.Devices,
		CounterDevice: cfg.CounterDevice,
		SkipFailed:    flagSkipFailed,
		Benchmarks:    cfg.Benchmarks,
		Derived:       cfg.DerivedMetrics,
		Status:        boardStatus(board),
	})
	board.Finish()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error(err.Error())
		cmd.SilenceUsage = true
		return err
	}
	tableValues, err := table.ModelTable(modelTable)
	if err != nil {
		slog.Error(err.Error())
		cmd.SilenceUsage = true
		return err
	}
	formats := report.ExpandFormats(flagFormat, formatOptions)
	paths, err := app.WriteReports(appContext.OutputDir, "model_"+appContext.Timestamp, formats, []table.TableValues{tableValues})
	app.PrintReportPaths(paths)
	if err != nil {
		cmd.SilenceUsage = true
		return err
	}
	fmt.Printf("Rows: %d\n", len(modelTable.Rows))
	return nil
}
