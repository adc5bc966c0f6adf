// Package power is a subcommand of the root command. It estimates the energy and average
// power of a kernel from the power traces of repeated runs.
package power

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"powertrace/internal/app"
	"powertrace/internal/config"
	"powertrace/internal/energy"
	"powertrace/internal/report"
	"powertrace/internal/table"
	"powertrace/internal/trace"
	"powertrace/internal/util"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const cmdName = "power"

var examples = []string{
	fmt.Sprintf("  Analyze every power_*.csv in a run directory:   $ %s %s --input ./runs/gemm", app.Name, cmdName),
	fmt.Sprintf("  Analyze selected traces on device 1:            $ %s %s --input power_0.csv,power_1.csv --device 1", app.Name, cmdName),
	fmt.Sprintf("  Kernel window only, no activity detection:      $ %s %s --input ./runs/gemm --simple", app.Name, cmdName),
	fmt.Sprintf("  Also write the averaged trace and derivative:   $ %s %s --input ./runs/gemm --trace --format txt", app.Name, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName,
	Short:         "Estimate kernel energy and average power from device power traces",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	PreRunE:       validateFlags,
	GroupID:       "primary",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
}

var (
	flagInput       []string
	flagFormat      []string
	flagDevices     int
	flagDevice      int
	flagThreshold   float64
	flagStartMargin float64
	flagStopMargin  float64
	flagSegments    int
	flagIntegration string
	flagAlignment   string
	flagTrace       bool
	flagSimple      bool
)

const (
	flagDevicesName     = "devices"
	flagDeviceName      = "device"
	flagThresholdName   = "threshold"
	flagStartMarginName = "start-margin"
	flagStopMarginName  = "stop-margin"
	flagSegmentsName    = "segments"
	flagIntegrationName = "integration"
	flagAlignmentName   = "alignment"
	flagTraceName       = "trace"
	flagSimpleName      = "simple"
)

var formatOptions = []string{report.FormatTxt, report.FormatJson, report.FormatXlsx, report.FormatProm}

func init() {
	defaults := config.Default()
	Cmd.Flags().StringSliceVar(&flagInput, app.FlagInputName, nil, "")
	Cmd.Flags().StringSliceVar(&flagFormat, app.FlagFormatName, []string{report.FormatAll}, "")
	Cmd.Flags().IntVar(&flagDevices, flagDevicesName, defaults.Devices, "")
	Cmd.Flags().IntVar(&flagDevice, flagDeviceName, defaults.Device, "")
	Cmd.Flags().Float64Var(&flagThreshold, flagThresholdName, defaults.Threshold, "")
	Cmd.Flags().Float64Var(&flagStartMargin, flagStartMarginName, defaults.StartMargin, "")
	Cmd.Flags().Float64Var(&flagStopMargin, flagStopMarginName, defaults.StopMargin, "")
	Cmd.Flags().IntVar(&flagSegments, flagSegmentsName, defaults.Segments, "")
	Cmd.Flags().StringVar(&flagIntegration, flagIntegrationName, defaults.Integration, "")
	Cmd.Flags().StringVar(&flagAlignment, flagAlignmentName, defaults.Alignment, "")
	Cmd.Flags().BoolVar(&flagTrace, flagTraceName, false, "")
	Cmd.Flags().BoolVar(&flagSimple, flagSimpleName, false, "")

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
	var groups []app.FlagGroup
	groups = append(groups, app.FlagGroup{
		GroupName: "Input Options",
		Flags: []app.Flag{
			{
				Name: app.FlagInputName,
				Help: "run directories holding power_*.csv files and/or power trace files",
			},
			{
				Name: flagDevicesName,
				Help: "number of power:device=<i> columns in every trace",
			},
		},
	})
	groups = append(groups, app.FlagGroup{
		GroupName: "Analysis Options",
		Flags: []app.Flag{
			{
				Name: flagDeviceName,
				Help: "device used for activity detection and the idle corrected estimate",
			},
			{
				Name: flagThresholdName,
				Help: "smoothed power derivative (W/s) that marks activity",
			},
			{
				Name: flagStartMarginName,
				Help: "seconds from the start of the trace to the kernel start",
			},
			{
				Name: flagStopMarginName,
				Help: "seconds from the kernel stop to the end of the trace",
			},
			{
				Name: flagSegmentsName,
				Help: "number of time slices in the power distribution table",
			},
			{
				Name: flagIntegrationName,
				Help: fmt.Sprintf("integration rule, one of: %s, %s", energy.RuleTrapezoid, energy.RuleLegacyUpper),
			},
			{
				Name: flagAlignmentName,
				Help: fmt.Sprintf("how runs are matched before averaging, one of: %s, %s", trace.AlignIndex, trace.AlignInterpolate),
			},
			{
				Name: flagSimpleName,
				Help: "skip activity detection and report only the kernel window estimate",
			},
		},
	})
	groups = append(groups, app.FlagGroup{
		GroupName: "Output Options",
		Flags: []app.Flag{
			{
				Name: app.FlagFormatName,
				Help: fmt.Sprintf("choose output format(s) from: %s", strings.Join(append([]string{report.FormatAll}, formatOptions...), ", ")),
			},
			{
				Name: flagTraceName,
				Help: "also write the averaged trace with the smoothed derivative as csv",
			},
		},
	})
	return groups
}

func validateFlags(cmd *cobra.Command, args []string) error {
	if len(flagInput) == 0 {
		return app.FlagValidationError(cmd, fmt.Sprintf("--%s is required", app.FlagInputName))
	}
	for _, input := range flagInput {
		if !util.FileOrDirectoryExists(input) {
			return app.FlagValidationError(cmd, fmt.Sprintf("input not found: %s", input))
		}
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
	}
	if flags.Changed(flagDeviceName) {
		cfg.Device = flagDevice
	}
	if flags.Changed(flagThresholdName) {
		cfg.Threshold = flagThreshold
	}
	if flags.Changed(flagStartMarginName) {
		cfg.StartMargin = flagStartMargin
	}
	if flags.Changed(flagStopMarginName) {
		cfg.StopMargin = flagStopMargin
	}
	if flags.Changed(flagSegmentsName) {
		cfg.Segments = flagSegments
	}
	if flags.Changed(flagIntegrationName) {
		cfg.Integration = flagIntegration
	}
	if flags.Changed(flagAlignmentName) {
		cfg.Alignment = flagAlignment
	}
	return cfg
}

// resolveInputs expands run directories to their power trace files. Files are used as
// given.
func resolveInputs(inputs []string) ([]string, error) {
	var paths []string
	for _, input := range inputs {
		path, err := util.AbsPath(input)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to access input: %w", err)
		}
		if !info.IsDir() {
			paths = append(paths, path)
			continue
		}
		files, err := trace.PowerFiles(path)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no power_*.csv files in %s", path)
		}
		paths = append(paths, files...)
	}
	return paths, nil
}

// commandError reports a failure that is not a usage error and returns it.
func commandError(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	slog.Error(err.Error())
	cmd.SilenceUsage = true
	return err
}

// reportName derives the output file prefix from the first input.
func reportName(inputs []string) string {
	name := filepath.Base(filepath.Clean(inputs[0]))
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return util.SanitizeFileName(name)
}

func runCmd(cmd *cobra.Command, args []string) error {
	appContext, err := app.FromCommand(cmd)
	if err != nil {
		return err
	}
	cfg := applyFlags(cmd.Flags(), appContext.Config)
	if err := cfg.Validate(); err != nil {
		return app.FlagValidationError(cmd, err.Error())
	}
	paths, err := resolveInputs(flagInput)
	if err != nil {
		return commandError(cmd, err)
	}
	slog.Info("loading power traces", slog.Int("files", len(paths)))
	traces, err := trace.LoadFiles(paths, cfg.Devices)
	if err != nil {
		return commandError(cmd, err)
	}
	opts := cfg.AnalysisOptions()
	opts.SimpleOnly = flagSimple
	analysis, err := energy.Analyze(traces, opts)
	if err != nil {
		err = commandError(cmd, err)
		if errors.Is(err, energy.ErrNoActivityDetected) || errors.Is(err, energy.ErrInsufficientIdleSamples) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Try a lower --%s or --%s for the kernel window estimate only.\n", flagThresholdName, flagSimpleName)
		}
		return err
	}
	segments, err := trace.Segments(traces, cfg.Segments)
	if err != nil {
		return commandError(cmd, err)
	}
	name := reportName(flagInput)
	paths, err = writeOutputs(appContext.OutputDir, name, analysis, segments)
	app.PrintReportPaths(paths)
	if err != nil {
		cmd.SilenceUsage = true
		return err
	}
	printSummary(analysis)
	return nil
}

func writeOutputs(outputDir string, name string, analysis energy.Analysis, segments []trace.Segment) ([]string, error) {
	formats := report.ExpandFormats(flagFormat, formatOptions)
	var tableFormats []string
	writeProm := false
	for _, format := range formats {
		if format == report.FormatProm {
			writeProm = true
			continue
		}
		tableFormats = append(tableFormats, format)
	}
	paths, err := app.WriteReports(outputDir, name+"_power", tableFormats, table.PowerTables(analysis, segments))
	if err != nil {
		return paths, err
	}
	if writeProm {
		if err := util.CreateDirectoryIfNotExists(outputDir, 0755); err != nil { // #nosec G301
			return paths, err
		}
		promPath := filepath.Join(outputDir, name+"_power."+report.FormatProm)
		if err := report.WritePrometheus(promPath, report.AnalysisGauges(analysis, name)); err != nil {
			slog.Error(err.Error())
			return paths, err
		}
		paths = append(paths, promPath)
	}
	if flagTrace {
		smoothed, err := energy.SmoothedDerivative(analysis.Averaged, analysis.Options.Device)
		if err != nil {
			return paths, err
		}
		traceTable, err := table.TraceTable(analysis.Averaged, smoothed, analysis.Options.Device)
		if err != nil {
			return paths, err
		}
		traceBytes, err := report.Create(report.FormatCsv, []table.TableValues{traceTable})
		if err != nil {
			return paths, err
		}
		tracePath, err := util.WriteFile(outputDir, name+"_trace."+report.FormatCsv, traceBytes)
		if err != nil {
			return paths, err
		}
		paths = append(paths, tracePath)
	}
	return paths, nil
}

func printSummary(a energy.Analysis) {
	fmt.Printf("Kernel window:   %s\n", a.Kernel)
	if adv := a.Advanced; adv != nil {
		fmt.Printf("Active window:   %s\n", adv.Active)
		fmt.Printf("Idle power:      %.3f W\n", adv.Idle)
		fmt.Printf("Advanced power:  %.3f W (%.3f J)\n", adv.Rate, adv.Energy)
	}
	fmt.Printf("Simple power:    %.3f W (%.3f J)\n", a.Simple.Rate, a.Simple.Energy)
}
