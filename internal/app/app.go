// Package app defines application-wide types, constants, and context
// that are shared across multiple commands.
package app

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"powertrace/internal/config"

	"github.com/spf13/cobra"
)

// Name is the name of the application executable.
var Name = filepath.Base(os.Args[0])

// Context represents the application context that can be accessed from all commands.
type Context struct {
	Timestamp   string        // Timestamp is the timestamp when the application was started.
	OutputDir   string        // OutputDir is the directory where the application will write output files.
	LogFilePath string        // LogFilePath is the path to the log file.
	Version     string        // Version is the version of the application.
	Debug       bool          // Debug is true if the application is running in debug mode.
	Config      config.Config // Config holds the analysis settings, from the config file when one is given.
}

type contextKey struct{}

// WithContext returns a copy of parent carrying the application context.
func WithContext(parent context.Context, appContext Context) context.Context {
	return context.WithValue(parent, contextKey{}, appContext)
}

// FromCommand returns the application context stored on the root command.
func FromCommand(cmd *cobra.Command) (Context, error) {
	root := cmd.Root()
	var ctx context.Context
	if root != nil {
		ctx = root.Context()
	}
	if ctx == nil {
		return Context{}, errors.New("application context not initialized")
	}
	appContext, ok := ctx.Value(contextKey{}).(Context)
	if !ok {
		return Context{}, errors.New("application context not initialized")
	}
	return appContext, nil
}

// Flag names for input and format flags used by analysis commands.
const (
	FlagInputName  = "input"
	FlagFormatName = "format"
)

// Flag names for flags defined in the root command, but sometimes used in other commands.
const (
	FlagDebugName     = "debug"
	FlagSyslogName    = "syslog"
	FlagLogStdOutName = "log-stdout"
	FlagOutputDirName = "output"
	FlagConfigName    = "config"
)

// Flag represents a command-line flag with its name and help text.
type Flag struct {
	Name string
	Help string
}

// FlagGroup represents a group of related flags with a group name.
type FlagGroup struct {
	GroupName string
	Flags     []Flag
}

// FlagValidationError is used to report an error with a flag
func FlagValidationError(cmd *cobra.Command, msg string) error {
	err := errors.New(msg)
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	fmt.Fprintf(os.Stderr, "See '%s --help' for usage details.\n", cmd.CommandPath())
	cmd.SilenceUsage = true
	return err
}
