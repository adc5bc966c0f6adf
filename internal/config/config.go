// Package config loads the optional YAML file that supplies analysis settings.
package config

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"

	"powertrace/internal/energy"
	"powertrace/internal/trace"

	"gopkg.in/yaml.v2"
)

// Config holds the settings that can be given in a configuration file. Command line
// flags override the values read from the file.
type Config struct {
	Devices        int             `yaml:"devices"`
	Device         int             `yaml:"device"`
	Threshold      float64         `yaml:"threshold"`
	StartMargin    float64         `yaml:"start_margin"`
	StopMargin     float64         `yaml:"stop_margin"`
	Segments       int             `yaml:"segments"`
	Integration    string          `yaml:"integration"`
	Alignment      string          `yaml:"alignment"`
	CounterDevice  int             `yaml:"counter_device"`
	Benchmarks     []string        `yaml:"benchmarks"`
	DerivedMetrics []DerivedMetric `yaml:"derived_metrics"`
}

// DerivedMetric is an extra model column computed from an expression over the other
// columns of a row, e.g. "e_d0 / duration".
type DerivedMetric struct {
	Name       string `yaml:"name"`
	Expression string `yaml:"expression"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Devices:     trace.DefaultDeviceCount,
		Threshold:   energy.DefaultThreshold,
		StartMargin: energy.DefaultMargins.Start,
		StopMargin:  energy.DefaultMargins.Stop,
		Segments:    trace.DefaultSegmentCount,
		Integration: string(energy.RuleTrapezoid),
		Alignment:   string(trace.AlignIndex),
	}
}

// Load reads a configuration file. Keys missing from the file keep their default values
// and unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	contents, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.UnmarshalStrict(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	slog.Debug("loaded config file", slog.String("path", path))
	return cfg, nil
}

var metricNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks that every setting is in range.
func (c Config) Validate() error {
	if c.Devices <= 0 {
		return fmt.Errorf("devices must be positive, got %d", c.Devices)
	}
	if c.Device < 0 || c.Device >= c.Devices {
		return fmt.Errorf("device must be between 0 and %d, got %d", c.Devices-1, c.Device)
	}
	if c.CounterDevice < 0 {
		return fmt.Errorf("counter_device must not be negative, got %d", c.CounterDevice)
	}
	if c.Threshold <= 0 {
		return fmt.Errorf("threshold must be positive, got %g", c.Threshold)
	}
	if c.StartMargin < 0 || c.StopMargin < 0 {
		return fmt.Errorf("margins must not be negative, got %g and %g", c.StartMargin, c.StopMargin)
	}
	if c.Segments <= 0 {
		return fmt.Errorf("segments must be positive, got %d", c.Segments)
	}
	if _, err := energy.ParseRule(c.Integration); err != nil {
		return err
	}
	if _, err := trace.ParseAlignment(c.Alignment); err != nil {
		return err
	}
	names := make(map[string]bool)
	for _, m := range c.DerivedMetrics {
		if !metricNameRe.MatchString(m.Name) {
			return fmt.Errorf("invalid derived metric name %q", m.Name)
		}
		if names[m.Name] {
			return fmt.Errorf("duplicate derived metric name %q", m.Name)
		}
		names[m.Name] = true
		if m.Expression == "" {
			return fmt.Errorf("derived metric %q has no expression", m.Name)
		}
	}
	return nil
}

// ValidateModel checks the settings a model build reads on top of Validate.
func (c Config) ValidateModel() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.CounterDevice >= c.Devices {
		return fmt.Errorf("counter_device must be between 0 and %d, got %d", c.Devices-1, c.CounterDevice)
	}
	return nil
}

// AnalysisOptions converts the analysis settings to energy.Options. The configuration
// must be valid.
func (c Config) AnalysisOptions() energy.Options {
	rule, _ := energy.ParseRule(c.Integration)
	alignment, _ := trace.ParseAlignment(c.Alignment)
	return energy.Options{
		Device:    c.Device,
		Threshold: c.Threshold,
		Margins:   energy.Margins{Start: c.StartMargin, Stop: c.StopMargin},
		Rule:      rule,
		Alignment: alignment,
	}
}
