package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"

	"powertrace/internal/energy"

	"github.com/prometheus/client_golang/prometheus"
)

const promMetricPrefix = "powertrace_"

// Gauge is one sample written to a Prometheus textfile.
type Gauge struct {
	Name   string // without the powertrace_ prefix
	Help   string
	Labels prometheus.Labels
	Value  float64
}

// WritePrometheus writes the gauges to path in the Prometheus text exposition format,
// ready for a node exporter textfile collector. Gauges sharing a name must share label
// names. NaN values are skipped.
func WritePrometheus(path string, gauges []Gauge) error {
	registry := prometheus.NewRegistry()
	vecs := make(map[string]*prometheus.GaugeVec)
	for _, g := range gauges {
		if math.IsNaN(g.Value) {
			slog.Debug("skipping NaN gauge", slog.String("name", g.Name))
			continue
		}
		name := promMetricPrefix + g.Name
		vec, ok := vecs[name]
		if !ok {
			labelNames := make([]string, 0, len(g.Labels))
			for label := range g.Labels {
				labelNames = append(labelNames, label)
			}
			slices.Sort(labelNames)
			vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: g.Help}, labelNames)
			if err := registry.Register(vec); err != nil {
				return fmt.Errorf("failed to register gauge %s: %w", name, err)
			}
			vecs[name] = vec
		}
		gauge, err := vec.GetMetricWith(g.Labels)
		if err != nil {
			return fmt.Errorf("gauge %s: %w", name, err)
		}
		gauge.Set(g.Value)
	}
	return prometheus.WriteToTextfile(path, registry)
}

// AnalysisGauges lists the results of a power analysis as gauges labelled with the
// analyzed input.
func AnalysisGauges(a energy.Analysis, input string) []Gauge {
	ref := prometheus.Labels{"input": input, "device": strconv.Itoa(a.Options.Device)}
	gauges := []Gauge{
		{Name: "simple_power_watts", Help: "Average power over the kernel window.", Labels: ref, Value: a.Simple.Rate},
		{Name: "simple_energy_joules", Help: "Energy over the kernel window.", Labels: ref, Value: a.Simple.Energy},
		{Name: "kernel_window_seconds", Help: "Length of the kernel window.", Labels: ref, Value: a.Kernel.Duration()},
	}
	if adv := a.Advanced; adv != nil {
		gauges = append(gauges,
			Gauge{Name: "advanced_power_watts", Help: "Idle corrected average power over the kernel window.", Labels: ref, Value: adv.Rate},
			Gauge{Name: "advanced_energy_joules", Help: "Idle corrected energy of the active window.", Labels: ref, Value: adv.Energy},
			Gauge{Name: "idle_power_watts", Help: "Mean power outside the active window.", Labels: ref, Value: adv.Idle},
			Gauge{Name: "active_window_seconds", Help: "Length of the detected active window.", Labels: ref, Value: adv.Active.Duration()},
		)
	}
	for _, d := range a.Devices {
		labels := prometheus.Labels{"input": input, "device": strconv.Itoa(d.Device)}
		gauges = append(gauges,
			Gauge{Name: "device_mean_power_watts", Help: "Mean power of the averaged trace.", Labels: labels, Value: d.Mean},
			Gauge{Name: "device_kernel_power_watts", Help: "Average device power over the kernel window.", Labels: labels, Value: d.Kernel.Rate},
		)
	}
	return gauges
}
