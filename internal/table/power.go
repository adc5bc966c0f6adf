// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package table

import (
	"fmt"
	"strconv"

	"powertrace/internal/energy"
	"powertrace/internal/trace"
)

// power report table names
const (
	TableNamePowerSummary      = "Power Summary"
	TableNameDevicePower       = "Device Power"
	TableNamePowerDistribution = "Power Distribution"
	TableNameTrace             = "Trace"
)

// PowerTables reduces an analysis, and the power distribution when segments is not
// empty, to report tables.
func PowerTables(a energy.Analysis, segments []trace.Segment) []TableValues {
	tables := []TableValues{powerSummaryTable(a), devicePowerTable(a)}
	if len(segments) > 0 {
		tables = append(tables, powerDistributionTable(segments))
	}
	return tables
}

func powerSummaryTable(a energy.Analysis) TableValues {
	opts := a.Options
	fields := []Field{
		{Name: "Runs", Values: []string{strconv.Itoa(a.Runs)}},
		{Name: "Averaged Samples", Values: []string{strconv.Itoa(a.Averaged.Len())}},
		{Name: "Reference Device", Values: []string{strconv.Itoa(opts.Device)}},
		{Name: "Alignment", Values: []string{string(opts.Alignment)}},
		{Name: "Integration Rule", Values: []string{string(opts.Rule)}},
		{Name: "Kernel Start (s)", Values: []string{fixed(a.Kernel.Start)}},
		{Name: "Kernel Stop (s)", Values: []string{fixed(a.Kernel.Stop)}},
	}
	if adv := a.Advanced; adv != nil {
		fields = append(fields, []Field{
			{Name: "Threshold (W)", Values: []string{formatFloat(opts.Threshold, -1)}},
			{Name: "Active Start (s)", Values: []string{fixed(adv.Active.Start)}},
			{Name: "Active Stop (s)", Values: []string{fixed(adv.Active.Stop)}},
			{Name: "Idle Power (W)", Values: []string{fixed(adv.Idle)}},
			{Name: "Active Energy (J)", Values: []string{fixed(adv.ActiveEnergy)}},
			{Name: "Idle Contribution (J)", Values: []string{fixed(adv.IdleContribution)}},
			{Name: "Advanced Energy (J)", Values: []string{fixed(adv.Energy)}},
			{Name: "Advanced Power (W)", Values: []string{fixed(adv.Rate)}},
		}...)
	}
	fields = append(fields,
		Field{Name: "Simple Energy (J)", Values: []string{fixed(a.Simple.Energy)}},
		Field{Name: "Simple Power (W)", Values: []string{fixed(a.Simple.Rate)}},
	)
	return TableValues{
		TableDefinition: TableDefinition{Name: TableNamePowerSummary},
		Fields:          fields,
	}
}

func devicePowerTable(a energy.Analysis) TableValues {
	tv := TableValues{
		TableDefinition: TableDefinition{Name: TableNameDevicePower, HasRows: true},
		Fields: []Field{
			{Name: "Device"},
			{Name: "Mean (W)", Description: "mean power over the averaged trace"},
			{Name: "Std Dev (W)", Description: "population standard deviation over the averaged trace"},
			{Name: "Kernel Energy (J)"},
			{Name: "Kernel Power (W)"},
		},
	}
	for _, d := range a.Devices {
		for i, v := range []string{strconv.Itoa(d.Device), fixed(d.Mean), fixed(d.StdDev), fixed(d.Kernel.Energy), fixed(d.Kernel.Rate)} {
			tv.Fields[i].Values = append(tv.Fields[i].Values, v)
		}
	}
	return tv
}

func powerDistributionTable(segments []trace.Segment) TableValues {
	tv := TableValues{
		TableDefinition: TableDefinition{Name: TableNamePowerDistribution, HasRows: true},
		Fields: []Field{
			{Name: "Midpoint (s)"},
			{Name: "Device"},
			{Name: "Samples"},
			{Name: "Min (W)"},
			{Name: "Q1 (W)"},
			{Name: "Median (W)"},
			{Name: "Q3 (W)"},
			{Name: "Max (W)"},
			{Name: "Mean (W)"},
		},
	}
	for _, seg := range segments {
		for device, d := range seg.Devices {
			values := []string{
				formatFloat(seg.Midpoint, 2),
				strconv.Itoa(device),
				strconv.Itoa(d.Count),
				fixed(d.Min),
				fixed(d.Q1),
				fixed(d.Median),
				fixed(d.Q3),
				fixed(d.Max),
				fixed(d.Mean),
			}
			for i, v := range values {
				tv.Fields[i].Values = append(tv.Fields[i].Values, v)
			}
		}
	}
	return tv
}

// TraceTable lists the averaged trace sample by sample. When smoothed is not nil it is
// added as the smoothed power derivative of device.
func TraceTable(averaged trace.Trace, smoothed []float64, device int) (TableValues, error) {
	if smoothed != nil && len(smoothed) != averaged.Len() {
		return TableValues{}, fmt.Errorf("derivative has %d value(s), trace has %d sample(s)", len(smoothed), averaged.Len())
	}
	header := []string{"timestamp"}
	for d := range averaged.DeviceCount() {
		header = append(header, fmt.Sprintf("power_d%d", d))
	}
	if smoothed != nil {
		header = append(header, fmt.Sprintf("smoothed_derivative_d%d", device))
	}
	records := make([][]string, 0, averaged.Len())
	for i, s := range averaged.Samples {
		record := []string{formatFloat(s.Timestamp, -1)}
		for _, p := range s.Power {
			record = append(record, formatFloat(p, -1))
		}
		if smoothed != nil {
			record = append(record, formatFloat(smoothed[i], -1))
		}
		records = append(records, record)
	}
	return FromRecords(TableDefinition{Name: TableNameTrace, HasRows: true}, header, records)
}
