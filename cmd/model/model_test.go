package model

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"bytes"
	"fmt"
	"testing"

	"powertrace/internal/config"
	"powertrace/internal/progress"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardStatus(t *testing.T) {
	var out bytes.Buffer
	status := boardStatus(progress.NewBoardTo(&out))
	status("gemm", "run 1/2")
	status("gemm", "done, 2 run(s)")
	status("stream", "failed")
	want := fmt.Sprintf("%-20s  %s\n", "gemm", "run 1/2") +
		fmt.Sprintf("%-20s  %s\n", "gemm", "done, 2 run(s)") +
		fmt.Sprintf("%-20s  %s\n", "stream", "failed")
	assert.Equal(t, want, out.String())
}

func TestApplyFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.IntVar(&flagDevices, flagDevicesName, 4, "")
	fs.IntVar(&flagCounterDevice, flagCounterDeviceName, 0, "")
	fs.StringSliceVar(&flagBenchmarks, flagBenchmarkName, nil, "")
	require.NoError(t, fs.Parse([]string{"--devices", "2", "--benchmark", "gemm,stream"}))

	file := config.Default()
	file.Device = 3
	file.CounterDevice = 1
	cfg := applyFlags(fs, file)
	assert.Equal(t, 2, cfg.Devices)
	assert.Equal(t, 1, cfg.Device)
	assert.Equal(t, 1, cfg.CounterDevice)
	assert.Equal(t, []string{"gemm", "stream"}, cfg.Benchmarks)
	assert.NoError(t, cfg.ValidateModel())
}
