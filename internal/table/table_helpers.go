// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package table

import (
	"math"
	"strconv"
)

// decimals used for seconds, watts and joules
const decimals = 3

// formatFloat renders v with prec decimals, or the shortest exact form when prec is
// negative. NaN becomes an empty value.
func formatFloat(v float64, prec int) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func fixed(v float64) string {
	return formatFloat(v, decimals)
}
