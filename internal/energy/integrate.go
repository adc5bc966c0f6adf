package energy

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"powertrace/internal/trace"
)

// Rule selects how the power between two consecutive samples is accumulated.
type Rule string

const (
	// RuleTrapezoid adds the rectangle under the lower reading and the triangle between
	// the two readings, which is the trapezoid area.
	RuleTrapezoid Rule = "trapezoid"
	// RuleLegacyUpper uses the higher reading for the rectangle, overestimating every
	// step by half the change. Kept to reproduce historical results.
	RuleLegacyUpper Rule = "legacy-upper"
)

// ParseRule converts a configuration string to a Rule. The empty string selects
// RuleTrapezoid.
func ParseRule(s string) (Rule, error) {
	switch Rule(s) {
	case RuleTrapezoid, "":
		return RuleTrapezoid, nil
	case RuleLegacyUpper:
		return RuleLegacyUpper, nil
	}
	return "", fmt.Errorf("unknown integration rule %q, expected one of %s, %s", s, RuleTrapezoid, RuleLegacyUpper)
}

// Integrate returns the energy in joules drawn by a device over w, bounds included.
// Samples are ordered by timestamp first; ties keep their recorded order.
func Integrate(t trace.Trace, device int, w Window, rule Rule) (float64, error) {
	if err := t.CheckDevice(device); err != nil {
		return 0, err
	}
	var inside []trace.Sample
	for _, s := range t.Samples {
		if w.Contains(s.Timestamp) {
			inside = append(inside, s)
		}
	}
	if len(inside) < 2 {
		return 0, fmt.Errorf("%w in window %s, found %d", ErrInsufficientSamples, w, len(inside))
	}
	slices.SortStableFunc(inside, func(a, b trace.Sample) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})
	var joules float64
	for i := 1; i < len(inside); i++ {
		p1, p2 := inside[i-1].Power[device], inside[i].Power[device]
		dt := math.Abs(inside[i].Timestamp - inside[i-1].Timestamp)
		base := min(p1, p2)
		if rule == RuleLegacyUpper {
			base = max(p1, p2)
		}
		joules += base*dt + math.Abs(p1-p2)*dt/2
	}
	return joules, nil
}
