package model

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"math"
	"slices"

	"powertrace/internal/config"

	"github.com/casbin/govaluate"
	mapset "github.com/deckarep/golang-set/v2"
)

// derivedMetric is a parsed derived metric expression.
type derivedMetric struct {
	config.DerivedMetric
	evaluable *govaluate.EvaluableExpression
}

// evaluatorFunctions are the functions that can be called in derived metric expressions.
func evaluatorFunctions() map[string]govaluate.ExpressionFunction {
	unary := func(name string, f func(float64) float64) govaluate.ExpressionFunction {
		return func(args ...any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("%s takes one argument, got %d", name, len(args))
			}
			v, ok := args[0].(float64)
			if !ok {
				return nil, fmt.Errorf("%s argument is not a number", name)
			}
			return f(v), nil
		}
	}
	binary := func(name string, f func(float64, float64) float64) govaluate.ExpressionFunction {
		return func(args ...any) (any, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("%s takes two arguments, got %d", name, len(args))
			}
			l, lok := args[0].(float64)
			r, rok := args[1].(float64)
			if !lok || !rok {
				return nil, fmt.Errorf("%s arguments are not numbers", name)
			}
			return f(l, r), nil
		}
	}
	return map[string]govaluate.ExpressionFunction{
		"sqrt": unary("sqrt", math.Sqrt),
		"abs":  unary("abs", math.Abs),
		"log":  unary("log", math.Log),
		"min":  binary("min", math.Min),
		"max":  binary("max", math.Max),
	}
}

// compileDerived parses the expressions and checks that each refers only to model
// columns or to derived metrics defined before it.
func compileDerived(metrics []config.DerivedMetric, header []string) ([]derivedMetric, error) {
	known := mapset.NewSet(header...)
	functions := evaluatorFunctions()
	compiled := make([]derivedMetric, 0, len(metrics))
	for _, m := range metrics {
		if known.Contains(m.Name) {
			return nil, fmt.Errorf("derived metric %s shadows an existing column", m.Name)
		}
		evaluable, err := govaluate.NewEvaluableExpressionWithFunctions(m.Expression, functions)
		if err != nil {
			return nil, fmt.Errorf("failed to parse derived metric %s: %w", m.Name, err)
		}
		unknown := mapset.NewSet(evaluable.Vars()...).Difference(known).ToSlice()
		if len(unknown) > 0 {
			slices.Sort(unknown)
			return nil, fmt.Errorf("derived metric %s uses unknown variable(s) %v", m.Name, unknown)
		}
		compiled = append(compiled, derivedMetric{DerivedMetric: m, evaluable: evaluable})
		known.Add(m.Name)
	}
	return compiled, nil
}

// AddDerived evaluates the derived metrics for every row and appends them as columns.
func (t *Table) AddDerived(metrics []config.DerivedMetric) error {
	compiled, err := compileDerived(metrics, t.Header())
	if err != nil {
		return err
	}
	for _, m := range compiled {
		for i := range t.Rows {
			value, err := evaluateDerived(m, t.Variables(t.Rows[i]))
			if err != nil {
				return fmt.Errorf("run %s: %w", t.Rows[i].Source, err)
			}
			t.Rows[i].Derived = append(t.Rows[i].Derived, value)
		}
		t.DerivedNames = append(t.DerivedNames, m.Name)
	}
	return nil
}

// evaluateDerived runs the expression, converting evaluator panics to errors.
func evaluateDerived(m derivedMetric, variables map[string]any) (value float64, err error) {
	defer func() {
		if errx := recover(); errx != nil {
			err = fmt.Errorf("%v : %s : %s", errx, m.Name, m.Expression)
		}
	}()
	result, err := m.evaluable.Evaluate(variables)
	if err != nil {
		return 0, fmt.Errorf("%v : %s : %s", err, m.Name, m.Expression)
	}
	switch v := result.(type) {
	case float64:
		return v, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("derived metric %s evaluated to %T, expected a number", m.Name, result)
}
