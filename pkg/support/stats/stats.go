// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package stats summarizes series of float64 values, typically epoch errors or unit responses.
package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean of values. It returns NaN for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return stat.Mean(values, nil)
}

// Max of values. It returns NaN for an empty slice.
func Max(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return floats.Max(values)
}

// Min of values. It returns NaN for an empty slice.
func Min(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return floats.Min(values)
}

// Summary of a series of values.
type Summary struct {
	Count          int
	Mean, StdDev   float64
	Min, Max, Last float64
}

// Summarize returns the Summary of values. All fields but Count are NaN for an empty slice.
func Summarize(values []float64) Summary {
	s := Summary{Count: len(values)}
	if len(values) == 0 {
		s.Mean, s.StdDev, s.Min, s.Max, s.Last = math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return s
	}
	s.Mean = Mean(values)
	s.StdDev = stat.StdDev(values, nil)
	if len(values) == 1 {
		s.StdDev = 0
	}
	s.Min = Min(values)
	s.Max = Max(values)
	s.Last = values[len(values)-1]
	return s
}

// String implements fmt.Stringer.
func (s Summary) String() string {
	return fmt.Sprintf("n=%d mean=%.4f std=%.4f min=%.4f max=%.4f last=%.4f",
		s.Count, s.Mean, s.StdDev, s.Min, s.Max, s.Last)
}
