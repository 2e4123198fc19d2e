// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package xslices provide small generic helpers over slices and maps missing from the standard
// slices package, used across the perceptron packages.
package xslices

import (
	"cmp"
	"slices"
)

// Copy creates a new (shallow) copy of slice. A short cut to a call to `make` and then `copy`.
// It returns nil for an empty slice.
func Copy[T any](slice []T) []T {
	if len(slice) == 0 {
		return nil
	}
	slice2 := make([]T, len(slice))
	copy(slice2, slice)
	return slice2
}

// Last returns the last element of a slice. It panics if the slice is empty.
func Last[T any](slice []T) T {
	return slice[len(slice)-1]
}

// SliceWithValue creates a slice of given size filled with given value.
func SliceWithValue[T any](size int, value T) []T {
	s := make([]T, size)
	for ii := range s {
		s[ii] = value
	}
	return s
}

// Map executes the given function sequentially for every element on in, and returns a mapped slice.
func Map[In, Out any](in []In, fn func(e In) Out) (out []Out) {
	out = make([]Out, len(in))
	for ii, e := range in {
		out[ii] = fn(e)
	}
	return
}

// SortedKeys returns the sorted keys of a map.
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Repeat returns a new slice with the contents of slice repeated n times.
func Repeat[T any](slice []T, n int) []T {
	if n <= 0 {
		return nil
	}
	out := make([]T, 0, len(slice)*n)
	for range n {
		out = append(out, slice...)
	}
	return out
}
