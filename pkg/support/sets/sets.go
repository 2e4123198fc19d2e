// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package sets implements a Set type over a `map[T]struct{}`.
package sets

import (
	"cmp"
	"slices"
)

// Set of values of type T.
type Set[T comparable] map[T]struct{}

// Make returns an empty Set. The optional size reserves space for that many elements.
func Make[T comparable](size ...int) Set[T] {
	if len(size) == 0 {
		return make(Set[T])
	}
	return make(Set[T], size[0])
}

// MakeWith returns a Set with the given elements.
func MakeWith[T comparable](elements ...T) Set[T] {
	s := Make[T](len(elements))
	s.Insert(elements...)
	return s
}

// Has returns whether key is in the set.
func (s Set[T]) Has(key T) bool {
	_, found := s[key]
	return found
}

// Insert keys in the set.
func (s Set[T]) Insert(keys ...T) {
	for _, key := range keys {
		s[key] = struct{}{}
	}
}

// Sorted returns the elements of s in ascending order.
func Sorted[T cmp.Ordered](s Set[T]) []T {
	elements := make([]T, 0, len(s))
	for key := range s {
		elements = append(elements, key)
	}
	slices.Sort(elements)
	return elements
}
