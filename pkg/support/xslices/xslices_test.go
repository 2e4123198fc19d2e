// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package xslices

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	count := 17
	in := make([]int, count)
	for ii := range in {
		in[ii] = ii
	}
	out := Map(in, func(v int) float64 { return float64(v) / 2 })
	require.Len(t, out, count)
	for ii := 0; ii < count; ii++ {
		assert.Equalf(t, float64(ii)/2, out[ii], "element %d doesn't match", ii)
	}
}

func TestCopyAndLast(t *testing.T) {
	slice := []float64{0, 1, 2, 3}
	c := Copy(slice)
	c[0] = 10
	assert.Equal(t, 0.0, slice[0])
	assert.Equal(t, 3.0, Last(c))
	assert.Nil(t, Copy([]int{}))
}

func TestRepeat(t *testing.T) {
	assert.Equal(t, []int{1, 2, 1, 2, 1, 2}, Repeat([]int{1, 2}, 3))
	assert.Nil(t, Repeat([]int{1, 2}, 0))
}

func TestSortedKeys(t *testing.T) {
	m := map[string]int{"c": 3, "a": 1, "b": 2}
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(m))
}

func TestSliceWithValue(t *testing.T) {
	assert.Equal(t, []float64{0.5, 0.5, 0.5}, SliceWithValue(3, 0.5))
	assert.Empty(t, SliceWithValue(0, "x"))
}
