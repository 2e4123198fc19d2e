// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package network

import (
	"testing"

	"github.com/forkaduck/perceptron/pkg/ml/datasets"
	"github.com/forkaduck/perceptron/pkg/ml/unit"
	"github.com/forkaduck/perceptron/pkg/support/xslices"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	n, err := New(3, 2, unit.Fixed())
	require.NoError(t, err)
	assert.Equal(t, 3, n.NumLevels())
	assert.Equal(t, []int{4, 2, 1}, n.LevelSizes())
	assert.Equal(t, 7, n.NumUnits())
	assert.Equal(t, 2, n.InputLength())
	assert.Equal(t, 8, n.Width())
	assert.Equal(t, "Network(width=8, branching=2, levels=[4 2 1])", n.String())
	for level := range n.NumLevels() {
		for _, u := range n.Level(level) {
			assert.Equal(t, []float64{0.5, 0.5}, u.Weights())
		}
	}

	n, err = New(1, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, n.LevelSizes())
	assert.Equal(t, 3, n.Width())

	for _, shape := range [][2]int{{0, 2}, {2, 0}, {-1, 3}, {30, 2}} {
		_, err = New(shape[0], shape[1], unit.Fixed())
		assert.Error(t, err, "depth=%d, branching=%d", shape[0], shape[1])
	}
}

func TestForward(t *testing.T) {
	n, err := New(3, 2, unit.Fixed())
	require.NoError(t, err)
	outputs, err := n.Forward(xslices.SliceWithValue(8, 1.0))
	require.NoError(t, err)
	assert.Equal(t, []float64{1.0}, outputs)

	levels, err := n.ForwardLevels([]float64{1, 1, 0, 0, 2, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 0, 1, 0}, {0.5, 0.5}, {0.5}}, levels)
	decision, err := n.Decision([]float64{1, 1, 0, 0, 2, 0, 0, 0})
	require.NoError(t, err)
	assert.False(t, decision)

	_, err = n.Forward(make([]float64, 7))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInputWidth))

	// Units are shared with the caller: changing one changes the network.
	require.NoError(t, n.Unit(2, 0).SetWeights([]float64{2, 0}))
	decision, err = n.Decision([]float64{1, 1, 0, 0, 2, 0, 0, 0})
	require.NoError(t, err)
	assert.True(t, decision)

	require.Error(t, n.SetUnit(2, 1, unit.MustNew(2, unit.Fixed())))
	require.Error(t, n.SetUnit(0, 0, unit.MustNew(3, unit.Fixed())))
}

// xorInput extends (a, b) with a constant bias input, for each of the 3 units of the first level.
func xorInput(a, b float64) []float64 {
	return xslices.Repeat([]float64{a, b, 1}, 3)
}

// TestXOR composes a network that computes XOR: two logistic units detect "a and not b" and "b and not a",
// a third one passes the bias forward, and a logistic unit on the second level combines them.
func TestXOR(t *testing.T) {
	n, err := New(2, 3, unit.Fixed())
	require.NoError(t, err)
	require.NoError(t, n.SetUnit(0, 0, unit.MustNew(3, unit.Fixed(), unit.WithActivation(unit.Logistic))))
	require.NoError(t, n.SetUnit(0, 1, unit.MustNew(3, unit.Fixed(), unit.WithActivation(unit.Logistic))))
	require.NoError(t, n.SetUnit(1, 0, unit.MustNew(3, unit.Fixed(), unit.WithActivation(unit.Logistic))))

	type sample struct{ a, b, xor float64 }
	samples := []sample{{0, 0, 0}, {0, 1, 1}, {1, 0, 1}, {1, 1, 0}}
	targets := []func(s sample) float64{
		func(s sample) float64 { return s.a * (1 - s.b) },
		func(s sample) float64 { return s.b * (1 - s.a) },
		func(s sample) float64 { return 1 },
	}
	hiddenData := xslices.Map(targets, func(target func(s sample) float64) *datasets.Dataset {
		return datasets.MustNew(xslices.Map(samples, func(s sample) datasets.Pair {
			return datasets.P(target(s), s.a, s.b, 1)
		})...)
	})
	rates := unit.Range{Start: 0.5, End: 3.0}
	results, err := n.TrainLevel(0, hiddenData, rates, 0.01)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.NoError(t, results[2], "bias unit should converge")

	// The output unit learns from the actual outputs of the first level.
	outputPairs := make([]datasets.Pair, len(samples))
	for ii, s := range samples {
		levels, err := n.ForwardLevels(xorInput(s.a, s.b))
		require.NoError(t, err)
		outputPairs[ii] = datasets.Pair{Input: levels[0], Expected: s.xor}
	}
	_, err = n.TrainLevel(1, []*datasets.Dataset{datasets.MustNew(outputPairs...)}, rates, 0.01)
	require.NoError(t, err)

	for _, s := range samples {
		outputs, err := n.Forward(xorInput(s.a, s.b))
		require.NoError(t, err)
		assert.InDelta(t, s.xor, outputs[0], 0.2, "xor(%g, %g)", s.a, s.b)
		decision, err := n.Decision(xorInput(s.a, s.b))
		require.NoError(t, err)
		assert.Equal(t, s.xor == 1, decision, "xor(%g, %g)", s.a, s.b)
	}

	_, err = n.TrainLevel(1, hiddenData, rates, 0.01)
	require.Error(t, err)
	_, err = n.TrainLevel(2, nil, rates, 0.01)
	require.Error(t, err)
}

func TestTrainLevelConfigure(t *testing.T) {
	n, err := New(2, 2, unit.Fixed())
	require.NoError(t, err)
	or := datasets.MustNew(datasets.P(0, 0, 0), datasets.P(1, 1, 0), datasets.P(1, 0, 1), datasets.P(1, 1, 1))
	var configured []int
	trials := make(map[int]int)
	results, err := n.TrainLevel(0, []*datasets.Dataset{or, or}, unit.Range{Start: 0.005, End: 0.3}, 0.1,
		func(index int, cfg *unit.OptimizerConfig) {
			configured = append(configured, index)
			cfg.OnTrial("count", 0, func(unit.Trial) error {
				trials[index]++
				return nil
			})
		})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, []int{0, 1}, configured)
	assert.Greater(t, trials[0], 0)
	assert.Equal(t, trials[0], trials[1], "units with the same initialization and data train the same way")
	assert.Equal(t, n.Unit(0, 0).Weights(), n.Unit(0, 1).Weights())
}
