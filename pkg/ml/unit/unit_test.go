// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package unit

import (
	"flag"
	"math"
	"math/rand"
	"testing"

	"github.com/forkaduck/perceptron/pkg/ml/datasets"
	"github.com/forkaduck/perceptron/pkg/support/xslices"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"
)

func init() {
	klog.InitFlags(nil)
	_ = flag.Set("v", "1")
}

var (
	dsP = datasets.P

	orData  = []datasets.Pair{dsP(0, 0, 0), dsP(1, 1, 0.2), dsP(1, 0.2, 1), dsP(1, 1, 1)}
	xorData = []datasets.Pair{dsP(0, 0, 0), dsP(1, 0, 1), dsP(1, 1, 0), dsP(0, 1, 1)}

	// Expected is 1 whenever the middle input is >= 0.6.
	patternsData = []datasets.Pair{
		dsP(0, 0, 0, 0), dsP(1, 0, 0.7, 0), dsP(1, 0, 0.8, 0), dsP(0, 1, 0, 1), dsP(1, 1, 0.6, 0),
		dsP(1, 0, 0.7, 1), dsP(0, 0, 0, 0), dsP(0, 1, 0, 1), dsP(1, 1, 1, 1),
	}
)

func decisions(t *testing.T, u *Unit, inputs ...[]float64) []bool {
	results := make([]bool, len(inputs))
	for ii, input := range inputs {
		_, decision, err := u.Response(input)
		require.NoError(t, err)
		results[ii] = decision
	}
	return results
}

func TestNew(t *testing.T) {
	u, err := New(3, Fixed())
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5, 0.5}, u.Weights())
	assert.Equal(t, 3, u.Size())
	assert.Equal(t, Threshold, u.Threshold())
	assert.Equal(t, Identity, u.Activation())

	u = MustNew(2, nil, WithThreshold(0.25), WithActivation(Logistic))
	assert.Equal(t, 0.25, u.Threshold())
	assert.Equal(t, Logistic, u.Activation())
	assert.Equal(t, []float64{0.5, 0.5}, u.Weights())

	_, err = New(0, Fixed())
	require.Error(t, err)
	require.Panics(t, func() { _ = MustNew(-1, Fixed()) })
}

func TestInitializers(t *testing.T) {
	u0 := MustNew(5, Seeded(42))
	u1 := MustNew(5, Seeded(42))
	assert.Equal(t, u0.Weights(), u1.Weights())
	for _, w := range u0.Weights() {
		assert.GreaterOrEqual(t, w, 0.0)
		assert.Less(t, w, 1.0)
	}

	// Successive units of the same initializer draw different weights.
	initializer := Seeded(7)
	assert.NotEqual(t, MustNew(4, initializer).Weights(), MustNew(4, initializer).Weights())

	// Different seeds, or unseeded sources, draw different weights.
	assert.NotEqual(t, u0.Weights(), MustNew(5, Seeded(43)).Weights())
	assert.NotEqual(t, MustNew(5, Seeded(1)).Weights(), MustNew(5, Seeded(2)).Weights())
	assert.NotEqual(t, u0.Weights(), MustNew(5, Unseeded(nil)).Weights())
	assert.NotEqual(t, MustNew(5, Unseeded(nil)).Weights(), MustNew(5, Unseeded(nil)).Weights())
	assert.NotEqual(t, MustNew(5, Fixed()).Weights(), MustNew(5, Unseeded(nil)).Weights())

	u2 := MustNew(5, Unseeded(rand.NewSource(42)))
	assert.Equal(t, u0.Weights(), u2.Weights())
	for _, w := range MustNew(10, Unseeded(nil)).Weights() {
		assert.GreaterOrEqual(t, w, 0.0)
		assert.Less(t, w, 1.0)
	}
	assert.Equal(t, "seeded(42)", Seeded(42).String())
	assert.Equal(t, "fixed", Fixed().String())

	for name, want := range map[string]string{"": "fixed", "fixed": "fixed", "seeded": "seeded(3)", "unseeded": "unseeded"} {
		initializer, err := ParseInitializer(name, 3)
		require.NoError(t, err)
		assert.Equal(t, want, initializer.String())
	}
	_, err := ParseInitializer("zeros", 3)
	require.Error(t, err)
}

func TestActivation(t *testing.T) {
	assert.Equal(t, 3.0, Identity.Apply(3))
	assert.Equal(t, 0.5, Logistic.Apply(0))
	assert.InDelta(t, 0.8, Logistic.Apply(2), 1e-12)
	assert.InDelta(t, 0.2, Logistic.Apply(-2), 1e-12)
	assert.Equal(t, 0.0, Logistic.Apply(math.Inf(-1)))
	assert.Equal(t, 1.0, Logistic.Apply(math.Inf(1)))
	for _, a := range []Activation{Identity, Logistic} {
		parsed, err := ParseActivation(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, parsed)
	}
	_, err := ParseActivation("relu")
	require.Error(t, err)
}

func TestResponse(t *testing.T) {
	u := MustNew(3, Fixed())
	raw, decision, err := u.Response([]float64{1, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.5, raw)
	assert.False(t, decision, "decision is strictly greater than the threshold")

	raw, decision, err = u.Response([]float64{1, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, 1.0, raw)
	assert.True(t, decision)

	_, _, err = u.Response([]float64{1, 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInputLength))

	// Logistic decides on the activated value.
	u = MustNew(2, Fixed(), WithActivation(Logistic))
	out, err := u.Output([]float64{1, 1})
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, out, 1e-12)
	raw, decision, err = u.Response([]float64{0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, raw)
	assert.False(t, decision)

	require.NoError(t, u.SetWeights([]float64{-1, 2}))
	assert.Equal(t, []float64{-1, 2}, u.Weights())
	require.True(t, errors.Is(u.SetWeights([]float64{1}), ErrInputLength))

	clone := u.Clone()
	require.NoError(t, clone.SetWeights([]float64{3, 3}))
	assert.Equal(t, []float64{-1, 2}, u.Weights())
	assert.Equal(t, "Unit(logistic, threshold=0.5, weights=[-1.0000 2.0000])", u.String())
}

func TestTrainOR(t *testing.T) {
	ds := datasets.MustNew(orData...)

	u := MustNew(2, Fixed(), WithActivation(Logistic))
	errSum, err := u.Train(ds, 0.1, 0.1)
	require.NoError(t, err)
	assert.Less(t, math.Abs(errSum), 0.1)
	assert.Equal(t, []bool{false, true, true, true}, decisions(t, u, ds.Inputs()...))

	// The identity unit can't get below the margin but still separates the data.
	u = MustNew(2, Fixed())
	_, err = u.Train(ds, 0.1, 0.1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStabilized), "got %v", err)
	assert.Equal(t, []bool{false, true, true, true}, decisions(t, u, ds.Inputs()...))
}

func TestTrainXORFails(t *testing.T) {
	ds := datasets.MustNew(xorData...)
	for _, lr := range []float64{0.01, 0.2, 0.5} {
		u := MustNew(2, Fixed())
		_, _ = u.Train(ds, lr, 0.1)
		assert.NotEqual(t, []bool{false, true, true, false}, decisions(t, u, ds.Inputs()...),
			"single unit learned XOR with learning rate %g", lr)
	}

	u := MustNew(2, Fixed())
	errSum, err := u.Train(ds, 0.2, 0.1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRising), "got %v", err)
	assert.InDelta(t, 0.304, errSum, 1e-9)
}

func TestTrainingOptions(t *testing.T) {
	ds := datasets.MustNew(xorData...)
	u := MustNew(2, Fixed())
	var epochs []int
	cfg := u.Training(ds).LearningRate(0.01).MaxError(0.001).MaxEpochs(1).
		OnEpoch("collect", 0, func(epoch int, errSum float64) error {
			epochs = append(epochs, epoch)
			return nil
		})
	errSum, err := cfg.Done()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutOfIterations), "got %v", err)
	assert.InDelta(t, -0.01, errSum, 1e-9)
	assert.Equal(t, []int{0}, epochs)
	assert.Equal(t, 1, cfg.Epochs())

	// Hooks run in priority order, and an error aborts training.
	var order []string
	hookErr := errors.New("stop")
	_, err = MustNew(2, Fixed()).Training(ds).LearningRate(0.01).MaxError(0.001).
		OnEpoch("second", 1, func(int, float64) error { order = append(order, "second"); return hookErr }).
		OnEpoch("first", -1, func(int, float64) error { order = append(order, "first"); return nil }).
		Done()
	require.Error(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
	assert.True(t, errors.Is(err, hookErr))
	var he *HookError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, "second", he.Hook)
	assert.Equal(t, 0, he.At)

	// Wrong input length.
	_, err = MustNew(3, Fixed()).Train(ds, 0.1, 0.1)
	assert.True(t, errors.Is(err, ErrInputLength))
}

func TestDetectOscillation(t *testing.T) {
	ds := datasets.MustNew(patternsData...)
	var errSums []float64
	_, err := MustNew(3, Fixed()).Training(ds).LearningRate(0.3).MaxError(0.01).DetectOscillation().
		OnEpoch("collect", 0, func(_ int, errSum float64) error {
			errSums = append(errSums, errSum)
			return nil
		}).Done()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOscillating), "got %v", err)
	require.Len(t, errSums, 3)
	assert.Greater(t, math.Abs(errSums[1]), math.Abs(errSums[0]))
	assert.Less(t, math.Abs(errSums[2]), math.Abs(errSums[1]))
}

func TestTrainOptimizer(t *testing.T) {
	ds := datasets.MustNew(patternsData...)
	u := MustNew(3, Fixed())
	var trials []Trial
	cfg := u.Optimizer(ds, Range{Start: 0.005, End: 0.3}).MaxError(0.3).
		OnTrial("collect", 0, func(trial Trial) error {
			trials = append(trials, trial)
			return nil
		})
	errSum, err := cfg.Done()
	require.NoError(t, err)
	assert.Less(t, math.Abs(errSum), 0.3)
	require.Len(t, trials, 4)
	assert.Equal(t, 4, cfg.Trials())
	assert.Equal(t, 0.005, trials[0].Rate)
	assert.Equal(t, 0.1525, trials[1].Rate)
	assert.True(t, errors.Is(trials[2].Err, ErrRising))
	assert.True(t, trials[3].Final)
	assert.Equal(t, 0.1525, cfg.Rate())

	inputs := [][]float64{{0, .7, 0}, {0, .5, 0}, {0, .2, 0}, {.8, .7, .3}, {.3, .5, 1}, {.8, .2, .2}}
	want := []bool{true, true, false, true, true, false}
	assert.Equal(t, want, decisions(t, u, inputs...))

	// Further training keeps the classification.
	_, err = u.Train(ds, 0.055, 0.3)
	require.NoError(t, err)
	assert.Equal(t, want, decisions(t, u, inputs...))
}

func TestTrainOptimizerFailures(t *testing.T) {
	ds := datasets.MustNew(patternsData...)
	_, err := MustNew(3, Fixed()).TrainOptimizer(ds, Range{Start: 1, End: 2}, 0.1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRising), "got %v", err)

	// Zero inputs never change the weights: every trial fails with the same error, until the search is exhausted
	// and the upper bound is tried.
	zeros := datasets.MustNew(dsP(1, 0, 0), dsP(1, 0, 0))
	var trials []Trial
	cfg := MustNew(2, Fixed()).Optimizer(zeros, Range{Start: 1, End: 2}).MaxError(0.1).
		OnTrial("collect", 0, func(trial Trial) error {
			trials = append(trials, trial)
			return nil
		})
	errSum, err := cfg.Done()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStabilized), "got %v", err)
	assert.True(t, errors.Is(err, ErrOutOfPrecision), "got %v", err)
	assert.Equal(t, 2.0, errSum)
	require.Greater(t, len(trials), 2)
	for _, trial := range trials {
		assert.Error(t, trial.Err, "trial #%d at lr=%g", trial.Index, trial.Rate)
	}
	last := xslices.Last(trials)
	assert.Equal(t, 2.0, last.Rate)
	assert.True(t, last.Final)
	assert.Equal(t, 2.0, cfg.Rate())
	assert.Equal(t, len(trials), cfg.Trials())

	or := datasets.MustNew(orData...)
	for _, r := range []Range{{0, 1}, {-1, 1}, {0.5, 0.5}, {0.5, 0.1}, {0.1, math.Inf(1)}, {math.NaN(), 1}} {
		_, err = MustNew(2, Fixed()).TrainOptimizer(or, r, 0.1)
		assert.True(t, errors.Is(err, ErrInvalidRange), "range %s: got %v", r, err)
	}
}
