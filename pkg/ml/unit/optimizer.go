// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package unit

import (
	"fmt"
	"math"

	"github.com/forkaduck/perceptron/pkg/ml/datasets"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Range of learning rates searched by the optimizer.
type Range struct {
	Start, End float64
}

// Validate returns ErrInvalidRange (wrapped) unless 0 < Start < End, both finite.
func (r Range) Validate() error {
	if math.IsNaN(r.Start) || math.IsNaN(r.End) || math.IsInf(r.End, 0) {
		return errors.Wrapf(ErrInvalidRange, "%s has non-finite values", r)
	}
	if r.Start <= 0 {
		return errors.Wrapf(ErrInvalidRange, "%s must start at a positive learning rate", r)
	}
	if r.End <= r.Start {
		return errors.Wrapf(ErrInvalidRange, "%s must end after it starts", r)
	}
	return nil
}

// String implements fmt.Stringer.
func (r Range) String() string {
	return fmt.Sprintf("[%g, %g]", r.Start, r.End)
}

// Trial reports one training run of the learning rate search.
type Trial struct {
	// Index of the trial, starting at 0.
	Index int

	// Rate is the learning rate used.
	Rate float64

	// ErrSum and Err are the values returned by the training run.
	ErrSum float64
	Err    error

	// Final is set for the last trial, whose result is returned by the search.
	Final bool
}

// OptimizerConfig holds the configuration of a learning rate search, created with Unit.Optimizer.
// Set the options and call Done to run the search.
type OptimizerConfig struct {
	unit   *Unit
	ds     *datasets.Dataset
	rates  Range
	maxErr float64

	maxEpochs int
	onTrial   *priorityHooks[*hookWithName[OnTrialFn]]
	onEpoch   *priorityHooks[*hookWithName[OnEpochFn]]

	// Results of the last call to Done.
	rate   float64
	trials int
}

// Optimizer creates a configuration to search for a learning rate within rates that trains the unit on ds.
// The maximum error defaults to DefaultMaxError.
//
// Call OptimizerConfig.Done to actually run it.
func (u *Unit) Optimizer(ds *datasets.Dataset, rates Range) *OptimizerConfig {
	return &OptimizerConfig{
		unit:    u,
		ds:      ds,
		rates:   rates,
		maxErr:  DefaultMaxError,
		onTrial: newPriorityHooks[*hookWithName[OnTrialFn]](),
		onEpoch: newPriorityHooks[*hookWithName[OnEpochFn]](),
	}
}

// MaxError sets the convergence criterion of every training run, see TrainConfig.MaxError.
func (cfg *OptimizerConfig) MaxError(errMax float64) *OptimizerConfig {
	cfg.maxErr = errMax
	return cfg
}

// MaxEpochs limits the number of epochs of each training run, see TrainConfig.MaxEpochs.
func (cfg *OptimizerConfig) MaxEpochs(n int) *OptimizerConfig {
	cfg.maxEpochs = n
	return cfg
}

// OnTrial adds a hook with given priority and name (for error reporting), called after every training run.
func (cfg *OptimizerConfig) OnTrial(name string, priority Priority, fn OnTrialFn) *OptimizerConfig {
	cfg.onTrial.Add(priority, &hookWithName[OnTrialFn]{name: name, fn: fn})
	return cfg
}

// OnEpoch adds a hook given to every training run, see TrainConfig.OnEpoch.
func (cfg *OptimizerConfig) OnEpoch(name string, priority Priority, fn OnEpochFn) *OptimizerConfig {
	cfg.onEpoch.Add(priority, &hookWithName[OnEpochFn]{name: name, fn: fn})
	return cfg
}

// Rate returns the learning rate of the last training run of the last call to Done.
func (cfg *OptimizerConfig) Rate() float64 { return cfg.rate }

// Trials returns the number of training runs of the last call to Done.
func (cfg *OptimizerConfig) Trials() int { return cfg.trials }

// Range searched by the optimizer.
func (cfg *OptimizerConfig) Range() Range { return cfg.rates }

func (cfg *OptimizerConfig) train(rate float64, final bool) (errSum float64, err error) {
	tc := cfg.unit.Training(cfg.ds).LearningRate(rate).MaxError(cfg.maxErr).MaxEpochs(cfg.maxEpochs)
	tc.onEpoch.Merge(cfg.onEpoch)
	errSum, err = tc.Done()
	cfg.rate = rate
	trial := Trial{Index: cfg.trials, Rate: rate, ErrSum: errSum, Err: err, Final: final}
	cfg.trials++
	klog.V(1).Infof("%s: trial #%d lr=%g: errSum=%g, err=%v", cfg.ds.Name(), trial.Index, rate, errSum, err)
	for hook := range cfg.onTrial.All() {
		if hookErr := hook.fn(trial); hookErr != nil {
			return errSum, &HookError{Hook: hook.name, At: trial.Index, Err: hookErr}
		}
	}
	return errSum, err
}

// Done runs the learning rate search, training the unit in place (weights carry over from one trial to the next).
//
// It keeps two candidate rates, starting with [Start, End], and the absolute errors of their training runs
// (starting with [0, +Inf]). At each step it trains at the current candidate:
//
//   - If its absolute error (non-finite counts as +Inf) is larger than the previous candidate's, it trains once
//     more at the previous rate and returns that result.
//   - Otherwise the next candidate is the midpoint between the current and previous ones, and the current becomes
//     the previous.
//
// If the midpoint can't be distinguished from the candidates, the search is exhausted and a last training run is
// made at End. Its result is returned: if it failed, the error matches both ErrOutOfPrecision and the training
// failure (ErrRising, ErrStabilized, ...) with errors.Is.
func (cfg *OptimizerConfig) Done() (errSum float64, err error) {
	cfg.trials = 0
	if cfg.ds == nil {
		return 0, errors.New("learning rate search requires a dataset, got nil")
	}
	if err = cfg.rates.Validate(); err != nil {
		return 0, err
	}
	rates := [2]float64{cfg.rates.Start, cfg.rates.End}
	errs := [2]float64{0, math.MaxFloat64}
	for {
		errSum, err = cfg.train(rates[0], false)
		var hookErr *HookError
		if errors.As(err, &hookErr) {
			return errSum, err
		}
		errs[0] = math.Abs(errSum)
		if math.IsNaN(errs[0]) {
			errs[0] = math.Inf(1)
		}
		if errs[0] > errs[1] {
			klog.V(1).Infof("%s: error grew at lr=%g (%g > %g), settling on lr=%g",
				cfg.ds.Name(), rates[0], errs[0], errs[1], rates[1])
			return cfg.train(rates[1], true)
		}
		mid := (rates[0] + rates[1]) / 2
		if mid == rates[0] || mid == rates[1] {
			return cfg.trainAtEnd(rates)
		}
		rates = [2]float64{mid, rates[0]}
		errs[1] = errs[0]
	}
}

// trainAtEnd is the last training run of an exhausted search, at the upper bound of the range.
func (cfg *OptimizerConfig) trainAtEnd(rates [2]float64) (errSum float64, err error) {
	klog.V(1).Infof("%s: learning rate search exhausted between %g and %g after %d trials, trying lr=%g",
		cfg.ds.Name(), rates[0], rates[1], cfg.trials, cfg.rates.End)
	errSum, err = cfg.train(cfg.rates.End, true)
	if err == nil {
		return errSum, nil
	}
	var hookErr *HookError
	if errors.As(err, &hookErr) {
		return errSum, err
	}
	return errSum, fmt.Errorf("%w after %d trials, failed at the upper bound lr=%g: %w",
		ErrOutOfPrecision, cfg.trials, cfg.rates.End, err)
}

// TrainOptimizer searches for a learning rate within rates that trains the unit on ds below errMax.
// It's a shortcut to u.Optimizer(ds, rates).MaxError(errMax).Done(), see OptimizerConfig.Done for the details.
func (u *Unit) TrainOptimizer(ds *datasets.Dataset, rates Range, errMax float64) (errSum float64, err error) {
	return u.Optimizer(ds, rates).MaxError(errMax).Done()
}
