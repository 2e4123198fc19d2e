// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package unit

import (
	"math"

	"github.com/dustin/go-humanize"
	"github.com/forkaduck/perceptron/pkg/ml/datasets"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"k8s.io/klog/v2"
)

const (
	// DefaultLearningRate used by Training if none is given.
	DefaultLearningRate = 0.1

	// DefaultMaxError used by Training if none is given.
	DefaultMaxError = 0.1
)

// TrainConfig holds the configuration of a training run, created with Unit.Training.
// Set the options and call Done to train.
type TrainConfig struct {
	unit *Unit
	ds   *datasets.Dataset

	learningRate, maxError float64
	maxEpochs              int
	detectOscillation      bool
	onEpoch                *priorityHooks[*hookWithName[OnEpochFn]]

	// Results of the last call to Done.
	epochs int
}

// Training creates a configuration to train the unit on ds, with DefaultLearningRate, DefaultMaxError and no
// limit on the number of epochs.
//
// Call TrainConfig.Done to actually train.
func (u *Unit) Training(ds *datasets.Dataset) *TrainConfig {
	return &TrainConfig{
		unit:         u,
		ds:           ds,
		learningRate: DefaultLearningRate,
		maxError:     DefaultMaxError,
		onEpoch:      newPriorityHooks[*hookWithName[OnEpochFn]](),
	}
}

// LearningRate sets the multiplier of the weight updates.
func (cfg *TrainConfig) LearningRate(lr float64) *TrainConfig {
	cfg.learningRate = lr
	return cfg
}

// MaxError sets the convergence criterion: training succeeds once the absolute value of the epoch error sum is
// below it.
func (cfg *TrainConfig) MaxError(errMax float64) *TrainConfig {
	cfg.maxError = errMax
	return cfg
}

// MaxEpochs limits the number of epochs: training fails with ErrOutOfIterations once it is reached.
// A value <= 0 means no limit, the default.
func (cfg *TrainConfig) MaxEpochs(n int) *TrainConfig {
	cfg.maxEpochs = n
	return cfg
}

// DetectOscillation makes training tolerate a rising epoch error, failing with ErrOscillating only once the
// rounded error has both risen and fallen.
func (cfg *TrainConfig) DetectOscillation() *TrainConfig {
	cfg.detectOscillation = true
	return cfg
}

// OnEpoch adds a hook with given priority and name (for error reporting), called after every epoch.
func (cfg *TrainConfig) OnEpoch(name string, priority Priority, fn OnEpochFn) *TrainConfig {
	cfg.onEpoch.Add(priority, &hookWithName[OnEpochFn]{name: name, fn: fn})
	return cfg
}

// Epochs returns the number of epochs run by the last call to Done.
func (cfg *TrainConfig) Epochs() int { return cfg.epochs }

// Done trains the unit in place, epoch after epoch, with the online delta rule: for every record, in order,
// err = expected - Activation(weighted sum) and every weight i is updated by learningRate * input[i] * err.
//
// After each epoch, with errSum the signed sum of the errors of the epoch:
//
//   - |errSum| < MaxError: it returns errSum and no error.
//   - errSum is not finite: training diverged, ErrRising.
//   - The absolute error rounded to two decimal places equals the one of the previous epoch: ErrStabilized.
//   - The rounded absolute error is larger than the previous epoch's: ErrRising, or if DetectOscillation is set,
//     ErrOscillating once it has also fallen at some point.
//   - MaxEpochs reached: ErrOutOfIterations.
//
// The signed errSum of the last epoch run is always returned, and the weights keep the updates made.
func (cfg *TrainConfig) Done() (errSum float64, err error) {
	u := cfg.unit
	cfg.epochs = 0
	if cfg.ds == nil {
		return 0, errors.New("unit training requires a dataset, got nil")
	}
	if cfg.ds.InputLength() != u.Size() {
		return 0, errors.Wrapf(ErrInputLength, "dataset %q has input length %d, unit has size %d",
			cfg.ds.Name(), cfg.ds.InputLength(), u.Size())
	}
	lr := cfg.learningRate
	prevRounded := math.MaxFloat64
	var rose, fell bool
	for epoch := 0; cfg.maxEpochs <= 0 || epoch < cfg.maxEpochs; epoch++ {
		errSum = u.trainEpoch(cfg.ds, lr)
		cfg.epochs = epoch + 1
		klog.V(2).Infof("%s: lr=%g epoch %d: errSum=%g", cfg.ds.Name(), lr, epoch, errSum)
		for hook := range cfg.onEpoch.All() {
			if hookErr := hook.fn(epoch, errSum); hookErr != nil {
				return errSum, &HookError{Hook: hook.name, At: epoch, Err: hookErr}
			}
		}

		if math.IsNaN(errSum) || math.IsInf(errSum, 0) {
			return errSum, errors.Wrapf(ErrRising, "epoch %d: error sum diverged to %g (learning rate %g)",
				epoch, errSum, lr)
		}
		absErr := math.Abs(errSum)
		if absErr < cfg.maxError {
			klog.V(1).Infof("%s: converged with lr=%g after %s epochs, errSum=%g",
				cfg.ds.Name(), lr, humanize.Comma(int64(cfg.epochs)), errSum)
			return errSum, nil
		}
		rounded := math.Round(absErr * 100)
		switch {
		case rounded == prevRounded:
			return errSum, errors.Wrapf(ErrStabilized, "epoch %d: |errSum|=%.2f (learning rate %g, max error %g)",
				epoch, absErr, lr, cfg.maxError)
		case rounded > prevRounded:
			if !cfg.detectOscillation {
				return errSum, errors.Wrapf(ErrRising, "epoch %d: |errSum| rose to %.2f (learning rate %g)",
					epoch, absErr, lr)
			}
			rose = true
		case prevRounded != math.MaxFloat64:
			fell = true
		}
		if rose && fell {
			return errSum, errors.Wrapf(ErrOscillating, "epoch %d: |errSum|=%.2f (learning rate %g)", epoch, absErr, lr)
		}
		prevRounded = rounded
	}
	return errSum, errors.Wrapf(ErrOutOfIterations, "%d epochs without reaching max error %g, last errSum=%g",
		cfg.maxEpochs, cfg.maxError, errSum)
}

// trainEpoch runs one pass of the delta rule over ds and returns the signed sum of the errors.
func (u *Unit) trainEpoch(ds *datasets.Dataset, lr float64) (errSum float64) {
	for ii := range ds.Len() {
		record := ds.Record(ii)
		delta := record.Expected - u.activation.Apply(floats.Dot(u.weights, record.Input))
		for y, x := range record.Input {
			u.weights[y] += lr * x * delta
		}
		errSum += delta
	}
	return
}

// Train the unit on ds with the given learning rate until the absolute epoch error sum is below errMax.
// It's a shortcut to u.Training(ds).LearningRate(learnRate).MaxError(errMax).Done(), see TrainConfig.Done
// for the details.
func (u *Unit) Train(ds *datasets.Dataset, learnRate, errMax float64) (errSum float64, err error) {
	return u.Training(ds).LearningRate(learnRate).MaxError(errMax).Done()
}
