// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package unit implements a single linear-threshold learning unit (a perceptron): a vector of weights that
// responds to an input vector with the weighted sum and a binary decision.
//
// Units are trained in place with the online delta rule: see Unit.Train for the simple version,
// Unit.Training for the configurable one and Unit.TrainOptimizer for the learning rate search.
//
// Example:
//
//	u := unit.MustNew(2, unit.Fixed(), unit.WithActivation(unit.Logistic))
//	errSum, err := u.Train(ds, 0.1, 0.1)
//	_, decision, _ := u.Response([]float64{1, 0.2})
//
// A Unit is not safe for concurrent use: training mutates the weights.
package unit

import (
	"fmt"
	"strings"

	"github.com/forkaduck/perceptron/pkg/support/xslices"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"k8s.io/klog/v2"
)

// Threshold is the default decision threshold and the value of every weight set by Fixed.
const Threshold = 0.5

// Unit is a linear-threshold learning unit.
type Unit struct {
	weights    []float64
	threshold  float64
	activation Activation
}

// Option configures a Unit at creation.
type Option func(u *Unit)

// WithActivation sets the activation applied to the weighted sum. Default is Identity.
func WithActivation(activation Activation) Option {
	return func(u *Unit) { u.activation = activation }
}

// WithThreshold sets the decision threshold of the unit. Default is Threshold.
func WithThreshold(threshold float64) Option {
	return func(u *Unit) { u.threshold = threshold }
}

// New creates a Unit with `size` weights generated by initializer. If it is nil, Fixed is used.
func New(size int, initializer Initializer, opts ...Option) (*Unit, error) {
	if size < 1 {
		return nil, errors.Errorf("unit.New(size=%d): size must be >= 1", size)
	}
	if initializer == nil {
		initializer = Fixed()
	}
	u := &Unit{
		weights:    initializer.Weights(size),
		threshold:  Threshold,
		activation: Identity,
	}
	if len(u.weights) != size {
		return nil, errors.Errorf("unit.New(size=%d): initializer %s returned %d weights", size, initializer, len(u.weights))
	}
	for _, opt := range opts {
		opt(u)
	}
	if klog.V(1).Enabled() {
		klog.Infof("new unit: size=%d, init=%s, activation=%s, weights=%v", size, initializer, u.activation, u.weights)
	}
	return u, nil
}

// MustNew is like New, but panics on error.
func MustNew(size int, initializer Initializer, opts ...Option) *Unit {
	u, err := New(size, initializer, opts...)
	if err != nil {
		exceptions.Panicf("%+v", err)
	}
	return u
}

// Size is the number of weights, which is also the expected input length.
func (u *Unit) Size() int { return len(u.weights) }

// Threshold used for the decision.
func (u *Unit) Threshold() float64 { return u.threshold }

// Activation used by the unit.
func (u *Unit) Activation() Activation { return u.activation }

// Weights returns a copy of the current weights.
func (u *Unit) Weights() []float64 { return xslices.Copy(u.weights) }

// SetWeights replaces the weights. The length must match the unit size.
func (u *Unit) SetWeights(weights []float64) error {
	if len(weights) != len(u.weights) {
		return errors.Wrapf(ErrInputLength, "SetWeights got %d weights for a unit of size %d", len(weights), len(u.weights))
	}
	copy(u.weights, weights)
	return nil
}

// Clone returns an independent copy of the unit.
func (u *Unit) Clone() *Unit {
	return &Unit{
		weights:    xslices.Copy(u.weights),
		threshold:  u.threshold,
		activation: u.activation,
	}
}

func (u *Unit) checkInput(input []float64) error {
	if len(input) != len(u.weights) {
		return errors.Wrapf(ErrInputLength, "input has length %d, unit has size %d", len(input), len(u.weights))
	}
	return nil
}

// Response returns the weighted sum of the input (raw) and whether the activated sum is above the unit's
// threshold. For the Identity activation the decision is simply raw > threshold.
func (u *Unit) Response(input []float64) (raw float64, decision bool, err error) {
	if err = u.checkInput(input); err != nil {
		return
	}
	raw = floats.Dot(u.weights, input)
	decision = u.activation.Apply(raw) > u.threshold
	return
}

// Output returns the activated weighted sum of the input: the value fed forward to the next level of a network.
func (u *Unit) Output(input []float64) (float64, error) {
	if err := u.checkInput(input); err != nil {
		return 0, err
	}
	return u.activation.Apply(floats.Dot(u.weights, input)), nil
}

// String implements fmt.Stringer.
func (u *Unit) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Unit(%s, threshold=%g, weights=[", u.activation, u.threshold)
	for ii, w := range u.weights {
		if ii > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%.4f", w)
	}
	sb.WriteString("])")
	return sb.String()
}
