// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package hyperparams holds the named, typed parameters of an experiment: learning rates, maximum error,
// initialization and network shape.
//
// The type of each parameter is set by its default value, and the command line settings
// (see ui/commandline.ParseSettings) are parsed accordingly.
package hyperparams

import (
	"fmt"
	"maps"
	"strings"

	"github.com/forkaduck/perceptron/pkg/support/xslices"
	"github.com/gomlx/exceptions"
)

const (
	// ParamLearningRate is the learning rate used by plain training. Type float64.
	ParamLearningRate = "learning_rate"

	// ParamLearningRateMin is the start of the range searched by the learning rate optimizer. Type float64.
	ParamLearningRateMin = "learning_rate_min"

	// ParamLearningRateMax is the end of the range searched by the learning rate optimizer. Type float64.
	ParamLearningRateMax = "learning_rate_max"

	// ParamMaxError is the maximum absolute epoch error accepted as convergence. Type float64.
	ParamMaxError = "err_max"

	// ParamMaxEpochs caps the number of epochs of each training, 0 for no limit. Type int.
	ParamMaxEpochs = "max_epochs"

	// ParamInitializer selects the weight initializer: "fixed", "seeded" or "unseeded". Type string.
	ParamInitializer = "initializer"

	// ParamSeed used by the "seeded" initializer and by noise generation. Type int64.
	ParamSeed = "seed"

	// ParamActivation is "identity" or "logistic". Type string.
	ParamActivation = "activation"

	// ParamDepth is the number of levels of the network built by the "tree" demo. Type int.
	ParamDepth = "depth"

	// ParamBranching is the number of weights of each unit of the network built by the "tree" demo. Type int.
	ParamBranching = "branching"

	// ParamNoise is the scale of the uniform noise added to the inputs. Type float64.
	ParamNoise = "noise"

	// ParamDuplicate is the number of times the training records are repeated in each epoch. Type int.
	ParamDuplicate = "duplicate"
)

// Params is a set of named parameters. It is not safe for concurrent modification.
type Params struct {
	values map[string]any
}

// New creates an empty set of parameters.
func New() *Params {
	return &Params{values: make(map[string]any)}
}

// Defaults returns a new set with the default value of every parameter known to the perceptron tools.
func Defaults() *Params {
	return New().
		Set(ParamLearningRate, 0.1).
		Set(ParamLearningRateMin, 0.005).
		Set(ParamLearningRateMax, 0.3).
		Set(ParamMaxError, 0.1).
		Set(ParamMaxEpochs, 0).
		Set(ParamInitializer, "fixed").
		Set(ParamSeed, int64(42)).
		Set(ParamActivation, "identity").
		Set(ParamDepth, 2).
		Set(ParamBranching, 3).
		Set(ParamNoise, 0.1).
		Set(ParamDuplicate, 1)
}

// Set the value of a parameter and returns the Params, so calls can be cascaded.
func (p *Params) Set(key string, value any) *Params {
	p.values[key] = value
	return p
}

// Lookup returns the value of the parameter and whether it is set.
func (p *Params) Lookup(key string) (value any, found bool) {
	value, found = p.values[key]
	return
}

// Keys returns the sorted names of the parameters set.
func (p *Params) Keys() []string {
	return xslices.SortedKeys(p.values)
}

// Len returns the number of parameters set.
func (p *Params) Len() int { return len(p.values) }

// Clone returns a shallow copy of the parameters.
func (p *Params) Clone() *Params {
	return &Params{values: maps.Clone(p.values)}
}

// String implements fmt.Stringer, listing parameters in sorted order.
func (p *Params) String() string {
	parts := xslices.Map(p.Keys(), func(key string) string { return fmt.Sprintf("%s=%v", key, p.values[key]) })
	return strings.Join(parts, ";")
}

// Get returns the value of the parameter `key` converted to T.
// It panics (with exceptions.Panicf) if the parameter is not set or if it has a different type.
func Get[T any](p *Params, key string) T {
	value, found := p.values[key]
	if !found {
		exceptions.Panicf("hyperparameter %q not set, known parameters: %v", key, p.Keys())
	}
	t, ok := value.(T)
	if !ok {
		var zero T
		exceptions.Panicf("hyperparameter %q has type %T, requested %T", key, value, zero)
	}
	return t
}

// GetOr returns the value of the parameter `key` converted to T, or defaultValue if it is not set.
// It panics (with exceptions.Panicf) if the parameter is set with a different type.
func GetOr[T any](p *Params, key string, defaultValue T) T {
	if _, found := p.values[key]; !found {
		return defaultValue
	}
	return Get[T](p, key)
}
