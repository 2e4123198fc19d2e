// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package datasets holds the training data used by units and networks: a validated, ordered collection of
// (input vector, expected value) records that all share the same input width.
//
// A Dataset is validated once at construction and is read-only afterwards, with the single exception of
// Dataset.PerturbInputs, used to inject noise into the inputs.
package datasets

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/forkaduck/perceptron/pkg/support/xslices"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	// ErrEmptyData is returned when there are no records, or the first record has an empty input.
	ErrEmptyData = errors.New("empty training data")

	// ErrLengthMismatch is matched (with errors.Is) by a *LengthMismatchError.
	ErrLengthMismatch = errors.New("training data input length mismatch")
)

// LengthMismatchError reports the first record whose input length differs from the first record's.
type LengthMismatchError struct {
	// Index of the offending record.
	Index int

	// Length of the offending record's input.
	Length int

	// Want is the input length of the first record, which is authoritative.
	Want int
}

// Error implements error.
func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("%s: record #%d has input length %d, expected %d", ErrLengthMismatch, e.Index, e.Length, e.Want)
}

// Is allows errors.Is(err, ErrLengthMismatch).
func (e *LengthMismatchError) Is(target error) bool {
	return target == ErrLengthMismatch
}

// Pair is one training record.
type Pair struct {
	Input    []float64
	Expected float64
}

// P is a shortcut to create a Pair, handy for hand-written data.
func P(expected float64, input ...float64) Pair {
	return Pair{Input: input, Expected: expected}
}

// Dataset is a validated collection of training records.
type Dataset struct {
	name        string
	records     []Pair
	inputLength int
}

// New validates pairs and creates a Dataset with a copy of them.
//
// The input length of the first record is authoritative: it fails with ErrEmptyData if there are no pairs or
// the first input is empty, and with a *LengthMismatchError for the first record that disagrees with it.
func New(pairs []Pair) (*Dataset, error) {
	if len(pairs) == 0 {
		return nil, errors.Wrap(ErrEmptyData, "no records given")
	}
	inputLength := len(pairs[0].Input)
	if inputLength == 0 {
		return nil, errors.Wrap(ErrEmptyData, "first record has an empty input")
	}
	ds := &Dataset{
		name:        "dataset",
		records:     make([]Pair, len(pairs)),
		inputLength: inputLength,
	}
	for ii, pair := range pairs {
		if len(pair.Input) != inputLength {
			return nil, &LengthMismatchError{Index: ii, Length: len(pair.Input), Want: inputLength}
		}
		input := make([]float64, inputLength)
		copy(input, pair.Input)
		ds.records[ii] = Pair{Input: input, Expected: pair.Expected}
	}
	return ds, nil
}

// MustNew is like New, but panics on error.
func MustNew(pairs ...Pair) *Dataset {
	ds, err := New(pairs)
	if err != nil {
		exceptions.Panicf("datasets.MustNew(%d records): %+v", len(pairs), err)
	}
	return ds
}

// FromSlices creates a Dataset from parallel slices of inputs and expected values.
func FromSlices(inputs [][]float64, expected []float64) (*Dataset, error) {
	if len(inputs) != len(expected) {
		return nil, errors.Errorf("datasets.FromSlices: %d inputs but %d expected values", len(inputs), len(expected))
	}
	pairs := make([]Pair, len(inputs))
	for ii := range inputs {
		pairs[ii] = Pair{Input: inputs[ii], Expected: expected[ii]}
	}
	return New(pairs)
}

// Name of the dataset, used in logs and plots.
func (ds *Dataset) Name() string { return ds.name }

// WithName sets the name of the dataset and returns it, so calls can be cascaded.
func (ds *Dataset) WithName(name string) *Dataset {
	ds.name = name
	return ds
}

// InputLength is the common width of every record's input.
func (ds *Dataset) InputLength() int { return ds.inputLength }

// Len returns the number of records.
func (ds *Dataset) Len() int { return len(ds.records) }

// Record returns the i-th record. The returned input must not be modified.
func (ds *Dataset) Record(i int) Pair { return ds.records[i] }

// Records returns a deep copy of all records.
func (ds *Dataset) Records() []Pair {
	pairs := make([]Pair, len(ds.records))
	for ii, r := range ds.records {
		input := make([]float64, len(r.Input))
		copy(input, r.Input)
		pairs[ii] = Pair{Input: input, Expected: r.Expected}
	}
	return pairs
}

// Inputs returns a copy of all inputs.
func (ds *Dataset) Inputs() [][]float64 {
	inputs := make([][]float64, len(ds.records))
	for ii, r := range ds.Records() {
		inputs[ii] = r.Input
	}
	return inputs
}

// Expected returns a copy of all expected values.
func (ds *Dataset) Expected() []float64 {
	expected := make([]float64, len(ds.records))
	for ii, r := range ds.records {
		expected[ii] = r.Expected
	}
	return expected
}

// Duplicate returns a new Dataset with the records repeated `times` times, in order.
// It can be used to weight a training run towards more epochs' worth of updates per epoch.
func (ds *Dataset) Duplicate(times int) (*Dataset, error) {
	if times < 1 {
		return nil, errors.Errorf("Dataset.Duplicate(%d): times must be >= 1", times)
	}
	dup, err := New(xslices.Repeat(ds.records, times))
	if err != nil {
		return nil, err
	}
	return dup.WithName(fmt.Sprintf("%s x%d", ds.name, times)), nil
}

// NoiseFn returns a value to add to one input scalar.
type NoiseFn func(rng *rand.Rand) float64

// UniformNoise returns a NoiseFn drawing uniformly from [0, scale).
func UniformNoise(scale float64) NoiseFn {
	return func(rng *rand.Rand) float64 { return rng.Float64() * scale }
}

// PerturbInputs adds noiseFn(rng) to every scalar of every input, in place.
// Expected values, the number of records and the input length are not changed.
//
// If rng is nil, a freshly seeded source is created for this call.
func (ds *Dataset) PerturbInputs(rng *rand.Rand, noiseFn NoiseFn) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	for _, r := range ds.records {
		for ii := range r.Input {
			r.Input[ii] += noiseFn(rng)
		}
	}
	klog.V(2).Infof("%s: perturbed %d inputs of width %d", ds.name, len(ds.records), ds.inputLength)
}

// String implements fmt.Stringer.
func (ds *Dataset) String() string {
	return fmt.Sprintf("Dataset(%q: %d records, input length %d)", ds.name, len(ds.records), ds.inputLength)
}
