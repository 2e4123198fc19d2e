// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package unit

import "github.com/pkg/errors"

// Training outcomes other than convergence. They are returned wrapped with context, use errors.Is to test for them.
var (
	// ErrStabilized means the rounded (two decimal places) absolute epoch error didn't change from one epoch to
	// the next, without having reached the requested maximum error.
	ErrStabilized = errors.New("epoch error stabilized")

	// ErrRising means the rounded absolute epoch error increased from one epoch to the next, or it diverged to
	// a non-finite value.
	ErrRising = errors.New("epoch error is rising")

	// ErrOutOfIterations means the maximum number of epochs was reached before converging.
	ErrOutOfIterations = errors.New("out of iterations")

	// ErrOscillating means the rounded epoch error both rose and fell during training.
	ErrOscillating = errors.New("epoch error is oscillating")

	// ErrOutOfPrecision means the learning rate search can no longer split the candidate interval.
	ErrOutOfPrecision = errors.New("learning rate search out of floating point precision")
)

// Usage errors.
var (
	// ErrInputLength is returned when an input (or a dataset) doesn't match the number of weights of the unit.
	ErrInputLength = errors.New("input length doesn't match the unit size")

	// ErrInvalidRange is returned for learning rate ranges that are not positive and increasing.
	ErrInvalidRange = errors.New("invalid learning rate range")
)
