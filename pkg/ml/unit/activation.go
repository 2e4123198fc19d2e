// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package unit

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Activation applied to the weighted sum of a unit. Only a fixed set is offered.
type Activation int

const (
	// Identity returns the weighted sum unchanged. It is the default.
	Identity Activation = iota

	// Logistic is the base-2 logistic 1/(1+2^-x), with values in (0, 1) and 0.5 at x=0.
	Logistic
)

// Apply the activation to the weighted sum x.
func (a Activation) Apply(x float64) float64 {
	switch a {
	case Logistic:
		return 1 / (1 + math.Exp2(-x))
	default:
		return x
	}
}

// String implements fmt.Stringer.
func (a Activation) String() string {
	switch a {
	case Identity:
		return "identity"
	case Logistic:
		return "logistic"
	default:
		return fmt.Sprintf("Activation(%d)", int(a))
	}
}

// ParseActivation converts the name returned by Activation.String back to the Activation.
func ParseActivation(name string) (Activation, error) {
	switch name {
	case "identity", "":
		return Identity, nil
	case "logistic":
		return Logistic, nil
	}
	return Identity, errors.Errorf("unknown activation %q, valid values are \"identity\" and \"logistic\"", name)
}
