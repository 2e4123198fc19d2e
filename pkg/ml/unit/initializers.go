// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package unit

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/forkaduck/perceptron/pkg/support/xslices"
	"github.com/pkg/errors"
)

// Initializer generates the initial weights of a unit.
//
// The available initializers are Fixed, Seeded and Unseeded.
type Initializer interface {
	// Weights returns `size` new weights.
	Weights(size int) []float64

	fmt.Stringer
}

// Fixed returns an Initializer that sets every weight to Threshold.
func Fixed() Initializer { return fixedInitializer{} }

type fixedInitializer struct{}

func (fixedInitializer) Weights(size int) []float64 { return xslices.SliceWithValue(size, Threshold) }
func (fixedInitializer) String() string             { return "fixed" }

// Seeded returns an Initializer drawing weights uniformly from [0, 1) from a random source seeded with `seed`.
//
// Units created with the same Initializer draw from the same stream, so a network created with Seeded(seed)
// is reproducible, but its units don't share weights.
// It is safe for concurrent use.
func Seeded(seed int64) Initializer {
	return &randomInitializer{
		name: fmt.Sprintf("seeded(%d)", seed),
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// Unseeded returns an Initializer drawing weights uniformly from [0, 1) from the given source.
// If src is nil, a new source seeded with the current time is used.
func Unseeded(src rand.Source) Initializer {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &randomInitializer{name: "unseeded", rng: rand.New(src)}
}

type randomInitializer struct {
	name string
	mu   sync.Mutex
	rng  *rand.Rand
}

func (r *randomInitializer) Weights(size int) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	weights := make([]float64, size)
	for ii := range weights {
		weights[ii] = r.rng.Float64()
	}
	return weights
}

func (r *randomInitializer) String() string { return r.name }

// ParseInitializer returns the initializer with the given name: "fixed" (or ""), "seeded" or "unseeded".
// The seed is only used by "seeded".
func ParseInitializer(name string, seed int64) (Initializer, error) {
	switch name {
	case "fixed", "":
		return Fixed(), nil
	case "seeded":
		return Seeded(seed), nil
	case "unseeded":
		return Unseeded(nil), nil
	}
	return nil, errors.Errorf("unknown initializer %q, valid values are \"fixed\", \"seeded\" and \"unseeded\"", name)
}
