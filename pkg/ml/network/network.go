// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package network composes units into a fixed-shape feed-forward tree.
//
// A Network of depth D and branching factor B has D levels. Level 0 reads the input vector of width B^D in
// windows of B values, one window per unit, and each following level reads the outputs of the previous one
// the same way, until the last level, with a single unit.
//
// The network doesn't train itself: units are trained individually, typically level by level with
// Network.TrainLevel, each with its own dataset.
package network

import (
	"fmt"
	"math"
	"strings"

	"github.com/forkaduck/perceptron/pkg/ml/datasets"
	"github.com/forkaduck/perceptron/pkg/ml/unit"
	"github.com/forkaduck/perceptron/pkg/support/xslices"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// MaxWidth is the largest input width accepted by New.
const MaxWidth = 1 << 24

// ErrInputWidth is returned when the input given to the network doesn't have the expected width.
var ErrInputWidth = errors.New("input doesn't match the network width")

// Network is a tree of units, see package documentation.
type Network struct {
	levels    [][]*unit.Unit
	branching int
}

// New creates a network with depth levels, each unit with branching weights, created with initializer and opts.
//
// Level l (0 is the input level) has branching^(depth-1-l) units.
func New(depth, branching int, initializer unit.Initializer, opts ...unit.Option) (*Network, error) {
	if depth < 1 || branching < 1 {
		return nil, errors.Errorf("network.New(depth=%d, branching=%d): both must be >= 1", depth, branching)
	}
	if float64(depth)*math.Log2(float64(branching)) > math.Log2(MaxWidth) {
		return nil, errors.Errorf("network.New(depth=%d, branching=%d): input width above the limit of %d",
			depth, branching, MaxWidth)
	}
	if initializer == nil {
		initializer = unit.Fixed()
	}
	n := &Network{
		levels:    make([][]*unit.Unit, depth),
		branching: branching,
	}
	numUnits := intPow(branching, depth-1)
	for level := range n.levels {
		n.levels[level] = make([]*unit.Unit, numUnits)
		for ii := range numUnits {
			u, err := unit.New(branching, initializer, opts...)
			if err != nil {
				return nil, errors.WithMessagef(err, "network.New(): creating unit #%d of level %d", ii, level)
			}
			n.levels[level][ii] = u
		}
		numUnits /= branching
	}
	klog.V(1).Infof("new network: %s", n)
	return n, nil
}

func intPow(base, exp int) int {
	result := 1
	for range exp {
		result *= base
	}
	return result
}

// NumLevels returns the depth of the network.
func (n *Network) NumLevels() int { return len(n.levels) }

// LevelSizes returns the number of units in each level, starting from the input level.
func (n *Network) LevelSizes() []int {
	return xslices.Map(n.levels, func(level []*unit.Unit) int { return len(level) })
}

// NumUnits returns the total number of units.
func (n *Network) NumUnits() int {
	var total int
	for _, level := range n.levels {
		total += len(level)
	}
	return total
}

// InputLength is the number of weights of each unit, the branching factor.
func (n *Network) InputLength() int { return n.branching }

// Width is the length of the input vector of the network.
func (n *Network) Width() int { return len(n.levels[0]) * n.branching }

// Unit returns the unit at the given level and index. It can be trained in place.
func (n *Network) Unit(level, index int) *unit.Unit {
	return n.levels[level][index]
}

// Level returns the units of the given level. The slice is a copy, the units are not.
func (n *Network) Level(level int) []*unit.Unit {
	return xslices.Copy(n.levels[level])
}

// SetUnit replaces the unit at the given level and index, for instance to use a different activation.
// The new unit must have InputLength weights.
func (n *Network) SetUnit(level, index int, u *unit.Unit) error {
	if level < 0 || level >= len(n.levels) || index < 0 || index >= len(n.levels[level]) {
		return errors.Errorf("network has no unit #%d at level %d (level sizes %v)", index, level, n.LevelSizes())
	}
	if u.Size() != n.branching {
		return errors.Wrapf(unit.ErrInputLength, "SetUnit(%d, %d) given a unit of size %d, network requires %d",
			level, index, u.Size(), n.branching)
	}
	n.levels[level][index] = u
	return nil
}

// ForwardLevels returns the outputs of every level for the given input: the last element holds the network
// outputs.
func (n *Network) ForwardLevels(input []float64) ([][]float64, error) {
	if len(input) != n.Width() {
		return nil, errors.Wrapf(ErrInputWidth, "got input of width %d, network %s requires %d",
			len(input), n, n.Width())
	}
	outputs := make([][]float64, len(n.levels))
	working := input
	for levelIdx, level := range n.levels {
		next := make([]float64, len(level))
		for ii, u := range level {
			window := working[ii*n.branching : (ii+1)*n.branching]
			value, err := u.Output(window)
			if err != nil {
				return nil, errors.WithMessagef(err, "unit #%d of level %d", ii, levelIdx)
			}
			next[ii] = value
		}
		outputs[levelIdx] = next
		working = next
	}
	return outputs, nil
}

// Forward returns the outputs of the last level for the given input, which must have Width values.
// Each unit feeds forward its Output: the raw weighted sum for Identity units, the squashed value for Logistic.
func (n *Network) Forward(input []float64) ([]float64, error) {
	outputs, err := n.ForwardLevels(input)
	if err != nil {
		return nil, err
	}
	return xslices.Last(outputs), nil
}

// Decision returns whether the network output is above unit.Threshold.
func (n *Network) Decision(input []float64) (bool, error) {
	outputs, err := n.Forward(input)
	if err != nil {
		return false, err
	}
	return outputs[0] > unit.Threshold, nil
}

// ConfigureFn is called by TrainLevel with the learning rate search of the unit at index, before it's run.
type ConfigureFn func(index int, cfg *unit.OptimizerConfig)

// TrainLevel trains each unit of the given level with the learning rate search (unit.Unit.Optimizer) on
// its own dataset: dss[i] trains unit i. The searches can be further configured (hooks, epoch limits) with
// configureFns.
//
// It returns the training outcome of each unit (nil for the ones that converged), or an error if dss doesn't
// match the level.
func (n *Network) TrainLevel(level int, dss []*datasets.Dataset, rates unit.Range, errMax float64,
	configureFns ...ConfigureFn) ([]error, error) {
	if level < 0 || level >= len(n.levels) {
		return nil, errors.Errorf("TrainLevel(%d): network has only %d levels", level, len(n.levels))
	}
	units := n.levels[level]
	if len(dss) != len(units) {
		return nil, errors.Errorf("TrainLevel(%d): got %d datasets for %d units", level, len(dss), len(units))
	}
	results := make([]error, len(units))
	for ii, u := range units {
		cfg := u.Optimizer(dss[ii], rates).MaxError(errMax)
		for _, fn := range configureFns {
			fn(ii, cfg)
		}
		_, results[ii] = cfg.Done()
		if results[ii] != nil {
			klog.V(1).Infof("TrainLevel(%d): unit #%d: %v", level, ii, results[ii])
		}
	}
	return results, nil
}

// String implements fmt.Stringer.
func (n *Network) String() string {
	parts := xslices.Map(n.LevelSizes(), func(size int) string { return fmt.Sprint(size) })
	return fmt.Sprintf("Network(width=%d, branching=%d, levels=[%s])", n.Width(), n.branching,
		strings.Join(parts, " "))
}
