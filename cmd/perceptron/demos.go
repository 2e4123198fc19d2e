// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/forkaduck/perceptron/pkg/ml/datasets"
	"github.com/forkaduck/perceptron/pkg/ml/hyperparams"
	"github.com/forkaduck/perceptron/pkg/ml/network"
	"github.com/forkaduck/perceptron/pkg/ml/unit"
	"github.com/forkaduck/perceptron/pkg/support/fsutil"
	"github.com/forkaduck/perceptron/pkg/support/stats"
	"github.com/forkaduck/perceptron/pkg/support/xslices"
	"github.com/forkaduck/perceptron/ui/commandline"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
)

// demos available through -demo.
var demos = map[string]func(e *experiment) error{
	"or":       demoOR,
	"xor":      demoXOR,
	"patterns": demoPatterns,
	"noise":    demoNoise,
	"network":  demoNetwork,
	"tree":     demoTree,
	"csv":      demoCSV,
}

var (
	orPairs = []datasets.Pair{
		datasets.P(0, 0, 0), datasets.P(1, 1, 0.2), datasets.P(1, 0.2, 1), datasets.P(1, 1, 1),
	}
	xorPairs = []datasets.Pair{
		datasets.P(0, 0, 0), datasets.P(1, 0, 1), datasets.P(1, 1, 0), datasets.P(0, 1, 1),
	}

	// Expected is 1 whenever the middle input is >= 0.6.
	patternsPairs = []datasets.Pair{
		datasets.P(0, 0, 0, 0), datasets.P(1, 0, 0.7, 0), datasets.P(1, 0, 0.8, 0),
		datasets.P(0, 1, 0, 1), datasets.P(1, 1, 0.6, 0), datasets.P(1, 0, 0.7, 1),
		datasets.P(0, 0, 0, 0), datasets.P(0, 1, 0, 1), datasets.P(1, 1, 1, 1),
	}
	cleanProbes = []datasets.Pair{
		datasets.P(1, 0, 0.7, 0), datasets.P(0, 0, 0.5, 0), datasets.P(0, 0, 0.2, 0),
	}
	noisyProbes = []datasets.Pair{
		datasets.P(1, 0.8, 0.7, 0.3), datasets.P(0, 0.3, 0.5, 1), datasets.P(0, 0.8, 0.2, 0.2),
	}
)

func reportCorrect(e *experiment, numCorrect, total int) {
	_, _ = fmt.Fprintf(e.out, "%d/%d correct\n\n", numCorrect, total)
}

// trainAndReport searches a learning rate for a new unit on ds and reports its responses.
func trainAndReport(e *experiment, ds *datasets.Dataset, title string) (*unit.Unit, error) {
	u, err := e.newUnit(ds.InputLength())
	if err != nil {
		return nil, err
	}
	_, _ = e.optimize(u, ds)
	numCorrect, err := commandline.ReportResponses(e.out, title, u, ds.Inputs(), ds.Expected())
	if err != nil {
		return nil, err
	}
	reportCorrect(e, numCorrect, ds.Len())
	return u, nil
}

func demoOR(e *experiment) error {
	_, err := trainAndReport(e, must.M1(datasets.New(orPairs)).WithName("or"), "OR")
	return err
}

func demoPatterns(e *experiment) error {
	_, err := trainAndReport(e, must.M1(datasets.New(patternsPairs)).WithName("patterns"), "Patterns")
	return err
}

// demoXOR shows a single unit can't learn XOR.
func demoXOR(e *experiment) error {
	ds := must.M1(datasets.New(xorPairs)).WithName("xor")
	u, err := e.newUnit(ds.InputLength())
	if err != nil {
		return err
	}
	_, _ = e.train(u, ds)
	numCorrect, err := commandline.ReportResponses(e.out, "XOR with a single unit", u, ds.Inputs(), ds.Expected())
	if err != nil {
		return err
	}
	reportCorrect(e, numCorrect, ds.Len())
	_, _ = fmt.Fprintln(e.out, "XOR is not linearly separable, see -demo=network for a two level solution.")
	return nil
}

// demoNoise trains on patterns perturbed with noise, and probes the unit with clean and noisy inputs.
func demoNoise(e *experiment) error {
	clean := must.M1(datasets.New(patternsPairs)).WithName("patterns")
	ds, err := clean.Duplicate(hyperparams.Get[int](e.params, hyperparams.ParamDuplicate))
	if err != nil {
		return err
	}
	ds.WithName("noisy patterns")
	ds.PerturbInputs(e.rng(), datasets.UniformNoise(hyperparams.Get[float64](e.params, hyperparams.ParamNoise)))
	var noise []float64
	for ii, r := range ds.Records() {
		original := clean.Record(ii % clean.Len())
		for jj, x := range r.Input {
			noise = append(noise, x-original.Input[jj])
		}
	}
	_, _ = fmt.Fprintf(e.out, "Noise added to %s: %s\n", ds, stats.Summarize(noise))

	u, err := trainAndReport(e, ds, "Noisy training data")
	if err != nil {
		return err
	}
	for _, probes := range []struct {
		title string
		pairs []datasets.Pair
	}{{"Without noise", cleanProbes}, {"With noise", noisyProbes}} {
		probeDS := must.M1(datasets.New(probes.pairs))
		numCorrect, err := commandline.ReportResponses(e.out, probes.title, u, probeDS.Inputs(), probeDS.Expected())
		if err != nil {
			return err
		}
		reportCorrect(e, numCorrect, probeDS.Len())
	}
	return nil
}

// Setup of the XOR network: a level of 3 units computing "a and not b", "b and not a" and a bias,
// and an output unit combining them.
var (
	xorRates    = unit.Range{Start: 0.5, End: 3.0}
	xorMaxError = 0.01
)

func xorInput(a, b float64) []float64 {
	return xslices.Repeat([]float64{a, b, 1}, 3)
}

// demoNetwork composes units in a two level network that computes XOR.
func demoNetwork(e *experiment) error {
	initializer, err := unit.ParseInitializer(
		hyperparams.Get[string](e.params, hyperparams.ParamInitializer),
		hyperparams.Get[int64](e.params, hyperparams.ParamSeed))
	if err != nil {
		return err
	}
	n := must.M1(network.New(2, 3, initializer))
	for _, pos := range [][2]int{{0, 0}, {0, 1}, {1, 0}} {
		must.M(n.SetUnit(pos[0], pos[1], must.M1(unit.New(3, initializer, unit.WithActivation(unit.Logistic)))))
	}

	targets := []struct {
		name   string
		target func(a, b float64) float64
	}{
		{"a and not b", func(a, b float64) float64 { return a * (1 - b) }},
		{"b and not a", func(a, b float64) float64 { return b * (1 - a) }},
		{"bias", func(a, b float64) float64 { return 1 }},
	}
	xorDS := must.M1(datasets.New(xorPairs))
	for ii, t := range targets {
		pairs := xslices.Map(xorDS.Records(), func(r datasets.Pair) datasets.Pair {
			a, b := r.Input[0], r.Input[1]
			return datasets.P(t.target(a, b), a, b, 1)
		})
		ds := must.M1(datasets.New(pairs)).WithName(t.name)
		_, _ = e.optimizeWith(n.Unit(0, ii), ds, xorRates, xorMaxError)
	}

	// The output unit learns from the actual outputs of the first level.
	inputs := make([][]float64, xorDS.Len())
	outputPairs := make([]datasets.Pair, xorDS.Len())
	for ii, r := range xorDS.Records() {
		inputs[ii] = xorInput(r.Input[0], r.Input[1])
		levels, err := n.ForwardLevels(inputs[ii])
		if err != nil {
			return err
		}
		outputPairs[ii] = datasets.Pair{Input: levels[0], Expected: r.Expected}
	}
	outputDS := must.M1(datasets.New(outputPairs)).WithName("xor output")
	_, _ = e.optimizeWith(n.Unit(1, 0), outputDS, xorRates, xorMaxError)

	numCorrect, err := commandline.ReportNetwork(e.out, fmt.Sprintf("XOR with %s", n), n, inputs, xorDS.Expected())
	if err != nil {
		return err
	}
	reportCorrect(e, numCorrect, xorDS.Len())
	return nil
}

// maxTreeBranching limits the number of binary patterns each unit of the tree demo is trained on.
const maxTreeBranching = 10

// binaryPatterns returns all 2^size inputs made of 0s and 1s.
func binaryPatterns(size int) [][]float64 {
	patterns := make([][]float64, 1<<size)
	for ii := range patterns {
		patterns[ii] = make([]float64, size)
		for bit := range size {
			if ii&(1<<bit) != 0 {
				patterns[ii][bit] = 1
			}
		}
	}
	return patterns
}

func anyOne(input []float64) float64 {
	for _, x := range input {
		if x != 0 {
			return 1
		}
	}
	return 0
}

// demoTree builds a network with the "depth" and "branching" hyperparameters that computes the OR of all its
// inputs: every unit is trained level by level to compute the OR of its own inputs.
func demoTree(e *experiment) error {
	depth := hyperparams.Get[int](e.params, hyperparams.ParamDepth)
	branching := hyperparams.Get[int](e.params, hyperparams.ParamBranching)
	if branching > maxTreeBranching {
		return errors.Errorf("-demo=tree: branching=%d above the limit of %d", branching, maxTreeBranching)
	}
	initializer, err := unit.ParseInitializer(
		hyperparams.Get[string](e.params, hyperparams.ParamInitializer),
		hyperparams.Get[int64](e.params, hyperparams.ParamSeed))
	if err != nil {
		return err
	}
	activation, err := unit.ParseActivation(hyperparams.Get[string](e.params, hyperparams.ParamActivation))
	if err != nil {
		return err
	}
	n, err := network.New(depth, branching, initializer, unit.WithActivation(activation))
	if err != nil {
		return err
	}

	pairs := xslices.Map(binaryPatterns(branching), func(input []float64) datasets.Pair {
		return datasets.Pair{Input: input, Expected: anyOne(input)}
	})
	ds := must.M1(datasets.New(pairs)).WithName(fmt.Sprintf("or%d", branching))
	for level, sizes := 0, n.LevelSizes(); level < n.NumLevels(); level++ {
		dss := xslices.SliceWithValue(sizes[level], ds)
		results, err := n.TrainLevel(level, dss, e.rates(), e.maxError(),
			func(_ int, cfg *unit.OptimizerConfig) {
				cfg.MaxEpochs(e.maxEpochs())
				if e.recorder != nil {
					e.recorder.AttachToOptimizer(cfg)
				}
			})
		if err != nil {
			return err
		}
		var converged int
		for _, result := range results {
			if result == nil {
				converged++
			}
		}
		_, _ = fmt.Fprintf(e.out, "Level %d: %d/%d units converged\n", level, converged, len(results))
	}

	// Probes: all zeros, all ones, a single one at each end, and random binary inputs.
	width := n.Width()
	inputs := [][]float64{
		make([]float64, width),
		xslices.SliceWithValue(width, 1.0),
		append([]float64{1}, make([]float64, width-1)...),
		append(make([]float64, width-1), 1),
	}
	rng := e.rng()
	for range 4 {
		inputs = append(inputs, xslices.Map(make([]float64, width), func(float64) float64 {
			return float64(rng.Intn(2))
		}))
	}
	expected := xslices.Map(inputs, anyOne)
	numCorrect, err := commandline.ReportNetwork(e.out, fmt.Sprintf("OR with %s", n), n, inputs, expected)
	if err != nil {
		return err
	}
	reportCorrect(e, numCorrect, len(inputs))
	return nil
}

// demoCSV trains a unit on the data of a CSV file given by -data.
func demoCSV(e *experiment) error {
	if e.dataPath == "" {
		return errors.New("-demo=csv requires a CSV file given with -data")
	}
	dataPath, err := fsutil.ReplaceTildeInDir(e.dataPath)
	if err != nil {
		return err
	}
	if exists, err := fsutil.FileExists(dataPath); err != nil {
		return err
	} else if !exists {
		return errors.Errorf("-data=%q: file not found", e.dataPath)
	}
	ds, err := datasets.LoadCSVFile(dataPath)
	if err != nil {
		return err
	}
	_, err = trainAndReport(e, ds, ds.Name())
	return err
}
