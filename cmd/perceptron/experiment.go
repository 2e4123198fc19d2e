// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"math/rand"
	"path/filepath"
	"strings"

	"github.com/forkaduck/perceptron/pkg/ml/datasets"
	"github.com/forkaduck/perceptron/pkg/ml/hyperparams"
	"github.com/forkaduck/perceptron/pkg/ml/unit"
	"github.com/forkaduck/perceptron/pkg/support/sets"
	"github.com/forkaduck/perceptron/ui/commandline"
	"github.com/forkaduck/perceptron/ui/gonb/margaid"
	"github.com/forkaduck/perceptron/ui/gonb/plotly"
	"github.com/forkaduck/perceptron/ui/plots"
	"github.com/forkaduck/perceptron/ui/plots/gonumplot"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// experiment holds the configuration shared by the demos.
type experiment struct {
	params *hyperparams.Params
	out    io.Writer

	progress bool
	dataPath string
	plotPath string
	recorder *plots.Recorder
}

func newExperiment(params *hyperparams.Params, out io.Writer) *experiment {
	return &experiment{params: params, out: out}
}

// newUnit creates a unit configured by the hyperparameters.
func (e *experiment) newUnit(size int) (*unit.Unit, error) {
	initializer, err := unit.ParseInitializer(
		hyperparams.Get[string](e.params, hyperparams.ParamInitializer),
		hyperparams.Get[int64](e.params, hyperparams.ParamSeed))
	if err != nil {
		return nil, err
	}
	activation, err := unit.ParseActivation(hyperparams.Get[string](e.params, hyperparams.ParamActivation))
	if err != nil {
		return nil, err
	}
	return unit.New(size, initializer, unit.WithActivation(activation))
}

func (e *experiment) rates() unit.Range {
	return unit.Range{
		Start: hyperparams.Get[float64](e.params, hyperparams.ParamLearningRateMin),
		End:   hyperparams.Get[float64](e.params, hyperparams.ParamLearningRateMax),
	}
}

func (e *experiment) maxError() float64 {
	return hyperparams.Get[float64](e.params, hyperparams.ParamMaxError)
}

func (e *experiment) maxEpochs() int {
	return hyperparams.Get[int](e.params, hyperparams.ParamMaxEpochs)
}

// rng used for noise, seeded with the "seed" hyperparameter.
func (e *experiment) rng() *rand.Rand {
	return rand.New(rand.NewSource(hyperparams.Get[int64](e.params, hyperparams.ParamSeed)))
}

// train u on ds with the configured learning rate, and reports the outcome.
// The training error is returned, but it's not fatal to the demos: it's part of the report.
func (e *experiment) train(u *unit.Unit, ds *datasets.Dataset) (errSum float64, err error) {
	cfg := u.Training(ds).
		LearningRate(hyperparams.Get[float64](e.params, hyperparams.ParamLearningRate)).
		MaxError(e.maxError()).
		MaxEpochs(e.maxEpochs())
	if e.recorder != nil {
		e.recorder.AttachToTraining(cfg)
	}
	done := func() {}
	if e.progress {
		done = commandline.AttachTrainingProgressBar(cfg, e.maxEpochs(),
			func() (string, string) { return "Dataset", ds.Name() })
	}
	errSum, err = cfg.Done()
	done()
	must.M(commandline.ReportTraining(e.out, ds.Name(), errSum, err, cfg.Epochs()))
	return errSum, err
}

// optimize searches a learning rate for u on ds, and reports the outcome.
func (e *experiment) optimize(u *unit.Unit, ds *datasets.Dataset) (errSum float64, err error) {
	return e.optimizeWith(u, ds, e.rates(), e.maxError())
}

func (e *experiment) optimizeWith(u *unit.Unit, ds *datasets.Dataset, rates unit.Range, errMax float64) (
	errSum float64, err error) {
	cfg := u.Optimizer(ds, rates).MaxError(errMax).MaxEpochs(e.maxEpochs())
	if e.recorder != nil {
		e.recorder.AttachToOptimizer(cfg)
	}
	var epochs int
	cfg.OnEpoch("epochs", 0, func(int, float64) error {
		epochs++
		return nil
	})
	done := func() {}
	if e.progress {
		done = commandline.AttachProgressBar(cfg, func() (string, string) { return "Dataset", ds.Name() })
	}
	errSum, err = cfg.Done()
	done()
	name := fmt.Sprintf("%s (lr=%.4g after %d trials)", ds.Name(), cfg.Rate(), cfg.Trials())
	must.M(commandline.ReportTraining(e.out, name, errSum, err, epochs))
	return errSum, err
}

// plotFormats are the file extensions accepted by -plot.
var plotFormats = sets.MakeWith(".json", ".html", ".svg", ".png", ".pdf", ".jpg", ".jpeg")

func checkPlotPath(filePath string) error {
	ext := strings.ToLower(filepath.Ext(filePath))
	if !plotFormats.Has(ext) {
		return errors.Errorf("unknown plot format %q for %q, valid formats are %v",
			ext, filePath, sets.Sorted(plotFormats))
	}
	return nil
}

// savePlot renders the recorded points to e.plotPath, with the renderer picked by the file extension.
// In a notebook the plots are also displayed.
func (e *experiment) savePlot(title string) error {
	points := e.recorder.Points()
	if len(points) == 0 {
		klog.Warningf("no epochs recorded, plot %q not saved", e.plotPath)
		return nil
	}
	var err error
	switch ext := strings.ToLower(filepath.Ext(e.plotPath)); ext {
	case ".json":
		err = plots.SavePoints(e.plotPath, points)
	case ".html":
		err = plotly.SaveHTML(points, e.plotPath)
	case ".svg":
		err = margaid.New(1024, 400).Save(points, plots.MetricTypeEpochError, title, e.plotPath)
	case ".png", ".pdf", ".jpg", ".jpeg":
		err = gonumplot.Save(points, plots.MetricTypeEpochError, title, e.plotPath)
	default:
		err = checkPlotPath(e.plotPath)
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(e.out, "Plot of %s epochs saved to %s\n", commandline.FormatCount(len(points)/2), e.plotPath)
	return plotly.Display(points)
}
