// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// perceptron runs small experiments with linear threshold units and networks of them.
//
// Examples:
//
//	perceptron -demo=xor
//	perceptron -demo=tree -set="depth=3;branching=2"
//	perceptron -demo=patterns -set="activation=logistic;err_max=0.05" -plot=~/tmp/patterns.html
//	perceptron -demo=csv -data=iris.csv -set="initializer=seeded;seed=7" -progress
package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/forkaduck/perceptron/pkg/ml/hyperparams"
	"github.com/forkaduck/perceptron/ui/commandline"
	"github.com/forkaduck/perceptron/ui/plots"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagDemo = flag.String("demo", "xor",
		fmt.Sprintf("Experiment to run, one of: %s.", strings.Join(demoNames(), ", ")))
	flagData     = flag.String("data", "", "CSV file used by -demo=csv. The label is the last column.")
	flagPlot     = flag.String("plot", "", "File where to plot the epoch errors: \".png\", \".svg\", \".pdf\", \".html\" or \".json\" for the raw points.")
	flagProgress = flag.Bool("progress", false, "Display a progress bar while training.")
)

func main() {
	klog.InitFlags(nil)
	params := hyperparams.Defaults()
	settings := commandline.CreateSettingsFlag(params, "")
	flag.Parse()

	paramsSet, err := commandline.ParseSettings(params, *settings)
	if err != nil {
		klog.Fatalf("%+v", err)
	}
	if len(paramsSet) > 0 {
		fmt.Printf("Hyperparameters set:\n%s\n\n", commandline.SprintModifiedSettings(params, paramsSet))
	}

	exp := newExperiment(params, os.Stdout)
	exp.progress = *flagProgress
	exp.dataPath = *flagData
	exp.plotPath = *flagPlot
	if panicErr := exceptions.TryCatch[error](func() { err = exp.run(*flagDemo) }); panicErr != nil {
		err = panicErr
	}
	if err != nil {
		klog.Fatalf("Demo %q failed: %+v", *flagDemo, err)
	}
}

func demoNames() []string {
	names := make([]string, 0, len(demos))
	for name := range demos {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// run the named demo and saves the plot, if one was requested.
func (e *experiment) run(name string) error {
	demo, found := demos[name]
	if !found {
		return errors.Errorf("unknown demo %q, valid demos are: %s", name, strings.Join(demoNames(), ", "))
	}
	if e.plotPath != "" {
		if err := checkPlotPath(e.plotPath); err != nil {
			return err
		}
		e.recorder = plots.NewRecorder(name)
	}
	if err := demo(e); err != nil {
		return err
	}
	if e.recorder != nil {
		return e.savePlot(name)
	}
	return nil
}
