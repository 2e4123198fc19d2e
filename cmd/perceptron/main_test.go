// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/forkaduck/perceptron/pkg/ml/hyperparams"
	"github.com/forkaduck/perceptron/ui/commandline"
	"github.com/forkaduck/perceptron/ui/plots"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExperiment() (*experiment, *bytes.Buffer) {
	var buf bytes.Buffer
	return newExperiment(hyperparams.Defaults(), &buf), &buf
}

func TestDemos(t *testing.T) {
	for _, name := range []string{"or", "patterns", "noise"} {
		t.Run(name, func(t *testing.T) {
			e, buf := newTestExperiment()
			require.NoError(t, e.run(name))
			assert.Contains(t, buf.String(), "correct")
		})
	}
}

func TestXORDemos(t *testing.T) {
	e, buf := newTestExperiment()
	require.NoError(t, e.run("xor"))
	assert.Contains(t, buf.String(), "XOR with a single unit")
	assert.NotContains(t, buf.String(), "4/4 correct")

	e, buf = newTestExperiment()
	require.NoError(t, e.run("network"))
	assert.Contains(t, buf.String(), "Network(width=9, branching=3, levels=[3 1])")
	assert.Contains(t, buf.String(), "4/4 correct")
}

func TestTreeDemo(t *testing.T) {
	e, buf := newTestExperiment()
	require.NoError(t, e.run("tree"))
	assert.Contains(t, buf.String(), "OR with Network(width=9, branching=3, levels=[3 1])")
	assert.Contains(t, buf.String(), "Level 1: ")
	assert.Contains(t, buf.String(), "/8 correct")

	e, buf = newTestExperiment()
	_, err := commandline.ParseSettings(e.params, "depth=3;branching=2")
	require.NoError(t, err)
	require.NoError(t, e.run("tree"))
	assert.Contains(t, buf.String(), "OR with Network(width=8, branching=2, levels=[4 2 1])")
	assert.Contains(t, buf.String(), "Level 2: ")

	for _, settings := range []string{"depth=0", "branching=11", "depth=40;branching=2"} {
		e, _ = newTestExperiment()
		_, err = commandline.ParseSettings(e.params, settings)
		require.NoError(t, err)
		require.Error(t, e.run("tree"), "settings %q", settings)
	}
}

func TestCSVDemo(t *testing.T) {
	e, buf := newTestExperiment()
	require.Error(t, e.run("csv"))

	dataPath := filepath.Join(t.TempDir(), "or.csv")
	require.NoError(t, os.WriteFile(dataPath, []byte("a,b,label\n0,0,0\n1,0.2,1\n0.2,1,1\n1,1,1\n"), 0o644))
	e.dataPath = dataPath
	require.NoError(t, e.run("csv"))
	assert.Contains(t, buf.String(), "or.csv")

	require.Error(t, e.run("unknown"))
}

func TestSettings(t *testing.T) {
	e, buf := newTestExperiment()
	_, err := commandline.ParseSettings(e.params, "activation=logistic;initializer=seeded;seed=3;max_epochs=20")
	require.NoError(t, err)
	require.NoError(t, e.run("or"))
	assert.Contains(t, buf.String(), "correct")

	_, err = commandline.ParseSettings(e.params, "initializer=zeros")
	require.NoError(t, err)
	require.Error(t, e.run("or"))
}

func TestPlot(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"points.json", "plot.html", "plot.svg", "plot.png"} {
		e, buf := newTestExperiment()
		e.plotPath = filepath.Join(dir, name)
		require.NoError(t, e.run("or"), "plot %q", name)
		assert.Contains(t, buf.String(), "saved to")
		info, err := os.Stat(e.plotPath)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}

	points, err := plots.LoadPoints(filepath.Join(dir, "points.json"))
	require.NoError(t, err)
	assert.NotEmpty(t, points)

	e, _ := newTestExperiment()
	e.plotPath = filepath.Join(dir, "plot.bmp")
	require.Error(t, e.run("or"))
}

func TestProgress(t *testing.T) {
	var progress bytes.Buffer
	commandline.Output = &progress
	defer func() { commandline.Output = os.Stdout }()

	for _, name := range []string{"or", "xor"} {
		progress.Reset()
		e, _ := newTestExperiment()
		e.progress = true
		require.NoError(t, e.run(name))
		assert.Contains(t, progress.String(), "Epoch error", "demo %q", name)
	}
}
