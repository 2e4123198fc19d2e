// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package gonumplot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/forkaduck/perceptron/ui/plots"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPoints = []plots.Point{
	{MetricName: "lr=0.1", MetricType: plots.MetricTypeEpochError, Step: 1, Value: 0.8},
	{MetricName: "lr=0.1", MetricType: plots.MetricTypeEpochError, Step: 2, Value: -0.3},
	{MetricName: "lr=0.1", MetricType: plots.MetricTypeEpochError, Step: 3, Value: 0.05},
	{MetricName: "lr=0.2", MetricType: plots.MetricTypeEpochError, Step: 1, Value: 0.9},
	{MetricName: "lr=0.2", MetricType: plots.MetricTypeEpochError, Step: 2, Value: 0.4},
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"errors.png", "errors.svg"} {
		filePath := filepath.Join(dir, "sub", name)
		require.NoError(t, Save(testPoints, plots.MetricTypeEpochError, "OR", filePath))
		info, err := os.Stat(filePath)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}

	err := Save(testPoints, plots.MetricTypeAbsEpochError, "OR", filepath.Join(dir, "abs.png"))
	require.Error(t, err)
}

func TestNew(t *testing.T) {
	p, err := New(testPoints, "", "all")
	require.NoError(t, err)
	assert.Equal(t, "all", p.Title.Text)
	assert.Equal(t, "Epochs", p.X.Label.Text)
}
