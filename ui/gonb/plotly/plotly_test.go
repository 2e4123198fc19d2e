// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package plotly

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/forkaduck/perceptron/ui/plots"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPoints = []plots.Point{
	{MetricName: "lr=0.1", MetricType: plots.MetricTypeEpochError, Step: 1, Value: -0.8},
	{MetricName: "lr=0.1", MetricType: plots.MetricTypeEpochError, Step: 2, Value: 0.3},
	{MetricName: "lr=0.1 (abs)", MetricType: plots.MetricTypeAbsEpochError, Step: 1, Value: 0.8},
	{MetricName: "lr=0.1 (abs)", MetricType: plots.MetricTypeAbsEpochError, Step: 2, Value: 0.3},
}

func TestFigures(t *testing.T) {
	figs := Figures(testPoints)
	require.Len(t, figs, 2)
	require.Len(t, figs[0].Data, 1)

	figs = Figures(testPoints[:2])
	require.Len(t, figs, 1)

	_, err := Figure(testPoints, "accuracy")
	require.Error(t, err)
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, testPoints))
	html := buf.String()
	assert.Contains(t, html, "Plotly.newPlot('plot0'")
	assert.Contains(t, html, "Plotly.newPlot('plot1'")

	require.Error(t, WriteHTML(&buf, nil))

	filePath := filepath.Join(t.TempDir(), "plots.html")
	require.NoError(t, SaveHTML(testPoints, filePath))
	contents, err := os.ReadFile(filePath)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "<script src=")

	// Outside a notebook it's a no-op.
	require.NoError(t, Display(testPoints))
}
