// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package margaid renders plot points to SVG using github.com/erkkah/margaid, and displays them in
// a GoNB notebook when running in one.
package margaid

import (
	"bytes"
	"os"

	mg "github.com/erkkah/margaid"
	"github.com/forkaduck/perceptron/pkg/support/fsutil"
	"github.com/forkaduck/perceptron/ui/plots"
	"github.com/janpfeifer/gonb/gonbui"
	"github.com/pkg/errors"
)

// Plot configures how the points are rendered.
type Plot struct {
	Width, Height int

	// LogScaleY uses a logarithmic projection in the Y axis: only meaningful for positive values,
	// like plots.MetricTypeAbsEpochError.
	LogScaleY bool
}

// New creates a Plot with the given size in pixels.
func New(width, height int) *Plot {
	return &Plot{Width: width, Height: height}
}

// SVG renders the series of the given metric type.
func (p *Plot) SVG(points []plots.Point, metricType, title string) (string, error) {
	names, series := plots.NewPoints(points).Series(metricType)
	if len(names) == 0 {
		return "", errors.Errorf("no points of metric type %q to plot", metricType)
	}
	allPoints := mg.NewSeries()
	allSeries := make([]*mg.Series, 0, len(names))
	for _, name := range names {
		s := mg.NewSeries(mg.Titled(name))
		for _, pt := range series[name] {
			value := mg.MakeValue(pt.Step, pt.Value)
			s.Add(value)
			allPoints.Add(value)
		}
		allSeries = append(allSeries, s)
	}

	yProjection := mg.Lin
	if p.LogScaleY {
		yProjection = mg.Log
	}
	diagram := mg.New(p.Width, p.Height,
		mg.WithAutorange(mg.XAxis, allSeries...),
		mg.WithAutorange(mg.YAxis, allSeries...),
		mg.WithProjection(mg.YAxis, yProjection),
		mg.WithInset(70),
		mg.WithPadding(2),
		mg.WithColorScheme(90),
		mg.WithBackgroundColor("#f8f8f8"),
	)
	for _, s := range allSeries {
		diagram.Line(s, mg.UsingAxes(mg.XAxis, mg.YAxis), mg.UsingMarker("square"), mg.UsingStrokeWidth(2))
	}
	diagram.Axis(allPoints, mg.XAxis, diagram.ValueTicker('f', 0, 10), false, "Epochs")
	diagram.Axis(allPoints, mg.YAxis, diagram.ValueTicker('f', 3, 10), true, metricType)
	diagram.Frame()
	if title != "" {
		diagram.Title(title)
	}
	diagram.Legend(mg.BottomLeft)

	var buf bytes.Buffer
	if err := diagram.Render(&buf); err != nil {
		return "", errors.Wrapf(err, "failed to render plot for %q", metricType)
	}
	return buf.String(), nil
}

// Save renders the series of the given metric type to an SVG file.
func (p *Plot) Save(points []plots.Point, metricType, title, filePath string) error {
	svg, err := p.SVG(points, metricType, title)
	if err != nil {
		return err
	}
	filePath, err = fsutil.CreateParentDir(filePath)
	if err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(filePath, []byte(svg), 0o644), "failed to write plot to %q", filePath)
}

// Display the plot in the notebook, if running in one. It's a no-op otherwise.
func (p *Plot) Display(points []plots.Point, metricType, title string) error {
	if !gonbui.IsNotebook {
		return nil
	}
	svg, err := p.SVG(points, metricType, title)
	if err != nil {
		return err
	}
	gonbui.DisplayHTML(svg)
	return nil
}
