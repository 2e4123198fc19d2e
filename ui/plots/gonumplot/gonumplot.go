// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package gonumplot renders plot points to image files using gonum.org/v1/plot.
package gonumplot

import (
	"github.com/forkaduck/perceptron/pkg/support/fsutil"
	"github.com/forkaduck/perceptron/ui/plots"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"k8s.io/klog/v2"
)

// Default size of the saved plots.
var (
	Width  = 12 * vg.Inch
	Height = 6 * vg.Inch
)

// New creates a plot with one line per series of the given metric type.
// If metricType is empty, all points are plotted.
func New(points []plots.Point, metricType, title string) (*plot.Plot, error) {
	names, series := plots.NewPoints(points).Series(metricType)
	if len(names) == 0 {
		return nil, errors.Errorf("no points of metric type %q to plot", metricType)
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Epochs"
	p.Y.Label.Text = metricType
	p.Add(plotter.NewGrid())
	for ii, name := range names {
		xys := make(plotter.XYs, len(series[name]))
		for jj, pt := range series[name] {
			xys[jj].X = pt.Step
			xys[jj].Y = pt.Value
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to plot series %q", name)
		}
		line.Color = plotutil.Color(ii)
		line.Dashes = plotutil.Dashes(ii)
		p.Add(line)
		p.Legend.Add(name, line)
	}
	return p, nil
}

// Save plots the series of the given metric type to filePath.
// The format is given by the file extension: ".png", ".svg", ".pdf", ".jpg", etc.
func Save(points []plots.Point, metricType, title, filePath string) error {
	p, err := New(points, metricType, title)
	if err != nil {
		return err
	}
	filePath, err = fsutil.CreateParentDir(filePath)
	if err != nil {
		return err
	}
	if err = p.Save(Width, Height, filePath); err != nil {
		return errors.Wrapf(err, "failed to save plot to %q", filePath)
	}
	klog.V(1).Infof("plot %q saved to %q", title, filePath)
	return nil
}
