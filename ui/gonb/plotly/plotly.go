// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package plotly renders plot points with Plotly (github.com/MetalBlueberry/go-plotly): to a standalone HTML
// page, or directly in a GoNB notebook using its plotly support (github.com/janpfeifer/gonb/gonbui/plotly).
package plotly

import (
	"encoding/base64"
	"encoding/json"
	"html/template"
	"io"
	"os"

	grob "github.com/MetalBlueberry/go-plotly/generated/v2.34.0/graph_objects"
	ptypes "github.com/MetalBlueberry/go-plotly/pkg/types"
	"github.com/forkaduck/perceptron/pkg/support/fsutil"
	"github.com/forkaduck/perceptron/pkg/support/xslices"
	"github.com/forkaduck/perceptron/ui/plots"
	"github.com/janpfeifer/gonb/gonbui"
	gonbplotly "github.com/janpfeifer/gonb/gonbui/plotly"
	"github.com/pkg/errors"
)

// MetricTypes plotted by default, one figure each.
var MetricTypes = []string{plots.MetricTypeEpochError, plots.MetricTypeAbsEpochError}

// Figure creates a Plotly figure with one line per series of the given metric type.
func Figure(points []plots.Point, metricType string) (*grob.Fig, error) {
	names, series := plots.NewPoints(points).Series(metricType)
	if len(names) == 0 {
		return nil, errors.Errorf("no points of metric type %q to plot", metricType)
	}
	fig := &grob.Fig{
		Layout: &grob.Layout{
			Title: &grob.LayoutTitle{
				Text: ptypes.S(metricType),
			},
			Xaxis: &grob.LayoutXaxis{
				Showgrid: ptypes.B(true),
			},
			Yaxis: &grob.LayoutYaxis{
				Showgrid: ptypes.B(true),
			},
			Legend: &grob.LayoutLegend{},
		},
	}
	for _, name := range names {
		seriesPoints := series[name]
		fig.Data = append(fig.Data, &grob.Scatter{
			Name: ptypes.S(name),
			Line: &grob.ScatterLine{
				Shape: grob.ScatterLineShapeLinear,
			},
			Mode: "lines+markers",
			X:    ptypes.DataArray(xslices.Map(seriesPoints, func(p plots.Point) float64 { return p.Step })),
			Y:    ptypes.DataArray(xslices.Map(seriesPoints, func(p plots.Point) float64 { return p.Value })),
		})
	}
	return fig, nil
}

// Figures creates one figure per metric type present in points, in the order of MetricTypes.
func Figures(points []plots.Point) []*grob.Fig {
	var figs []*grob.Fig
	for _, metricType := range MetricTypes {
		fig, err := Figure(points, metricType)
		if err != nil {
			continue // No points of this type.
		}
		figs = append(figs, fig)
	}
	return figs
}

var (
	singleFileHTML = `<!DOCTYPE html>
	<head>
		<meta charset="utf-8">
		<script src="{{ .CDN }}"></script>
	</head>
	<body>
{{- range $i, $f := .Figures }}
		<div id="plot{{ $i }}"></div>
		{{ if not (eq $i (lastIdx $.Figures)) }}
		<hr style="border-color: gray;">
		{{ end }}
{{- end }}
	<script>
{{- range $i, $f := .Figures }}
		data = JSON.parse(atob('{{ $f }}'))
		Plotly.newPlot('plot{{ $i }}', data);
{{- end }}
	</script>
	</body>
</html>`
	singleFileHTMLTmpl = template.Must(template.New("plotly").Funcs(template.FuncMap{
		"lastIdx": func(a []string) int { return len(a) - 1 },
	}).Parse(singleFileHTML))
)

// WriteHTML renders the figures of the points to an HTML page that can be served or saved to a file.
func WriteHTML(w io.Writer, points []plots.Point) error {
	figs := Figures(points)
	if len(figs) == 0 {
		return errors.New("no points to plot")
	}
	serialized := make([]string, 0, len(figs))
	for _, fig := range figs {
		figAsJSON, err := json.Marshal(fig)
		if err != nil {
			return errors.Wrap(err, "failed to marshal plotly figure")
		}
		serialized = append(serialized, base64.StdEncoding.EncodeToString(figAsJSON))
	}
	data := &struct {
		CDN     string
		Figures []string
	}{
		CDN:     gonbplotly.PlotlySrc,
		Figures: serialized,
	}
	if err := singleFileHTMLTmpl.Execute(w, data); err != nil {
		return errors.Wrap(err, "failed to render plotly")
	}
	return nil
}

// SaveHTML writes the page created by WriteHTML to filePath.
func SaveHTML(points []plots.Point, filePath string) error {
	filePath, err := fsutil.CreateParentDir(filePath)
	if err != nil {
		return err
	}
	f, err := os.Create(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to create file %q", filePath)
	}
	err = WriteHTML(f, points)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = errors.Wrapf(closeErr, "failed to close %q", filePath)
	}
	return err
}

// Display the figures in the notebook, if running in one. It's a no-op otherwise.
func Display(points []plots.Point) error {
	if !gonbui.IsNotebook {
		return nil
	}
	for _, fig := range Figures(points) {
		if err := gonbplotly.DisplayFig(fig); err != nil {
			return errors.Wrap(err, "failed to display plot")
		}
	}
	return nil
}
