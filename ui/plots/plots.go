// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package plots records the epoch errors of training runs as plot points, and provides tools to save, load and
// tabulate them.
//
// The points are rendered by the subpackages: gonumplot (PNG, SVG and PDF), margaid (SVG) and plotly (HTML).
package plots

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"sort"
	"sync"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/forkaduck/perceptron/pkg/ml/unit"
	"github.com/forkaduck/perceptron/pkg/support/fsutil"
	"github.com/forkaduck/perceptron/pkg/support/sets"
	"github.com/forkaduck/perceptron/pkg/support/xslices"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Metric types of the points created by a Recorder.
const (
	MetricTypeEpochError    = "epoch error"
	MetricTypeAbsEpochError = "absolute epoch error"
)

// RecorderName is the name of the hooks registered by a Recorder.
const RecorderName = "perceptron.ui.plots.Recorder"

// Point represents a training point in a plot.
type Point struct {
	// MetricName is the name of the series the point belongs to: one per training run.
	MetricName string

	// Short name of the metric.
	Short string

	// MetricType of the point: MetricTypeEpochError or MetricTypeAbsEpochError for points
	// created by a Recorder.
	MetricType string

	// Step is the number of epochs run when the point was recorded, starting at 1.
	Step float64

	// Value of the metric at the step.
	Value float64
}

// Recorder collects the epoch errors of training runs as Points.
//
// Each training run is given a unique series name made of the recorder name and a random id.
// When attached to a learning rate search, the series are renamed after each trial with the learning rate used.
//
// It's safe for concurrent use, but the points of runs trained concurrently are not told apart.
type Recorder struct {
	name string

	mu       sync.Mutex
	points   []Point
	runStart int
	runName  string
	runID    string

	fileWriter chan<- Point
	fileErr    <-chan error
}

// NewRecorder creates a Recorder whose series are prefixed with name.
func NewRecorder(name string) *Recorder {
	return &Recorder{name: name}
}

// WithFile makes the recorder also append every point to filePath, in the JSON-lines format read by LoadPoints.
// Recorder.Done must be called at the end, to flush and close the file.
func (r *Recorder) WithFile(filePath string) (*Recorder, error) {
	filePath, err := fsutil.CreateParentDir(filePath)
	if err != nil {
		return nil, err
	}
	r.fileWriter, r.fileErr = CreatePointsWriter(filePath)
	return r, nil
}

// AttachToTraining registers the recorder in the training configuration.
func (r *Recorder) AttachToTraining(cfg *unit.TrainConfig) *Recorder {
	cfg.OnEpoch(RecorderName, 100, r.onEpoch)
	return r
}

// AttachToOptimizer registers the recorder in the learning rate search: one series per trial.
func (r *Recorder) AttachToOptimizer(cfg *unit.OptimizerConfig) *Recorder {
	cfg.OnEpoch(RecorderName, 100, r.onEpoch)
	cfg.OnTrial(RecorderName, 100, r.onTrial)
	return r
}

func (r *Recorder) onEpoch(epoch int, errSum float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if epoch == 0 || r.runName == "" {
		r.runID = uuid.NewString()[:8]
		r.runName = fmt.Sprintf("%s #%s", r.name, r.runID)
		r.runStart = len(r.points)
	}
	if math.IsNaN(errSum) || math.IsInf(errSum, 0) {
		// Not representable in JSON, and not plottable.
		return nil
	}
	step := float64(epoch + 1)
	r.addLocked(Point{MetricName: r.runName, Short: "err", MetricType: MetricTypeEpochError, Step: step, Value: errSum})
	r.addLocked(Point{MetricName: r.runName + " (abs)", Short: "|err|", MetricType: MetricTypeAbsEpochError,
		Step: step, Value: math.Abs(errSum)})
	return nil
}

func (r *Recorder) addLocked(point Point) {
	r.points = append(r.points, point)
	if r.fileWriter != nil {
		r.fileWriter <- point
	}
}

// onTrial renames the series of the last run after the learning rate tried.
// Points already sent to a file keep their original name.
func (r *Recorder) onTrial(trial unit.Trial) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runName == "" {
		return nil
	}
	name := fmt.Sprintf("%s lr=%.4g #%s", r.name, trial.Rate, r.runID)
	if trial.Final {
		name += " (final)"
	}
	for ii := r.runStart; ii < len(r.points); ii++ {
		p := &r.points[ii]
		if p.MetricType == MetricTypeAbsEpochError {
			p.MetricName = name + " (abs)"
		} else {
			p.MetricName = name
		}
	}
	r.runName = ""
	return nil
}

// Points returns a copy of the points recorded so far.
func (r *Recorder) Points() []Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	return xslices.Copy(r.points)
}

// Done closes the file the points are written to, if one was configured with WithFile.
func (r *Recorder) Done() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fileWriter == nil {
		return nil
	}
	close(r.fileWriter)
	r.fileWriter = nil
	return <-r.fileErr
}

// SavePoints writes points to filePath, in the JSON-lines format read by LoadPoints.
// Points are appended if the file already exists.
func SavePoints(filePath string, points []Point) error {
	filePath, err := fsutil.CreateParentDir(filePath)
	if err != nil {
		return err
	}
	writer, errReport := CreatePointsWriter(filePath)
	for _, p := range points {
		writer <- p
	}
	close(writer)
	return <-errReport
}

// LoadPoints from filePath, one JSON encoded Point per line.
func LoadPoints(filePath string) ([]Point, error) {
	filePath, err := fsutil.ReplaceTildeInDir(filePath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read plot points file %q", filePath)
	}
	defer func() { _ = f.Close() }()

	dec := json.NewDecoder(f)
	var points []Point
	for {
		var point Point
		err := dec.Decode(&point)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "error while decoding plot points file %q", filePath)
		}
		points = append(points, point)
	}
	klog.V(1).Infof("loaded %d plot points from %q", len(points), filePath)
	return points, nil
}

// CreatePointsWriter creates a channel where points can be written to, and they are appended to the
// file in filePath, encoded as JSON.
//
// The writing happens in a separate goroutine: once the caller closes pointWriter, the file is closed
// and the final error (or nil) is sent to errReport.
func CreatePointsWriter(filePath string) (pointWriter chan<- Point, errReport <-chan error) {
	pointChan := make(chan Point, 100)
	pointWriter = pointChan
	errChan := make(chan error, 1)
	errReport = errChan
	go func() {
		f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o664)
		if err != nil {
			err = errors.Wrapf(err, "failed to open plot points file %q for append", filePath)
			klog.Errorf("Error: %v", err)
		}
		enc := json.NewEncoder(f)
		for point := range pointChan {
			// Keep consuming points after an error, so writers don't block.
			if err == nil {
				if err = enc.Encode(point); err != nil {
					err = errors.Wrapf(err, "failed to encode point %v", point)
					klog.Errorf("Error: %v", err)
				}
			}
		}
		if f != nil {
			if closeErr := f.Close(); err == nil && closeErr != nil {
				err = errors.Wrapf(closeErr, "failed to close plot points file %q", filePath)
			}
		}
		errChan <- err
	}()
	return
}

// Points organizes points per step.
type Points map[float64][]Point

// NewPoints organizes the rawPoints per step.
func NewPoints(rawPoints []Point) (points Points) {
	points = make(Points)
	for _, p := range rawPoints {
		points[p.Step] = append(points[p.Step], p)
	}
	return points
}

// Map calls fn for each point, in order of step.
func (points Points) Map(fn func(p *Point)) {
	for _, step := range xslices.SortedKeys(points) {
		stepPoints := points[step]
		for ii := range stepPoints {
			fn(&stepPoints[ii])
		}
	}
}

// Filter keeps only the points for which fn returns true.
func (points Points) Filter(fn func(p Point) bool) {
	for _, step := range xslices.SortedKeys(points) {
		stepPoints := points[step]
		newStepPoints := make([]Point, 0, len(stepPoints))
		for _, pt := range stepPoints {
			if fn(pt) {
				newStepPoints = append(newStepPoints, pt)
			}
		}
		if len(newStepPoints) == len(stepPoints) {
			continue
		}
		if len(newStepPoints) == 0 {
			delete(points, step)
		} else {
			points[step] = newStepPoints
		}
	}
}

// Extract the points in order of step.
func (points Points) Extract() (rawPoints []Point) {
	points.Map(func(p *Point) {
		rawPoints = append(rawPoints, *p)
	})
	return
}

// MetricsNames returns the names of the series, sorted by metric type and then name.
func (points Points) MetricsNames() []string {
	metricNames := sets.Make[string]()
	nameToType := make(map[string]string)
	points.Map(func(p *Point) {
		metricNames.Insert(p.MetricName)
		nameToType[p.MetricName] = p.MetricType
	})
	names := sets.Sorted(metricNames)
	sort.SliceStable(names, func(i, j int) bool {
		return nameToType[names[i]] < nameToType[names[j]]
	})
	return names
}

// Series returns the points of each series, ordered by step, and the series names in the order of MetricsNames.
// Only points of the given metric type are included, or all of them if metricType is empty.
func (points Points) Series(metricType string) (names []string, series map[string][]Point) {
	series = make(map[string][]Point)
	points.Map(func(p *Point) {
		if metricType != "" && p.MetricType != metricType {
			return
		}
		series[p.MetricName] = append(series[p.MetricName], *p)
	})
	for _, name := range points.MetricsNames() {
		if _, found := series[name]; found {
			names = append(names, name)
		}
	}
	return
}

// TableForMetrics returns a table with one row per step and one column per metric name.
// If no metrics are given, all of them are included.
func (points Points) TableForMetrics(metrics ...string) string {
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	headerStyle := lipgloss.NewStyle().Padding(0, 1).Bold(true).Reverse(true)
	table := lgtable.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	if len(metrics) == 0 {
		metrics = points.MetricsNames()
	}
	headers := []string{"Epoch"}
	headers = append(headers, metrics...)
	table.Headers(headers...)

	for _, step := range xslices.SortedKeys(points) {
		row := make([]string, 1+len(metrics))
		row[0] = fmt.Sprintf("%.0f", step)
		for _, pt := range points[step] {
			idx := slices.Index(metrics, pt.MetricName)
			if idx != -1 {
				row[idx+1] = fmt.Sprintf("%f", pt.Value)
			}
		}
		table.Row(row...)
	}
	return table.String()
}

// String implements fmt.Stringer, and pretty-prints all points in a table.
func (points Points) String() string {
	return points.TableForMetrics()
}
