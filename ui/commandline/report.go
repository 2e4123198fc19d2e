// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package commandline

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/forkaduck/perceptron/pkg/ml/network"
	"github.com/forkaduck/perceptron/pkg/ml/unit"
	"github.com/forkaduck/perceptron/pkg/support/xslices"
	"github.com/pkg/errors"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	correctStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#50A050"))
	wrongStyle   = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#C04040"))
)

func formatVector(values []float64) string {
	return "[" + strings.Join(xslices.Map(values, func(v float64) string { return fmt.Sprintf("%.3g", v) }), " ") + "]"
}

func newReportTable(headers ...string) *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(tableBorderColor))).
		Headers(headers...)
}

// response of one probe, used to build the report tables.
type response struct {
	input      []float64
	raw, out   float64
	decision   bool
	expected   float64
	hasLabel   bool
	isCorrect  bool
	rawMissing bool
}

func writeResponses(w io.Writer, title string, responses []response) (numCorrect int, err error) {
	table := newReportTable("Input", "Expected", "Raw", "Output", "Decision")
	var rowStyles []lipgloss.Style
	for _, r := range responses {
		expected, raw := "-", "-"
		if r.hasLabel {
			expected = fmt.Sprintf("%g", r.expected)
		}
		if !r.rawMissing {
			raw = fmt.Sprintf("%.4f", r.raw)
		}
		table.Row(formatVector(r.input), expected, raw, fmt.Sprintf("%.4f", r.out), fmt.Sprint(r.decision))
		switch {
		case !r.hasLabel:
			rowStyles = append(rowStyles, normalStyle)
		case r.isCorrect:
			numCorrect++
			rowStyles = append(rowStyles, correctStyle)
		default:
			rowStyles = append(rowStyles, wrongStyle)
		}
	}
	table.StyleFunc(func(row, col int) lipgloss.Style {
		if row < 0 || row >= len(rowStyles) {
			return normalStyle
		}
		return rowStyles[row]
	})
	if _, err = fmt.Fprintln(w, titleStyle.Render(title)); err != nil {
		return
	}
	_, err = fmt.Fprintln(w, table.String())
	return
}

// ReportResponses writes a table with the response of u to each of the inputs.
//
// If expected is not nil, it must have one value per input: rows are colored by whether the decision matches
// expected > unit.Threshold, and the number of correct decisions is returned.
func ReportResponses(w io.Writer, title string, u *unit.Unit, inputs [][]float64, expected []float64) (numCorrect int, err error) {
	if expected != nil && len(expected) != len(inputs) {
		return 0, errors.Errorf("ReportResponses: %d inputs but %d expected values", len(inputs), len(expected))
	}
	responses := make([]response, len(inputs))
	for ii, input := range inputs {
		r := &responses[ii]
		r.input = input
		r.raw, r.decision, err = u.Response(input)
		if err != nil {
			return 0, errors.WithMessagef(err, "ReportResponses(%q): input #%d", title, ii)
		}
		r.out = u.Activation().Apply(r.raw)
		if expected != nil {
			r.hasLabel = true
			r.expected = expected[ii]
			r.isCorrect = r.decision == (expected[ii] > unit.Threshold)
		}
	}
	return writeResponses(w, title, responses)
}

// ReportNetwork is like ReportResponses, but for the output of a network with a single output.
func ReportNetwork(w io.Writer, title string, n *network.Network, inputs [][]float64, expected []float64) (numCorrect int, err error) {
	if expected != nil && len(expected) != len(inputs) {
		return 0, errors.Errorf("ReportNetwork: %d inputs but %d expected values", len(inputs), len(expected))
	}
	responses := make([]response, len(inputs))
	for ii, input := range inputs {
		r := &responses[ii]
		r.input = input
		r.rawMissing = true
		var outputs []float64
		outputs, err = n.Forward(input)
		if err != nil {
			return 0, errors.WithMessagef(err, "ReportNetwork(%q): input #%d", title, ii)
		}
		r.out = outputs[0]
		r.decision = r.out > unit.Threshold
		if expected != nil {
			r.hasLabel = true
			r.expected = expected[ii]
			r.isCorrect = r.decision == (expected[ii] > unit.Threshold)
		}
	}
	return writeResponses(w, title, responses)
}

// ReportTraining writes a one-line summary of a training outcome.
func ReportTraining(w io.Writer, name string, errSum float64, trainErr error, epochs int) error {
	status := "converged"
	if trainErr != nil {
		status = trainErr.Error()
	}
	_, err := fmt.Fprintf(w, "%s: %s epochs, epoch error %s: %s\n",
		titleStyle.Render(name), FormatCount(epochs), FormatError(errSum), status)
	return err
}
