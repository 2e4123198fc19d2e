// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package commandline contains convenience UI tools for the command line: progress bars for training,
// report tables and parsing of hyperparameter settings.
package commandline

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/forkaduck/perceptron/pkg/ml/unit"
	"github.com/forkaduck/perceptron/ui/notebooks"
	"github.com/muesli/termenv"
	"github.com/schollz/progressbar/v3"
)

// ExtraMetricFn is any function that will give extra values to display along the progress bar.
// It is called at each time the progress bar is updated, and it should return a name and the current value when it is called.
type ExtraMetricFn func() (name, value string)

// ProgressbarStyle to use. Defaults to the ASCII version.
// Consider "progressbar.ThemeUnicode" for a prettier version.
// But it requires some of the graphical symbols to be supported.
var ProgressbarStyle = progressbar.ThemeASCII

// ProgressBarName is the name of the hooks registered by the progress bar.
const ProgressBarName = "perceptron.ui.commandline.progressBar"

// Output where the progress bar is displayed.
var Output io.Writer = os.Stdout

// maxUpdateFrequency is the time between updates to the commandline display of stats.
var maxUpdateFrequency = time.Millisecond * 200

var (
	normalStyle       = lipgloss.NewStyle().Padding(0, 1)
	rightAlignedStyle = lipgloss.NewStyle().Align(lipgloss.Right).Padding(0, 1)
	tableBorderColor  = "#705090"
)

const (
	numFixedRows  = 4 // Trial, epoch, error and elapsed time.
	numExtraLines = 3 // Table borders and the progress bar line.
)

// progressBar holds a progressbar being displayed.
type progressBar struct {
	bar        *progressbar.ProgressBar
	suffix     string // Only changed after creation in notebooks, where there is no drawing goroutine.
	inNotebook bool
	maxEpochs  int
	start      time.Time

	// Training state.
	trial        string
	epochs       int
	pending      int
	lastErrSum   float64
	lastEnqueued time.Time

	// lipgloss-based rich and asynchronous display for the command-line.
	termenv          *termenv.Output
	statsStyle       lipgloss.Style
	statsTable       *lgtable.Table
	isFirstOutput    bool
	updates          chan progressBarUpdate
	asyncUpdatesDone sync.WaitGroup

	extraMetricFns []ExtraMetricFn
}

type progressBarUpdate struct {
	amount int
	rows   [][2]string
}

// Write implements io.Writer, and appends the current suffix with metrics to each
// line. It is meant to be used as the default writer for the enclosed progressbar.ProgressBar.
// This ensures that the progress bar and its suffix are written in the same write operation;
// otherwise Jupyter Notebook may display things in different lines.
func (pBar *progressBar) Write(data []byte) (n int, err error) {
	n, err = Output.Write(data)
	if err != nil {
		return n, err
	}
	_, err = Output.Write([]byte(pBar.suffix))
	if err != nil {
		return 0, err
	}
	return
}

func newProgressBar(maxEpochs int, extraMetrics []ExtraMetricFn) *progressBar {
	pBar := &progressBar{
		inNotebook:     notebooks.IsNotebook(),
		maxEpochs:      maxEpochs,
		extraMetricFns: extraMetrics,
		trial:          "-",
	}
	if pBar.maxEpochs <= 0 {
		pBar.maxEpochs = -1 // Unknown number of epochs: spinner.
	}
	if !pBar.inNotebook {
		// Suffix to erase spurious characters from previous prints. It's read by the drawing goroutine, so it's
		// never changed afterwards.
		pBar.suffix = "\033[J"
		pBar.isFirstOutput = true
		pBar.termenv = termenv.NewOutput(Output)
		pBar.statsStyle = lipgloss.NewStyle().PaddingLeft(8)
		pBar.statsTable = lgtable.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(tableBorderColor))).
			StyleFunc(func(row, col int) lipgloss.Style {
				if col == 0 {
					return rightAlignedStyle
				}
				return normalStyle
			})
		pBar.updates = make(chan progressBarUpdate, 100) // Large buffer so things are not blocked.
		pBar.asyncUpdatesDone.Add(1)
		go pBar.drawUpdates()
	}
	return pBar
}

// drawUpdates asynchronously: this is handy if training is faster than the terminal.
func (pBar *progressBar) drawUpdates() {
	defer pBar.asyncUpdatesDone.Done()
	for update := range pBar.updates {
		// Exhaust the updates in the buffer:
		amount := update.amount
	exhaust:
		for {
			select {
			case newUpdate, ok := <-pBar.updates:
				if !ok {
					break exhaust
				}
				amount += newUpdate.amount
				update = newUpdate
			default:
				break exhaust
			}
		}

		pBar.statsTable.Data(lgtable.NewStringData())
		for _, row := range update.rows {
			pBar.statsTable.Row(row[0], row[1])
		}

		// For command-line, we clear the previous lines that will be overwritten.
		pBar.termenv.HideCursor()
		if !pBar.isFirstOutput {
			pBar.termenv.CursorPrevLine(len(update.rows) + numExtraLines)
		}
		pBar.isFirstOutput = false

		// Print update.
		_, _ = fmt.Fprintln(Output, pBar.statsStyle.Render(pBar.statsTable.String()))
		_ = pBar.bar.Add(amount) // Prints progress bar line.
		_, _ = fmt.Fprintln(Output)
		pBar.termenv.ShowCursor()
		time.Sleep(maxUpdateFrequency)
	}
}

func (pBar *progressBar) onStart() {
	pBar.start = time.Now()
	pBar.bar = progressbar.NewOptions(pBar.maxEpochs,
		progressbar.OptionSetDescription("      [bold]"),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("epochs"),
		progressbar.OptionSetTheme(ProgressbarStyle),
		progressbar.OptionSetWriter(pBar), // Required to work with Jupyter notebook.
	)
}

func (pBar *progressBar) rows() [][2]string {
	rows := make([][2]string, 0, numFixedRows+len(pBar.extraMetricFns))
	rows = append(rows,
		[2]string{"Trial", pBar.trial},
		[2]string{"Epochs", FormatCount(pBar.epochs)},
		[2]string{"Epoch error", FormatError(pBar.lastErrSum)},
		[2]string{"Elapsed", FormatDuration(time.Since(pBar.start))},
	)
	for _, extraMetric := range pBar.extraMetricFns {
		name, value := extraMetric()
		rows = append(rows, [2]string{name, value})
	}
	return rows
}

// flush reports the pending epochs.
func (pBar *progressBar) flush() {
	if pBar.pending == 0 {
		return
	}
	amount := pBar.pending
	pBar.pending = 0
	pBar.lastEnqueued = time.Now()
	if pBar.inNotebook {
		// For notebooks set a suffix that will be written along with the progressbar in [progressBar.Write].
		parts := rowsToSuffix(pBar.rows())
		// Erase to an end-of-line escape sequence ("\033[J") not supported in Jupyter notebooks:
		pBar.suffix = parts + "        "
		_ = pBar.bar.Add(amount) // Triggers print, see [pBar.Write] method.
		return
	}
	pBar.updates <- progressBarUpdate{amount: amount, rows: pBar.rows()}
}

func rowsToSuffix(rows [][2]string) string {
	var sb strings.Builder
	for _, row := range rows {
		_, _ = fmt.Fprintf(&sb, " [%s=%s]", row[0], row[1])
	}
	return sb.String()
}

func (pBar *progressBar) onEpoch(_ int, errSum float64) error {
	if pBar.bar == nil {
		pBar.onStart()
	}
	pBar.epochs++
	pBar.pending++
	pBar.lastErrSum = errSum
	if time.Since(pBar.lastEnqueued) >= maxUpdateFrequency {
		pBar.flush()
	}
	return nil
}

func (pBar *progressBar) onTrial(trial unit.Trial) error {
	status := "ok"
	if trial.Err != nil {
		status = trial.Err.Error()
		if idx := strings.Index(status, ":"); idx > 0 {
			status = status[:idx]
		}
	}
	pBar.trial = fmt.Sprintf("#%d lr=%.4g (%s)", trial.Index, trial.Rate, status)
	return nil
}

// Done flushes the last updates and restores the terminal. It must be called once training is over.
func (pBar *progressBar) Done() {
	if pBar.bar != nil {
		pBar.flush()
	}
	if pBar.updates != nil {
		close(pBar.updates)
	}
	pBar.asyncUpdatesDone.Wait()
	if pBar.termenv != nil {
		pBar.termenv.ShowCursor()
	}
	_, _ = fmt.Fprintln(Output)
}

// AttachProgressBar creates a commandline progress bar and attaches it to a learning rate search,
// displaying the epochs run, the current trial and the last epoch error.
//
// The returned function must be called after the search is done, to flush the display.
//
// Optionally, one can provide extraMetrics: functions that are called at every update of
// the progress bar and should return a name (title) and a value to be included in the
// updated print-out.
//
// Example:
//
//	cfg := u.Optimizer(ds, rates).MaxError(errMax)
//	done := commandline.AttachProgressBar(cfg)
//	errSum, err := cfg.Done()
//	done()
func AttachProgressBar(cfg *unit.OptimizerConfig, extraMetrics ...ExtraMetricFn) (done func()) {
	pBar := newProgressBar(-1, extraMetrics)
	cfg.OnEpoch(ProgressBarName, 0, pBar.onEpoch)
	cfg.OnTrial(ProgressBarName, 0, pBar.onTrial)
	return pBar.Done
}

// AttachTrainingProgressBar is like AttachProgressBar, but for a single training run.
// maxEpochs should match the one configured in cfg: if > 0 it is used as the progress bar total.
func AttachTrainingProgressBar(cfg *unit.TrainConfig, maxEpochs int, extraMetrics ...ExtraMetricFn) (done func()) {
	pBar := newProgressBar(maxEpochs, extraMetrics)
	cfg.OnEpoch(ProgressBarName, 0, pBar.onEpoch)
	return pBar.Done
}
