// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package datasets

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/forkaduck/perceptron/pkg/support/fsutil"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

type csvConfig struct {
	labelColumn string
	hasHeader   bool
}

// CSVOption configures LoadCSV.
type CSVOption func(cfg *csvConfig)

// LabelColumn selects the column holding the expected value. The default is the last column.
//
// Without a header, columns are named "X0", "X1", ... in file order.
func LabelColumn(name string) CSVOption {
	return func(cfg *csvConfig) { cfg.labelColumn = name }
}

// HasHeader sets whether the first line of the CSV holds the column names. Default is true.
func HasHeader(hasHeader bool) CSVOption {
	return func(cfg *csvConfig) { cfg.hasHeader = hasHeader }
}

// LoadCSV reads a dataset from CSV contents: all columns must be numeric, the label column becomes the
// expected value and the remaining columns, in file order, become the input.
func LoadCSV(r io.Reader, opts ...CSVOption) (*Dataset, error) {
	cfg := &csvConfig{hasHeader: true}
	for _, opt := range opts {
		opt(cfg)
	}
	df := dataframe.ReadCSV(r, dataframe.HasHeader(cfg.hasHeader), dataframe.DefaultType(series.Float))
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "failed to parse CSV")
	}
	names := df.Names()
	if len(names) < 2 {
		return nil, errors.Errorf("CSV needs at least one input column and one label column, got %d columns", len(names))
	}
	labelName := cfg.labelColumn
	if labelName == "" {
		labelName = names[len(names)-1]
	} else if !slices.Contains(names, labelName) {
		return nil, errors.Errorf("label column %q not found in CSV columns %v", labelName, names)
	}

	labels := df.Col(labelName).Float()
	inputColumns := make([][]float64, 0, len(names)-1)
	for _, name := range names {
		if name == labelName {
			continue
		}
		inputColumns = append(inputColumns, df.Col(name).Float())
	}

	pairs := make([]Pair, df.Nrow())
	for row := range pairs {
		input := make([]float64, len(inputColumns))
		for col, values := range inputColumns {
			input[col] = values[row]
			if math.IsNaN(input[col]) {
				return nil, errors.Errorf("CSV row #%d has a non-numeric (or missing) input value", row)
			}
		}
		if math.IsNaN(labels[row]) {
			return nil, errors.Errorf("CSV row #%d has a non-numeric (or missing) value in label column %q", row, labelName)
		}
		pairs[row] = Pair{Input: input, Expected: labels[row]}
	}
	ds, err := New(pairs)
	if err != nil {
		return nil, errors.WithMessage(err, "invalid CSV dataset")
	}
	klog.V(1).Infof("loaded %d records of input length %d from CSV (label %q)", ds.Len(), ds.InputLength(), labelName)
	return ds, nil
}

// LoadCSVFile is like LoadCSV, but reads from the given file. A leading "~" in path is expanded.
// The dataset is named after the file.
func LoadCSVFile(path string, opts ...CSVOption) (*Dataset, error) {
	path, err := fsutil.ReplaceTildeInDir(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open dataset %q", path)
	}
	defer func() { _ = f.Close() }()
	ds, err := LoadCSV(f, opts...)
	if err != nil {
		return nil, errors.WithMessagef(err, "loading %q", path)
	}
	return ds.WithName(filepath.Base(path)), nil
}
