// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package commandline

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

var durationRegexp = regexp.MustCompile(`(\d+\.?\d*)([µa-z]+)`)

// FormatDuration pretty prints duration without a long list of decimal points.
func FormatDuration(d time.Duration) string {
	s := d.String()
	matches := durationRegexp.FindStringSubmatch(s)
	if len(matches) != 3 {
		return s
	}
	num, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%.2f%s", num, matches[2])
}

// FormatCount pretty prints counts (epochs, trials) with thousands separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatError pretty prints an epoch error sum with 4 decimal places and its sign.
func FormatError(errSum float64) string {
	if math.IsNaN(errSum) || math.IsInf(errSum, 0) {
		return fmt.Sprint(errSum)
	}
	return fmt.Sprintf("%+.4f", errSum)
}
