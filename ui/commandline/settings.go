// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package commandline

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/forkaduck/perceptron/pkg/ml/hyperparams"
	"github.com/forkaduck/perceptron/pkg/support/fsutil"
	"github.com/forkaduck/perceptron/pkg/support/xslices"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// ParseSettings from settings -- typically the contents of a flag set by the user.
// The settings are a list separated by ";": e.g.: "param1=value1;param2=value2;...".
//
// All the parameters "param1", "param2", etc. must be already set with default values
// in `params`. The default values are also used to set the type to which the
// string values will be parsed to.
//
// It updates `params` accordingly and returns the list of parameters set, or an error in case a parameter
// is unknown or the parsing failed.
//
// An entry "file:<path>" reads the settings from the file, one or more per line. Lines starting with "#" are
// comments.
//
// For integer types, "_" is removed: it allows one to enter large numbers using it as a separator, like
// in Go. E.g.: 1_000_000 = 1000000.
//
// Example usage:
//
//	func main() {
//		params := hyperparams.Defaults()
//		settings := commandline.CreateSettingsFlag(params, "")
//		flag.Parse()
//		paramsSet, err := commandline.ParseSettings(params, *settings)
//		if err != nil { klog.Fatalf("%+v", err) }
//		fmt.Println(commandline.SprintModifiedSettings(params, paramsSet))
//		...
//	}
func ParseSettings(params *hyperparams.Params, settings string) (paramsSet []string, err error) {
	for _, setting := range strings.Split(settings, ";") {
		paramsSet, err = parseSetting(params, setting, paramsSet)
		if err != nil {
			return
		}
	}
	return
}

func parseSetting(params *hyperparams.Params, setting string, paramsSet []string) (newParamsSet []string, err error) {
	newParamsSet = paramsSet
	setting = strings.TrimSpace(setting)
	if setting == "" {
		return
	}
	if filePath, found := strings.CutPrefix(setting, "file:"); found {
		return parseSettingsFile(params, filePath, newParamsSet)
	}

	key, valueStr, found := strings.Cut(setting, "=")
	if !found || strings.Contains(valueStr, "=") {
		err = errors.Errorf("can't parse settings %q: each setting requires the format \"<param>=<value>\"", setting)
		return
	}
	key = strings.TrimSpace(key)
	value, found := params.Lookup(key)
	if !found {
		err = errors.Errorf("can't set parameter %q because it is not known, known parameters are %v", key, params.Keys())
		return
	}
	value, err = parseValue(value, valueStr)
	if err != nil {
		err = errors.WithMessagef(err, "failed to parse value %q for parameter %q (default value is %#v)",
			valueStr, key, value)
		return
	}
	params.Set(key, value)
	newParamsSet = append(newParamsSet, key)
	return
}

func parseSettingsFile(params *hyperparams.Params, filePath string, paramsSet []string) ([]string, error) {
	filePath, err := fsutil.ReplaceTildeInDir(filePath)
	if err != nil {
		return paramsSet, err
	}
	contents, err := os.ReadFile(filePath)
	if err != nil {
		return paramsSet, errors.Wrapf(err, "failed to read settings from file %q", filePath)
	}
	for _, line := range strings.Split(string(contents), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, setting := range strings.Split(line, ";") {
			paramsSet, err = parseSetting(params, setting, paramsSet)
			if err != nil {
				return paramsSet, errors.WithMessagef(err, "in settings file %q", filePath)
			}
		}
	}
	return paramsSet, nil
}

func unmarshalInt[T constraints.Signed](str string) (v T, err error) {
	err = json.Unmarshal([]byte(strings.ReplaceAll(str, "_", "")), &v)
	return
}

// parseValue parses valueStr to the same type as defaultValue.
func parseValue(defaultValue any, valueStr string) (value any, err error) {
	switch defaultValue.(type) {
	case int:
		value, err = unmarshalInt[int](valueStr)
	case int64:
		value, err = unmarshalInt[int64](valueStr)
	case float64:
		var v float64
		err = json.Unmarshal([]byte(valueStr), &v)
		value = v
	case string:
		value = valueStr
	default:
		err = errors.Errorf("don't know how to parse type %T", defaultValue)
	}
	if err != nil {
		return defaultValue, errors.WithStack(err)
	}
	return
}

// CreateSettingsFlag creates a string flag with the given flagName (if empty it will be named
// "set") and with a description of the parameters currently defined in `params`.
//
// The flag should be created before the call to `flags.Parse()`. See example in ParseSettings.
func CreateSettingsFlag(params *hyperparams.Params, flagName string) *string {
	if flagName == "" {
		flagName = "set"
	}
	parts := []string{
		`Set hyperparameters. ` +
			`It should be a list of elements "param=value" separated by ";". ` +
			`It can also be given an entry like: "file:settings_file.txt", in ` +
			`which case the file will be read and the settings will be parsed, ` +
			`with new-lines working as ";" to separate settings and lines starting with "#" are considered comments. ` +
			`Current available parameters that can be set:`,
	}
	for _, key := range params.Keys() {
		value, _ := params.Lookup(key)
		parts = append(parts, fmt.Sprintf("%q: default value is %v", key, value))
	}
	var settings string
	flag.StringVar(&settings, flagName, "", strings.Join(parts, "\n"))
	return &settings
}

// SprintSettings pretty-prints the values of all the hyperparameters into a string.
func SprintSettings(params *hyperparams.Params) string {
	parts := xslices.Map(params.Keys(), func(key string) string {
		value, _ := params.Lookup(key)
		return fmt.Sprintf("\t%q: (%T) %v", key, value, value)
	})
	return strings.Join(parts, "\n")
}

// SprintModifiedSettings pretty-prints the values of the hyperparameters in paramsSet, as returned by
// ParseSettings. Duplicates are listed once.
func SprintModifiedSettings(params *hyperparams.Params, paramsSet []string) string {
	paramsSet = slices.Clone(paramsSet)
	slices.Sort(paramsSet)
	paramsSet = slices.Compact(paramsSet)
	var parts []string
	for _, key := range paramsSet {
		value, found := params.Lookup(key)
		if !found {
			continue
		}
		parts = append(parts, fmt.Sprintf("\t%q: (%T) %v", key, value, value))
	}
	return strings.Join(parts, "\n")
}
