// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package fsutil contains utilities for working with the file system: expanding "~" in paths given
// on the command line and preparing output locations for reports and plots.
package fsutil

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// FileExists returns whether the file or directory exists or an error if something went wrong in the filesystem.
func FileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, errors.Wrapf(err, "failed to FileExists(%q)", path)
}

// ReplaceTildeInDir by the user's home directory. Returns dir if it doesn't start with "~".
//
// It returns an error if `dir` refers to an unknown user (e.g: `~unknown/...`).
func ReplaceTildeInDir(dir string) (string, error) {
	if !strings.HasPrefix(dir, "~") {
		return dir, nil
	}
	userName, rest, _ := strings.Cut(dir[1:], "/")
	var (
		usr *user.User
		err error
	)
	if userName == "" {
		usr, err = user.Current()
	} else {
		usr, err = user.Lookup(userName)
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to lookup home directory for user in path %q", dir)
	}
	return filepath.Join(usr.HomeDir, rest), nil
}

// CreateParentDir expands "~" in filePath and makes sure its parent directory exists.
// It returns the expanded path.
func CreateParentDir(filePath string) (string, error) {
	filePath, err := ReplaceTildeInDir(filePath)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(filePath)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create directory %q for %q", dir, filePath)
	}
	return filePath, nil
}
