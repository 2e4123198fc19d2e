// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package fsutil

import (
	"os/user"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceTildeInDir(t *testing.T) {
	got, err := ReplaceTildeInDir("/tmp/x")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x", got)

	usr, err := user.Current()
	require.NoError(t, err)
	got, err = ReplaceTildeInDir("~/plots/run.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(usr.HomeDir, "plots/run.png"), got)

	got, err = ReplaceTildeInDir("~")
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(usr.HomeDir), got)
}

func TestCreateParentDir(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "a", "b", "points.json")
	got, err := CreateParentDir(target)
	require.NoError(t, err)
	assert.Equal(t, target, got)

	exists, err := FileExists(filepath.Join(base, "a", "b"))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = FileExists(target)
	require.NoError(t, err)
	assert.False(t, exists)
}
