package util

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"os"
	"os/user"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandUser(t *testing.T) {
	usr, err := user.Current()
	require.NoError(t, err)
	assert.Equal(t, usr.HomeDir, ExpandUser("~"))
	assert.Equal(t, filepath.Join(usr.HomeDir, "rawtime.yaml"), ExpandUser("~/rawtime.yaml"))
	assert.Equal(t, "/etc/rawtime.yaml", ExpandUser("/etc/rawtime.yaml"))
	assert.Equal(t, "~other/rawtime.yaml", ExpandUser("~other/rawtime.yaml"))
}

func TestAbsPath(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	path, err := AbsPath("rawtime.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "rawtime.yaml"), path)
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "rawtime.yaml")
	require.NoError(t, os.WriteFile(file, []byte("calendar: host\n"), 0600))

	exists, err := FileExists(file)
	assert.NoError(t, err)
	assert.True(t, exists)

	exists, err = FileExists(filepath.Join(dir, "missing.yaml"))
	assert.NoError(t, err)
	assert.False(t, exists)

	exists, err = FileExists(dir)
	assert.Error(t, err)
	assert.False(t, exists)
}

func TestThousands(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{2_100_000_000, "2,100,000,000"},
		{123_456_789_012, "123,456,789,012"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Thousands(tt.in))
	}
}
