package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_MissingConfigIsUsageError(t *testing.T) {
	originalArgs := os.Args
	defer func() { os.Args = originalArgs }()

	originalWd, _ := os.Getwd()
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(originalWd) }()

	os.Args = []string{"aria", "build", "-c", "nonexistent.build"}
	require.Equal(t, 2, run())
}

func TestRun_Version(t *testing.T) {
	originalArgs := os.Args
	defer func() { os.Args = originalArgs }()

	os.Args = []string{"aria", "version"}
	require.Equal(t, 0, run())
}
