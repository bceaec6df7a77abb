package shell_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"aria.build/aria/internal/adapters/shell"
)

func TestExecutor_Compile_Success(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "cc.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nshift\nshift\necho built > \"$1\"\n"), 0o755))

	e := shell.NewExecutor(nil, script, "")
	out := filepath.Join(dir, "app")
	res, err := e.Compile(context.Background(), []string{"main.src"}, out, []string{"-O2"})
	require.NoError(t, err)
	require.True(t, res.Success())
	require.FileExists(t, out)
}

func TestExecutor_Compile_NonZeroExitIsNotAGoError(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "cc.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho boom >&2\nexit 1\n"), 0o755))

	e := shell.NewExecutor(nil, script, "")
	res, err := e.Compile(context.Background(), []string{"main.src"}, filepath.Join(dir, "app"), nil)
	require.NoError(t, err)
	require.False(t, res.Success())
	require.Equal(t, 1, res.ExitCode)
	require.Contains(t, res.Stderr, "boom")
}

func TestExecutor_Archive_Success(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "ar.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nshift\ntouch \"$1\"\n"), 0o755))

	e := shell.NewExecutor(nil, "", script)
	out := filepath.Join(dir, "libfoo.a")
	res, err := e.Archive(context.Background(), []string{"a.o", "b.o"}, out)
	require.NoError(t, err)
	require.True(t, res.Success())
	require.FileExists(t, out)
}

func TestExecutor_Compile_MissingBinaryIsAGoError(t *testing.T) {
	e := shell.NewExecutor(nil, filepath.Join(t.TempDir(), "does-not-exist"), "")
	_, err := e.Compile(context.Background(), []string{"main.src"}, "out", nil)
	require.Error(t, err)
}
