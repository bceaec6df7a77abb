package commands_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"aria.build/aria/cmd/aria/commands"
	"aria.build/aria/internal/adapters/logger"
	"aria.build/aria/internal/app"
	"aria.build/aria/internal/core/domain"
	"aria.build/aria/internal/core/ports"
)

type fakeLoader struct {
	model *domain.ConfigModel
	err   error
}

func (f *fakeLoader) Load(string) (*domain.ConfigModel, error) { return f.model, f.err }

type fakeExpander struct{}

func (fakeExpander) Expand(_, pattern string, _ ports.ExpandOptions) ([]string, error) {
	return []string{pattern}, nil
}

type fakeExecutor struct{ calls int }

func (f *fakeExecutor) Compile(_ context.Context, _ []string, _ string, _ []string) (ports.ExecResult, error) {
	f.calls++
	return ports.ExecResult{ExitCode: 0, Duration: time.Millisecond}, nil
}

func (f *fakeExecutor) Archive(_ context.Context, _ []string, _ string) (ports.ExecResult, error) {
	f.calls++
	return ports.ExecResult{ExitCode: 0}, nil
}

func oneTargetModel(srcDir string) *domain.ConfigModel {
	src := filepath.Join(srcDir, "app.src")
	if err := os.WriteFile(src, []byte("app"), 0o644); err != nil {
		panic(err)
	}
	return &domain.ConfigModel{
		Targets: []*domain.TargetSpec{{
			Name:           domain.NewInternedString("app"),
			Kind:           domain.TargetBinary,
			SourcePatterns: []string{src},
		}},
	}
}

func TestBuild_Success(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		dir := t.TempDir()
		exec := &fakeExecutor{}
		a := app.New(&fakeLoader{model: oneTargetModel(dir)}, fakeExpander{}, nil, exec, logger.New(), nil)

		cli := commands.New(a)
		cli.SetArgs([]string{
			"build", "app",
			"-c", filepath.Join(dir, "aria.build"),
			"-o", filepath.Join(dir, "build"),
			"-f",
		})
		err := cli.Execute(context.Background())
		require.NoError(t, err)
		require.Equal(t, 1, exec.calls)
	})
}

func TestBuild_NoTargets_BuildsEverything(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		dir := t.TempDir()
		exec := &fakeExecutor{}
		a := app.New(&fakeLoader{model: oneTargetModel(dir)}, fakeExpander{}, nil, exec, logger.New(), nil)

		cli := commands.New(a)
		cli.SetArgs([]string{
			"build",
			"-c", filepath.Join(dir, "aria.build"),
			"-o", filepath.Join(dir, "build"),
			"-f",
		})
		err := cli.Execute(context.Background())
		require.NoError(t, err)
		require.Equal(t, 1, exec.calls)
	})
}

func TestBuild_UnknownTargetErrors(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		dir := t.TempDir()
		a := app.New(&fakeLoader{model: oneTargetModel(dir)}, fakeExpander{}, nil, &fakeExecutor{}, logger.New(), nil)

		cli := commands.New(a)
		cli.SetArgs([]string{
			"build", "does-not-exist",
			"-c", filepath.Join(dir, "aria.build"),
			"-o", filepath.Join(dir, "build"),
		})
		err := cli.Execute(context.Background())
		require.Error(t, err)
		require.ErrorIs(t, err, domain.ErrTargetNotFound)
	})
}

func TestClean_RemovesOutputDirAndState(t *testing.T) {
	dir := t.TempDir()
	outputDir := filepath.Join(dir, "build")
	require.NoError(t, os.MkdirAll(outputDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, "app"), []byte("binary"), 0o644))
	statePath := filepath.Join(outputDir, ".aria_build_state")
	require.NoError(t, os.WriteFile(statePath, []byte("version: 1\n"), 0o644))

	a := app.New(&fakeLoader{}, fakeExpander{}, nil, &fakeExecutor{}, logger.New(), nil)
	cli := commands.New(a)
	cli.SetArgs([]string{"clean", "-o", outputDir})

	err := cli.Execute(context.Background())
	require.NoError(t, err)

	_, statErr := os.Stat(outputDir)
	require.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(statePath)
	require.True(t, os.IsNotExist(statErr))
}

func TestRoot_Help(t *testing.T) {
	a := app.New(&fakeLoader{}, fakeExpander{}, nil, &fakeExecutor{}, logger.New(), nil)
	cli := commands.New(a)
	cli.SetArgs([]string{"--help"})

	err := cli.Execute(context.Background())
	require.NoError(t, err)
}
