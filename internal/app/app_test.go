package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"aria.build/aria/internal/adapters/logger"
	"aria.build/aria/internal/app"
	"aria.build/aria/internal/core/domain"
	"aria.build/aria/internal/core/ports"
)

// fakeLoader returns a fixed ConfigModel regardless of path, so tests don't
// depend on the exact build-description grammar.
type fakeLoader struct {
	model *domain.ConfigModel
	err   error
}

func (f *fakeLoader) Load(string) (*domain.ConfigModel, error) {
	return f.model, f.err
}

// fakeExpander resolves every pattern to itself: tests pass already-resolved
// paths as "patterns".
type fakeExpander struct{}

func (fakeExpander) Expand(_, pattern string, _ ports.ExpandOptions) ([]string, error) {
	return []string{pattern}, nil
}

// fakeExecutor records every output it is asked for and writes a placeholder
// artifact there, as a real compiler would, so dependents can hash it.
type fakeExecutor struct {
	compiled []string
}

func (f *fakeExecutor) Compile(_ context.Context, _ []string, output string, _ []string) (ports.ExecResult, error) {
	f.compiled = append(f.compiled, output)
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return ports.ExecResult{}, err
	}
	if err := os.WriteFile(output, []byte(output), 0o644); err != nil {
		return ports.ExecResult{}, err
	}
	return ports.ExecResult{ExitCode: 0, Duration: time.Millisecond}, nil
}

func (f *fakeExecutor) Archive(_ context.Context, _ []string, output string) (ports.ExecResult, error) {
	f.compiled = append(f.compiled, output)
	return ports.ExecResult{ExitCode: 0}, nil
}

func diamondModel(srcDir string) *domain.ConfigModel {
	target := func(name string, deps ...string) *domain.TargetSpec {
		src := filepath.Join(srcDir, name+".src")
		if err := os.WriteFile(src, []byte(name), 0o644); err != nil {
			panic(err)
		}
		return &domain.TargetSpec{
			Name:           domain.NewInternedString(name),
			Kind:           domain.TargetBinary,
			SourcePatterns: []string{src},
			DeclaredDeps:   deps,
		}
	}
	return &domain.ConfigModel{
		Targets: []*domain.TargetSpec{
			target("a", "b", "c"),
			target("b", "d"),
			target("c", "d"),
			target("d"),
		},
	}
}

func TestApp_Run_BuildsWholeGraphWhenNoTargetsRequested(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		dir := t.TempDir()
		loader := &fakeLoader{model: diamondModel(dir)}
		exec := &fakeExecutor{}

		a := app.New(loader, fakeExpander{}, nil, exec, logger.New(), nil)

		report, err := a.Run(context.Background(), app.RunOptions{
			ConfigPath: filepath.Join(dir, "aria.build"),
			OutputDir:  filepath.Join(dir, "build"),
			Force:      true,
		})
		require.NoError(t, err)
		require.Equal(t, 4, report.Built)
		require.Len(t, exec.compiled, 4)
	})
}

func TestApp_Run_UnknownTargetErrors(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		dir := t.TempDir()
		loader := &fakeLoader{model: diamondModel(dir)}
		exec := &fakeExecutor{}

		a := app.New(loader, fakeExpander{}, nil, exec, logger.New(), nil)

		_, err := a.Run(context.Background(), app.RunOptions{
			ConfigPath: filepath.Join(dir, "aria.build"),
			OutputDir:  filepath.Join(dir, "build"),
			Targets:    []string{"does-not-exist"},
		})
		require.Error(t, err)
		require.ErrorIs(t, err, domain.ErrTargetNotFound)
	})
}

func TestApp_Run_RequestedTargetOnlyBuildsItsDependencyClosure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		dir := t.TempDir()
		loader := &fakeLoader{model: diamondModel(dir)}
		exec := &fakeExecutor{}

		a := app.New(loader, fakeExpander{}, nil, exec, logger.New(), nil)

		report, err := a.Run(context.Background(), app.RunOptions{
			ConfigPath: filepath.Join(dir, "aria.build"),
			OutputDir:  filepath.Join(dir, "build"),
			Targets:    []string{"b"},
			Force:      true,
		})
		require.NoError(t, err)
		// b depends on d; a and c are outside b's closure and stay cached.
		require.Equal(t, 2, report.Built)
		require.Equal(t, domain.StatusCompleted, report.Results["b"].Status)
		require.Equal(t, domain.StatusCompleted, report.Results["d"].Status)
		require.Equal(t, domain.StatusCached, report.Results["a"].Status)
		require.Equal(t, domain.StatusCached, report.Results["c"].Status)
	})
}

func TestApp_Run_ConfigLoadErrorIsSurfaced(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		loader := &fakeLoader{err: errors.New("boom")}
		a := app.New(loader, fakeExpander{}, nil, &fakeExecutor{}, logger.New(), nil)

		_, err := a.Run(context.Background(), app.RunOptions{})
		require.Error(t, err)
	})
}

func TestApp_Run_DryRunSkipsStateSave(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		dir := t.TempDir()
		loader := &fakeLoader{model: diamondModel(dir)}
		exec := &fakeExecutor{}

		a := app.New(loader, fakeExpander{}, nil, exec, logger.New(), nil)

		statePath := filepath.Join(dir, "state")
		_, err := a.Run(context.Background(), app.RunOptions{
			ConfigPath: filepath.Join(dir, "aria.build"),
			OutputDir:  filepath.Join(dir, "build"),
			StatePath:  statePath,
			Force:      true,
			DryRun:     true,
		})
		require.NoError(t, err)
		require.Empty(t, exec.compiled)
		_, statErr := os.Stat(statePath)
		require.True(t, os.IsNotExist(statErr))
	})
}
