// Package shell provides the os/exec-backed CompilerExecutor adapter (§4.7):
// a thin wrapper that shells out to a configured compiler and archiver
// binary. The core never implements a compiler itself (§1 Non-goals); this
// package is the concrete collaborator a real CLI wires in.
package shell

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"aria.build/aria/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.CompilerExecutor = (*Executor)(nil)

// Executor invokes an external compiler and archiver via os/exec.
type Executor struct {
	logger   ports.Logger
	compiler string
	archiver string
}

// NewExecutor builds an Executor. An empty compiler/archiver falls back to
// "cc"/"ar", the conventional Unix toolchain names.
func NewExecutor(logger ports.Logger, compiler, archiver string) *Executor {
	if compiler == "" {
		compiler = "cc"
	}
	if archiver == "" {
		archiver = "ar"
	}
	return &Executor{logger: logger, compiler: compiler, archiver: archiver}
}

// Compile invokes the configured compiler over sources, producing output
// (§4.7, §6).
func (e *Executor) Compile(ctx context.Context, sources []string, output string, flags []string) (ports.ExecResult, error) {
	args := make([]string, 0, len(flags)+len(sources)+2)
	args = append(args, flags...)
	args = append(args, "-o", output)
	args = append(args, sources...)
	return e.run(ctx, e.compiler, args)
}

// Archive invokes the configured archiver over objects, producing a static
// library at output (§6).
func (e *Executor) Archive(ctx context.Context, objects []string, output string) (ports.ExecResult, error) {
	args := make([]string, 0, len(objects)+2)
	args = append(args, "rcs", output)
	args = append(args, objects...)
	return e.run(ctx, e.archiver, args)
}

// run executes name with args, capturing stdout/stderr and duration. A
// non-zero exit is reported as a successful ExecResult with ExitCode != 0,
// not a Go error: that distinction belongs to the caller's failure policy
// (§4.5), not to this adapter.
func (e *Executor) run(ctx context.Context, name string, args []string) (ports.ExecResult, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // compiler/archiver path is operator-configured

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	result := ports.ExecResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if runErr == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		if e.logger != nil {
			e.logger.Debug("compiler invocation exited non-zero", "command", name, "exit_code", result.ExitCode)
		}
		return result, nil
	}

	return result, zerr.With(zerr.Wrap(runErr, "failed to invoke compiler"), "command", name)
}
