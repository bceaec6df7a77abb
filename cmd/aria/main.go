// Package main is the entry point for the aria build tool.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"

	"aria.build/aria/cmd/aria/commands"
	"aria.build/aria/internal/app"
	"aria.build/aria/internal/core/domain"
	_ "aria.build/aria/internal/wiring"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, _, err := graft.ExecuteFor[*app.App](ctx)
	if err != nil {
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 2
	}

	cli := commands.New(a)
	if err := cli.Execute(ctx); err != nil {
		if errors.Is(err, domain.ErrBuildFailed) || errors.Is(err, domain.ErrCancelled) {
			return 1
		}
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 2
	}
	return 0
}
