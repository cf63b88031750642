package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytcat/internal/shared"
)

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "ytcat",
		Usage:    "Sort your YouTube subscriptions into categories",
		Version:  "0.1.0",
		Flags:    rootFlags(),
		Before:   r.Before,
		After:    r.After,
		Writer:   r.output,
		Commands: r.register(),
	}
}

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(runner).Run(ctx, os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		stop()
		logger.Fatalf("application error: %v", err)
	}
}
