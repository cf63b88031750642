package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytcat/internal/server"
	"github.com/desertthunder/ytcat/internal/services"
	"github.com/desertthunder/ytcat/internal/shared"
)

// Serve runs the HTTP API until the context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	s, err := r.stores()
	if err != nil {
		return err
	}

	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}

	var auth services.Authenticator
	if a, err := r.authenticator(); err != nil {
		r.logger.Warn("Google sign-in disabled", "error", err)
	} else {
		auth = a
	}

	srv := server.New(cfg, server.Deps{
		Users:       s.users,
		Categories:  s.categories,
		Categorizer: s.categorizer,
		Query:       s.query,
		Source:      r.subscriptionSource(),
		Channels:    r.channelSource(),
		Auth:        auth,
	}, shared.WithLogger(r.logger, "component", "server"))

	return srv.ListenAndServe(ctx)
}
