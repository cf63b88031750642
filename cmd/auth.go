package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytcat/internal/models"
	"github.com/desertthunder/ytcat/internal/server"
	"github.com/desertthunder/ytcat/internal/shared"
	"github.com/desertthunder/ytcat/internal/ui"
)

// AuthLogin runs the OAuth authorization code flow against a temporary local callback server
// listening on the configured redirect URI, then stores the signed-in account.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	auth, err := r.authenticator()
	if err != nil {
		return err
	}

	s, err := r.stores()
	if err != nil {
		return err
	}

	redirect, err := url.Parse(r.config.Credentials.Google.RedirectURI)
	if err != nil || redirect.Host == "" {
		return fmt.Errorf("%w: redirect_uri %q is not an absolute URL", shared.ErrInvalidConfig, r.config.Credentials.Google.RedirectURI)
	}

	state := shared.GenerateID()
	handler := server.NewOAuthHandler(auth, state, redirect.Path)
	router := server.NewMuxRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(handler)

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", redirect.Host, err)
	}

	srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("callback server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	authURL := auth.AuthURL(state)
	r.logger.Debug("waiting for OAuth callback", "addr", listener.Addr().String(), "path", redirect.Path)

	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL to sign in:\n%s\n", authURL)
	} else if err := r.openBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
		r.writePlain("Open this URL to sign in:\n%s\n", authURL)
	}

	waitCtx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	var result server.OAuthResult
	select {
	case result = <-handler.Result():
	case <-waitCtx.Done():
		return fmt.Errorf("%w: no callback received: %v", shared.ErrAuthFailed, waitCtx.Err())
	}
	if err := result.Error(); err != nil {
		return err
	}

	user, err := s.users.Upsert(ctx, *result.Profile)
	if err != nil {
		return fmt.Errorf("failed to store user: %w", err)
	}

	r.logger.Info("signed in", "user_id", user.ID, "external_id", user.ExternalID)
	return r.writePlain("%s Signed in as %s <%s> (--user %s)\n", ui.Styles.OK("✓"), user.Name, user.Email, user.ExternalID)
}

// AuthWhoami prints the user commands act as.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	s, err := r.stores()
	if err != nil {
		return err
	}

	user, err := r.currentUser(ctx, cmd, s.users)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}
	return r.writeUser(user)
}

// AuthUsers lists every stored account.
func (r *Runner) AuthUsers(ctx context.Context, cmd *cli.Command) error {
	s, err := r.stores()
	if err != nil {
		return err
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(users, cmd.Bool("pretty"))
	}

	if len(users) == 0 {
		return r.writePlain("%s\n", ui.Styles.Help("No users yet, run 'ytcat auth login'"))
	}
	for i := range users {
		if err := r.writeUser(&users[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) writeUser(user *models.User) error {
	return r.writePlain("%s %s <%s>\n", ui.Styles.Label(user.ExternalID), user.Name, user.Email)
}
