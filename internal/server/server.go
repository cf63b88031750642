// package server contains the HTTP API, middleware & OAuth callback handling for ytcat
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/ytcat/internal/models"
	"github.com/desertthunder/ytcat/internal/services"
	"github.com/desertthunder/ytcat/internal/shared"
	"github.com/desertthunder/ytcat/internal/tasks"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an http.Handler that knows the paths it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// UserStore is the user storage the API authenticates against.
//
// Implemented by [repositories.UserRepository].
type UserStore interface {
	Upsert(ctx context.Context, profile models.LoginProfile) (*models.User, error)
	GetByAccessToken(ctx context.Context, token string) (*models.User, error)
}

// Deps are the collaborators behind the API routes.
type Deps struct {
	Users       UserStore
	Categories  tasks.CategoryStore
	Categorizer *tasks.Categorizer
	Query       *tasks.QueryService
	Source      services.SubscriptionSource
	// Channels may be nil, in which case the channel routes answer 503.
	Channels services.ChannelSource
	// Auth may be nil, in which case the /auth routes answer 503.
	Auth services.Authenticator
}

// Server is the ytcat HTTP API.
type Server struct {
	cfg    shared.ServerConfig
	deps   Deps
	logger *log.Logger
	router *MuxRouter
}

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// New creates a [Server] and registers its routes. A nil logger discards output.
func New(cfg shared.ServerConfig, deps Deps, logger *log.Logger) *Server {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	s := &Server{cfg: cfg, deps: deps, logger: logger}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := NewMuxRouter()
	r.Use(RequestLogger(s.logger))

	r.Handle(http.MethodGet, "/api/health", http.HandlerFunc(s.health))
	r.Handle(http.MethodGet, "/auth/google", http.HandlerFunc(s.googleLogin))
	r.Handle(http.MethodGet, "/auth/google/callback", http.HandlerFunc(s.googleCallback))

	api := r.With(RequireUser(s.deps.Users, s.logger))
	if s.cfg.RateLimit > 0 {
		limiter := NewRateLimiter(rate.Limit(s.cfg.RateLimit), s.cfg.RateBurst, s.logger)
		api = api.With(limiter.Middleware)
	}

	api.Handle(http.MethodGet, "/api/user", http.HandlerFunc(s.currentUser))
	api.Handle(http.MethodGet, "/api/youtube/subscriptions", http.HandlerFunc(s.fetchSubscriptions))
	api.Handle(http.MethodGet, "/api/youtube/channels", http.HandlerFunc(s.ownChannels))
	api.Handle(http.MethodGet, "/api/youtube/channels/{channel_id}/videos", http.HandlerFunc(s.recentVideos))
	api.Handle(http.MethodPost, "/api/subscriptions/{channel_id}/categorize", http.HandlerFunc(s.categorize))
	api.Handle(http.MethodGet, "/api/subscriptions", http.HandlerFunc(s.listSubscriptions))
	api.Handle(http.MethodGet, "/api/subscriptions/category/{category_id}", http.HandlerFunc(s.listByCategory))
	api.Handle(http.MethodPost, "/api/categories", http.HandlerFunc(s.createCategory))
	api.Handle(http.MethodGet, "/api/categories", http.HandlerFunc(s.listCategories))

	s.router = r
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured address until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	}
}
