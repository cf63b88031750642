package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/ytcat/internal/models"
	"github.com/desertthunder/ytcat/internal/shared"
)

type contextKey string

const userContextKey = contextKey("user")

// RequestIDHeader carries the id assigned to each request.
const RequestIDHeader = "X-Request-ID"

// UserFromContext returns the user [RequireUser] resolved for the request.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userContextKey).(*models.User)
	return user, ok
}

// WithUser stores user on ctx the way [RequireUser] does.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLogger assigns a request id and logs method, path, status and duration of every request.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = shared.GenerateID()
			}
			w.Header().Set(RequestIDHeader, id)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
				"request_id", id,
			)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireUser resolves the bearer token to a stored user and puts it on the request context.
//
// Requests without a known token get 401.
func RequireUser(users UserStore, logger *log.Logger) Middleware {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeErrorStatus(w, http.StatusUnauthorized, "unauthenticated", "Authorization header must be 'Bearer <token>'")
				return
			}

			user, err := users.GetByAccessToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					writeErrorStatus(w, http.StatusUnauthorized, "unauthenticated", "not authenticated")
					return
				}
				logger.Error("failed to resolve user", "error", err)
				writeError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// limiterSweepInterval is the least time between two sweeps of full buckets.
const limiterSweepInterval = time.Minute

// RateLimiter keeps one token bucket per authenticated user.
//
// Buckets that have refilled completely are indistinguishable from new ones, so they are dropped
// at most once per [limiterSweepInterval]. The map holds only users seen recently.
type RateLimiter struct {
	limiters  map[int64]*rate.Limiter
	mu        sync.Mutex
	rate      rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
	logger    *log.Logger
}

// NewRateLimiter creates a [RateLimiter] allowing r events per second with burst b per user.
func NewRateLimiter(r rate.Limit, b int, logger *log.Logger) *RateLimiter {
	if b < 1 {
		b = 1
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &RateLimiter{
		limiters:  make(map[int64]*rate.Limiter),
		rate:      r,
		burst:     b,
		now:       time.Now,
		lastSweep: time.Now(),
		logger:    logger,
	}
}

// allow takes one token from the user's bucket.
func (rl *RateLimiter) allow(userID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= limiterSweepInterval {
		rl.sweep(now)
	}

	limiter, exists := rl.limiters[userID]
	if !exists {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[userID] = limiter
	}
	return limiter.AllowN(now, 1)
}

// sweep drops full buckets. Callers hold mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for id, limiter := range rl.limiters {
		if limiter.TokensAt(now) >= float64(rl.burst) {
			delete(rl.limiters, id)
		}
	}
	rl.lastSweep = now
	rl.logger.Debug("swept rate limiters", "remaining", len(rl.limiters))
}

// Len returns how many per-user buckets are held.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Middleware answers 429 once the user's bucket is empty. It must run after [RequireUser].
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			writeErrorStatus(w, http.StatusUnauthorized, "unauthenticated", "not authenticated")
			return
		}

		if !rl.allow(user.ID) {
			rl.logger.Warn("rate limit exceeded", "user_id", user.ID)
			writeErrorStatus(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}
