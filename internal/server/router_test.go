package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/desertthunder/ytcat/internal/models"
)

func tag(name string, order *[]string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*order = append(*order, name)
			next.ServeHTTP(w, r)
		})
	}
}

func TestMuxRouter(t *testing.T) {
	t.Run("middleware runs in the order added", func(t *testing.T) {
		var order []string
		r := NewMuxRouter()
		r.Use(tag("first", &order), tag("second", &order))
		r.Handle(http.MethodGet, "/x", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, []string{"first", "second", "handler"}, order)
	})

	t.Run("With adds middleware without touching the parent", func(t *testing.T) {
		var order []string
		r := NewMuxRouter()
		r.Use(tag("base", &order))
		scoped := r.With(tag("scoped", &order))

		noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
		r.Handle(http.MethodGet, "/public", noop)
		scoped.Handle(http.MethodGet, "/private", noop)

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/public", nil))
		assert.Equal(t, []string{"base"}, order)

		order = nil
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/private", nil))
		assert.Equal(t, []string{"base", "scoped"}, order)
	})

	t.Run("path variables", func(t *testing.T) {
		r := NewMuxRouter()
		var got string
		r.Handle(http.MethodPost, "/items/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = mux.Vars(r)["id"]
		}))

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/items/UC_abc", nil))
		assert.Equal(t, "UC_abc", got)
	})

	t.Run("custom handler routes", func(t *testing.T) {
		r := NewMuxRouter()
		h := NewOAuthHandler(&fakeAuth{}, "s", "/cb")
		r.Handler(h)

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/cb?state=wrong", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 0, nil)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	handler := rl.Middleware(ok)

	t.Run("requires a user", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("burst is at least one", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithUser(req.Context(), &models.User{ID: 5}))

		first := httptest.NewRecorder()
		handler.ServeHTTP(first, req)
		assert.Equal(t, http.StatusNoContent, first.Code)
	})
}

func TestRateLimiterEviction(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start

	fast := NewRateLimiter(100, 1, nil)
	fast.now = func() time.Time { return now }
	fast.lastSweep = start

	for id := int64(1); id <= 3; id++ {
		assert.True(t, fast.allow(id))
	}
	assert.Equal(t, 3, fast.Len())

	now = start.Add(limiterSweepInterval)
	assert.True(t, fast.allow(4))
	assert.Equal(t, 1, fast.Len(), "refilled buckets are dropped")

	t.Run("empty buckets are kept", func(t *testing.T) {
		now := start
		slow := NewRateLimiter(0.001, 1, nil)
		slow.now = func() time.Time { return now }
		slow.lastSweep = start

		assert.True(t, slow.allow(1))
		assert.False(t, slow.allow(1))

		now = start.Add(limiterSweepInterval)
		assert.True(t, slow.allow(2))
		assert.Equal(t, 2, slow.Len())
		assert.False(t, slow.allow(1), "a drained bucket survives the sweep")
	})
}
