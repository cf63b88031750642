package server

import (
	"net/http"
	"slices"

	"github.com/gorilla/mux"
)

// MuxRouter implements [Router] on top of a gorilla/mux router.
//
// Middleware is applied when a handler is registered, so [MuxRouter.Use] must come first.
type MuxRouter struct {
	mux         *mux.Router
	middlewares []Middleware
}

// NewMuxRouter creates a new [MuxRouter] whose unmatched routes answer with a JSON 404.
func NewMuxRouter() *MuxRouter {
	m := mux.NewRouter()
	m.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorStatus(w, http.StatusNotFound, "not_found", "route not found")
	})
	m.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorStatus(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	return &MuxRouter{mux: m, middlewares: []Middleware{}}
}

// Use adds [Middleware] to the router's middleware stack, applied in the order it's added.
func (r *MuxRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// With returns a router sharing the same routes whose handlers also get middleware.
func (r *MuxRouter) With(middleware ...Middleware) *MuxRouter {
	return &MuxRouter{mux: r.mux, middlewares: append(slices.Clone(r.middlewares), middleware...)}
}

// Handle registers handler for method and path. Path may contain {name} variables.
func (r *MuxRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Handle(path, r.Apply(handler)).Methods(method)
}

// Handler registers a custom [Handler] on every route it reports, for any method.
func (r *MuxRouter) Handler(handler Handler) {
	wrapped := r.Apply(handler)

	for _, route := range handler.Routes() {
		r.mux.Handle(route, wrapped)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *MuxRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps a handler with all registered middleware.
//
// Middleware is applied in reverse order (last added wraps first).
func (r *MuxRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}

	return wrapped
}
