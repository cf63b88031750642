package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/ytcat/internal/models"
	"github.com/desertthunder/ytcat/internal/services"
	"github.com/desertthunder/ytcat/internal/shared"
)

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Profile *models.LoginProfile
	err     error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler handles the authorization code callback for a local login flow.
// Implements the [Handler] interface for registration with a [Router].
type OAuthHandler struct {
	auth        services.Authenticator
	state       string
	path        string
	resultChan  chan OAuthResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewOAuthHandler creates a new OAuth handler serving path, expecting the given state token.
// The state token should be cryptographically random for CSRF protection.
func NewOAuthHandler(auth services.Authenticator, state, path string) *OAuthHandler {
	if path == "" {
		path = "/callback"
	}
	return &OAuthHandler{
		auth:       auth,
		state:      state,
		path:       path,
		resultChan: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP completes the sign-in: it checks the state, trades the code for a
// [models.LoginProfile] through the [services.Authenticator] and hands the outcome to [OAuthHandler.Result].
//
// Only the first request is processed.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.claim() {
		http.Error(w, "Sign-in already completed", http.StatusBadRequest)
		return
	}

	code, err := h.authorizationCode(r)
	if err != nil {
		h.Send(OAuthResult{err: err})
		http.Error(w, "Sign-in failed", http.StatusBadRequest)
		return
	}

	profile, err := h.auth.Login(r.Context(), code)
	if err != nil {
		h.Send(OAuthResult{err: err})
		http.Error(w, "Could not load your Google account", http.StatusInternalServerError)
		return
	}
	h.Send(OAuthResult{Profile: profile})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

// claim marks the callback as used and reports whether this request got there first.
func (h *OAuthHandler) claim() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.callbackHit {
		return false
	}
	h.callbackHit = true
	return true
}

// authorizationCode extracts the code from a callback whose state matches, or explains why Google sent none.
func (h *OAuthHandler) authorizationCode(r *http.Request) (string, error) {
	q := r.URL.Query()
	if q.Get("state") != h.state {
		return "", fmt.Errorf("%w: state mismatch", shared.ErrAuthFailed)
	}
	if code := q.Get("code"); code != "" {
		return code, nil
	}
	reason := q.Get("error")
	if reason == "" {
		reason = "no authorization code"
	}
	if desc := q.Get("error_description"); desc != "" {
		reason += ": " + desc
	}
	return "", fmt.Errorf("%w: %s", shared.ErrAuthFailed, reason)
}

// Send sends the OAuth result through the channel (only once).
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving OAuth flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}

const successPage = `
<!DOCTYPE html>
<html>
<head>
    <title>ytcat: signed in</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f9f9f9; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #FF0000; margin: 0 0 1rem 0; }
        p { color: #606060; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Signed in to YouTube</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
