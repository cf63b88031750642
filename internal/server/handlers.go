package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/desertthunder/ytcat/internal/models"
	"github.com/desertthunder/ytcat/internal/shared"
	"github.com/desertthunder/ytcat/internal/tasks"
)

const (
	stateCookieName = "ytcat_oauth_state"
	stateCookieTTL  = 10 * time.Minute
	maxBodyBytes    = 1 << 20
)

// LoginResponse is returned by the OAuth callback. AccessToken is the bearer token for the /api routes.
type LoginResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
}

type createCategoryRequest struct {
	Name string `json:"name"`
}

// decodeJSON reads the request body into v. An empty body leaves v at its zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", shared.ErrInvalidInput, err)
	}
	return nil
}

// currentUserOrFail fetches the user set by [RequireUser].
func currentUserOrFail(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeErrorStatus(w, http.StatusUnauthorized, "unauthenticated", "not authenticated")
	}
	return user, ok
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) googleLogin(w http.ResponseWriter, r *http.Request) {
	if s.deps.Auth == nil {
		writeErrorStatus(w, http.StatusServiceUnavailable, "auth_unavailable", "google login is not configured")
		return
	}

	state := shared.GenerateID()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.deps.Auth.AuthURL(state), http.StatusFound)
}

func (s *Server) googleCallback(w http.ResponseWriter, r *http.Request) {
	if s.deps.Auth == nil {
		writeErrorStatus(w, http.StatusServiceUnavailable, "auth_unavailable", "google login is not configured")
		return
	}

	cookie, err := r.Cookie(stateCookieName)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		writeErrorStatus(w, http.StatusBadRequest, "invalid_state", "invalid state parameter")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Path: "/auth", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		msg := fmt.Sprintf("authorization failed: %s", r.URL.Query().Get("error"))
		writeErrorStatus(w, http.StatusUnauthorized, "auth_failed", msg)
		return
	}

	profile, err := s.deps.Auth.Login(r.Context(), code)
	if err != nil {
		s.logger.Error("login failed", "error", err)
		writeError(w, err)
		return
	}

	user, err := s.deps.Users.Upsert(r.Context(), *profile)
	if err != nil {
		s.logger.Error("failed to store user", "error", err)
		writeError(w, err)
		return
	}

	s.logger.Info("user logged in", "user_id", user.ID, "email", user.Email)
	writeJSON(w, http.StatusOK, LoginResponse{User: user, AccessToken: user.AccessToken})
}

func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUserOrFail(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) fetchSubscriptions(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUserOrFail(w, r)
	if !ok {
		return
	}

	items, err := s.deps.Source.FetchAll(r.Context(), user.Credentials())
	if err != nil {
		s.logger.Error("failed to fetch subscriptions", "user_id", user.ID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) ownChannels(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUserOrFail(w, r)
	if !ok {
		return
	}
	if s.deps.Channels == nil {
		writeErrorStatus(w, http.StatusServiceUnavailable, "channels_unavailable", "channel lookups are not configured")
		return
	}

	channels, err := s.deps.Channels.OwnChannels(r.Context(), user.Credentials())
	if err != nil {
		s.logger.Error("failed to list own channels", "user_id", user.ID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, channels)
}

func (s *Server) recentVideos(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUserOrFail(w, r)
	if !ok {
		return
	}
	if s.deps.Channels == nil {
		writeErrorStatus(w, http.StatusServiceUnavailable, "channels_unavailable", "channel lookups are not configured")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, fmt.Errorf("%w: limit %q must be a positive number", shared.ErrInvalidInput, raw))
			return
		}
		limit = n
	}

	channelID := mux.Vars(r)["channel_id"]
	videos, err := s.deps.Channels.RecentVideos(r.Context(), user.Credentials(), channelID, limit)
	if err != nil {
		s.logger.Error("failed to list recent videos", "user_id", user.ID, "channel_id", channelID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

func (s *Server) categorize(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUserOrFail(w, r)
	if !ok {
		return
	}

	var req tasks.CategorizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	req.ChannelID = mux.Vars(r)["channel_id"]

	sub, err := s.deps.Categorizer.Categorize(r.Context(), user.Credentials(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUserOrFail(w, r)
	if !ok {
		return
	}

	subs, err := s.deps.Query.ListSubscriptions(r.Context(), user.ID)
	if err != nil {
		s.logger.Error("failed to list subscriptions", "user_id", user.ID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) listByCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUserOrFail(w, r)
	if !ok {
		return
	}

	raw := mux.Vars(r)["category_id"]
	categoryID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, fmt.Errorf("%w: category id %q is not a number", shared.ErrInvalidInput, raw))
		return
	}

	subs, err := s.deps.Query.ListByCategory(r.Context(), user.ID, categoryID)
	if err != nil {
		s.logger.Error("failed to list category", "user_id", user.ID, "category_id", categoryID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUserOrFail(w, r)
	if !ok {
		return
	}

	var req createCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	category, err := s.deps.Categories.Create(r.Context(), user.ID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUserOrFail(w, r)
	if !ok {
		return
	}

	categories, err := s.deps.Query.ListCategories(r.Context(), user.ID)
	if err != nil {
		s.logger.Error("failed to list categories", "user_id", user.ID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}
