package auth

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const stateCookie = "studyaid_oauth_state"

// RoutesDeps holds the dependencies of the /api/auth routes.
type RoutesDeps struct {
	Store    *Store
	Sessions *Sessions
	// Identity may be nil when Google sign-in is not configured; the
	// login routes then answer 503.
	Identity  Identity
	ClientURL string
}

// RegisterRoutes mounts the authentication API routes.
func RegisterRoutes(r chi.Router, deps RoutesDeps) {
	h := &routeHandler{deps: deps}
	r.Route("/api/auth", func(r chi.Router) {
		r.Get("/google", h.login)
		r.Get("/google/callback", h.callback)
		r.Get("/user", h.user)
		r.Get("/status", h.status)
		r.Post("/logout", h.logout)
	})
}

type routeHandler struct {
	deps RoutesDeps
}

func (h *routeHandler) login(w http.ResponseWriter, r *http.Request) {
	if h.deps.Identity == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "Google sign-in is not configured"})
		return
	}
	state, err := randomState()
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("generating oauth state")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/api/auth",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.deps.Identity.AuthCodeURL(state), http.StatusFound)
}

func (h *routeHandler) callback(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())
	fail := func(reason string, err error) {
		log.Warn().Err(err).Str("reason", reason).Msg("google sign-in failed")
		http.Redirect(w, r, h.clientURL()+"/login?error=auth_failed", http.StatusFound)
	}

	if h.deps.Identity == nil {
		fail("not configured", nil)
		return
	}

	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || c.Value != r.URL.Query().Get("state") {
		fail("state mismatch", err)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/api/auth", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		fail("missing code", nil)
		return
	}

	profile, err := h.deps.Identity.Exchange(r.Context(), code)
	if err != nil {
		fail("exchange", err)
		return
	}
	u, err := h.deps.Store.Upsert(r.Context(), *profile)
	if err != nil {
		fail("store user", err)
		return
	}
	if err := h.deps.Sessions.SetCookie(w, u.ID); err != nil {
		fail("issue session", err)
		return
	}

	log.Info().Str("user_id", u.ID).Msg("signed in")
	http.Redirect(w, r, h.clientURL(), http.StatusFound)
}

func (h *routeHandler) user(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())
	if u == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Not authenticated"})
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type statusResponse struct {
	IsAuthenticated bool  `json:"isAuthenticated"`
	User            *User `json:"user"`
}

func (h *routeHandler) status(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, statusResponse{IsAuthenticated: u != nil, User: u})
}

func (h *routeHandler) logout(w http.ResponseWriter, r *http.Request) {
	h.deps.Sessions.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (h *routeHandler) clientURL() string {
	if h.deps.ClientURL == "" {
		return "http://localhost:5173"
	}
	return strings.TrimRight(h.deps.ClientURL, "/")
}

func randomState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
