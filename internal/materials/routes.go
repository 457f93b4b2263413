package materials

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ziadkadry99/studyaid/internal/audit"
	"github.com/ziadkadry99/studyaid/internal/auth"
	"github.com/ziadkadry99/studyaid/internal/highlight"
)

// RoutesDeps holds the dependencies of the study material routes.
type RoutesDeps struct {
	Store *Store
	// Index may be nil when no embedder is configured; search then answers 503.
	Index *Index
	// Activity may be nil; nothing is recorded then.
	Activity *audit.Store
}

// RegisterRoutes mounts the study material API. All routes require a
// signed-in user.
func RegisterRoutes(r chi.Router, deps RoutesDeps) {
	h := &routeHandler{deps: deps}
	r.Route("/api/study-materials", func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/search", h.search)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
		r.Get("/{id}/segments", h.segments)
	})
}

type routeHandler struct {
	deps RoutesDeps
}

type createRequest struct {
	Title   *string `json:"title"`
	Content string  `json:"content"`
}

func (h *routeHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		validationError(w, "Content is required")
		return
	}

	user := auth.UserFromContext(r.Context())
	m, err := h.deps.Store.Create(r.Context(), user.ID, req.Title, req.Content)
	if err != nil {
		internalError(w, r, err, "Failed to create study material")
		return
	}
	if h.deps.Index != nil {
		h.deps.Index.Refresh(r.Context(), m.ID, user.ID)
	}
	h.deps.Activity.Record(r, audit.Entry{
		UserID:     user.ID,
		Action:     audit.ActionMaterialCreated,
		MaterialID: &m.ID,
		Summary:    "Added " + m.DisplayTitle(),
	})
	writeJSON(w, http.StatusCreated, m)
}

func (h *routeHandler) list(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	list, err := h.deps.Store.List(r.Context(), user.ID)
	if err != nil {
		internalError(w, r, err, "Failed to fetch study materials")
		return
	}
	if list == nil {
		list = []Material{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *routeHandler) get(w http.ResponseWriter, r *http.Request) {
	m, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// updateRequest accepts keywords either as an array or, as older clients
// send it, as a JSON-encoded string.
type updateRequest struct {
	Title    *string         `json:"title"`
	Content  *string         `json:"content"`
	Keywords json.RawMessage `json:"keywords"`
}

func (h *routeHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "invalid request body")
		return
	}
	if req.Content != nil && strings.TrimSpace(*req.Content) == "" {
		validationError(w, "Content must not be empty")
		return
	}

	u := Update{Title: req.Title, Content: req.Content}
	if kw, err := decodeKeywords(req.Keywords); err != nil {
		validationError(w, err.Error())
		return
	} else if kw != nil {
		u.Keywords = &kw
	}

	user := auth.UserFromContext(r.Context())
	m, err := h.deps.Store.Update(r.Context(), chi.URLParam(r, "id"), user.ID, u)
	if err != nil {
		internalError(w, r, err, "Failed to update study material")
		return
	}
	if m == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Study material not found"})
		return
	}
	if h.deps.Index != nil {
		h.deps.Index.Refresh(r.Context(), m.ID, user.ID)
	}
	h.deps.Activity.Record(r, audit.Entry{
		UserID:     user.ID,
		Action:     audit.ActionMaterialUpdated,
		MaterialID: &m.ID,
		Summary:    "Edited " + m.DisplayTitle(),
	})
	writeJSON(w, http.StatusOK, m)
}

func (h *routeHandler) remove(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")
	ok, err := h.deps.Store.Delete(r.Context(), id, user.ID)
	if err != nil {
		internalError(w, r, err, "Failed to delete study material")
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Study material not found"})
		return
	}
	if h.deps.Index != nil {
		if err := h.deps.Index.Remove(r.Context(), id); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Str("material_id", id).Msg("removing from index")
		}
	}
	h.deps.Activity.Record(r, audit.Entry{
		UserID:     user.ID,
		Action:     audit.ActionMaterialDeleted,
		MaterialID: &id,
		Summary:    "Deleted study material",
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Study material deleted successfully"})
}

type segmentsResponse struct {
	MaterialID string              `json:"materialId"`
	Segments   []highlight.Segment `json:"segments"`
}

func (h *routeHandler) segments(w http.ResponseWriter, r *http.Request) {
	m, ok := h.load(w, r)
	if !ok {
		return
	}
	segs := m.Segments()
	if segs == nil {
		segs = []highlight.Segment{}
	}
	writeJSON(w, http.StatusOK, segmentsResponse{MaterialID: m.ID, Segments: segs})
}

func (h *routeHandler) search(w http.ResponseWriter, r *http.Request) {
	if h.deps.Index == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "Search is not configured"})
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		validationError(w, "q is required")
		return
	}
	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}

	user := auth.UserFromContext(r.Context())
	hits, err := h.deps.Index.Search(r.Context(), user.ID, q, limit)
	if err != nil {
		internalError(w, r, err, "Failed to search study materials")
		return
	}
	if hits == nil {
		hits = []SearchHit{}
	}
	writeJSON(w, http.StatusOK, hits)
}

// load fetches the {id} material of the signed-in user, answering 404 or
// 500 itself when it cannot.
func (h *routeHandler) load(w http.ResponseWriter, r *http.Request) (*Material, bool) {
	user := auth.UserFromContext(r.Context())
	m, err := h.deps.Store.Get(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		internalError(w, r, err, "Failed to fetch study material")
		return nil, false
	}
	if m == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Study material not found"})
		return nil, false
	}
	return m, true
}

func decodeKeywords(raw json.RawMessage) ([]highlight.KeywordEntry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("keywords: %w", err)
		}
		raw = []byte(s)
	}
	kw := []highlight.KeywordEntry{}
	if err := json.Unmarshal(raw, &kw); err != nil {
		return nil, fmt.Errorf("keywords must be an array of {keyword, detail}")
	}
	if err := highlight.Validate(kw); err != nil {
		return nil, err
	}
	return kw, nil
}

func validationError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"message": "Validation error",
		"errors":  []string{msg},
	})
}

func internalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	zerolog.Ctx(r.Context()).Error().Err(err).Msg(msg)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"message": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
