package flashcards

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ziadkadry99/studyaid/internal/audit"
	"github.com/ziadkadry99/studyaid/internal/auth"
	"github.com/ziadkadry99/studyaid/internal/highlight"
	"github.com/ziadkadry99/studyaid/internal/materials"
	"github.com/ziadkadry99/studyaid/internal/study"
)

// RoutesDeps holds the dependencies of the flashcard routes.
type RoutesDeps struct {
	Store     *Store
	Materials *materials.Store
	Analyzer  *study.Analyzer // nil disables /generate
	Activity  *audit.Store    // optional
}

// RegisterRoutes mounts the flashcard API under /api/flashcards.
func RegisterRoutes(r chi.Router, deps RoutesDeps) {
	h := &routeHandler{deps: deps}
	r.Route("/api/flashcards", func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Post("/generate", h.generate)
		r.Get("/stats", h.stats)
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Patch("/{id}/mastered", h.mastered)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
	})
}

type routeHandler struct {
	deps RoutesDeps
}

type generateRequest struct {
	Keywords        []highlight.KeywordEntry `json:"keywords"`
	StudyMaterialID *string                  `json:"studyMaterialId"`
}

type flashcardsResponse struct {
	Flashcards []Flashcard `json:"flashcards"`
}

func (h *routeHandler) generate(w http.ResponseWriter, r *http.Request) {
	if h.deps.Analyzer == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "Flashcard generation is not configured"})
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "keywords must be an array of {keyword, detail}")
		return
	}
	if len(req.Keywords) == 0 {
		validationError(w, "Keywords are required")
		return
	}
	if err := highlight.Validate(req.Keywords); err != nil {
		validationError(w, err.Error())
		return
	}

	user := auth.UserFromContext(r.Context())
	req.StudyMaterialID = optionalID(req.StudyMaterialID)
	if !h.ownsMaterial(w, r, req.StudyMaterialID) {
		return
	}

	drafts, err := h.deps.Analyzer.GenerateFlashcards(r.Context(), req.Keywords)
	if err != nil {
		internalError(w, r, err, "Failed to generate flashcards")
		return
	}
	toInsert := make([]Draft, len(drafts))
	for i, d := range drafts {
		toInsert[i] = Draft{Front: d.Front, Back: d.Back}
	}

	cards, err := h.deps.Store.CreateBatch(r.Context(), user.ID, req.StudyMaterialID, toInsert)
	if err != nil {
		internalError(w, r, err, "Failed to generate flashcards")
		return
	}
	h.deps.Activity.Record(r, audit.Entry{
		UserID:     user.ID,
		Action:     audit.ActionFlashcardsGenerated,
		MaterialID: req.StudyMaterialID,
		Summary:    fmt.Sprintf("Generated %d flashcards", len(cards)),
	})
	writeJSON(w, http.StatusCreated, flashcardsResponse{Flashcards: cards})
}

type createRequest struct {
	Front           string  `json:"front"`
	Back            string  `json:"back"`
	StudyMaterialID *string `json:"studyMaterialId"`
}

func (h *routeHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "invalid request body")
		return
	}
	var problems []string
	if strings.TrimSpace(req.Front) == "" {
		problems = append(problems, "Front is required")
	}
	if strings.TrimSpace(req.Back) == "" {
		problems = append(problems, "Back is required")
	}
	if len(problems) > 0 {
		validationError(w, problems...)
		return
	}
	req.StudyMaterialID = optionalID(req.StudyMaterialID)
	if !h.ownsMaterial(w, r, req.StudyMaterialID) {
		return
	}

	user := auth.UserFromContext(r.Context())
	c, err := h.deps.Store.Create(r.Context(), user.ID, req.StudyMaterialID, Draft{Front: req.Front, Back: req.Back})
	if err != nil {
		internalError(w, r, err, "Failed to create flashcard")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *routeHandler) list(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	cards, err := h.deps.Store.List(r.Context(), user.ID, r.URL.Query().Get("studyMaterialId"))
	if err != nil {
		internalError(w, r, err, "Failed to fetch flashcards")
		return
	}
	if cards == nil {
		cards = []Flashcard{}
	}
	writeJSON(w, http.StatusOK, cards)
}

func (h *routeHandler) get(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	c, err := h.deps.Store.Get(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		internalError(w, r, err, "Failed to fetch flashcard")
		return
	}
	if c == nil {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type masteredRequest struct {
	Mastered *bool `json:"mastered"`
}

func (h *routeHandler) mastered(w http.ResponseWriter, r *http.Request) {
	var req masteredRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Mastered == nil {
		validationError(w, "mastered must be a boolean")
		return
	}

	user := auth.UserFromContext(r.Context())
	ok, err := h.deps.Store.SetMastered(r.Context(), chi.URLParam(r, "id"), user.ID, *req.Mastered)
	if err != nil {
		internalError(w, r, err, "Failed to update flashcard")
		return
	}
	if !ok {
		notFound(w)
		return
	}
	if *req.Mastered {
		h.deps.Activity.Record(r, audit.Entry{
			UserID:  user.ID,
			Action:  audit.ActionFlashcardMastered,
			Summary: "Mastered flashcard " + chi.URLParam(r, "id"),
		})
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true, "mastered": *req.Mastered})
}

type updateRequest struct {
	Front *string `json:"front"`
	Back  *string `json:"back"`
}

func (h *routeHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "invalid request body")
		return
	}
	if (req.Front != nil && strings.TrimSpace(*req.Front) == "") || (req.Back != nil && strings.TrimSpace(*req.Back) == "") {
		validationError(w, "Front and back must not be empty")
		return
	}

	user := auth.UserFromContext(r.Context())
	c, err := h.deps.Store.Update(r.Context(), chi.URLParam(r, "id"), user.ID, Update{Front: req.Front, Back: req.Back})
	if err != nil {
		internalError(w, r, err, "Failed to update flashcard")
		return
	}
	if c == nil {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *routeHandler) remove(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	ok, err := h.deps.Store.Delete(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		internalError(w, r, err, "Failed to delete flashcard")
		return
	}
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Flashcard deleted successfully"})
}

func (h *routeHandler) stats(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	st, err := h.deps.Store.Stats(r.Context(), user.ID)
	if err != nil {
		internalError(w, r, err, "Failed to fetch flashcard stats")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ownsMaterial answers 404 and returns false when id is set but is not one
// of the signed-in user's materials.
func (h *routeHandler) ownsMaterial(w http.ResponseWriter, r *http.Request, id *string) bool {
	if id == nil {
		return true
	}
	user := auth.UserFromContext(r.Context())
	m, err := h.deps.Materials.Get(r.Context(), *id, user.ID)
	if err != nil {
		internalError(w, r, err, "Failed to fetch study material")
		return false
	}
	if m == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Study material not found"})
		return false
	}
	return true
}

func optionalID(id *string) *string {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil
	}
	return id
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Flashcard not found"})
}

func validationError(w http.ResponseWriter, msgs ...string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"message": "Validation error",
		"errors":  msgs,
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
