// Package analysis serves keyword extraction for study material.
package analysis

import (
	"encoding/json"
	"errors"
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

// RoutesDeps holds the dependencies of the analysis route.
type RoutesDeps struct {
	Analyzer  *study.Analyzer
	Materials *materials.Store
	Index     *materials.Index // optional
	Activity  *audit.Store     // optional
}

// RegisterRoutes mounts POST /api/analyze.
func RegisterRoutes(r chi.Router, deps RoutesDeps) {
	h := &routeHandler{deps: deps}
	r.With(auth.RequireUser).Post("/api/analyze", h.analyze)
}

type routeHandler struct {
	deps RoutesDeps
}

type analyzeRequest struct {
	Content         string `json:"content"`
	StudyMaterialID string `json:"studyMaterialId"`
}

type analyzeResponse struct {
	Keywords []highlight.KeywordEntry `json:"keywords"`
}

func (h *routeHandler) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		validationError(w, "Content is required")
		return
	}

	log := zerolog.Ctx(r.Context())
	keywords, err := h.deps.Analyzer.ExtractKeywords(r.Context(), req.Content)
	if errors.Is(err, study.ErrContentTooLarge) {
		validationError(w, "Content is too large to analyze")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("analysis failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Failed to analyze content"})
		return
	}

	user := auth.UserFromContext(r.Context())
	entry := audit.Entry{
		UserID:  user.ID,
		Action:  audit.ActionKeywordsExtracted,
		Summary: fmt.Sprintf("Extracted %d keywords", len(keywords)),
	}
	if req.StudyMaterialID != "" {
		// Ids of other users' materials are ignored; the keywords are still returned.
		ok, err := h.deps.Materials.SetKeywords(r.Context(), req.StudyMaterialID, user.ID, keywords)
		switch {
		case err != nil:
			log.Error().Err(err).Str("material_id", req.StudyMaterialID).Msg("storing keywords")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Failed to analyze content"})
			return
		case ok:
			entry.MaterialID = &req.StudyMaterialID
			if h.deps.Index != nil {
				h.deps.Index.Refresh(r.Context(), req.StudyMaterialID, user.ID)
			}
		}
	}
	h.deps.Activity.Record(r, entry)

	writeJSON(w, http.StatusOK, analyzeResponse{Keywords: keywords})
}

func validationError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"message": "Validation error",
		"errors":  []string{msg},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
