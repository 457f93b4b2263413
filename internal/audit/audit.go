// Package audit keeps a per-user trail of study activity: materials added
// and removed, keywords extracted, flashcards generated and mastered.
package audit

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Action describes what was done.
type Action string

const (
	ActionMaterialCreated     Action = "material_created"
	ActionMaterialUpdated     Action = "material_updated"
	ActionMaterialDeleted     Action = "material_deleted"
	ActionKeywordsExtracted   Action = "keywords_extracted"
	ActionFlashcardsGenerated Action = "flashcards_generated"
	ActionFlashcardMastered   Action = "flashcard_mastered"
)

// Entry is a single activity record.
type Entry struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Action Action `json:"action"`
	// MaterialID is kept after the material is deleted.
	MaterialID *string   `json:"studyMaterialId"`
	Summary    string    `json:"summary"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Record logs e on behalf of a request. A nil Store records nothing, and a
// failed insert is logged rather than failing the request it describes.
func (s *Store) Record(r *http.Request, e Entry) {
	if s == nil {
		return
	}
	if err := s.Log(r.Context(), e); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("action", string(e.Action)).Msg("recording activity")
	}
}
