package materials

import (
	"time"

	"github.com/ziadkadry99/studyaid/internal/highlight"
)

// Material is a piece of study content owned by one user. Keywords is nil
// until the material has been analysed.
type Material struct {
	ID        string                   `json:"id"`
	UserID    string                   `json:"userId"`
	Title     *string                  `json:"title"`
	Content   string                   `json:"content"`
	Keywords  []highlight.KeywordEntry `json:"keywords"`
	CreatedAt time.Time                `json:"createdAt"`
	UpdatedAt time.Time                `json:"updatedAt"`
}

// DisplayTitle returns the title, or "Untitled" when none was given.
func (m *Material) DisplayTitle() string {
	if m.Title == nil || *m.Title == "" {
		return "Untitled"
	}
	return *m.Title
}

// Segments partitions the material's content by its keywords.
func (m *Material) Segments() []highlight.Segment {
	return highlight.Match(m.Content, m.Keywords)
}

// Update carries the fields of a partial update. Nil fields keep their
// stored value.
type Update struct {
	Title    *string
	Content  *string
	Keywords *[]highlight.KeywordEntry
}
