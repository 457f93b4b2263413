package highlight

// Kind tags a segment as plain text or a matched keyword.
type Kind string

const (
	KindText    Kind = "text"
	KindKeyword Kind = "keyword"
)

// KeywordEntry is one keyword/explanation pair extracted from study content.
type KeywordEntry struct {
	Keyword string `json:"keyword" yaml:"keyword"`
	Detail  string `json:"detail" yaml:"detail"`
}

// Segment is one contiguous slice of the source text. Keyword is set only for
// KindKeyword segments and points into the keyword list passed to the matcher.
type Segment struct {
	Kind    Kind          `json:"type"`
	Content string        `json:"content"`
	Keyword *KeywordEntry `json:"data,omitempty"`
}

// IsKeyword reports whether the segment is a matched keyword.
func (s Segment) IsKeyword() bool { return s.Kind == KindKeyword }
