// Package highlight splits study text into plain and keyword segments.
//
// Matching is case-insensitive and non-overlapping. Keywords are tried longest
// first, so "amino acid" claims its characters before "acid" can, and the
// keyword text is always matched literally.
package highlight

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var (
	// ErrEmptyKeyword is returned by Validate for an entry without keyword text.
	ErrEmptyKeyword = errors.New("keyword must not be empty")
	// ErrInvalidKeyword is returned by Validate for keyword text that is not
	// valid UTF-8.
	ErrInvalidKeyword = errors.New("keyword must be valid UTF-8")
)

// Matcher is a keyword list compiled into a single alternation pattern.
// A Matcher is immutable once built and may be shared between goroutines.
type Matcher struct {
	keywords []KeywordEntry
	// order holds indexes into keywords, longest keyword first. The n-th
	// capture group of re corresponds to keywords[order[n]].
	order []int
	re    *regexp.Regexp
}

// Compile builds a Matcher for the given keywords. The slice is referenced,
// not copied: keyword segments point at its elements, so it must not be
// modified while the Matcher is in use. Entries whose keyword is empty or
// not valid UTF-8 are ignored.
//
// Keyword length is counted in runes, not UTF-16 code units, so keywords
// containing characters outside the Basic Multilingual Plane (emoji, rare
// CJK) may tie or order differently than a JavaScript .length sort would.
func Compile(keywords []KeywordEntry) *Matcher {
	m := &Matcher{keywords: keywords}

	order := make([]int, 0, len(keywords))
	for i := range keywords {
		if usable(keywords[i].Keyword) {
			order = append(order, i)
		}
	}
	if len(order) == 0 {
		return m
	}

	sort.SliceStable(order, func(a, b int) bool {
		return utf8.RuneCountInString(keywords[order[a]].Keyword) >
			utf8.RuneCountInString(keywords[order[b]].Keyword)
	})

	var b strings.Builder
	b.WriteString("(?i:")
	for n, i := range order {
		if n > 0 {
			b.WriteByte('|')
		}
		b.WriteByte('(')
		b.WriteString(regexp.QuoteMeta(keywords[i].Keyword))
		b.WriteByte(')')
	}
	b.WriteByte(')')

	// Every alternative is valid UTF-8 escaped by QuoteMeta, which the
	// parser always accepts.
	m.re = regexp.MustCompile(b.String())
	m.order = order
	return m
}

// Match partitions text into segments. The concatenated segment contents
// always reproduce text exactly.
func (m *Matcher) Match(text string) []Segment {
	if text == "" {
		return nil
	}
	if m.re == nil {
		return []Segment{{Kind: KindText, Content: text}}
	}

	var segments []Segment
	last := 0
	for _, loc := range m.re.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[0], loc[1]
		if start > last {
			segments = append(segments, Segment{Kind: KindText, Content: text[last:start]})
		}
		matched := text[start:end]
		segments = append(segments, Segment{
			Kind:    KindKeyword,
			Content: matched,
			Keyword: m.lookup(matched, loc),
		})
		last = end
	}
	if last < len(text) {
		segments = append(segments, Segment{Kind: KindText, Content: text[last:]})
	}
	return segments
}

// Keywords returns the keyword list the Matcher was compiled from.
func (m *Matcher) Keywords() []KeywordEntry { return m.keywords }

// lookup resolves matched text to the first entry in caller order whose
// keyword equals it case-insensitively. The capture group that matched is
// only consulted if no entry folds equal.
func (m *Matcher) lookup(matched string, loc []int) *KeywordEntry {
	for i := range m.keywords {
		if usable(m.keywords[i].Keyword) && strings.EqualFold(m.keywords[i].Keyword, matched) {
			return &m.keywords[i]
		}
	}
	for n, i := range m.order {
		if loc[2+2*n] >= 0 {
			return &m.keywords[i]
		}
	}
	return nil
}

// Match is shorthand for Compile(keywords).Match(text).
func Match(text string, keywords []KeywordEntry) []Segment {
	return Compile(keywords).Match(text)
}

// Join concatenates segment contents in order.
func Join(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Content)
	}
	return b.String()
}

// Validate checks that every entry carries keyword text the matcher will use.
func Validate(keywords []KeywordEntry) error {
	for i, k := range keywords {
		switch {
		case k.Keyword == "":
			return fmt.Errorf("keywords[%d]: %w", i, ErrEmptyKeyword)
		case !utf8.ValidString(k.Keyword):
			return fmt.Errorf("keywords[%d]: %w", i, ErrInvalidKeyword)
		}
	}
	return nil
}

// usable reports whether keyword can take part in matching. Invalid UTF-8
// would be rejected by the regexp parser, and would fold equal to U+FFFD in
// lookup.
func usable(keyword string) bool {
	return keyword != "" && utf8.ValidString(keyword)
}
