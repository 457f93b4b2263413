// Package selection tracks which highlighted keyword has its detail popup open.
//
// State is a value: every transition returns the next State and leaves the
// receiver untouched. A State belongs to a single rendering session.
package selection

import (
	"github.com/ziadkadry99/studyaid/internal/highlight"
)

// Region names an area of the rendered view an interaction can land in.
type Region int

const (
	// RegionKeyword is any rendered keyword segment.
	RegionKeyword Region = iota
	// RegionPopup is the open detail popup.
	RegionPopup
)

// Position is the popup anchor relative to the containing view.
type Position struct {
	Top  float64 `json:"top"`
	Left float64 `json:"left"`
}

// State is either idle or showing one keyword's detail at an anchor.
type State struct {
	active *highlight.KeywordEntry
	anchor Position
}

// Idle returns the empty state.
func Idle() State { return State{} }

// Showing reports whether a keyword is currently open.
func (s State) Showing() bool { return s.active != nil }

// Active returns the open keyword, if any.
func (s State) Active() (*highlight.KeywordEntry, bool) {
	return s.active, s.active != nil
}

// Anchor returns the popup anchor. It is only meaningful while Showing.
func (s State) Anchor() (Position, bool) {
	if s.active == nil {
		return Position{}, false
	}
	return s.anchor, true
}

// Activate opens k at p. Activating the keyword that is already open closes
// it; activating a different keyword switches to it directly. A nil keyword
// leaves the state unchanged.
func (s State) Activate(k *highlight.KeywordEntry, p Position) State {
	if k == nil {
		return s
	}
	if s.active != nil && sameKeyword(s.active, k) {
		return State{}
	}
	return State{active: k, anchor: p}
}

// Dismiss closes the popup.
func (s State) Dismiss() State { return State{} }

// OutsideInteraction closes the popup unless the interaction landed on a
// keyword segment or inside the popup. inside reports whether the
// interaction target lies within the given region.
func (s State) OutsideInteraction(inside func(Region) bool) State {
	if s.active == nil {
		return s
	}
	if inside != nil && (inside(RegionKeyword) || inside(RegionPopup)) {
		return s
	}
	return State{}
}

// sameKeyword compares entry identity, then exact keyword text. Distinct
// entries differing only in case are different keywords; the matcher never
// produces them for one match, since it resolves every match to the first
// case-insensitively equal entry.
func sameKeyword(a, b *highlight.KeywordEntry) bool {
	return a == b || a.Keyword == b.Keyword
}
