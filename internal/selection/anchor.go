package selection

import "math"

const (
	// DefaultPopupWidth is the fixed width of the keyword detail popup.
	DefaultPopupWidth = 320
	// DefaultOffset is the gap between a keyword's bottom edge and the popup.
	DefaultOffset = 8
)

// Rect is an on-screen bounding box.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bottom returns the rect's bottom edge.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// ComputeAnchor places a popup of popupWidth below segment, relative to
// container. The left edge is pulled in so the popup does not overflow the
// container's right side, and never goes below zero.
func ComputeAnchor(segment, container Rect, popupWidth, offset float64) Position {
	left := math.Min(segment.Left-container.Left, container.Width-popupWidth)
	return Position{
		Top:  segment.Bottom() - container.Top + offset,
		Left: math.Max(0, left),
	}
}

// DefaultAnchor is ComputeAnchor with the default popup width and offset.
func DefaultAnchor(segment, container Rect) Position {
	return ComputeAnchor(segment, container, DefaultPopupWidth, DefaultOffset)
}
