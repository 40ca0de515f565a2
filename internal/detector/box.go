// Package detector provides face detection interfaces and types for face identification.
package detector

import (
	"fmt"
	"image"
)

// Box is a face bounding box in pixel coordinates, stored in
// top, right, bottom, left order.
type Box struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// FromRect converts an image.Rectangle to a Box.
func FromRect(r image.Rectangle) Box {
	return Box{
		Top:    r.Min.Y,
		Right:  r.Max.X,
		Bottom: r.Max.Y,
		Left:   r.Min.X,
	}
}

// Rect converts the box to an image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Right, b.Bottom)
}

// Width returns the width of the box.
func (b Box) Width() int {
	return b.Right - b.Left
}

// Height returns the height of the box.
func (b Box) Height() int {
	return b.Bottom - b.Top
}

// Valid reports whether the box has a positive area.
func (b Box) Valid() bool {
	return b.Right > b.Left && b.Bottom > b.Top
}

func (b Box) String() string {
	return fmt.Sprintf("(top=%d right=%d bottom=%d left=%d)", b.Top, b.Right, b.Bottom, b.Left)
}

// Clip returns the part of the box inside bounds.
// The result is not Valid when the box lies entirely outside.
func (b Box) Clip(bounds image.Rectangle) Box {
	// image.Rect canonicalizes, so compare against the raw coordinates first
	if !b.Valid() {
		return Box{}
	}
	return FromRect(b.Rect().Intersect(bounds))
}

// Sanitize clips every box to bounds and drops the ones that end up empty.
// It returns the usable boxes, in their original order, and the number dropped.
func Sanitize(boxes []Box, bounds image.Rectangle) ([]Box, int) {
	valid := make([]Box, 0, len(boxes))
	for _, b := range boxes {
		clipped := b.Clip(bounds)
		if !clipped.Valid() {
			continue
		}
		valid = append(valid, clipped)
	}
	return valid, len(boxes) - len(valid)
}
