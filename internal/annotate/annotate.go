// Package annotate draws identity overlays onto video frames.
package annotate

import (
	"fmt"
	"image"
	"image/color"

	"github.com/ayusman/drishti/internal/detector"
	"gocv.io/x/gocv"
)

// Overlay geometry
const (
	BoxThickness = 2
	StripHeight  = 35
	TextInset    = 6
	FontScale    = 1.0
	FontFace     = gocv.FontHersheyDuplex
)

var (
	// KnownColor outlines faces that matched a gallery entry.
	KnownColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	// UnknownColor outlines faces that matched nothing.
	UnknownColor = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	// TextColor is used for label text.
	TextColor = color.RGBA{R: 255, G: 255, B: 255, A: 0}
)

// Annotation is the overlay for one detected face.
type Annotation struct {
	Box      detector.Box `json:"box"`
	Label    string       `json:"label"`
	Distance float64      `json:"distance"`
	Known    bool         `json:"known"`
}

// FrameAnnotation holds the overlays for one frame, in detection order.
type FrameAnnotation []Annotation

// Color returns the outline color for a.
func (a Annotation) Color() color.RGBA {
	if a.Known {
		return KnownColor
	}
	return UnknownColor
}

func (a Annotation) String() string {
	return fmt.Sprintf("%s (%.3f) at %s", a.Label, a.Distance, a.Box)
}

// Labels returns the label of each annotation in order.
func (f FrameAnnotation) Labels() []string {
	labels := make([]string, len(f))
	for i, a := range f {
		labels[i] = a.Label
	}
	return labels
}

// Draw renders every annotation onto img: a box around the face and a
// filled strip along its bottom edge carrying the label.
// Boxes are clipped to the image; boxes left empty after clipping are skipped.
func Draw(img *gocv.Mat, anns FrameAnnotation) {
	if img == nil || img.Empty() {
		return
	}

	bounds := image.Rect(0, 0, img.Cols(), img.Rows())
	for _, a := range anns {
		box := a.Box.Clip(bounds)
		if !box.Valid() {
			continue
		}
		c := a.Color()

		gocv.Rectangle(img, box.Rect(), c, BoxThickness)

		strip := image.Rect(box.Left, box.Bottom-StripHeight, box.Right, box.Bottom)
		gocv.Rectangle(img, strip, c, -1)

		org := image.Pt(box.Left+TextInset, box.Bottom-TextInset)
		gocv.PutText(img, a.Label, org, FontFace, FontScale, TextColor, 1)
	}
}
