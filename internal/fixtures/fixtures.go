// Package fixtures generates frames, reference images and fake models for tests.
package fixtures

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sync"

	"github.com/ayusman/drishti/internal/detector"
	"gocv.io/x/gocv"
)

// Frame returns a black BGR frame. The caller must Close it.
func Frame(width, height int) *gocv.Mat {
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	return &mat
}

// Frames returns n black BGR frames. Release them with CloseAll.
func Frames(n, width, height int) []*gocv.Mat {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		frames[i] = Frame(width, height)
	}
	return frames
}

// CloseAll closes every frame.
func CloseAll(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}

// WriteImage writes a solid-colored image to dir/name and returns its path.
// The format follows the file extension.
func WriteImage(dir, name string, width, height int, c color.RGBA) (string, error) {
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	defer mat.Close()
	mat.SetTo(gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), 0))

	path := filepath.Join(dir, name)
	if !gocv.IMWrite(path, mat) {
		return "", fmt.Errorf("writing image %s", path)
	}
	return path, nil
}

// WriteGarbage writes bytes OpenCV cannot decode under an image file name.
func WriteGarbage(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("this is not an image"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// SizeDetector reports a number of faces chosen by the image width, so each
// reference image can be given its own detection result by its size.
// Widths not in Faces yield no faces.
type SizeDetector struct {
	mu    sync.Mutex
	Faces map[int]int
	Err   error
	calls int
}

// NewSizeDetector creates a SizeDetector from a width to face count map.
func NewSizeDetector(faces map[int]int) *SizeDetector {
	return &SizeDetector{Faces: faces}
}

// Detect returns Faces[img.Cols()] side-by-side boxes along the top edge.
func (d *SizeDetector) Detect(img gocv.Mat) ([]detector.Box, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls++
	if d.Err != nil {
		return nil, d.Err
	}
	n := d.Faces[img.Cols()]
	boxes := make([]detector.Box, n)
	for i := range boxes {
		boxes[i] = detector.Box{Top: 0, Right: 10 * (i + 1), Bottom: 10, Left: 10 * i}
	}
	return boxes, nil
}

// Calls returns how many times Detect has been called.
func (d *SizeDetector) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func (d *SizeDetector) Close() error { return nil }
