package detector

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// cascadeFile is the frontal face cascade shipped with OpenCV.
const cascadeFile = "haarcascade_frontalface_default.xml"

// cascadeSearchPaths are tried in order when Config.CascadePath is empty.
var cascadeSearchPaths = []string{
	"models/" + cascadeFile,
	cascadeFile,
	"/usr/local/share/opencv4/haarcascades/" + cascadeFile,
	"/usr/share/opencv4/haarcascades/" + cascadeFile,
	"/opt/homebrew/share/opencv4/haarcascades/" + cascadeFile,
}

// CascadeDetector implements Detector using an OpenCV Haar cascade.
type CascadeDetector struct {
	classifier gocv.CascadeClassifier
	minSize    image.Point
	mu         sync.Mutex
	closed     bool
}

// NewCascadeDetector loads the Haar cascade named by config.CascadePath,
// or the first one found in the standard OpenCV locations.
func NewCascadeDetector(config Config) (*CascadeDetector, error) {
	classifier := gocv.NewCascadeClassifier()

	candidates := cascadeSearchPaths
	if config.CascadePath != "" {
		candidates = []string{config.CascadePath}
	}

	loaded := false
	for _, path := range candidates {
		if classifier.Load(path) {
			loaded = true
			break
		}
	}
	if !loaded {
		classifier.Close()
		return nil, fmt.Errorf("load face cascade: none of %v could be read", candidates)
	}

	minFace := config.MinFaceSize
	if minFace <= 0 {
		minFace = DefaultConfig().MinFaceSize
	}

	return &CascadeDetector{
		classifier: classifier,
		minSize:    image.Point{X: minFace, Y: minFace},
	}, nil
}

// Detect finds faces in an RGB image.
func (d *CascadeDetector) Detect(img gocv.Mat) ([]Box, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, fmt.Errorf("cascade detector is closed")
	}
	if img.Empty() {
		return nil, fmt.Errorf("detect: empty image")
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if img.Channels() > 1 {
		gocv.CvtColor(img, &gray, gocv.ColorRGBToGray)
	} else {
		img.CopyTo(&gray)
	}

	// Equalize for contrast under uneven webcam lighting
	equalized := gocv.NewMat()
	defer equalized.Close()
	gocv.EqualizeHist(gray, &equalized)

	rects := d.classifier.DetectMultiScaleWithParams(
		equalized,
		1.1,           // scale factor
		5,             // min neighbors
		0,             // flags
		d.minSize,     // min size
		image.Point{}, // no max size
	)

	boxes := make([]Box, len(rects))
	for i, r := range rects {
		boxes[i] = FromRect(r)
	}
	return boxes, nil
}

// Close releases the cascade classifier.
func (d *CascadeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return d.classifier.Close()
}
