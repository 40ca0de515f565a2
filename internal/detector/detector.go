package detector

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Detector defines the interface for face detection implementations.
type Detector interface {
	// Detect returns the bounding boxes of faces found in an RGB image,
	// in the order produced by the underlying model.
	// Returns an empty slice if no faces are detected.
	Detect(img gocv.Mat) ([]Box, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Model selects the detection model, trading accuracy for speed.
type Model string

const (
	// ModelHaar uses an OpenCV Haar cascade (fast, less accurate).
	ModelHaar Model = "haar"
	// ModelDNN uses the ResNet-10 SSD face detector (slower, more accurate).
	ModelDNN Model = "dnn"
)

// Config holds configuration options for face detection.
type Config struct {
	// Model is the detection model to use (default: haar).
	Model Model

	// CascadePath is the Haar cascade XML file. When empty, the usual
	// OpenCV install locations are searched.
	CascadePath string

	// ProtoPath and WeightsPath locate the Caffe SSD model for ModelDNN.
	ProtoPath   string
	WeightsPath string

	// MinConfidence is the minimum DNN detection confidence (0.0-1.0).
	MinConfidence float64

	// MinFaceSize is the smallest face side in pixels the cascade reports.
	MinFaceSize int
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Model:         ModelHaar,
		CascadePath:   "",
		ProtoPath:     "models/deploy.prototxt",
		WeightsPath:   "models/res10_300x300_ssd_iter_140000.caffemodel",
		MinConfidence: 0.5,
		MinFaceSize:   30,
	}
}

// Valid reports whether m names a known model.
func (m Model) Valid() bool {
	return m == ModelHaar || m == ModelDNN
}

// New creates the detector selected by config.Model.
func New(config Config) (Detector, error) {
	switch config.Model {
	case ModelHaar, "":
		return NewCascadeDetector(config)
	case ModelDNN:
		return NewDNNDetector(config)
	default:
		return nil, fmt.Errorf("unknown detector model %q (want %q or %q)", config.Model, ModelHaar, ModelDNN)
	}
}
