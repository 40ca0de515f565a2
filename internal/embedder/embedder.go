package embedder

import (
	"github.com/ayusman/drishti/internal/detector"
	"gocv.io/x/gocv"
)

// Embedder defines the interface for face embedding implementations.
type Embedder interface {
	// Embed returns one embedding per box, in the same order as boxes.
	// img is an RGB image and every box must lie inside it.
	Embed(img gocv.Mat, boxes []detector.Box) ([]Embedding, error)

	// Dim returns the length of the embeddings this embedder produces.
	Dim() int

	// Close releases any resources held by the embedder.
	Close() error
}

// Config holds configuration options for face embedding.
type Config struct {
	// ModelPath is the OpenFace Torch model (nn4.small2.v1.t7).
	ModelPath string

	// InputSize is the side of the square face crop fed to the network.
	InputSize int
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		ModelPath: "models/nn4.small2.v1.t7",
		InputSize: 96,
	}
}
