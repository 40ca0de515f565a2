package embedder

import (
	"fmt"
	"image"
	"sync"

	"github.com/ayusman/drishti/internal/detector"
	"gocv.io/x/gocv"
)

// OpenFaceDim is the length of an OpenFace nn4.small2 embedding.
const OpenFaceDim = 128

// OpenFaceEmbedder implements Embedder with the OpenFace Torch network
// through the OpenCV DNN module.
type OpenFaceEmbedder struct {
	net       gocv.Net
	inputSize int
	mu        sync.Mutex
	closed    bool
}

// NewOpenFaceEmbedder loads the network named by config.ModelPath.
func NewOpenFaceEmbedder(config Config) (*OpenFaceEmbedder, error) {
	if config.ModelPath == "" {
		return nil, fmt.Errorf("openface embedder needs a model path")
	}

	net := gocv.ReadNet(config.ModelPath, "")
	if net.Empty() {
		net.Close()
		return nil, fmt.Errorf("load openface model from %s", config.ModelPath)
	}

	size := config.InputSize
	if size <= 0 {
		size = DefaultConfig().InputSize
	}

	return &OpenFaceEmbedder{
		net:       net,
		inputSize: size,
	}, nil
}

// Embed computes one embedding per box.
func (e *OpenFaceEmbedder) Embed(img gocv.Mat, boxes []detector.Box) ([]Embedding, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, fmt.Errorf("openface embedder is closed")
	}
	if img.Empty() {
		return nil, fmt.Errorf("embed: empty image")
	}

	bounds := image.Rect(0, 0, img.Cols(), img.Rows())
	out := make([]Embedding, 0, len(boxes))

	for i, box := range boxes {
		clipped := box.Clip(bounds)
		if !clipped.Valid() {
			return nil, fmt.Errorf("embed: box %d %v lies outside the %dx%d image", i, box, img.Cols(), img.Rows())
		}

		vec, err := e.embedOne(img, clipped)
		if err != nil {
			return nil, fmt.Errorf("embed box %d: %w", i, err)
		}
		out = append(out, vec)
	}

	return out, nil
}

func (e *OpenFaceEmbedder) embedOne(img gocv.Mat, box detector.Box) (Embedding, error) {
	face := img.Region(box.Rect())
	defer face.Close()

	// Input is already RGB, which is what OpenFace was trained on.
	blob := gocv.BlobFromImage(face, 1.0/255, image.Pt(e.inputSize, e.inputSize),
		gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	e.net.SetInput(blob, "")
	vec := e.net.Forward("")
	defer vec.Close()

	if vec.Total() != OpenFaceDim {
		return nil, &DimensionMismatchError{Want: OpenFaceDim, Got: vec.Total()}
	}

	out := make(Embedding, OpenFaceDim)
	for j := 0; j < OpenFaceDim; j++ {
		out[j] = vec.GetFloatAt(0, j)
	}
	return out, nil
}

// Dim returns OpenFaceDim.
func (e *OpenFaceEmbedder) Dim() int {
	return OpenFaceDim
}

// Close releases the network.
func (e *OpenFaceEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	return e.net.Close()
}
