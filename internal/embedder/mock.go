package embedder

import (
	"fmt"
	"sync"

	"github.com/ayusman/drishti/internal/detector"
	"gocv.io/x/gocv"
)

// MockEmbedder is a test implementation of the Embedder interface.
// Each Embed call hands out the next vectors from the configured queue,
// one per box. When the queue runs dry the fallback vector is used.
type MockEmbedder struct {
	mu       sync.Mutex
	queue    []Embedding
	fallback Embedding
	dim      int
	err      error
	calls    int
}

// NewMockEmbedder creates a MockEmbedder producing vectors of length dim.
func NewMockEmbedder(dim int) *MockEmbedder {
	return &MockEmbedder{
		dim:      dim,
		fallback: make(Embedding, dim),
	}
}

// Queue appends embeddings to be returned by subsequent Embed calls.
func (m *MockEmbedder) Queue(embeddings ...Embedding) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, embeddings...)
}

// SetFallback sets the vector returned once the queue is empty.
func (m *MockEmbedder) SetFallback(e Embedding) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = e
}

// SetError sets the error that will be returned by Embed.
func (m *MockEmbedder) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Embed has been called.
func (m *MockEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Embed returns one queued (or fallback) vector per box.
func (m *MockEmbedder) Embed(img gocv.Mat, boxes []detector.Box) ([]Embedding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.fallback == nil && len(m.queue) < len(boxes) {
		return nil, fmt.Errorf("mock embedder: %d boxes but only %d queued vectors", len(boxes), len(m.queue))
	}

	out := make([]Embedding, len(boxes))
	for i := range boxes {
		if len(m.queue) > 0 {
			out[i] = m.queue[0].Clone()
			m.queue = m.queue[1:]
			continue
		}
		out[i] = m.fallback.Clone()
	}
	return out, nil
}

// Dim returns the configured dimension.
func (m *MockEmbedder) Dim() int {
	return m.dim
}

// Close is a no-op for the mock embedder.
func (m *MockEmbedder) Close() error {
	return nil
}

// Axis returns a unit vector of length dim along axis i, scaled by scale.
// Handy for building embeddings at known distances from each other.
func Axis(dim, i int, scale float32) Embedding {
	e := make(Embedding, dim)
	e[i] = scale
	return e
}
