// Package embedder maps face regions to fixed-length identity vectors.
package embedder

import (
	"fmt"
	"math"
)

// Embedding is a face descriptor. Faces of the same person produce
// embeddings that are close under Euclidean distance.
type Embedding []float32

// DimensionMismatchError is returned when two embeddings that should come
// from the same model have different lengths.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: want %d, got %d", e.Want, e.Got)
}

// Dim returns the number of components.
func (e Embedding) Dim() int {
	return len(e)
}

// Clone returns a copy that shares no memory with e.
func (e Embedding) Clone() Embedding {
	if e == nil {
		return nil
	}
	out := make(Embedding, len(e))
	copy(out, e)
	return out
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Embedding) (float64, error) {
	if len(a) != len(b) {
		return 0, &DimensionMismatchError{Want: len(a), Got: len(b)}
	}

	var sum float64
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return math.Sqrt(sum), nil
}
