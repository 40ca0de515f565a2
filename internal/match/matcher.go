// Package match resolves a face embedding to a gallery identity.
package match

import (
	"github.com/ayusman/drishti/internal/embedder"
	"github.com/ayusman/drishti/internal/gallery"
)

// Unknown is the label given to faces that match no gallery entry.
const Unknown = "Unknown"

// DefaultThreshold is the default acceptance radius. Lower is stricter.
const DefaultThreshold = 0.6

// Result is the outcome of matching one query embedding.
type Result struct {
	Label    string  // gallery label, or Unknown
	Index    int     // index of the nearest entry, -1 for an empty gallery
	Distance float64 // distance to the nearest entry
	Matched  bool    // Distance <= threshold
}

// Matcher matches query embeddings against a gallery.
type Matcher struct {
	Threshold float64
}

// NewMatcher creates a Matcher with the given acceptance threshold.
func NewMatcher(threshold float64) *Matcher {
	return &Matcher{Threshold: threshold}
}

// Match finds the gallery entry nearest to query.
//
// Only the single nearest entry is checked against the threshold; when
// several entries are equally near, the earliest one in gallery order wins.
// An empty gallery always yields Unknown.
func (m *Matcher) Match(g *gallery.Gallery, query embedder.Embedding) (Result, error) {
	if g.Len() == 0 {
		return Result{Label: Unknown, Index: -1}, nil
	}

	distances, err := Distances(g, query)
	if err != nil {
		return Result{}, err
	}

	// Strict less-than keeps the first occurrence on ties
	best := 0
	for i := 1; i < len(distances); i++ {
		if distances[i] < distances[best] {
			best = i
		}
	}

	res := Result{
		Label:    Unknown,
		Index:    best,
		Distance: distances[best],
		Matched:  distances[best] <= m.Threshold,
	}
	if res.Matched {
		res.Label = g.Entry(best).Label
	}
	return res, nil
}

// Distances returns the Euclidean distance from query to every entry,
// in gallery order.
func Distances(g *gallery.Gallery, query embedder.Embedding) ([]float64, error) {
	distances := make([]float64, g.Len())
	for i := range distances {
		d, err := embedder.Distance(g.Entry(i).Embedding, query)
		if err != nil {
			return nil, err
		}
		distances[i] = d
	}
	return distances, nil
}

// Label returns the label of the gallery entry matching query within
// threshold, or Unknown.
func Label(g *gallery.Gallery, query embedder.Embedding, threshold float64) (string, error) {
	res, err := NewMatcher(threshold).Match(g, query)
	if err != nil {
		return "", err
	}
	return res.Label, nil
}
