// Package gallery builds the set of known reference faces that live
// frames are matched against.
package gallery

import (
	"fmt"

	"github.com/ayusman/drishti/internal/embedder"
)

// Reference names one identity and the image file it is enrolled from.
type Reference struct {
	Label string `yaml:"label" json:"label"`
	Path  string `yaml:"path" json:"path"`
}

// Entry is one known identity: a label and its reference embedding.
type Entry struct {
	Label     string
	Embedding embedder.Embedding
}

// Gallery is an ordered, read-only list of entries. Order is the order
// references were supplied in and decides ties in matching.
// A nil *Gallery behaves like an empty one.
type Gallery struct {
	entries []Entry
	dim     int
}

// New creates a Gallery from entries, copying them.
// Every label must be non-empty and every embedding must have the same dimension.
func New(entries []Entry) (*Gallery, error) {
	g := &Gallery{entries: make([]Entry, 0, len(entries))}

	for i, e := range entries {
		if e.Label == "" {
			return nil, fmt.Errorf("gallery entry %d has an empty label", i)
		}
		if len(e.Embedding) == 0 {
			return nil, fmt.Errorf("gallery entry %d (%s) has an empty embedding", i, e.Label)
		}
		if i == 0 {
			g.dim = len(e.Embedding)
		} else if len(e.Embedding) != g.dim {
			return nil, &embedder.DimensionMismatchError{Want: g.dim, Got: len(e.Embedding)}
		}
		g.entries = append(g.entries, Entry{Label: e.Label, Embedding: e.Embedding.Clone()})
	}

	return g, nil
}

// Len returns the number of entries.
func (g *Gallery) Len() int {
	if g == nil {
		return 0
	}
	return len(g.entries)
}

// Dim returns the embedding dimension, or 0 for an empty gallery.
func (g *Gallery) Dim() int {
	if g == nil {
		return 0
	}
	return g.dim
}

// Entry returns the i-th entry. The embedding must not be modified.
func (g *Gallery) Entry(i int) Entry {
	return g.entries[i]
}

// Entries returns a deep copy of all entries.
func (g *Gallery) Entries() []Entry {
	if g == nil {
		return nil
	}
	out := make([]Entry, len(g.entries))
	for i, e := range g.entries {
		out[i] = Entry{Label: e.Label, Embedding: e.Embedding.Clone()}
	}
	return out
}

// Labels returns the labels in gallery order.
func (g *Gallery) Labels() []string {
	if g == nil {
		return nil
	}
	labels := make([]string, len(g.entries))
	for i, e := range g.entries {
		labels[i] = e.Label
	}
	return labels
}
