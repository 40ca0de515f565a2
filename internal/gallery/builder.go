package gallery

import (
	"errors"
	"log"

	"github.com/ayusman/drishti/internal/detector"
	"github.com/ayusman/drishti/internal/embedder"
)

// Status is the result of enrolling one reference.
type Status string

const (
	StatusLoaded            Status = "loaded"
	StatusLoadFailed        Status = "load_failed"
	StatusNoFace            Status = "no_face"
	StatusNoEncoding        Status = "no_encoding"
	StatusDimensionMismatch Status = "dimension_mismatch"
)

// Outcome describes what happened to a single reference during Build.
type Outcome struct {
	Reference Reference
	Status    Status
	Faces     int   // faces the detector found in the reference image
	Err       error // nil when Status is StatusLoaded
}

// Builder turns reference images into a Gallery.
type Builder struct {
	detector detector.Detector
	embedder embedder.Embedder

	// Loader reads reference images. Defaults to LoadImage.
	Loader Loader

	// Observer, when set, is called once per reference in input order.
	Observer func(Outcome)
}

// NewBuilder creates a Builder that enrolls faces with d and e.
func NewBuilder(d detector.Detector, e embedder.Embedder) *Builder {
	return &Builder{
		detector: d,
		embedder: e,
		Loader:   LoadImage,
	}
}

// Build enrolls every reference in order and returns the resulting gallery.
//
// It never fails: a reference that cannot be loaded, has no detectable
// face, or yields no embedding is logged and left out, so the gallery may
// be smaller than refs or empty. Only the first face of a reference image
// is enrolled.
func (b *Builder) Build(refs []Reference) *Gallery {
	for _, dup := range FindDuplicates(refs) {
		log.Printf("Labels %q and %q look like the same person; both are kept", dup.First, dup.Second)
	}

	entries := make([]Entry, 0, len(refs))
	dim := 0

	for _, ref := range refs {
		outcome := b.enroll(ref, dim)
		if outcome.Status == StatusLoaded {
			entry := outcome.entry
			if dim == 0 {
				dim = len(entry.Embedding)
			}
			entries = append(entries, entry)
		}
		logOutcome(outcome.Outcome)
		if b.Observer != nil {
			b.Observer(outcome.Outcome)
		}
	}

	g, err := New(entries)
	if err != nil {
		// enroll already filters empty labels and mismatched dimensions
		log.Printf("Gallery construction failed unexpectedly: %v", err)
		return &Gallery{}
	}
	return g
}

type enrollment struct {
	Outcome
	entry Entry
}

func (b *Builder) enroll(ref Reference, dim int) enrollment {
	res := enrollment{Outcome: Outcome{Reference: ref}}

	if ref.Label == "" {
		res.Status = StatusLoadFailed
		res.Err = &LoadError{Path: ref.Path, Err: errors.New("reference has an empty label")}
		return res
	}

	img, err := b.Loader(ref.Path)
	if err != nil {
		img.Close()
		res.Status = StatusLoadFailed
		var loadErr *LoadError
		if !errors.As(err, &loadErr) {
			err = &LoadError{Path: ref.Path, Err: err}
		}
		res.Err = err
		return res
	}
	defer img.Close()

	boxes, err := b.detector.Detect(img)
	if err != nil || len(boxes) == 0 {
		res.Status = StatusNoFace
		res.Err = &NoFaceFoundError{Path: ref.Path, Err: err}
		return res
	}
	res.Faces = len(boxes)

	embeddings, err := b.embedder.Embed(img, boxes[:1])
	if err != nil || len(embeddings) == 0 || len(embeddings[0]) == 0 {
		res.Status = StatusNoEncoding
		res.Err = &NoEncodingError{Path: ref.Path, Err: err}
		return res
	}

	vec := embeddings[0]
	if dim != 0 && len(vec) != dim {
		res.Status = StatusDimensionMismatch
		res.Err = &embedder.DimensionMismatchError{Want: dim, Got: len(vec)}
		return res
	}

	res.Status = StatusLoaded
	res.entry = Entry{Label: ref.Label, Embedding: vec.Clone()}
	return res
}

func logOutcome(o Outcome) {
	switch o.Status {
	case StatusLoaded:
		if o.Faces > 1 {
			log.Printf("Reference %s for %s contains %d faces; using the first", o.Reference.Path, o.Reference.Label, o.Faces)
		}
		log.Printf("Loaded face encoding for %s", o.Reference.Label)
	case StatusLoadFailed:
		log.Printf("Skipping %s: %v", o.Reference.Label, o.Err)
	case StatusNoFace:
		log.Printf("No face found in %s, skipping %s", o.Reference.Path, o.Reference.Label)
	case StatusNoEncoding:
		log.Printf("No face encodings found for %s, skipping %s", o.Reference.Path, o.Reference.Label)
	case StatusDimensionMismatch:
		log.Printf("Skipping %s: %v", o.Reference.Label, o.Err)
	}
}
