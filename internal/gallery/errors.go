package gallery

import (
	"errors"
	"fmt"
)

// ErrUnreadableImage is wrapped by LoadError when a file exists but
// cannot be decoded as an image.
var ErrUnreadableImage = errors.New("unreadable image")

// LoadError is returned when a reference image is missing or cannot be decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load image '%s': %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// NoFaceFoundError is returned when no face is detected in a reference image.
type NoFaceFoundError struct {
	Path string
	Err  error // detector failure, if any
}

func (e *NoFaceFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no face found in '%s': %v", e.Path, e.Err)
	}
	return fmt.Sprintf("no face found in '%s'", e.Path)
}

func (e *NoFaceFoundError) Unwrap() error {
	return e.Err
}

// NoEncodingError is returned when a face was detected in a reference image
// but the embedder produced no usable vector for it.
type NoEncodingError struct {
	Path string
	Err  error
}

func (e *NoEncodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no face encoding for '%s': %v", e.Path, e.Err)
	}
	return fmt.Sprintf("no face encoding for '%s'", e.Path)
}

func (e *NoEncodingError) Unwrap() error {
	return e.Err
}
