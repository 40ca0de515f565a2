// Package app runs the live identification pipeline: it reads frames from a
// camera, finds faces, names them against the gallery and shows the
// annotated result.
package app

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/ayusman/drishti/internal/annotate"
	"github.com/ayusman/drishti/internal/capture"
	"github.com/ayusman/drishti/internal/detector"
	"github.com/ayusman/drishti/internal/display"
	"github.com/ayusman/drishti/internal/embedder"
	"github.com/ayusman/drishti/internal/gallery"
	"github.com/ayusman/drishti/internal/match"
	"gocv.io/x/gocv"
)

// Pipeline defaults.
const (
	// DefaultWindowName is the title of the preview window.
	DefaultWindowName = "Video"
	// DefaultStopKey ends the session when pressed in the preview window.
	DefaultStopKey = 'q'
	// PollIntervalMs is how long each iteration waits for a key press.
	PollIntervalMs = 1
)

// ErrAlreadyStarted is returned when Run is called on a pipeline that has left INIT.
var ErrAlreadyStarted = errors.New("pipeline already started")

// State is a pipeline lifecycle state.
type State int32

const (
	StateInit State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// FrameResult describes one processed frame.
type FrameResult struct {
	Seq         uint64                   `json:"seq"`
	Time        time.Time                `json:"time"`
	Faces       int                      `json:"faces"`
	Dropped     int                      `json:"dropped,omitempty"`
	Annotations annotate.FrameAnnotation `json:"annotations"`
}

// Sink receives every processed frame after it has been annotated and shown.
// frame is only valid for the duration of the call.
type Sink interface {
	HandleFrame(res *FrameResult, frame *gocv.Mat) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(res *FrameResult, frame *gocv.Mat) error

func (f SinkFunc) HandleFrame(res *FrameResult, frame *gocv.Mat) error {
	return f(res, frame)
}

// Config holds the collaborators and settings of a pipeline.
type Config struct {
	Camera     capture.Camera
	Display    display.Display
	Detector   detector.Detector
	Embedder   embedder.Embedder
	Gallery    *gallery.Gallery
	Threshold  float64
	WindowName string
	StopKey    rune
	Width      int
	Height     int
	Sinks      []Sink
}

// Pipeline is a single-threaded capture loop moving through
// INIT, RUNNING and STOPPED exactly once.
type Pipeline struct {
	config    Config
	matcher   *match.Matcher
	state     atomic.Int32
	processed atomic.Uint64
}

// New creates a pipeline in the INIT state.
func New(config Config) (*Pipeline, error) {
	switch {
	case config.Camera == nil:
		return nil, errors.New("pipeline needs a camera")
	case config.Display == nil:
		return nil, errors.New("pipeline needs a display")
	case config.Detector == nil:
		return nil, errors.New("pipeline needs a detector")
	case config.Embedder == nil:
		return nil, errors.New("pipeline needs an embedder")
	case config.Threshold < 0:
		return nil, errors.New("match threshold must not be negative")
	}

	if config.WindowName == "" {
		config.WindowName = DefaultWindowName
	}
	if config.StopKey == 0 {
		config.StopKey = DefaultStopKey
	}
	if config.Width <= 0 || config.Height <= 0 {
		config.Width, config.Height = capture.DefaultWidth, capture.DefaultHeight
	}

	return &Pipeline{
		config:  config,
		matcher: match.NewMatcher(config.Threshold),
	}, nil
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Processed returns the number of frames that went through detection.
func (p *Pipeline) Processed() uint64 {
	return p.processed.Load()
}

// Gallery returns the gallery faces are matched against.
func (p *Pipeline) Gallery() *gallery.Gallery {
	return p.config.Gallery
}

// Threshold returns the match acceptance radius.
func (p *Pipeline) Threshold() float64 {
	return p.matcher.Threshold
}
