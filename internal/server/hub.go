package server

import (
	"fmt"
	"sync"

	"github.com/ayusman/drishti/internal/app"
	"gocv.io/x/gocv"
)

// Hub keeps the latest annotated frame for preview clients. It is an
// app.Sink: the pipeline publishes into it and HTTP handlers read from it.
type Hub struct {
	mu          sync.RWMutex
	jpeg        []byte
	result      *app.FrameResult
	subscribers map[chan struct{}]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[chan struct{}]struct{})}
}

// HandleFrame encodes the annotated frame as JPEG and publishes it.
func (h *Hub) HandleFrame(res *app.FrameResult, frame *gocv.Mat) error {
	h.mu.RLock()
	idle := len(h.subscribers) == 0
	h.mu.RUnlock()

	// Skip encoding while nobody is watching
	if idle {
		h.Publish(nil, res)
		return nil
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return fmt.Errorf("encoding preview frame: %w", err)
	}
	defer buf.Close()

	jpeg := make([]byte, buf.Len())
	copy(jpeg, buf.GetBytes())
	h.Publish(jpeg, res)
	return nil
}

// Publish replaces the latest frame and wakes every subscriber.
// A nil jpeg keeps the previous image.
func (h *Hub) Publish(jpeg []byte, res *app.FrameResult) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if jpeg != nil {
		h.jpeg = jpeg
	}
	h.result = res

	for ch := range h.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Latest returns the most recent JPEG and frame result.
func (h *Hub) Latest() ([]byte, *app.FrameResult) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.jpeg, h.result
}

// Subscribe returns a channel signalled after every Publish and a function
// that unsubscribes it.
func (h *Hub) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		delete(h.subscribers, ch)
		h.mu.Unlock()
	}
}

// Subscribers returns the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
