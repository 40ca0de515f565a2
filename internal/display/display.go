// Package display shows annotated frames and reads keyboard input.
package display

import (
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// NoKey is returned by PollKey when no key was pressed within the timeout.
const NoKey = -1

// Display presents frames to the operator.
type Display interface {
	// Show draws img in the named window, creating the window on first use.
	Show(window string, img gocv.Mat)
	// PollKey waits up to timeoutMs for a key press and returns its code, or NoKey.
	PollKey(timeoutMs int) int
	// Close destroys every window.
	Close() error
}

// WindowDisplay renders into native OpenCV windows.
type WindowDisplay struct {
	mu      sync.Mutex
	windows map[string]*gocv.Window
	order   []string
}

// NewWindowDisplay creates a display backed by OpenCV HighGUI windows.
func NewWindowDisplay() *WindowDisplay {
	return &WindowDisplay{windows: make(map[string]*gocv.Window)}
}

// Show displays img in the named window.
func (d *WindowDisplay) Show(window string, img gocv.Mat) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if img.Empty() {
		return
	}

	w, ok := d.windows[window]
	if !ok {
		w = gocv.NewWindow(window)
		d.windows[window] = w
		d.order = append(d.order, window)
	}
	w.IMShow(img)
}

// PollKey pumps the HighGUI event loop and returns the pressed key.
func (d *WindowDisplay) PollKey(timeoutMs int) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timeoutMs <= 0 {
		timeoutMs = 1
	}

	// WaitKey needs a window to dispatch events to
	if len(d.order) == 0 {
		time.Sleep(time.Duration(timeoutMs) * time.Millisecond)
		return NoKey
	}

	key := d.windows[d.order[0]].WaitKey(timeoutMs)
	if key < 0 {
		return NoKey
	}
	return key & 0xff
}

// Close destroys all windows. It is safe to call more than once.
func (d *WindowDisplay) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var firstErr error
	for _, name := range d.order {
		if err := d.windows[name].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	d.windows = make(map[string]*gocv.Window)
	d.order = nil

	return firstErr
}

// Headless discards frames and never reports a key. The pipeline is then
// stopped through its context.
type Headless struct {
	mu     sync.Mutex
	shown  int
	closed bool
}

// NewHeadless creates a display that shows nothing.
func NewHeadless() *Headless {
	return &Headless{}
}

func (h *Headless) Show(window string, img gocv.Mat) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shown++
}

// PollKey sleeps for the timeout so a headless loop does not spin.
func (h *Headless) PollKey(timeoutMs int) int {
	if timeoutMs > 0 {
		time.Sleep(time.Duration(timeoutMs) * time.Millisecond)
	}
	return NoKey
}

func (h *Headless) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// Shown returns the number of frames passed to Show.
func (h *Headless) Shown() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.shown
}
