package display

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDisplay records shown frames and returns a scripted key sequence.
type MockDisplay struct {
	mu     sync.Mutex
	keys   []int
	polls  int
	shown  []string
	closed int
	onPoll func(poll int)
}

// NewMockDisplay creates a MockDisplay that returns keys in order from
// successive PollKey calls, then NoKey.
func NewMockDisplay(keys ...int) *MockDisplay {
	return &MockDisplay{keys: keys}
}

// StopAfter creates a MockDisplay that returns key on the n-th poll (1-based).
func StopAfter(n int, key rune) *MockDisplay {
	keys := make([]int, n)
	for i := range keys {
		keys[i] = NoKey
	}
	if n > 0 {
		keys[n-1] = int(key)
	}
	return NewMockDisplay(keys...)
}

// OnPoll registers fn to run at the start of every PollKey call.
func (m *MockDisplay) OnPoll(fn func(poll int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onPoll = fn
}

func (m *MockDisplay) Show(window string, img gocv.Mat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shown = append(m.shown, window)
}

func (m *MockDisplay) PollKey(timeoutMs int) int {
	m.mu.Lock()
	poll := m.polls
	m.polls++
	fn := m.onPoll
	key := NoKey
	if poll < len(m.keys) {
		key = m.keys[poll]
	}
	m.mu.Unlock()

	if fn != nil {
		fn(poll)
	}
	return key
}

func (m *MockDisplay) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

// Shown returns the window names passed to Show, in call order.
func (m *MockDisplay) Shown() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.shown...)
}

// Polls returns the number of PollKey calls.
func (m *MockDisplay) Polls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.polls
}

// Closed returns the number of Close calls.
func (m *MockDisplay) Closed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
