package detection

import (
	"context"
	"io"
	"sync"
)

// Mock implements Detector for testing.
type Mock struct {
	// OpenFunc is called when Open is invoked.
	OpenFunc func(ctx context.Context) error

	// DetectFunc is called when Detect is invoked.
	// When nil, Frames are returned in order followed by io.EOF.
	DetectFunc func(ctx context.Context) (Frame, error)

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	// Frames is the scripted frame sequence.
	Frames []Frame

	mu     sync.Mutex
	next   int
	opened int
	closed int
}

// NewMock creates a mock that replays the given frames.
func NewMock(frames ...Frame) *Mock {
	return &Mock{Frames: frames}
}

// Open implements Detector.
func (m *Mock) Open(ctx context.Context) error {
	m.mu.Lock()
	m.opened++
	fn := m.OpenFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return nil
}

// Detect implements Detector.
func (m *Mock) Detect(ctx context.Context) (Frame, error) {
	m.mu.Lock()
	fn := m.DetectFunc
	if fn == nil {
		defer m.mu.Unlock()
		if m.next >= len(m.Frames) {
			return Frame{}, io.EOF
		}
		f := m.Frames[m.next]
		m.next++
		return f, nil
	}
	m.mu.Unlock()
	return fn(ctx)
}

// Close implements Detector.
func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed++
	fn := m.CloseFunc
	m.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return nil
}

// Opened returns how many times Open was called.
func (m *Mock) Opened() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opened
}

// Closed returns how many times Close was called.
func (m *Mock) Closed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
