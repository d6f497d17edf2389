package detection

import (
	"context"
	"io"
	"sync"
)

// DefaultStreamBuffer is the number of pushed frames held before the oldest is dropped.
const DefaultStreamBuffer = 8

// Stream is a detector fed by frames pushed from a remote landmark model,
// typically a browser connected over WebSocket.
type Stream struct {
	frames chan Frame
	done   chan struct{}

	mu      sync.Mutex
	closed  bool
	dropped int
}

// NewStream creates a stream that buffers up to size frames.
func NewStream(size int) *Stream {
	if size <= 0 {
		size = DefaultStreamBuffer
	}
	return &Stream{
		frames: make(chan Frame, size),
		done:   make(chan struct{}),
	}
}

// Open is a no-op; the stream is ready once the peer is connected.
func (s *Stream) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Push queues a frame. When the buffer is full the oldest queued frame is
// dropped so the pipeline always scores the most recent motion.
// Returns false once the stream is closed.
func (s *Stream) Push(f Frame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}

	for {
		select {
		case s.frames <- f:
			return true
		default:
		}
		select {
		case <-s.frames:
			s.dropped++
		default:
		}
	}
}

// Detect returns the next pushed frame in arrival order.
func (s *Stream) Detect(ctx context.Context) (Frame, error) {
	select {
	case f := <-s.frames:
		return f, nil
	default:
	}

	select {
	case f := <-s.frames:
		return f, nil
	case <-s.done:
		return Frame{}, io.EOF
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

// Close ends the stream. Pending Detect calls return io.EOF.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	return nil
}

// Dropped returns how many frames were discarded on overflow.
func (s *Stream) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}
