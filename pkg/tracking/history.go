package tracking

// History is a bounded FIFO of recent frame metrics.
type History struct {
	frames []FrameMetrics
	size   int
}

// NewHistory creates a history holding at most size frames.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultConfig().HistorySize
	}
	return &History{
		frames: make([]FrameMetrics, 0, size),
		size:   size,
	}
}

// Push appends m, evicting the oldest frame when full.
func (h *History) Push(m FrameMetrics) {
	if len(h.frames) == h.size {
		copy(h.frames, h.frames[1:])
		h.frames = h.frames[:h.size-1]
	}
	h.frames = append(h.frames, m)
}

// Len returns the number of buffered frames.
func (h *History) Len() int {
	return len(h.frames)
}

// Cap returns the maximum number of buffered frames.
func (h *History) Cap() int {
	return h.size
}

// Frames returns a copy of the buffer, oldest first.
func (h *History) Frames() []FrameMetrics {
	out := make([]FrameMetrics, len(h.frames))
	copy(out, h.frames)
	return out
}

// Recent returns a copy of the last n frames (fewer if not available).
func (h *History) Recent(n int) []FrameMetrics {
	if n > len(h.frames) || n < 0 {
		n = len(h.frames)
	}
	out := make([]FrameMetrics, n)
	copy(out, h.frames[len(h.frames)-n:])
	return out
}

// Clear drops every buffered frame. Called when tracking loses the face so
// that gestures from before the gap are never combined with new ones.
func (h *History) Clear() {
	h.frames = h.frames[:0]
}

