package detection

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/vapefi/puffd/internal/log"
)

// SafeDetector degrades detection failures to empty frames.
// The landmark model throwing on one frame must never stop the pipeline:
// the frame is treated as "no face", logged, and the next frame is read.
type SafeDetector struct {
	inner  Detector
	errors int
}

// Safe wraps a detector. Open errors, context errors and io.EOF still propagate.
func Safe(d Detector) *SafeDetector {
	return &SafeDetector{inner: d}
}

// Open opens the wrapped detector.
func (s *SafeDetector) Open(ctx context.Context) error {
	return s.inner.Open(ctx)
}

// Detect returns the next frame, or an empty frame if detection failed.
func (s *SafeDetector) Detect(ctx context.Context) (frame Frame, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.errors++
			log.Warn("landmark detection panicked", "panic", fmt.Sprint(r))
			frame, err = Frame{}, nil
		}
	}()

	frame, err = s.inner.Detect(ctx)
	if err == nil {
		return frame, nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, ErrClosed) || ctx.Err() != nil {
		return Frame{}, err
	}

	s.errors++
	log.Warn("landmark detection failed", "error", err)
	return Frame{TimestampMS: frame.TimestampMS}, nil
}

// Close closes the wrapped detector.
func (s *SafeDetector) Close() error {
	return s.inner.Close()
}

// Errors returns how many frames were degraded to empty results.
func (s *SafeDetector) Errors() int {
	return s.errors
}
