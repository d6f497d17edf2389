package tracking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/vapefi/puffd/internal/log"
	"github.com/vapefi/puffd/pkg/tracking/detection"
)

// Tracker drives one session from one landmark source, frame by frame.
type Tracker struct {
	session  *Session
	detector *detection.SafeDetector

	mu         sync.RWMutex
	onAnalysis func(Analysis)
	frames     int
	running    bool
}

// NewTracker creates a tracker for the session reading frames from detector.
// Detection failures on individual frames are degraded to "no face" frames.
func NewTracker(session *Session, detector detection.Detector) *Tracker {
	return &Tracker{
		session:  session,
		detector: detection.Safe(detector),
	}
}

// Session returns the tracked session.
func (t *Tracker) Session() *Session {
	return t.session
}

// OnAnalysis sets an observer called with every processed frame.
func (t *Tracker) OnAnalysis(fn func(Analysis)) {
	t.mu.Lock()
	t.onAnalysis = fn
	t.mu.Unlock()
}

// Frames returns how many frames have been processed.
func (t *Tracker) Frames() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.frames
}

// IsRunning reports whether Run is active.
func (t *Tracker) IsRunning() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.running
}

// Run opens the source and processes frames in capture order until ctx is
// cancelled or the source ends. If the source cannot be opened the session
// is never started. On return the session is idle and the source closed.
func (t *Tracker) Run(ctx context.Context) error {
	logger := log.Component("tracker").With("session", t.session.ID())

	if err := t.detector.Open(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrCameraUnavailable, err)
	}

	t.session.Start()
	t.setRunning(true)
	logger.Info("tracking started", "cooldown", t.session.Config().Cooldown,
		"threshold", t.session.Config().Thresholds.Detect)

	defer func() {
		t.session.Stop()
		if err := t.detector.Close(); err != nil {
			logger.Warn("close landmark source", "error", err)
		}
		t.setRunning(false)
		logger.Info("tracking stopped", "frames", t.Frames(), "puffs", t.session.Count(),
			"degraded_frames", t.detector.Errors())
	}()

	for {
		frame, err := t.detector.Detect(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, detection.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		a, err := t.session.Process(frame)
		if err != nil {
			return err
		}

		t.mu.Lock()
		t.frames++
		fn := t.onAnalysis
		t.mu.Unlock()

		if fn != nil {
			fn(a)
		}
	}
}

func (t *Tracker) setRunning(v bool) {
	t.mu.Lock()
	t.running = v
	t.mu.Unlock()
}
