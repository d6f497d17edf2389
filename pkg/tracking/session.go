package tracking

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vapefi/puffd/pkg/debug"
	"github.com/vapefi/puffd/pkg/tracking/detection"
)

// State is the lifecycle state of a tracking session.
type State int

const (
	// StateIdle means the camera and model are not running.
	StateIdle State = iota
	// StateNoFace means frames are arriving but no face is locked.
	StateNoFace
	// StateTracking means a face is locked and history is accumulating.
	StateTracking
)

// String returns the state name used on the wire.
func (s State) String() string {
	switch s {
	case StateNoFace:
		return "no_face"
	case StateTracking:
		return "tracking"
	default:
		return "idle"
	}
}

// Detecting reports whether the per-frame pipeline is active.
func (s State) Detecting() bool {
	return s == StateNoFace || s == StateTracking
}

// Reasons a positive result did not fire.
const (
	SuppressedCooldown    = "cooldown"
	SuppressedNotCounting = "not_counting"
)

// Event is emitted once per fired detection.
type Event struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Sequence   int       `json:"sequence"`
	Confidence int       `json:"confidence"`
	FrameTime  float64   `json:"frame_ms"`
	DetectedAt time.Time `json:"detected_at"`
}

// Analysis is the outcome of processing one frame.
type Analysis struct {
	Result

	State      State         `json:"-"`
	Fired      bool          `json:"fired"`
	Suppressed string        `json:"suppressed,omitempty"`
	Cooldown   time.Duration `json:"-"`
	Count      int           `json:"count"`
	Metrics    *FrameMetrics `json:"metrics,omitempty"`
}

// Session owns the history buffer and cooldown for one camera.
// A session is created per tracking run; Stop returns it to its initial state.
type Session struct {
	id       string
	config   Config
	scorer   *Scorer
	history  *History
	cooldown *Cooldown

	mu       sync.Mutex
	state    State
	counting bool
	count    int
	onPuff   func(Event)
	now      func() time.Time
}

// NewSession creates an idle session.
func NewSession(config Config) *Session {
	return &Session{
		id:       uuid.NewString(),
		config:   config,
		scorer:   NewScorer(config),
		history:  NewHistory(config.HistorySize),
		cooldown: NewCooldown(config.Cooldown),
		counting: true,
		now:      time.Now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Config returns the session configuration.
func (s *Session) Config() Config {
	return s.config
}

// OnPuff sets the callback for fired detections.
func (s *Session) OnPuff(fn func(Event)) {
	s.mu.Lock()
	s.onPuff = fn
	s.mu.Unlock()
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Count returns how many detections have fired since Start.
func (s *Session) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Counting reports whether positive results fire events.
func (s *Session) Counting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counting
}

// SetCounting enables or disables firing. While disabled, frames are still
// scored so the UI can show feedback.
func (s *Session) SetCounting(enabled bool) {
	s.mu.Lock()
	s.counting = enabled
	s.mu.Unlock()
}

// Start moves an idle session into detection. It is a no-op if already detecting.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle {
		s.state = StateNoFace
		s.count = 0
	}
}

// Stop returns the session to idle, clearing history and cooldown.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	s.history.Clear()
	s.cooldown.Reset()
}

// HistoryLen returns the number of buffered frames.
func (s *Session) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Len()
}

// Process runs one frame through extraction, scoring and the cooldown gate.
func (s *Session) Process(frame detection.Frame) (Analysis, error) {
	s.mu.Lock()

	if !s.state.Detecting() {
		s.mu.Unlock()
		return Analysis{State: StateIdle}, ErrNotDetecting
	}

	at := frame.Time()
	metrics, ok := ExtractMetrics(detection.SelectBest(frame.Faces), at)
	if !ok {
		if s.state == StateTracking {
			debug.TrackLog("👄 Face lost, clearing %d frames of history\n", s.history.Len())
		}
		s.history.Clear()
		s.state = StateNoFace
		a := Analysis{Result: Result{Reason: ReasonNoFace}, State: StateNoFace, Count: s.count}
		s.mu.Unlock()
		return a, nil
	}

	s.state = StateTracking
	s.history.Push(metrics)

	a := Analysis{
		Result:  s.scorer.Score(s.history.Frames()),
		State:   StateTracking,
		Metrics: &metrics,
	}

	var (
		fire  func(Event)
		event Event
	)
	if a.IsPuff {
		switch {
		case !s.counting:
			a.Suppressed = SuppressedNotCounting
		case !s.cooldown.Allow(at):
			a.Suppressed = SuppressedCooldown
			a.Cooldown = s.cooldown.Remaining(at)
		default:
			s.count++
			a.Fired = true
			event = Event{
				ID:         uuid.NewString(),
				SessionID:  s.id,
				Sequence:   s.count,
				Confidence: a.Confidence,
				FrameTime:  frame.TimestampMS,
				DetectedAt: s.now(),
			}
			fire = s.onPuff
			debug.TrackLog("💨 Puff #%d (%d%% confidence)\n", s.count, a.Confidence)
		}
	}
	a.Count = s.count
	s.mu.Unlock()

	if fire != nil {
		fire(event)
	}
	return a, nil
}
