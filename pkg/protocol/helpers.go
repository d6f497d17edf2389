package protocol

import (
	"time"

	"github.com/vapefi/puffd/pkg/tracking"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewFrameMessage creates a frame message from landmark output
func NewFrameMessage(frame FrameData) (*Message, error) {
	return NewMessage(TypeFrame, frame)
}

// NewCountingMessage creates a counting toggle message
func NewCountingMessage(enabled bool) (*Message, error) {
	return NewMessage(TypeCounting, CountingData{Enabled: enabled})
}

// NewAnalysisMessage creates an analysis message for one processed frame
func NewAnalysisMessage(sessionID string, a tracking.Analysis) (*Message, error) {
	return NewMessage(TypeAnalysis, AnalysisData{
		SessionID:  sessionID,
		State:      a.State.String(),
		Analysis:   a,
		CooldownMS: a.Cooldown.Milliseconds(),
	})
}

// NewPuffMessage creates a puff message
func NewPuffMessage(e tracking.Event, wallet string, total int) (*Message, error) {
	return NewMessage(TypePuff, PuffData{Event: e, Wallet: wallet, Total: total})
}

// NewStateMessage creates a state message
func NewStateMessage(sessionID string, state tracking.State, counting bool, count int) (*Message, error) {
	return NewMessage(TypeState, StateData{
		SessionID: sessionID,
		State:     state.String(),
		Counting:  counting,
		Count:     count,
	})
}

// NewErrorMessage creates an error message
func NewErrorMessage(code, message string) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Code: code, Message: message})
}

// NewPingMessage creates a ping message
func NewPingMessage() (*Message, error) {
	return NewMessage(TypePing, nil)
}

// NewPongMessage creates a pong response to a ping sent at pingTS
func NewPongMessage(pingTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{PingTS: pingTS, ServerTS: time.Now().UnixMilli()})
}
