// Package protocol defines the WebSocket message types exchanged between the
// browser (which runs the landmark model) and puffd (which scores frames).
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vapefi/puffd/pkg/tracking"
	"github.com/vapefi/puffd/pkg/tracking/detection"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Browser → server messages
	TypeFrame    MessageType = "frame"    // Landmarks for one video frame
	TypeStart    MessageType = "start"    // Camera ready, begin tracking
	TypeStop     MessageType = "stop"     // Camera released, end tracking
	TypeCounting MessageType = "counting" // Enable or disable puff counting

	// Server → browser messages
	TypeAnalysis MessageType = "analysis" // Per-frame scoring result
	TypePuff     MessageType = "puff"     // A detection fired
	TypeState    MessageType = "state"    // Session state change
	TypeError    MessageType = "error"    // Request could not be handled

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Browser → Server Message Types
// =============================================================================

// FrameData is one frame of landmark model output.
type FrameData = detection.Frame

// CountingData toggles puff counting.
type CountingData struct {
	Enabled bool `json:"enabled"`
}

// =============================================================================
// Server → Browser Message Types
// =============================================================================

// AnalysisData is the scoring result for one frame.
type AnalysisData struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
	tracking.Analysis
	CooldownMS int64 `json:"cooldown_ms,omitempty"`
}

// PuffData announces a fired detection.
type PuffData struct {
	tracking.Event
	Wallet string `json:"wallet"`
	Total  int    `json:"total"`
}

// StateData reports the session lifecycle state.
type StateData struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
	Counting  bool   `json:"counting"`
	Count     int    `json:"count"`
}

// ErrorData describes a rejected request.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PongData is the response to a ping.
type PongData struct {
	PingTS   int64 `json:"ping_ts"`
	ServerTS int64 `json:"server_ts"`
}

// =============================================================================
// Typed accessors
// =============================================================================

// GetFrameData parses frame data from a message
func (m *Message) GetFrameData() (*FrameData, error) {
	if m.Type != TypeFrame {
		return nil, fmt.Errorf("message type is %s, not frame", m.Type)
	}
	var data FrameData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetCountingData parses counting data from a message
func (m *Message) GetCountingData() (*CountingData, error) {
	if m.Type != TypeCounting {
		return nil, fmt.Errorf("message type is %s, not counting", m.Type)
	}
	var data CountingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetAnalysisData parses analysis data from a message
func (m *Message) GetAnalysisData() (*AnalysisData, error) {
	if m.Type != TypeAnalysis {
		return nil, fmt.Errorf("message type is %s, not analysis", m.Type)
	}
	var data AnalysisData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPuffData parses puff data from a message
func (m *Message) GetPuffData() (*PuffData, error) {
	if m.Type != TypePuff {
		return nil, fmt.Errorf("message type is %s, not puff", m.Type)
	}
	var data PuffData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetStateData parses state data from a message
func (m *Message) GetStateData() (*StateData, error) {
	if m.Type != TypeState {
		return nil, fmt.Errorf("message type is %s, not state", m.Type)
	}
	var data StateData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
