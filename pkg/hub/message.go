// Package hub fans dashboard feed messages out to websocket clients
// using a single channel-owning goroutine.
package hub

import (
	"encoding/json"

	"github.com/vapefi/puffd/pkg/protocol"
)

// Message is a pre-encoded text frame queued for broadcast.
type Message struct {
	Data []byte
}

// NewJSONMessage wraps pre-encoded JSON.
func NewJSONMessage(data []byte) Message {
	return Message{Data: data}
}

// Encode marshals v into a broadcast message.
func Encode(v any) (Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Message{}, err
	}
	return Message{Data: data}, nil
}

// FromProtocol encodes a protocol envelope for broadcast.
func FromProtocol(msg *protocol.Message) (Message, error) {
	data, err := msg.Bytes()
	if err != nil {
		return Message{}, err
	}
	return Message{Data: data}, nil
}
