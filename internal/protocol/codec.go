package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/vulnwatch/notifications-engine/internal/notification"
)

const (
	TypeConnected    = "connected"
	TypePong         = "pong"
	TypeError        = "error"
	TypeNotification = "notification"
	TypePing         = "ping"
)

// ErrDiscardFrame marks a frame that failed validation. Discards are
// non-fatal and never affect connection state.
var ErrDiscardFrame = fmt.Errorf("frame discarded")

// Frame is the decoded form of an inbound frame. Notification is set only
// for notification frames, Message only for error frames.
type Frame struct {
	Type         string
	Message      string
	Notification *notification.Raw
}

type envelope struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// Decode parses an inbound frame as a tagged union on its type field.
// Frames with an unknown or missing type, or notification frames missing
// any of id, title, message, return an error wrapping ErrDiscardFrame.
func Decode(data []byte) (*Frame, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: unparseable: %v", ErrDiscardFrame, err)
	}
	switch env.Type {
	case TypeConnected, TypePong:
		return &Frame{Type: env.Type}, nil
	case TypeError:
		return &Frame{Type: env.Type, Message: env.Message}, nil
	case TypeNotification:
		raw := &notification.Raw{}
		if err := json.Unmarshal(data, raw); err != nil {
			return nil, fmt.Errorf("%w: unparseable notification: %v", ErrDiscardFrame, err)
		}
		if raw.ID == nil || raw.Title == "" || raw.Message == "" {
			return nil, fmt.Errorf("%w: notification frame missing id, title or message", ErrDiscardFrame)
		}
		return &Frame{Type: env.Type, Notification: raw}, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrDiscardFrame)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrDiscardFrame, env.Type)
	}
}

// Ping is the outbound heartbeat frame.
func Ping() []byte {
	return []byte(`{"type":"ping"}`)
}
