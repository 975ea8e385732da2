package hub

import (
	"time"

	"github.com/soar/joymidi/internal/controller"
)

// WSMessage is a message sent from the server to a status client.
type WSMessage struct {
	Type      string             `json:"type"` // "full" or "delta"
	Seq       int64              `json:"seq"`
	Timestamp int64              `json:"timestamp"` // unix milliseconds
	Data      *controller.Status `json:"data,omitempty"`
	Changes   *controller.Delta  `json:"changes,omitempty"`
}

// NewFullMessage creates a "full" message carrying the complete status.
func NewFullMessage(seq int64, st *controller.Status) *WSMessage {
	return &WSMessage{
		Type:      "full",
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Data:      st,
	}
}

// NewDeltaMessage creates a "delta" message with only the changed groups.
func NewDeltaMessage(seq int64, changes *controller.Delta) *WSMessage {
	return &WSMessage{
		Type:      "delta",
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Changes:   changes,
	}
}

// ClientMessage is a message sent from a status client.
type ClientMessage struct {
	Type string `json:"type"` // "sync" requests a full message
}
