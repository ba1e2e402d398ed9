package ws

import "time"

// Message is one frame pushed to a learner's browser.
type Message struct {
	Type    string      `json:"type"`
	At      time.Time   `json:"at"`
	Payload interface{} `json:"payload,omitempty"`
}

// NewMessage stamps a frame.
func NewMessage(msgType string, payload interface{}) Message {
	return Message{Type: msgType, At: time.Now().UTC(), Payload: payload}
}
