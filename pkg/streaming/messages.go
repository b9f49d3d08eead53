// Package streaming defines the messages a command consumer receives over
// WebSocket. Every message is an Envelope; the receiver acknowledges
// session start and end with an AckMessage.
package streaming

import (
	"encoding/json"
	"time"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartSession = "start_session"
	TypeEndSession   = "end_session"
	TypeCommand      = "traffic_command"
	TypeRejection    = "rejection"

	TypeAck = "ack"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartSessionPayload opens a session. Commands and rejections that follow
// belong to it until end_session.
type StartSessionPayload struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"startedAt"`
	Codec      string    `json:"codec"`
	Uniqueness string    `json:"uniqueness"`
	VersionMin string    `json:"versionMin"`
	VersionMax string    `json:"versionMax"`
}

// CommandPayload is an accepted command. Command is the JSON document
// form of the traffic command.
type CommandPayload struct {
	SessionID  string          `json:"sessionId"`
	ReceivedAt time.Time       `json:"receivedAt"`
	Source     string          `json:"source,omitempty"`
	Codec      string          `json:"codec"`
	Command    json.RawMessage `json:"command"`
}

// Reason is one cause of a rejection.
type Reason struct {
	Kind     string  `json:"kind"`
	Path     string  `json:"path,omitempty"`
	ActionID *uint64 `json:"actionId,omitempty,string"`
	Message  string  `json:"message"`
}

// RejectionPayload is a payload that did not produce a validated command.
// The raw payload itself is not forwarded.
type RejectionPayload struct {
	SessionID            string    `json:"sessionId"`
	ReceivedAt           time.Time `json:"receivedAt"`
	Source               string    `json:"source,omitempty"`
	Codec                string    `json:"codec"`
	Stage                string    `json:"stage"`
	TrafficParticipantID *uint64   `json:"trafficParticipantId,omitempty,string"`
	Reasons              []Reason  `json:"reasons"`
}
