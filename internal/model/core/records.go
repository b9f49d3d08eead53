// Package core holds the records handed to storage backends. They carry
// validated commands and rejections together with receive metadata and
// have no storage dependencies.
package core

import (
	"time"

	"github.com/IqraJilani-aai/open-simulation-interface/pkg/osi"
)

// Stage names the pipeline step that rejected a payload.
type Stage string

const (
	StageDecode     Stage = "decode"
	StageVersion    Stage = "version"
	StageValidation Stage = "validation"
)

// Session is one receiver run. Session-scoped action id uniqueness is
// tracked per Session.
type Session struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"startedAt"`
	EndedAt    time.Time `json:"endedAt,omitzero"`
	Codec      string    `json:"codec"`
	Uniqueness string    `json:"uniqueness"`
	VersionMin string    `json:"versionMin"`
	VersionMax string    `json:"versionMax"`
}

// CommandRecord is an accepted command.
type CommandRecord struct {
	SessionID  string
	ReceivedAt time.Time
	Source     string
	Codec      string
	Command    *osi.ValidatedCommand
}

// Reason is one cause of a rejection.
type Reason struct {
	Kind     string  `json:"kind"`
	Path     string  `json:"path,omitempty"`
	ActionID *uint64 `json:"actionId,omitempty"`
	Message  string  `json:"message"`
}

// Rejection is a payload that did not produce a validated command.
type Rejection struct {
	SessionID            string
	ReceivedAt           time.Time
	Source               string
	Codec                string
	Stage                Stage
	TrafficParticipantID *osi.Identifier
	Reasons              []Reason
	Payload              []byte
}
