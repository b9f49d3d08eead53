// Package model holds the gorm rows written by the sqlite and postgres
// storage backends.
package model

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"

	"github.com/IqraJilani-aai/open-simulation-interface/pkg/osi"
)

// DatabaseModels lists every table, in migration order.
var DatabaseModels = []any{
	&Session{},
	&Command{},
	&Action{},
	&Rejection{},
}

// Session is one receiver run.
type Session struct {
	ID         string       `json:"id" gorm:"primaryKey;size:36"`
	StartedAt  time.Time    `json:"startedAt" gorm:"index"`
	EndedAt    sql.NullTime `json:"endedAt"`
	Codec      string       `json:"codec" gorm:"size:32"`
	Uniqueness string       `json:"uniqueness" gorm:"size:16"`
	VersionMin string       `json:"versionMin" gorm:"size:32"`
	VersionMax string       `json:"versionMax" gorm:"size:32"`
	Commands   []Command    `json:"-"`
}

func (*Session) TableName() string { return "sessions" }

// Command is an accepted traffic command. Payload is the command as a
// JSON document; Actions duplicates the per-action fields worth indexing.
//
// Identifiers are unsigned 64-bit on the wire but both databases only have
// signed 64-bit integers, so id columns hold the same bit pattern as int64
// (see ToDBID).
type Command struct {
	ID                   uint           `json:"id" gorm:"primaryKey"`
	SessionID            string         `json:"sessionId" gorm:"size:36;index:idx_command_session"`
	ReceivedAt           time.Time      `json:"receivedAt" gorm:"index:idx_command_received_at"`
	Source               string         `json:"source" gorm:"size:255"`
	Codec                string         `json:"codec" gorm:"size:32"`
	TrafficParticipantID int64          `json:"trafficParticipantId" gorm:"index:idx_command_participant"`
	TimestampSeconds     int64          `json:"timestampSeconds"`
	TimestampNanos       uint32         `json:"timestampNanos"`
	Version              string         `json:"version" gorm:"size:32"`
	ActionCount          int            `json:"actionCount"`
	Payload              datatypes.JSON `json:"payload"`
	Actions              []Action       `json:"actions"`
}

func (*Command) TableName() string { return "commands" }

// Action is one action of a command. Geometry holds the targeted path or
// position as WKB; lane changes have none. The target coordinates are only
// set when the receiver is georeferenced.
type Action struct {
	ID                   uint            `json:"id" gorm:"primaryKey"`
	CommandID            uint            `json:"commandId" gorm:"index:idx_action_command"`
	Index                int             `json:"index"`
	ActionID             int64           `json:"actionId" gorm:"index:idx_action_participant_action,priority:2"`
	TrafficParticipantID int64           `json:"trafficParticipantId" gorm:"index:idx_action_participant_action,priority:1"`
	Kind                 string          `json:"kind" gorm:"size:48"`
	Geometry             []byte          `json:"-"`
	HorizontalLength     float64         `json:"horizontalLength"`
	TargetLongitude      sql.NullFloat64 `json:"targetLongitude"`
	TargetLatitude       sql.NullFloat64 `json:"targetLatitude"`
	Detail               datatypes.JSON  `json:"detail"`
}

func (*Action) TableName() string { return "actions" }

// Rejection is a payload that failed decoding, the version check or
// validation.
type Rejection struct {
	ID                   uint           `json:"id" gorm:"primaryKey"`
	SessionID            string         `json:"sessionId" gorm:"size:36;index:idx_rejection_session"`
	ReceivedAt           time.Time      `json:"receivedAt"`
	Source               string         `json:"source" gorm:"size:255"`
	Codec                string         `json:"codec" gorm:"size:32"`
	Stage                string         `json:"stage" gorm:"size:16;index:idx_rejection_stage"`
	TrafficParticipantID sql.NullInt64  `json:"trafficParticipantId"`
	Reasons              datatypes.JSON `json:"reasons"`
	Payload              []byte         `json:"-"`
}

func (*Rejection) TableName() string { return "rejections" }

// ToDBID stores an identifier in a signed column.
func ToDBID(id osi.Identifier) int64 { return int64(id) }

// FromDBID reverses ToDBID.
func FromDBID(v int64) osi.Identifier { return osi.Identifier(uint64(v)) }
