// Package storage defines where accepted and rejected traffic commands go.
package storage

import "github.com/IqraJilani-aai/open-simulation-interface/internal/model/core"

// Backend is the interface all storage implementations must satisfy.
// Record calls may arrive concurrently from several dispatcher channels.
type Backend interface {
	Init() error
	Close() error

	StartSession(s *core.Session) error
	EndSession() error

	RecordCommand(r *core.CommandRecord) error
	RecordRejection(r *core.Rejection) error
}

// Exportable is implemented by backends that write a file when a session
// ends.
type Exportable interface {
	ExportedFilePath() string
}
