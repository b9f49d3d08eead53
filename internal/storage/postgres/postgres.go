// Package postgres implements storage.Backend on Postgres. Everything but
// the connection is shared with the gorm backend.
package postgres

import (
	gormstorage "github.com/IqraJilani-aai/open-simulation-interface/internal/storage/gorm"
)

// Backend is the gorm backend bound to a Postgres connection.
type Backend struct {
	*gormstorage.Backend
}

// New wraps an open Postgres connection. See database.OpenPostgres.
func New(deps gormstorage.Dependencies) *Backend {
	return &Backend{Backend: gormstorage.New(deps)}
}
