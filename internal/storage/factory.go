package storage

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/IqraJilani-aai/open-simulation-interface/internal/config"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/database"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/geo"
	gormstorage "github.com/IqraJilani-aai/open-simulation-interface/internal/storage/gorm"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/storage/memory"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/storage/postgres"
	sqlitestorage "github.com/IqraJilani-aai/open-simulation-interface/internal/storage/sqlite"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/storage/websocket"
)

// NewBackend creates the backend selected by cfg.Type. Backends are not
// initialized; call Init. georef is optional and only used by the SQL
// backends.
func NewBackend(cfg config.StorageConfig, db config.DBConfig, georef *geo.Georeference, log zerolog.Logger) (Backend, error) {
	switch cfg.Type {
	case "memory", "":
		return memory.New(cfg.Memory), nil
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{
			Path:         cfg.SQLite.Path,
			DumpPath:     cfg.SQLite.DumpPath,
			DumpInterval: cfg.SQLite.DumpInterval,
			Georef:       georef,
		}, log)
	case "postgres":
		conn, err := database.OpenPostgres(db, log)
		if err != nil {
			return nil, err
		}
		return postgres.New(gormstorage.Dependencies{DB: conn, Logger: log, Georef: georef}), nil
	case "websocket":
		return websocket.New(websocket.Config{URL: cfg.WebSocket.URL, Secret: cfg.WebSocket.Secret}, log), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
