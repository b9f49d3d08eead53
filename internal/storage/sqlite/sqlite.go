// Package sqlitestorage implements storage.Backend on SQLite. It wraps the
// gorm backend; the SQLite-specific parts are opening the database and,
// for in-memory databases, periodic snapshots via VACUUM INTO.
package sqlitestorage

import (
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/IqraJilani-aai/open-simulation-interface/internal/database"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/geo"
	gormstorage "github.com/IqraJilani-aai/open-simulation-interface/internal/storage/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	// Path of the database file. Empty keeps the database in memory.
	Path         string
	DumpPath     string
	DumpInterval time.Duration
	Georef       *geo.Georeference
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db       *gorm.DB
	cfg      Config
	log      zerolog.Logger
	stopChan chan struct{}
	done     chan struct{}
}

func New(cfg Config, log zerolog.Logger) (*Backend, error) {
	db, err := database.OpenSQLite(cfg.Path, log)
	if err != nil {
		return nil, err
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{DB: db, Logger: log, Georef: cfg.Georef}),
		db:      db,
		cfg:     cfg,
		log:     log,
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump loop.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		b.stopChan = make(chan struct{})
		b.done = make(chan struct{})
		go b.dumpLoop()
	}
	return nil
}

// Close stops the dump loop, flushes, and writes a final snapshot.
func (b *Backend) Close() error {
	if b.stopChan != nil {
		close(b.stopChan)
		<-b.done
		b.stopChan = nil
	}
	if err := b.Backend.Close(); err != nil {
		return err
	}
	if b.cfg.DumpPath != "" {
		return b.Dump()
	}
	return nil
}

// Dump flushes queued rows and snapshots the database to DumpPath.
func (b *Backend) Dump() error {
	if err := b.Flush(); err != nil {
		return err
	}
	start := time.Now()
	if err := database.DumpSQLiteToDisk(b.db, b.cfg.DumpPath); err != nil {
		return err
	}
	b.log.Debug().Str("path", b.cfg.DumpPath).Dur("took", time.Since(start)).Msg("Dumped SQLite DB to disk")
	return nil
}

// ExportedFilePath returns the snapshot path, or "" when none is written.
func (b *Backend) ExportedFilePath() string {
	return b.cfg.DumpPath
}

func (b *Backend) dumpLoop() {
	defer close(b.done)
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Dump(); err != nil {
				b.log.Error().Err(err).Msg("Error dumping SQLite DB to disk")
			}
		}
	}
}
