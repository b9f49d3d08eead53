// Package gormstorage implements storage.Backend on gorm. Records are
// converted to rows immediately and written in batches by a background
// writer; sqlite and postgres wrap it.
package gormstorage

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/IqraJilani-aai/open-simulation-interface/internal/database"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/geo"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/model"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/model/convert"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/model/core"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/queue"
)

const (
	DefaultFlushInterval = 2 * time.Second
	DefaultBatchSize     = 500
)

// ErrNoSession is returned by EndSession when no session was started.
var ErrNoSession = errors.New("no active session")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	// DB may be nil, in which case records stay queued. Used in tests.
	DB            *gorm.DB
	Logger        zerolog.Logger
	FlushInterval time.Duration
	BatchSize     int
	// Georef, when set, adds WGS84 target coordinates to action rows.
	Georef *geo.Georeference
}

// Backend implements storage.Backend with queue-based batch writes.
type Backend struct {
	deps       Dependencies
	commands   *queue.Queue[model.Command]
	rejections *queue.Queue[model.Rejection]
	sessionID  atomic.Value

	flushMu  sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
}

func New(deps Dependencies) *Backend {
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	if deps.BatchSize <= 0 {
		deps.BatchSize = DefaultBatchSize
	}
	b := &Backend{
		deps:       deps,
		commands:   queue.New[model.Command](),
		rejections: queue.New[model.Rejection](),
	}
	b.sessionID.Store("")
	return b
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init migrates the schema and starts the writer.
func (b *Backend) Init() error {
	if b.deps.DB != nil {
		if err := database.Migrate(b.deps.DB, b.deps.Logger); err != nil {
			return err
		}
	}

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	go b.writer()
	return nil
}

// Close stops the writer and flushes what is left.
func (b *Backend) Close() error {
	if b.stopChan != nil {
		close(b.stopChan)
		<-b.done
		b.stopChan = nil
	}
	return b.Flush()
}

// StartSession inserts the session row synchronously so that command rows
// can reference it.
func (b *Backend) StartSession(s *core.Session) error {
	if b.deps.DB != nil {
		row := convert.SessionToModel(*s)
		if err := b.deps.DB.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
	}
	b.sessionID.Store(s.ID)
	b.deps.Logger.Info().Str("session", s.ID).Msg("Session started")
	return nil
}

// EndSession flushes queued rows and stamps the session's end time.
func (b *Backend) EndSession() error {
	id := b.sessionID.Load().(string)
	if id == "" {
		return ErrNoSession
	}
	if err := b.Flush(); err != nil {
		return err
	}
	if b.deps.DB != nil {
		err := b.deps.DB.Model(&model.Session{}).
			Where("id = ?", id).
			Update("ended_at", time.Now().UTC()).Error
		if err != nil {
			return fmt.Errorf("failed to close session %s: %w", id, err)
		}
	}
	b.sessionID.Store("")
	b.deps.Logger.Info().Str("session", id).Msg("Session ended")
	return nil
}

// SessionID returns the active session id, or "".
func (b *Backend) SessionID() string {
	return b.sessionID.Load().(string)
}

// RecordCommand converts and queues an accepted command.
func (b *Backend) RecordCommand(r *core.CommandRecord) error {
	row, err := convert.CommandToModel(*r, b.deps.Georef)
	if err != nil {
		return err
	}
	if row.SessionID == "" {
		row.SessionID = b.SessionID()
	}
	b.commands.Push(row)
	return nil
}

// RecordRejection converts and queues a rejection.
func (b *Backend) RecordRejection(r *core.Rejection) error {
	row := convert.RejectionToModel(*r)
	if row.SessionID == "" {
		row.SessionID = b.SessionID()
	}
	b.rejections.Push(row)
	return nil
}

// Pending returns the number of queued commands and rejections.
func (b *Backend) Pending() (commands, rejections int) {
	return b.commands.Len(), b.rejections.Len()
}

// Flush writes every queued row now.
func (b *Backend) Flush() error {
	if b.deps.DB == nil {
		return nil
	}
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	return errors.Join(
		writeQueue(b.deps.DB, b.commands, b.deps.BatchSize),
		writeQueue(b.deps.DB, b.rejections, b.deps.BatchSize),
	)
}

// writeQueue drains q in batches of size, one transaction per batch. A
// failed batch is put back and the error returned.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], size int) error {
	for {
		items := q.Take(size)
		if len(items) == 0 {
			return nil
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&items).Error
		})
		if err != nil {
			q.Requeue(items...)
			return fmt.Errorf("failed to write %d %T rows: %w", len(items), items[0], err)
		}
	}
}

func (b *Backend) writer() {
	defer close(b.done)
	if b.deps.DB == nil {
		<-b.stopChan
		return
	}

	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				b.deps.Logger.Error().Err(err).Msg("DB writer flush failed")
			}
		}
	}
}
