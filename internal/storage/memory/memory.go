// Package memory keeps a session's commands in memory and writes them to
// a JSON (optionally gzipped) file when the session ends.
package memory

import (
	"errors"
	"sync"

	"github.com/IqraJilani-aai/open-simulation-interface/internal/config"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/model/core"
)

// ErrNoSession is returned by EndSession when no session was started.
var ErrNoSession = errors.New("no active session")

// Backend stores session data in memory and exports to JSON
type Backend struct {
	cfg     config.MemoryConfig
	session *core.Session

	commands   []core.CommandRecord
	rejections []core.Rejection

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

func (b *Backend) Init() error {
	return nil
}

// Close exports the active session, if any.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session == nil {
		return nil
	}
	return b.endSession()
}

// StartSession discards anything recorded so far and begins a new session.
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cp := *s
	b.session = &cp
	b.commands = nil
	b.rejections = nil
	return nil
}

// EndSession exports the session and clears it.
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session == nil {
		return ErrNoSession
	}
	return b.endSession()
}

func (b *Backend) endSession() error {
	if err := b.exportJSON(); err != nil {
		return err
	}
	b.session = nil
	return nil
}

func (b *Backend) RecordCommand(r *core.CommandRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commands = append(b.commands, *r)
	return nil
}

func (b *Backend) RecordRejection(r *core.Rejection) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejections = append(b.rejections, *r)
	return nil
}

// Commands returns the accepted commands of the current session.
func (b *Backend) Commands() []core.CommandRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.CommandRecord(nil), b.commands...)
}

// Rejections returns the rejections of the current session.
func (b *Backend) Rejections() []core.Rejection {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.Rejection(nil), b.rejections...)
}

// ExportedFilePath returns the file written by the last EndSession.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
