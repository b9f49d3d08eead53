// Package monitor periodically reports receiver progress to the log and a
// status file.
package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/IqraJilani-aai/open-simulation-interface/internal/logging"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/session"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/worker"
	"github.com/IqraJilani-aai/open-simulation-interface/pkg/osi"
)

// DefaultInterval is used when Dependencies.Interval is zero.
const DefaultInterval = time.Second

// PendingReporter is implemented by backends that buffer writes.
type PendingReporter interface {
	Pending() (commands, rejections int)
}

// StatsSource reports pipeline outcome counters. *worker.Manager
// implements it.
type StatsSource interface {
	Stats() worker.Stats
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	LogManager *logging.SlogManager
	Session    *session.Context
	Worker     StatsSource
	Backend    any    // checked for PendingReporter
	StatusFile string // optional
	Interval   time.Duration
}

// Status is one snapshot.
type Status struct {
	Time              time.Time    `json:"time"`
	SessionID         string       `json:"sessionId"`
	Stats             worker.Stats `json:"stats"`
	PendingCommands   int          `json:"pendingCommands"`
	PendingRejections int          `json:"pendingRejections"`
	// Participants holding reserved action ids, session scope only.
	Participants []osi.Identifier `json:"participants,omitempty"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Snapshot returns the current status.
func (s *Service) Snapshot() Status {
	st := Status{Time: time.Now().UTC()}
	if s.deps.Session != nil {
		st.SessionID = s.deps.Session.ID()
		st.Participants = s.deps.Session.Registry().Participants()
	}
	if s.deps.Worker != nil {
		st.Stats = s.deps.Worker.Stats()
	}
	if p, ok := s.deps.Backend.(PendingReporter); ok {
		st.PendingCommands, st.PendingRejections = p.Pending()
	}
	return st
}

// WriteStatusFile replaces the status file with st.
func (s *Service) WriteStatusFile(st Status) error {
	if s.deps.StatusFile == "" {
		return nil
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.deps.StatusFile, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing status file: %w", err)
	}
	return nil
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting status monitor", "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		var last worker.Stats
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				st := s.Snapshot()
				if err := s.WriteStatusFile(st); err != nil {
					logger.Error("Error writing status file", "error", err)
				}
				if st.Stats != last {
					logger.Info("Receiver status",
						"session", st.SessionID,
						"accepted", st.Stats.Accepted,
						"rejected", st.Stats.Rejected,
						"pendingCommands", st.PendingCommands,
						"pendingRejections", st.PendingRejections,
					)
					last = st.Stats
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
