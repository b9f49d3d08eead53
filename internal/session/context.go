// Package session tracks the receiver session that incoming commands are
// attributed to, together with the action ids it has accepted.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/IqraJilani-aai/open-simulation-interface/internal/cache"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/model/core"
	"github.com/IqraJilani-aai/open-simulation-interface/pkg/osi"
)

var (
	ErrActive   = errors.New("session already active")
	ErrInactive = errors.New("no active session")
)

// Settings are copied into every session record.
type Settings struct {
	Codec      string
	Uniqueness osi.UniquenessScope
	Versions   osi.VersionRange
}

// Context holds the current session.
type Context struct {
	mu       sync.RWMutex
	settings Settings
	current  *core.Session
	ids      *cache.ActionIDCache
	now      func() time.Time
}

func NewContext(settings Settings) *Context {
	return &Context{
		settings: settings,
		ids:      cache.NewActionIDCache(),
		now:      time.Now,
	}
}

// Begin opens a new session with a random id. Action ids of earlier
// sessions are forgotten.
func (c *Context) Begin() (*core.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		return nil, ErrActive
	}

	c.ids.ResetAll()
	c.current = &core.Session{
		ID:         uuid.NewString(),
		StartedAt:  c.now().UTC(),
		Codec:      c.settings.Codec,
		Uniqueness: c.settings.Uniqueness.String(),
		VersionMin: c.settings.Versions.Min.String(),
		VersionMax: c.settings.Versions.Max.String(),
	}
	s := *c.current
	return &s, nil
}

// End stamps the end time on the active session, closes it, and returns it.
func (c *Context) End() (*core.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil, ErrInactive
	}
	s := c.current
	s.EndedAt = c.now().UTC()
	c.current = nil
	return s, nil
}

// Current returns a copy of the active session, or nil.
func (c *Context) Current() *core.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil
	}
	s := *c.current
	return &s
}

// ID returns the active session id, or "".
func (c *Context) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return ""
	}
	return c.current.ID
}

// Settings returns the settings sessions are opened with.
func (c *Context) Settings() Settings {
	return c.settings
}

// Registry returns the session's action id registry.
func (c *Context) Registry() *cache.ActionIDCache {
	return c.ids
}

// Validator builds the validator for this context: version check always,
// plus the id registry under session scope.
func (c *Context) Validator() *osi.Validator {
	opts := []osi.Option{osi.WithVersionCheck(c.settings.Versions)}
	if c.settings.Uniqueness == osi.ScopeSession {
		opts = append(opts, osi.WithSessionRegistry(c.ids))
	}
	return osi.NewValidator(opts...)
}
