// Package cache holds in-process state shared across commands of a
// session.
package cache

import (
	"slices"
	"sync"

	"github.com/IqraJilani-aai/open-simulation-interface/pkg/osi"
)

// ActionIDCache remembers every action id accepted per traffic participant.
// It satisfies osi.IDRegistry and backs session-scoped uniqueness.
type ActionIDCache struct {
	mu   sync.RWMutex
	seen map[osi.Identifier]map[osi.Identifier]struct{}
}

var _ osi.IDRegistry = (*ActionIDCache)(nil)

func NewActionIDCache() *ActionIDCache {
	return &ActionIDCache{
		seen: make(map[osi.Identifier]map[osi.Identifier]struct{}),
	}
}

// Reserve records ids for participant unless one of them is already
// known, in which case nothing is recorded and the known ids are returned.
func (c *ActionIDCache) Reserve(participant osi.Identifier, ids []osi.Identifier) []osi.Identifier {
	c.mu.Lock()
	defer c.mu.Unlock()

	set := c.seen[participant]
	var dups []osi.Identifier
	for _, id := range ids {
		if _, ok := set[id]; ok {
			dups = append(dups, id)
		}
	}
	if len(dups) > 0 {
		return dups
	}

	if set == nil {
		set = make(map[osi.Identifier]struct{}, len(ids))
		c.seen[participant] = set
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return nil
}

// Seen reports whether id was accepted for participant.
func (c *ActionIDCache) Seen(participant, id osi.Identifier) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.seen[participant][id]
	return ok
}

// Len returns the number of ids held for participant.
func (c *ActionIDCache) Len(participant osi.Identifier) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.seen[participant])
}

// Participants returns the participants with at least one id, ascending.
func (c *ActionIDCache) Participants() []osi.Identifier {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]osi.Identifier, 0, len(c.seen))
	for p := range c.seen {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Reset forgets participant's ids, e.g. when it leaves the simulation.
func (c *ActionIDCache) Reset(participant osi.Identifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.seen, participant)
}

// ResetAll clears the cache for a new session.
func (c *ActionIDCache) ResetAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = make(map[osi.Identifier]map[osi.Identifier]struct{})
}
