package cache

import "sync/atomic"

// SafeCounter counts outcomes shared by all dispatcher channels.
type SafeCounter struct {
	v atomic.Int64
}

func (c *SafeCounter) Value() int64 { return c.v.Load() }

func (c *SafeCounter) Add(n int64) { c.v.Add(n) }

func (c *SafeCounter) Inc() { c.v.Add(1) }

// Swap sets the counter to v and returns the previous value.
func (c *SafeCounter) Swap(v int64) int64 { return c.v.Swap(v) }
