package cache

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flock/backend/internal/domain/consolidation"
	"github.com/flock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

type groupEntry struct {
	groups    []consolidation.Group
	expiresAt time.Time
}

// InMemoryGroupCache is a process-local GroupCache. Expired entries are
// dropped lazily on read.
type InMemoryGroupCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]groupEntry
	clock   shared.Clock

	hits   atomic.Int64
	misses atomic.Int64
}

// NewInMemoryGroupCache creates an empty cache. A nil clock uses the system clock.
func NewInMemoryGroupCache(clock shared.Clock) *InMemoryGroupCache {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &InMemoryGroupCache{
		entries: make(map[uuid.UUID]groupEntry),
		clock:   clock,
	}
}

// Get implements GroupCache
func (c *InMemoryGroupCache) Get(_ context.Context, tenantID uuid.UUID) ([]consolidation.Group, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[tenantID]
	c.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		return nil, false, nil
	}
	if !c.clock.Now().Before(entry.expiresAt) {
		c.mu.Lock()
		if current, still := c.entries[tenantID]; still && current.expiresAt.Equal(entry.expiresAt) {
			delete(c.entries, tenantID)
		}
		c.mu.Unlock()
		c.misses.Add(1)
		return nil, false, nil
	}

	c.hits.Add(1)
	return slices.Clone(entry.groups), true, nil
}

// Set implements GroupCache. A non-positive ttl stores nothing.
func (c *InMemoryGroupCache) Set(_ context.Context, tenantID uuid.UUID, groups []consolidation.Group, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[tenantID] = groupEntry{
		groups:    slices.Clone(groups),
		expiresAt: c.clock.Now().Add(ttl),
	}
	return nil
}

// Invalidate implements GroupCache
func (c *InMemoryGroupCache) Invalidate(_ context.Context, tenantID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, tenantID)
	return nil
}

// Stats returns hit and miss counters
func (c *InMemoryGroupCache) Stats() Stats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Entries: n}
}

var _ GroupCache = (*InMemoryGroupCache)(nil)
