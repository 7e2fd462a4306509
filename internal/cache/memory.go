package cache

import (
	"context"
	"sync"
)

// MemoryRecentSearches is the process-local store used when Redis is not configured.
type MemoryRecentSearches struct {
	mu      sync.RWMutex
	limit   int
	entries map[string][]string
}

func NewMemoryRecentSearches(limit int) *MemoryRecentSearches {
	return &MemoryRecentSearches{
		limit:   limit,
		entries: make(map[string][]string),
	}
}

func (c *MemoryRecentSearches) Get(_ context.Context, clientID string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.entries[clientID]))
	copy(out, c.entries[clientID])
	return out, nil
}

func (c *MemoryRecentSearches) Push(_ context.Context, clientID, flightIATA string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.entries[clientID]
	updated := make([]string, 0, c.limit)
	updated = append(updated, flightIATA)
	for _, code := range current {
		if len(updated) == c.limit {
			break
		}
		if code != flightIATA {
			updated = append(updated, code)
		}
	}
	c.entries[clientID] = updated
	return nil
}
