package journey

import (
	"runtime"
	"sync"
	"time"
	"weak"

	"railway.tracker.org/internal/models"
)

// Cache maps journey ids to weakly held handles so every view of the same
// journey shares one identity without the cache keeping it alive.
type Cache struct {
	deps Deps

	mu      sync.Mutex
	entries map[string]weak.Pointer[Journey]
}

func NewCache(deps Deps) *Cache {
	return &Cache{
		deps:    deps.withDefaults(),
		entries: map[string]weak.Pointer[Journey]{},
	}
}

// GetOrCreate returns the live handle for data.ID updated with data, or a new
// handle when none is alive.
func (c *Cache) GetOrCreate(data models.Journey) *Journey {
	c.mu.Lock()
	j := c.live(data.ID)
	if j == nil {
		j = c.insert(data, true)
		c.mu.Unlock()
		return j
	}
	c.mu.Unlock()

	// outside the lock: Update notifies observers
	j.Update(data)
	return j
}

// Restore returns a handle for persisted data. A live handle wins over the
// stored copy, and restored handles count as never refreshed.
func (c *Cache) Restore(data models.Journey) *Journey {
	c.mu.Lock()
	defer c.mu.Unlock()

	if j := c.live(data.ID); j != nil {
		return j
	}
	return c.insert(data, false)
}

// Get returns the live handle for id.
func (c *Cache) Get(id string) (*Journey, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	j := c.live(id)
	return j, j != nil
}

// Len counts live handles.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, wp := range c.entries {
		if wp.Value() != nil {
			n++
		}
	}
	return n
}

func (c *Cache) live(id string) *Journey {
	wp, ok := c.entries[id]
	if !ok {
		return nil
	}
	return wp.Value()
}

func (c *Cache) insert(data models.Journey, fresh bool) *Journey {
	var refreshedAt time.Time
	if fresh {
		refreshedAt = c.deps.Now()
	}
	j := newJourney(data, refreshedAt, c.deps)

	c.entries[data.ID] = weak.Make(j)
	runtime.AddCleanup(j, c.evict, data.ID)
	return j
}

// evict drops the entry for id if it no longer points at a live handle; a
// newer handle may have replaced it since the old one died.
func (c *Cache) evict(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if wp, ok := c.entries[id]; ok && wp.Value() == nil {
		delete(c.entries, id)
	}
}
