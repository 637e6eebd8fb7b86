// Package streak persists the one piece of on-disk state the core owns:
// a per-username timestamp of the last watch-streak bonus claimed, so a
// restart doesn't immediately re-select a streamer the watch scheduler's
// STREAK priority already paid out for within the cache's TTL.
package streak

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"
)

const DefaultTTL = 6 * time.Hour

type entry struct {
	LastStreakTimestamp int64 `json:"last_streak_timestamp"`
}

// Cache is the in-memory mirror of the on-disk JSON file, written back
// only when dirty so a quiet process doesn't churn the filesystem.
type Cache struct {
	path  string
	ttl   time.Duration
	mu    sync.Mutex
	data  map[string]entry
	dirty bool
}

// Load reads path if it exists; a missing file is not an error, it just
// starts the cache empty.
func Load(path string, ttl time.Duration) (*Cache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := &Cache{path: path, ttl: ttl, data: make(map[string]entry)}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(raw, &c.data); err != nil {
		return nil, err
	}
	return c, nil
}

// Recent reports whether username claimed a watch-streak bonus within the
// cache's TTL, meaning the watch scheduler should not prioritize it again
// purely for the streak bonus just yet.
func (c *Cache) Recent(username string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[username]
	if !ok {
		return false
	}
	return time.Since(time.Unix(e.LastStreakTimestamp, 0)) < c.ttl
}

// Touch records that username just claimed its watch-streak bonus now.
func (c *Cache) Touch(username string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[username] = entry{LastStreakTimestamp: time.Now().Unix()}
	c.dirty = true
}

// Flush rewrites the cache file if anything changed since the last Flush.
func (c *Cache) Flush() error {
	c.mu.Lock()
	if !c.dirty {
		c.mu.Unlock()
		return nil
	}
	data, err := json.MarshalIndent(c.data, "", "  ")
	c.dirty = false
	c.mu.Unlock()

	if err != nil {
		return err
	}

	if err := os.WriteFile(c.path, data, 0644); err != nil {
		slog.Error("streak: failed to write cache", "path", c.path, "error", err)
		return err
	}
	return nil
}
