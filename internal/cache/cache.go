// Package cache implements the build result cache: a per-row record of the
// input digest a result was produced from and the output digest produced.
// Invalidation is purely content-driven; entries never expire by time or by
// graph shape, so correctness rests on the hash engine's propagation
// property.
package cache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry is one cached result.
type Entry struct {
	InputHash  string    `json:"input_hash"`
	OutputHash string    `json:"output_hash"`
	Timestamp  time.Time `json:"timestamp"`
}

// ResultCache maps row id to the last successful result. Safe for
// concurrent use; persistence is explicit via Save/Load.
type ResultCache struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// New returns an empty cache.
func New() *ResultCache {
	return &ResultCache{entries: make(map[string]Entry)}
}

// Get returns the cached output digest for (id, inputHash). A stored entry
// with a different input digest is a miss, never updated in place.
func (c *ResultCache) Get(id, inputHash string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok || e.InputHash != inputHash {
		return "", false
	}
	return e.OutputHash, true
}

// Put records a result for id, overwriting any prior entry.
func (c *ResultCache) Put(id, inputHash, outputHash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = Entry{
		InputHash:  inputHash,
		OutputHash: outputHash,
		Timestamp:  time.Now().UTC(),
	}
}

// Invalidate drops the entry for id, if any.
func (c *ResultCache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// Clear drops every entry.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
}

// Len returns the number of stored entries.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Load replaces the cache contents from the JSON file at path. A missing
// file leaves the cache empty and is not an error; a corrupt file is.
func (c *ResultCache) Load(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		c.Clear()
		return nil
	}
	if err != nil {
		return err
	}
	entries := make(map[string]Entry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = entries
	return nil
}

// Save persists the cache to path as JSON. The write goes through a
// temporary file and an atomic rename so concurrent runs racing on the same
// cache file see either the old or the new contents, never a torn write.
func (c *ResultCache) Save(path string) error {
	c.mu.Lock()
	data, err := json.MarshalIndent(c.entries, "", "  ")
	c.mu.Unlock()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".cache-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
