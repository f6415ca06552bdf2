package store

import (
	"os"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/topdownlabs/topdown/internal/row"
)

// snapshotCacheSize bounds how many distinct document paths one cache
// tracks. Orchestrators watching many project roots evict the least
// recently used snapshot and re-read it on the next request.
const snapshotCacheSize = 64

type snapshot struct {
	modTime time.Time
	size    int64
	store   *row.Store
}

// Cache is an explicit, caller-owned snapshot cache keyed by document path
// and modification time. Safe for concurrent use.
type Cache struct {
	mu    sync.Mutex
	snaps *lru.Cache[string, snapshot]
}

// NewCache returns an empty snapshot cache.
func NewCache() *Cache {
	snaps, err := lru.New[string, snapshot](snapshotCacheSize)
	if err != nil {
		// Only reachable with a non-positive size constant.
		panic(err)
	}
	return &Cache{snaps: snaps}
}

// ReloadIfChanged returns the snapshot for the document at path, re-reading
// the file only when its modification time or size differs from the cached
// observation. The returned store is shared and immutable.
func (c *Cache) ReloadIfChanged(path string) (*row.Store, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, ErrNotFound
	}

	c.mu.Lock()
	if snap, ok := c.snaps.Get(path); ok &&
		snap.modTime.Equal(info.ModTime()) && snap.size == info.Size() {
		c.mu.Unlock()
		return snap.store, nil
	}
	c.mu.Unlock()

	s, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.snaps.Add(path, snapshot{modTime: info.ModTime(), size: info.Size(), store: s})
	c.mu.Unlock()
	return s, nil
}

// Row resolves a single row id from the document at path, reloading the
// snapshot if the file changed. A missing document yields ErrNotFound; a
// loaded document without the id yields row.ErrNotFound.
func (c *Cache) Row(path, id string) (row.Row, error) {
	s, err := c.ReloadIfChanged(path)
	if err != nil {
		return row.Row{}, err
	}
	return s.Get(id)
}

// Invalidate drops the cached snapshot for path.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snaps.Remove(path)
}
