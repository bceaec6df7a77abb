package state

import (
	"os"
	"sync"
	"time"

	"go.trai.ch/zerr"
)

// hashCacheEntry pairs a computed digest with the mtime observed when it was
// computed (§3 "Hash cache entries", §4.3).
type hashCacheEntry struct {
	digest string
	mtime  time.Time
}

// hashCache is the path-keyed content-hash cache, guarded by its own
// reader/writer lock separate from the record table's (§5).
type hashCache struct {
	mu      sync.RWMutex
	entries map[string]hashCacheEntry
}

func newHashCache() *hashCache {
	return &hashCache{entries: make(map[string]hashCacheEntry)}
}

// hash returns path's content digest, reusing the cached value if the file's
// mtime has not changed since it was last computed (§4.3, §9 mtime-aliasing
// note).
func (c *hashCache) hash(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to stat file"), "path", path)
	}
	mtime := info.ModTime()

	c.mu.RLock()
	entry, ok := c.entries[path]
	c.mu.RUnlock()
	if ok && entry.mtime.Equal(mtime) {
		return entry.digest, nil
	}

	digest, err := hashFileContent(path)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[path] = hashCacheEntry{digest: digest, mtime: mtime}
	c.mu.Unlock()
	return digest, nil
}

// invalidate drops path's cached entry, forcing recomputation on next read.
func (c *hashCache) invalidate(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

// clear drops every cached entry.
func (c *hashCache) clear() {
	c.mu.Lock()
	c.entries = make(map[string]hashCacheEntry)
	c.mu.Unlock()
}
