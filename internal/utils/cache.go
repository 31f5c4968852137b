package utils

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// fileStamp identifies one version of a file on disk
type fileStamp struct {
	modTime time.Time
	size    int64
}

func stampOf(path string) (fileStamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileStamp{}, err
	}
	return fileStamp{modTime: info.ModTime(), size: info.Size()}, nil
}

type fileEntry[V any] struct {
	value V
	stamp fileStamp
}

// FileCache memoizes values derived from files, keyed by cleaned path. An
// entry is dropped once the file's modification time or size changes.
// It is safe for concurrent use.
type FileCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]fileEntry[V]

	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats reports the use of a FileCache
type CacheStats struct {
	Entries int
	Hits    int64
	Misses  int64
}

// NewFileCache creates an empty cache
func NewFileCache[V any]() *FileCache[V] {
	return &FileCache[V]{entries: make(map[string]fileEntry[V])}
}

// Get returns the value cached for path if the file has not changed since
func (c *FileCache[V]) Get(path string) (V, bool) {
	path = filepath.Clean(path)

	c.mu.RLock()
	entry, ok := c.entries[path]
	c.mu.RUnlock()

	if ok {
		if stamp, err := stampOf(path); err == nil && stamp == entry.stamp {
			c.hits.Add(1)
			return entry.value, true
		}
		c.Invalidate(path)
	}

	c.misses.Add(1)
	var zero V
	return zero, false
}

// Put caches value for the current version of path
func (c *FileCache[V]) Put(path string, value V) error {
	path = filepath.Clean(path)
	stamp, err := stampOf(path)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.entries[path] = fileEntry[V]{value: value, stamp: stamp}
	c.mu.Unlock()
	return nil
}

// Load returns the cached value for path or computes and caches it.
// Concurrent loads of the same file may both run; the last one is kept.
func (c *FileCache[V]) Load(path string, load func() (V, error)) (V, error) {
	if value, ok := c.Get(path); ok {
		return value, nil
	}
	value, err := load()
	if err != nil {
		return value, err
	}
	// a file removed after loading is simply not cached
	_ = c.Put(path, value)
	return value, nil
}

// Invalidate drops the entry of path
func (c *FileCache[V]) Invalidate(path string) {
	c.mu.Lock()
	delete(c.entries, filepath.Clean(path))
	c.mu.Unlock()
}

// Reset drops every entry and the counters
func (c *FileCache[V]) Reset() {
	c.mu.Lock()
	c.entries = make(map[string]fileEntry[V])
	c.mu.Unlock()
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats returns the entry count and the hit and miss counters
func (c *FileCache[V]) Stats() CacheStats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	return CacheStats{Entries: n, Hits: c.hits.Load(), Misses: c.misses.Load()}
}
