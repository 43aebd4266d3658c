package media

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// DurationCache caches media file durations to avoid repeated ffprobe calls.
type DurationCache struct {
	cache map[string]time.Duration
	mu    sync.RWMutex
}

// NewDurationCache creates a new duration cache.
func NewDurationCache() *DurationCache {
	return &DurationCache{
		cache: make(map[string]time.Duration),
	}
}

// Get retrieves a cached duration.
func (c *DurationCache) Get(key string) (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.cache[key]
	return d, ok
}

// Set stores a duration in the cache.
func (c *DurationCache) Set(key string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = d
}

// Size returns the number of cached entries.
func (c *DurationCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// cacheKey ties an entry to the file's size and mtime so a rewritten
// narration file is probed again.
func cacheKey(path string, info os.FileInfo) string {
	return fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
}
