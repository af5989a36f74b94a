package agfsapi

import (
	"context"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// DirCache is a lazily-populated cache of directory listings, keyed by
// normalized absolute path. Unlike the bulk-loaded folder tree a whole
// cloud-drive API can offer, §6.3 of the client surface exposes only
// ls(path); this cache is filled one directory at a time on first access
// and invalidated by any command that mutates that directory.
type DirCache struct {
	mu      sync.RWMutex
	entries map[string][]Entry // dir path -> children
	loaded  map[string]bool
}

func NewDirCache() *DirCache {
	return &DirCache{
		entries: make(map[string][]Entry),
		loaded:  make(map[string]bool),
	}
}

func (c *DirCache) Get(dir string) ([]Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded[dir] {
		return nil, false
	}
	return c.entries[dir], true
}

func (c *DirCache) Put(dir string, children []Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[dir] = children
	c.loaded[dir] = true
}

func (c *DirCache) Invalidate(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, dir)
	delete(c.loaded, dir)
}

// Ensure returns the cached listing for dir, fetching and caching it via
// client.Ls on first access.
func (c *DirCache) Ensure(ctx context.Context, client Client, dir string) ([]Entry, error) {
	if entries, ok := c.Get(dir); ok {
		return entries, nil
	}
	entries, err := client.Ls(ctx, dir)
	if err != nil {
		return nil, err
	}
	c.Put(dir, entries)
	return entries, nil
}

// MatchGlob matches pattern (a single path component, e.g. "*.log")
// against the cached listing of dir, returning matching names in
// lexicographic order. dir's listing must already be cached via Ensure.
func (c *DirCache) MatchGlob(dir, pattern string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var matches []string
	for _, e := range c.entries[dir] {
		if matched, _ := doublestar.Match(pattern, e.Name); matched {
			matches = append(matches, e.Name)
		}
	}
	sort.Strings(matches)
	return matches
}
