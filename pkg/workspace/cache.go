package workspace

import (
	"path/filepath"
	"sync"

	"github.com/matzehuels/wsbuild/pkg/manifest"
)

// ManifestCache memoizes parsed manifests by absolute package directory.
//
// A cache belongs to one resolution pass: packages edited on disk after the
// first lookup are not re-read. The zero value is not usable; use
// [NewManifestCache]. A nil *ManifestCache is valid and never caches.
type ManifestCache struct {
	mu      sync.Mutex
	entries map[string]*manifest.Package
	hits    int
	misses  int
}

// NewManifestCache returns an empty cache.
func NewManifestCache() *ManifestCache {
	return &ManifestCache{entries: make(map[string]*manifest.Package)}
}

// Load returns the cached package for dir or parses it with parse. Failed
// parses are not cached.
func (c *ManifestCache) Load(dir string, parse func(string) (*manifest.Package, error)) (*manifest.Package, error) {
	if c == nil {
		return parse(dir)
	}
	key, err := filepath.Abs(dir)
	if err != nil {
		key = filepath.Clean(dir)
	}

	c.mu.Lock()
	if p, ok := c.entries[key]; ok {
		c.hits++
		c.mu.Unlock()
		return p, nil
	}
	c.misses++
	c.mu.Unlock()

	p, err := parse(dir)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = p
	c.mu.Unlock()
	return p, nil
}

// Len returns the number of cached manifests.
func (c *ManifestCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns the number of lookups served from the cache and the number
// that had to parse.
func (c *ManifestCache) Stats() (hits, misses int) {
	if c == nil {
		return 0, 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
