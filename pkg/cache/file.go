package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
)

// Ext is the file extension of build space cache entries.
const Ext = ".cache"

// FileCache stores entries as files below a directory.
//
// A cache from [NewFileCache] hashes keys into a two-level layout and keeps
// an expiry with each entry. A cache from [NewBuildSpaceCache] writes the raw
// value to <dir>/<key>.cache, which is readable by hand and does not expire.
type FileCache struct {
	dir  string
	flat bool
}

// NewFileCache creates a hashed file cache in dir, creating dir if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// NewBuildSpaceCache returns a flat cache in a package's build space. The
// directory is created on the first Set.
func NewBuildSpaceCache(buildSpace string) *FileCache {
	return &FileCache{dir: buildSpace, flat: true}
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

type cacheEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Get retrieves a value from the cache.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if c.flat {
		return data, true, nil
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		_ = os.Remove(path)
		return nil, false, nil
	}
	if !entry.ExpiresAt.IsZero() && time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return entry.Data, true, nil
}

// Set stores a value in the cache. The file is replaced atomically, so a
// concurrent reader sees either the old or the new value.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if !c.flat {
		entry := cacheEntry{Data: data}
		if ttl > 0 {
			entry.ExpiresAt = time.Now().Add(ttl)
		}
		var err error
		if data, err = json.Marshal(entry); err != nil {
			return err
		}
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}

// Delete removes a value from the cache.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close does nothing for file cache.
func (c *FileCache) Close() error { return nil }

// Clear removes every entry of a flat cache and returns the removed keys.
// Other files in the directory are left alone.
func (c *FileCache) Clear() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Ext) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return keys, err
		}
		keys = append(keys, strings.TrimSuffix(e.Name(), Ext))
	}
	return keys, nil
}

func (c *FileCache) path(key string) string {
	if c.flat {
		return filepath.Join(c.dir, key+Ext)
	}
	hash := Hash([]byte(key))
	return filepath.Join(c.dir, hash[:2], hash[2:]+".json")
}

var _ Cache = (*FileCache)(nil)
