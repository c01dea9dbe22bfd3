package fetch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// DefaultCacheTTL is how long a fetched release list is served without
// asking the sources again.
const DefaultCacheTTL = time.Hour

// CacheFileName is the file name of the release list cache.
const CacheFileName = "releases.json"

// Cache persists the last fetched release list.
type Cache struct {
	fs   afero.Fs
	path string
	ttl  time.Duration
	now  func() time.Time
}

type cacheFile struct {
	FetchedAt time.Time `json:"fetched_at"`
	Releases  []string  `json:"releases"`
}

// NewCache returns a cache stored at dir/releases.json. A ttl of zero uses
// DefaultCacheTTL.
func NewCache(fsys afero.Fs, dir string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{fs: fsys, path: filepath.Join(dir, CacheFileName), ttl: ttl, now: time.Now}
}

// Load returns the cached list and whether it is still fresh. A missing
// cache returns an error matching fs.ErrNotExist.
func (c *Cache) Load() (names []string, fresh bool, err error) {
	data, err := afero.ReadFile(c.fs, c.path)
	if err != nil {
		return nil, false, err
	}
	var f cacheFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", c.path, err)
	}
	age := c.now().Sub(f.FetchedAt)
	return f.Releases, age >= 0 && age < c.ttl, nil
}

// Store replaces the cached list.
func (c *Cache) Store(names []string) error {
	data, err := json.MarshalIndent(cacheFile{FetchedAt: c.now().UTC(), Releases: names}, "", "  ")
	if err != nil {
		return err
	}
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := afero.WriteFile(c.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if err := c.fs.Rename(tmp, c.path); err != nil {
		_ = c.fs.Remove(tmp)
		return fmt.Errorf("rename cache: %w", err)
	}
	return nil
}

// Clear removes the cache file. A missing file is not an error.
func (c *Cache) Clear() error {
	if err := c.fs.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
