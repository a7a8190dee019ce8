// Package cache remembers, per repository, where the output for a commit
// already exists so the same commit is never generated twice.
//
// The table is one JSON object per repository mapping commit identity to an
// output directory, stored at <cache_path>/<unique_name>.json. Entries whose
// directory has disappeared are treated as misses but are not pruned.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
	"git.home.luguber.info/inful/docversions/internal/fsutil"
)

// Cache is the persistent commit -> output path table of one repository.
type Cache struct {
	mu      sync.Mutex
	path    string
	entries map[string]string
	closed  bool
	isDir   func(string) bool
}

// Entry is one cache record.
type Entry struct {
	Commit string `json:"commit"`
	Path   string `json:"path"`
	Live   bool   `json:"live"` // recorded directory still exists
}

// Open loads <cachePath>/<uniqueName>.json. A missing file yields an empty table.
func Open(cachePath, uniqueName string) (*Cache, error) {
	c := &Cache{
		path:    filepath.Join(cachePath, uniqueName+".json"),
		entries: make(map[string]string),
		isDir:   fsutil.IsDir,
	}
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryCache, "failed to read cache table").
			Fatal().
			WithContext("path", c.path).
			Build()
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, errors.WrapError(err, errors.CategoryCache, "cache table is not valid JSON").
			Fatal().
			WithContext("path", c.path).
			Build()
	}
	if c.entries == nil {
		// the file contained JSON null
		c.entries = make(map[string]string)
	}
	return c, nil
}

// Path returns the location of the backing file.
func (c *Cache) Path() string { return c.path }

// Match reports whether commit has a recorded output directory that still exists.
func (c *Cache) Match(commit string) bool {
	_, ok := c.Lookup(commit)
	return ok
}

// Lookup returns the recorded output directory for commit when Match holds.
func (c *Cache) Lookup(commit string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	path, ok := c.entries[commit]
	if !ok || !c.isDir(path) {
		return "", false
	}
	return path, true
}

// Update records that commit's output lives at path. path must be an existing
// directory; anything else is a caller bug and is reported as a fatal internal error.
func (c *Cache) Update(commit, path string) error {
	if !c.isDir(path) {
		return errors.InternalError("cache update with a path that is not an existing directory").
			WithContext("commit", commit).
			WithContext("path", path).
			Build()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.InternalError("cache update after close").
			WithContext("commit", commit).
			Build()
	}
	c.entries[commit] = path
	return nil
}

// Claim records commit at path like Update and forgets every other commit
// recorded at the same path, since that directory no longer holds their output.
// It returns the number of entries dropped.
func (c *Cache) Claim(commit, path string) (int, error) {
	if err := c.Update(commit, path); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := 0
	for other, p := range c.entries {
		if other != commit && filepath.Clean(p) == filepath.Clean(path) {
			delete(c.entries, other)
			dropped++
		}
	}
	return dropped, nil
}

// Len returns the number of recorded entries, live or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Entries returns every record sorted by commit.
func (c *Cache) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, 0, len(c.entries))
	for commit, path := range c.entries {
		out = append(out, Entry{Commit: commit, Path: path, Live: c.isDir(path)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Commit < out[j].Commit })
	return out
}

// Close writes the table back to disk. It is safe to call more than once;
// only the first call writes. A table that was never modified is still written
// so the file exists after the first session.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	// encoding/json sorts map keys, which keeps the file diff-friendly
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to encode cache table").Build()
	}
	if err := fsutil.WriteFileAtomic(c.path, append(data, '\n'), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryCache, "failed to write cache table").
			Fatal().
			WithContext("path", c.path).
			Build()
	}
	return nil
}
