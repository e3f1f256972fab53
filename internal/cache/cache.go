// Package cache keeps frozen indexes on disk so unchanged translation units
// skip the build.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"cnav/internal/index"
)

// Key identifies a build: the same content under the same macro
// configuration yields the same index.
type Key [32]byte

func (k Key) String() string { return hex.EncodeToString(k[:]) }

// KeyFor hashes the file content hash together with path and -D/-U flags.
// Flag order does not matter.
func KeyFor(path string, content [32]byte, defines, undefines []string) Key {
	h := sha256.New()
	_, _ = h.Write(content[:])
	_, _ = h.Write([]byte(path))
	for _, group := range [][]string{defines, undefines} {
		_, _ = h.Write([]byte{0})
		for _, s := range slices.Sorted(slices.Values(group)) {
			_, _ = h.Write([]byte(s))
			_, _ = h.Write([]byte{0})
		}
	}
	var out Key
	copy(out[:], h.Sum(nil))
	return out
}

// Disk is a directory of msgpack-encoded indexes. Safe for concurrent use.
type Disk struct {
	mu  sync.RWMutex
	dir string
}

// Open uses dir, creating it when missing.
func Open(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &Disk{dir: dir}, nil
}

// OpenDefault uses $XDG_CACHE_HOME/app, or ~/.cache/app.
func OpenDefault(app string) (*Disk, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cache: %w", err)
		}
		base = filepath.Join(home, ".cache")
	}
	return Open(filepath.Join(base, app))
}

func (c *Disk) Dir() string { return c.dir }

func (c *Disk) pathFor(key Key) string {
	s := key.String()
	return filepath.Join(c.dir, "units", s[:2], s+".mp")
}

// Put writes ix under key, replacing any previous entry atomically.
func (c *Disk) Put(key Key, ix *index.Index) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()
	if err = ix.Encode(f); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// Get returns the index stored under key. A missing entry is (nil, false,
// nil); an unreadable or outdated one is an error and should be rebuilt.
func (c *Disk) Get(key Key) (*index.Index, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()
	ix, err := index.Decode(f)
	if err != nil {
		return nil, false, err
	}
	return ix, true, nil
}

// DropAll removes every entry.
func (c *Disk) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}
