// Package cache manages the install cache: the directory that holds the
// canonical cached artifact of every resolved distribution.
//
// Entries are named deterministically from a distribution's identity (see
// [EntryName]), so every translator that resolves the same name, version,
// interpreter and platform writes the same path. Writes land in a temporary
// sibling file that is renamed into place, which makes concurrent writers
// converge on one complete entry instead of interleaving. There is no
// locking; two writers racing on the same entry both succeed and the last
// rename wins.
package cache

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matzehuels/distcache/pkg/link"
	"github.com/matzehuels/distcache/pkg/observability"
)

// Dir is an install cache directory.
type Dir struct {
	path      string
	ephemeral bool
}

// Open returns the install cache rooted at path, creating the directory if
// needed. An empty path creates a fresh temporary directory that lives for
// the rest of the process; see [Dir.Ephemeral].
func Open(path string) (*Dir, error) {
	if path == "" {
		tmp, err := os.MkdirTemp("", "distcache-")
		if err != nil {
			return nil, fmt.Errorf("create install cache: %w", err)
		}
		return &Dir{path: tmp, ephemeral: true}, nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create install cache: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &Dir{path: abs}, nil
}

// Path returns the cache directory.
func (d *Dir) Path() string { return d.path }

// Ephemeral reports whether the directory was created on demand.
func (d *Dir) Ephemeral() bool { return d.ephemeral }

// EntryName returns the deterministic cache entry filename for a
// distribution identity.
func EntryName(name, version, python, platform string) string {
	return link.BinaryName(link.Identity{
		Name:     name,
		Version:  version,
		Python:   python,
		Platform: platform,
	})
}

// Entry returns the full path of the named entry.
func (d *Dir) Entry(name string) string {
	return filepath.Join(d.path, name)
}

// Lookup reports whether the named entry exists.
func (d *Dir) Lookup(ctx context.Context, name string) (string, bool) {
	path := d.Entry(name)
	if _, err := os.Stat(path); err != nil {
		observability.Cache().OnCacheMiss(ctx, "dist")
		return "", false
	}
	observability.Cache().OnCacheHit(ctx, "dist")
	return path, true
}

// Put atomically writes the named entry using write and returns its path.
// An existing entry is replaced.
func (d *Dir) Put(ctx context.Context, name string, write func(io.Writer) error) (string, error) {
	path := d.Entry(name)
	n, err := WriteFileAtomic(path, write)
	if err != nil {
		return "", err
	}
	observability.Cache().OnCacheSet(ctx, "dist", int(n))
	return path, nil
}

// Entries lists the distribution entries in the cache, sorted by name.
// Temporary files of in-flight writes are skipped.
func (d *Dir) Entries() ([]string, error) {
	des, err := os.ReadDir(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, de := range des {
		if strings.HasPrefix(de.Name(), ".") {
			continue
		}
		if strings.HasSuffix(de.Name(), link.BinaryExt) {
			names = append(names, de.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Clear removes every entry and returns how many were removed.
func (d *Dir) Clear() (int, error) {
	des, err := os.ReadDir(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	count := 0
	for _, de := range des {
		if err := os.RemoveAll(filepath.Join(d.path, de.Name())); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// Remove deletes the cache directory itself. Only meaningful for ephemeral
// caches; callers that supplied the path own its lifetime.
func (d *Dir) Remove() error {
	return os.RemoveAll(d.path)
}
