package httputil

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/matzehuels/distcache/pkg/cache"
)

// ErrExpired is returned by [Cache.Get] when an entry exists but is older
// than the cache TTL. The stale entry stays on disk until overwritten.
var ErrExpired = errors.New("cache entry expired")

const entryExt = ".json"

// Cache is a file-backed cache of JSON-marshalable values. A Cache value
// is not safe for concurrent use, but several caches (and processes) may
// share one directory.
type Cache struct {
	dir    string
	ttl    time.Duration
	prefix string
	now    func() time.Time
}

type envelope struct {
	StoredAt time.Time       `json:"stored_at"`
	Value    json.RawMessage `json:"value"`
}

// DefaultDir returns the default response cache directory.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "distcache", "http"), nil
}

// NewCache creates a Cache in dir, or in [DefaultDir] when dir is empty.
// A ttl of zero disables expiry.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir, ttl: ttl, now: time.Now}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// TTL returns the entry lifetime. Zero means entries never expire.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get loads the entry for key into v. It returns (false, nil) on a miss and
// (false, ErrExpired) for a stale entry.
func (c *Cache) Get(key string, v any) (bool, error) {
	data, err := os.ReadFile(c.keyPath(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return false, err
	}
	if c.ttl > 0 && c.now().Sub(env.StoredAt) > c.ttl {
		return false, ErrExpired
	}
	if err := json.Unmarshal(env.Value, v); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores v under key, replacing any existing entry.
func (c *Cache) Set(key string, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data, err := json.Marshal(envelope{StoredAt: c.now().UTC(), Value: value})
	if err != nil {
		return err
	}
	_, err = cache.WriteFileAtomic(c.keyPath(key), func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	return err
}

// Namespace returns a view of the cache whose keys are prefixed. Views
// share the directory and TTL; namespaces nest.
func (c *Cache) Namespace(prefix string) *Cache {
	return &Cache{dir: c.dir, ttl: c.ttl, prefix: c.prefix + prefix, now: c.now}
}

// Clear removes every entry in the cache directory, regardless of
// namespace, and reports how many were removed.
func (c *Cache) Clear() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), entryExt) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (c *Cache) keyPath(key string) string {
	sum := blake3.Sum256([]byte(c.prefix + key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+entryExt)
}
