package translate

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/distcache/pkg/archive"
	"github.com/matzehuels/distcache/pkg/install"
	"github.com/matzehuels/distcache/pkg/link"
)

type fakeTranslator struct {
	result   Result
	calls    int
	attempts []string
}

func (f *fakeTranslator) Translate(ctx context.Context, _ *link.Link) Result {
	f.calls++
	f.attempts = append(f.attempts, AttemptID(ctx))
	return f.result
}

type fakeFetcher struct {
	mu    sync.Mutex
	fn    func(l *link.Link, dest string) (string, error)
	calls int
	dests []string
}

func (f *fakeFetcher) Fetch(_ context.Context, l *link.Link, dest string, _ time.Duration) (string, error) {
	f.mu.Lock()
	f.calls++
	f.dests = append(f.dests, dest)
	f.mu.Unlock()
	return f.fn(l, dest)
}

type fakeBuilder struct {
	fn     func(src string, strict bool) (*install.Build, error)
	strict []bool
}

func (f *fakeBuilder) Build(_ context.Context, src string, strict bool) (*install.Build, error) {
	f.strict = append(f.strict, strict)
	return f.fn(src, strict)
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// eggBytes returns a zipped egg layout declaring name and version.
func eggBytes(t *testing.T, name, version string) []byte {
	t.Helper()
	layout := t.TempDir()
	writeFiles(t, layout, map[string]string{
		"EGG-INFO/PKG-INFO":   "Metadata-Version: 1.1\nName: " + name + "\nVersion: " + version + "\n",
		name + "/__init__.py": "",
	})
	var buf bytes.Buffer
	if err := archive.WriteZip(&buf, layout); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// eggFetcher serves egg archives into dest under the link filename.
func eggFetcher(t *testing.T, data []byte) *fakeFetcher {
	return &fakeFetcher{fn: func(l *link.Link, dest string) (string, error) {
		path := filepath.Join(dest, l.Filename())
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return "", err
		}
		return path, nil
	}}
}

// sourceFetcher unpacks a pure project tree into dest.
func sourceFetcher(t *testing.T, name, version string) *fakeFetcher {
	return &fakeFetcher{fn: func(l *link.Link, dest string) (string, error) {
		root := filepath.Join(dest, name+"-"+version)
		writeFiles(t, root, map[string]string{
			"pyproject.toml":      "[project]\nname = \"" + name + "\"\nversion = \"" + version + "\"\n",
			name + "/__init__.py": "VALUE = 1\n",
		})
		return root, nil
	}}
}

func mustLink(t *testing.T, url string) *link.Link {
	t.Helper()
	l, err := link.Parse(url)
	if err != nil {
		t.Fatalf("link.Parse(%q): %v", url, err)
	}
	return l
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("%s still holds %v", dir, names)
	}
}
