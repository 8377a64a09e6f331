package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/distcache/pkg/archive"
	"github.com/matzehuels/distcache/pkg/buildinfo"
	"github.com/matzehuels/distcache/pkg/dist"
	"github.com/matzehuels/distcache/pkg/errors"
)

// isolate keeps config, caches and env overrides inside the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("DISTCACHE_INDEX_URL", "")
	t.Setenv("DISTCACHE_CACHE_DIR", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var logs, out bytes.Buffer
	c := New(&logs, LogInfo)
	root := c.RootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// writeEgg writes a minimal egg archive for name/version into dir.
func writeEgg(t *testing.T, dir, filename, name, version string) string {
	t.Helper()
	src := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "EGG-INFO"), 0o755); err != nil {
		t.Fatal(err)
	}
	info := dist.FormatPKGInfo(dist.PKGInfo{Name: name, Version: version})
	if err := os.WriteFile(filepath.Join(src, dist.MetadataPath), info, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, name+".py"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, filename)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := archive.WriteZip(f, src); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTranslateLocalEgg(t *testing.T) {
	isolate(t)
	egg := writeEgg(t, t.TempDir(), "six-1.16.0-py3.12.egg", "six", "1.16.0")
	cacheDir := t.TempDir()

	out, err := run(t, "translate", egg, "--cache-dir", cacheDir, "--python", "3.12")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if !strings.Contains(out, "six") || !strings.Contains(out, "1.16.0") {
		t.Errorf("output missing identity:\n%s", out)
	}
	cached := filepath.Join(cacheDir, "six-1.16.0-py3.12.egg")
	if _, err := os.Stat(cached); err != nil {
		t.Errorf("cached archive missing: %v", err)
	}
	if !strings.Contains(out, cached) {
		t.Errorf("output should name %s:\n%s", cached, out)
	}
}

func TestTranslateErrors(t *testing.T) {
	dir := t.TempDir()
	egg := writeEgg(t, dir, "six-1.16.0-py3.12.egg", "six", "1.16.0")

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"unrecognized archive", []string{"translate", filepath.Join(dir, "six.rpm")}, errors.ErrCodeInvalidLink},
		{"incompatible interpreter", []string{"translate", egg, "--python", "2.7"}, errors.ErrCodeNoResolution},
		{"missing local egg", []string{"translate", filepath.Join(dir, "six-2.0-py3.12.egg"), "--python", "3.12"}, errors.ErrCodeNoResolution},
		{"missing config file", []string{"translate", egg, "--config", filepath.Join(dir, "nope.toml")}, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			args := append(tt.args, "--cache-dir", t.TempDir())
			_, err := run(t, args...)
			if !errors.Is(err, tt.code) {
				t.Fatalf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestTranslateNoResolutionMessage(t *testing.T) {
	isolate(t)
	egg := writeEgg(t, t.TempDir(), "six-1.16.0-py3.12.egg", "six", "1.16.0")

	_, err := run(t, "translate", egg, "--python", "2.7", "--cache-dir", t.TempDir())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(err.Error(), "NO_RESOLUTION: no resolution found for six 1.16.0") {
		t.Errorf("err = %q", err)
	}
}

func TestResolveFromIndex(t *testing.T) {
	isolate(t)
	files := t.TempDir()
	writeEgg(t, files, "six-1.16.0-py3.12.egg", "six", "1.16.0")

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/pypi/six/1.16.0/json":
			json.NewEncoder(w).Encode(map[string]any{
				"info": map[string]string{"name": "six", "version": "1.16.0"},
				"urls": []map[string]any{
					{"filename": "six-1.16.0.tar.gz", "url": server.URL + "/files/six-1.16.0.tar.gz"},
					{"filename": "six-1.16.0-py2.7.egg", "url": server.URL + "/files/six-1.16.0-py2.7.egg"},
					{"filename": "six-1.16.0-py3.12.egg", "url": server.URL + "/files/six-1.16.0-py3.12.egg"},
				},
			})
		case strings.HasPrefix(r.URL.Path, "/files/"):
			http.ServeFile(w, r, filepath.Join(files, strings.TrimPrefix(r.URL.Path, "/files/")))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	t.Setenv("DISTCACHE_INDEX_URL", server.URL+"/pypi")

	cacheDir := t.TempDir()
	out, err := run(t, "resolve", "six", "--version", "1.16.0", "--no-cache", "--cache-dir", cacheDir, "--python", "3.12")
	if err != nil {
		t.Fatalf("resolve: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Skipped") || !strings.Contains(out, "six-1.16.0-py2.7.egg") {
		t.Errorf("incompatible candidate not reported:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(cacheDir, "six-1.16.0-py3.12.egg")); err != nil {
		t.Errorf("resolved archive not cached: %v", err)
	}
}

func TestResolveNoCandidates(t *testing.T) {
	isolate(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"info": {"name": "six", "version": "1.16.0"}, "urls": []}`))
	}))
	t.Cleanup(server.Close)
	t.Setenv("DISTCACHE_INDEX_URL", server.URL)

	_, err := run(t, "resolve", "six", "--no-cache", "--cache-dir", t.TempDir())
	if !errors.Is(err, errors.ErrCodeNoResolution) {
		t.Fatalf("err = %v, want NO_RESOLUTION", err)
	}
}

func TestInspect(t *testing.T) {
	isolate(t)
	egg := writeEgg(t, t.TempDir(), "six-1.16.0-py3.12.egg", "six", "1.16.0")
	want, err := dist.Digest(egg)
	if err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "inspect", egg)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.Contains(out, want) {
		t.Errorf("output missing digest %s:\n%s", want, out)
	}
	if !strings.Contains(out, "3.12") {
		t.Errorf("output missing python tag:\n%s", out)
	}
}

func TestInspectInvalid(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	egg := writeEgg(t, dir, "six-1.16.0-py3.12.egg", "six", "1.15.0")

	_, err := run(t, "inspect", egg)
	if !errors.Is(err, errors.ErrCodeInvalidMetadata) {
		t.Fatalf("err = %v, want INVALID_METADATA", err)
	}
}

func TestVersionFlag(t *testing.T) {
	isolate(t)
	out, err := run(t, "--version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "distcache version "+buildinfo.Version) {
		t.Errorf("version output = %q", out)
	}
}

func TestCompletion(t *testing.T) {
	isolate(t)
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		out, err := run(t, "completion", shell)
		if err != nil {
			t.Fatalf("completion %s: %v", shell, err)
		}
		if !strings.Contains(out, "distcache") {
			t.Errorf("completion %s output does not mention distcache", shell)
		}
	}
	if _, err := run(t, "completion", "tcsh"); err == nil {
		t.Error("expected error for unsupported shell")
	}
}
