package install

import (
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/distcache/pkg/archive"
	"github.com/matzehuels/distcache/pkg/dist"
	"github.com/matzehuels/distcache/pkg/errors"
)

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

func assertEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("%s not cleaned up: %d entries left", dir, len(entries))
	}
}

const sixPyproject = `
[project]
name = "six"
version = "1.16.0"
description = "Python 2 and 3 compatibility utilities"
`

func TestTreeBuild(t *testing.T) {
	src := t.TempDir()
	writeFiles(t, src, map[string]string{
		"pyproject.toml":            sixPyproject,
		"six/__init__.py":           "",
		"six/moves.py":              "",
		"six/__pycache__/moves.pyc": "bytecode",
		"helper.py":                 "",
		"setup.py":                  "",
		"tests/test_six.py":         "",
		"README.md":                 "",
	})
	work := t.TempDir()

	b, err := (&Tree{Python: "3.11", TempDir: work}).Build(context.Background(), src, true)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if b.Name != "six" || b.Version != "1.16.0" || b.Python != "3.11" || b.Platform != "" {
		t.Errorf("Build identity = %s %s %s %q", b.Name, b.Version, b.Python, b.Platform)
	}

	for _, want := range []string{"six/__init__.py", "six/moves.py", "helper.py", "EGG-INFO/PKG-INFO"} {
		if _, err := os.Stat(filepath.Join(b.Root, want)); err != nil {
			t.Errorf("missing %s in build", want)
		}
	}
	for _, unwanted := range []string{"setup.py", "tests", "README.md", "six/__pycache__"} {
		if _, err := os.Stat(filepath.Join(b.Root, unwanted)); err == nil {
			t.Errorf("%s should not be installed", unwanted)
		}
	}

	data, err := os.ReadFile(filepath.Join(b.Root, "EGG-INFO", "PKG-INFO"))
	if err != nil {
		t.Fatal(err)
	}
	info, err := dist.ParsePKGInfo(data)
	if err != nil {
		t.Fatal(err)
	}
	if info.Name != "six" || info.Version != "1.16.0" || info.Summary == "" {
		t.Errorf("PKG-INFO = %+v", info)
	}

	if err := b.Cleanup(); err != nil {
		t.Fatal(err)
	}
	if err := b.Cleanup(); err != nil {
		t.Errorf("second Cleanup: %v", err)
	}
	assertEmpty(t, work)
}

func TestTreeExplicitPackages(t *testing.T) {
	src := t.TempDir()
	writeFiles(t, src, map[string]string{
		"pyproject.toml": `
[project]
name = "native-ext"
version = "0.3"

[tool.distcache]
packages = ["src/native_ext"]
platform = "linux-x86_64"
`,
		"src/native_ext/__init__.py": "",
		"other/__init__.py":          "",
	})

	b, err := (&Tree{Python: "3.12", TempDir: t.TempDir()}).Build(context.Background(), src, true)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer b.Cleanup()

	if b.Platform != "linux-x86_64" {
		t.Errorf("Platform = %q", b.Platform)
	}
	if _, err := os.Stat(filepath.Join(b.Root, "src", "native_ext", "__init__.py")); err != nil {
		t.Error("configured package not installed")
	}
	if _, err := os.Stat(filepath.Join(b.Root, "other")); err == nil {
		t.Error("unlisted package installed")
	}
}

func TestTreePKGInfoFallback(t *testing.T) {
	src := t.TempDir()
	writeFiles(t, src, map[string]string{
		"PKG-INFO":               "Metadata-Version: 1.0\nName: distribute\nVersion: 0.6.49\nPlatform: UNKNOWN\n",
		"setuptools/__init__.py": "",
	})

	_, err := (&Tree{Python: "3.12", TempDir: t.TempDir()}).Build(context.Background(), src, true)
	if !stderrors.Is(err, ErrBuildFailed) {
		t.Fatalf("strict Build() error = %v, want ErrBuildFailed", err)
	}

	b, err := (&Tree{Python: "3.12", TempDir: t.TempDir()}).Build(context.Background(), src, false)
	if err != nil {
		t.Fatalf("non-strict Build: %v", err)
	}
	defer b.Cleanup()
	if b.Name != "distribute" || b.Version != "0.6.49" || b.Platform != "" {
		t.Errorf("Build identity = %s %s %q", b.Name, b.Version, b.Platform)
	}
}

func TestTreeFailures(t *testing.T) {
	tests := []struct {
		name   string
		files  map[string]string
		strict bool
	}{
		{
			name:   "invalid toml",
			files:  map[string]string{"pyproject.toml": "[project\nname=", "x.py": ""},
			strict: true,
		},
		{
			name:   "missing version",
			files:  map[string]string{"pyproject.toml": "[project]\nname = \"x\"\n", "x.py": ""},
			strict: true,
		},
		{
			name:   "invalid name in strict mode",
			files:  map[string]string{"pyproject.toml": "[project]\nname = \"-bad-\"\nversion = \"1\"\n", "x.py": ""},
			strict: true,
		},
		{
			name:   "nothing to install",
			files:  map[string]string{"pyproject.toml": sixPyproject, "README.md": ""},
			strict: true,
		},
		{
			name:   "configured package missing",
			files:  map[string]string{"pyproject.toml": sixPyproject + "\n[tool.distcache]\npackages = [\"gone\"]\n", "x.py": ""},
			strict: true,
		},
		{
			name:   "no metadata at all",
			files:  map[string]string{"x.py": ""},
			strict: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := t.TempDir()
			writeFiles(t, src, tt.files)
			work := t.TempDir()

			_, err := (&Tree{Python: "3.12", TempDir: work}).Build(context.Background(), src, tt.strict)
			var fail *BuildFailure
			if !stderrors.As(err, &fail) {
				t.Fatalf("Build() error = %v, want *BuildFailure", err)
			}
			assertEmpty(t, work)
		})
	}
}

func TestTreeLenientName(t *testing.T) {
	src := t.TempDir()
	writeFiles(t, src, map[string]string{
		"pyproject.toml": "[tool.poetry]\nname = \"legacy_pkg\"\nversion = \"2.0\"\n",
		"legacy.py":      "",
	})
	b, err := (&Tree{Python: "3.12", TempDir: t.TempDir()}).Build(context.Background(), src, false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer b.Cleanup()
	if b.Name != "legacy_pkg" {
		t.Errorf("Name = %q", b.Name)
	}
}

func TestTreeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&Tree{}).Build(ctx, t.TempDir(), true)
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("Build() error = %v, want context.Canceled", err)
	}
}

func TestBuildFailureIs(t *testing.T) {
	var err error = &BuildFailure{Name: "six", Reason: "exit status 1"}
	if !stderrors.Is(err, ErrBuildFailed) {
		t.Error("BuildFailure should match ErrBuildFailed")
	}
	if got := err.Error(); got != "build six failed: exit status 1" {
		t.Errorf("Error() = %q", got)
	}
	if stderrors.Is(stderrors.New("other"), ErrBuildFailed) {
		t.Error("unrelated error matched ErrBuildFailed")
	}
}

func TestNilBuildCleanup(t *testing.T) {
	var b *Build
	if err := b.Cleanup(); err != nil {
		t.Errorf("nil Cleanup() = %v", err)
	}
}

// makeEgg writes a zipped egg named filename with the given PKG-INFO.
func makeEgg(t *testing.T, dir, filename, pkginfo string) string {
	t.Helper()
	layout := filepath.Join(t.TempDir(), "layout")
	files := map[string]string{"six/__init__.py": ""}
	if pkginfo != "" {
		files["EGG-INFO/PKG-INFO"] = pkginfo
	}
	writeFiles(t, layout, files)

	path := filepath.Join(dir, filename)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := archive.WriteZip(f, layout); err != nil {
		t.Fatal(err)
	}
	return path
}

func requireTools(t *testing.T, tools ...string) {
	t.Helper()
	for _, tool := range tools {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not available", tool)
		}
	}
}

func TestCommandBuild(t *testing.T) {
	requireTools(t, "cp")
	egg := makeEgg(t, t.TempDir(), "six-1.16.0-py3.12.egg", "Name: six\nVersion: 1.16.0\n")
	work := t.TempDir()

	c := &Command{Args: []string{"cp", egg, "{out}"}, TempDir: work}
	b, err := c.Build(context.Background(), t.TempDir(), true)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if b.Name != "six" || b.Version != "1.16.0" || b.Python != "3.12" || b.Platform != "" {
		t.Errorf("Build identity = %s %s %s %q", b.Name, b.Version, b.Python, b.Platform)
	}
	if _, err := os.Stat(filepath.Join(b.Root, "six", "__init__.py")); err != nil {
		t.Error("egg contents not unpacked")
	}
	b.Cleanup()
	assertEmpty(t, work)
}

func TestCommandStrictMetadata(t *testing.T) {
	requireTools(t, "cp")
	eggs := t.TempDir()
	mismatched := makeEgg(t, eggs, "six-1.16.0-py3.12.egg", "Name: six\nVersion: 2.0\n")

	c := &Command{Args: []string{"cp", mismatched, "{out}"}, TempDir: t.TempDir()}
	if _, err := c.Build(context.Background(), t.TempDir(), true); !stderrors.Is(err, ErrBuildFailed) {
		t.Errorf("strict Build() error = %v, want ErrBuildFailed", err)
	}
	b, err := c.Build(context.Background(), t.TempDir(), false)
	if err != nil {
		t.Fatalf("non-strict Build: %v", err)
	}
	b.Cleanup()

	bare := makeEgg(t, t.TempDir(), "six-1.16.0-py3.12.egg", "")
	c = &Command{Args: []string{"cp", bare, "{out}"}, TempDir: t.TempDir()}
	if _, err := c.Build(context.Background(), t.TempDir(), true); !stderrors.Is(err, ErrBuildFailed) {
		t.Errorf("strict Build() without PKG-INFO error = %v, want ErrBuildFailed", err)
	}
}

func TestCommandFailures(t *testing.T) {
	requireTools(t, "sh", "true")

	t.Run("non-zero exit", func(t *testing.T) {
		work := t.TempDir()
		c := &Command{Args: []string{"sh", "-c", "echo boom; exit 3"}, TempDir: work}
		_, err := c.Build(context.Background(), t.TempDir(), true)
		var fail *BuildFailure
		if !stderrors.As(err, &fail) {
			t.Fatalf("Build() error = %v, want *BuildFailure", err)
		}
		if !strings.Contains(string(fail.Output), "boom") {
			t.Errorf("Output = %q", fail.Output)
		}
		assertEmpty(t, work)
	})

	t.Run("no egg produced", func(t *testing.T) {
		c := &Command{Args: []string{"true"}, TempDir: t.TempDir()}
		_, err := c.Build(context.Background(), t.TempDir(), true)
		if !stderrors.Is(err, ErrBuildFailed) {
			t.Errorf("Build() error = %v, want ErrBuildFailed", err)
		}
	})

	t.Run("tool missing", func(t *testing.T) {
		work := t.TempDir()
		c := &Command{Args: []string{"distcache-no-such-build-tool"}, TempDir: work}
		_, err := c.Build(context.Background(), t.TempDir(), true)
		if err == nil || stderrors.Is(err, ErrBuildFailed) {
			t.Fatalf("Build() error = %v, want fatal error", err)
		}
		if errors.GetCode(err) != errors.ErrCodeBuildTool {
			t.Errorf("code = %s, want %s", errors.GetCode(err), errors.ErrCodeBuildTool)
		}
		assertEmpty(t, work)
	})

	t.Run("runs in source dir", func(t *testing.T) {
		src := t.TempDir()
		writeFiles(t, src, map[string]string{"marker": ""})
		c := &Command{Args: []string{"sh", "-c", "test -f marker && test -d {src}"}, TempDir: t.TempDir()}
		_, err := c.Build(context.Background(), src, true)
		var fail *BuildFailure
		if !stderrors.As(err, &fail) || !strings.Contains(fail.Reason, "expected one") {
			t.Errorf("Build() error = %v, want missing egg failure", err)
		}
	})
}
