package dist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/distcache/pkg/archive"
	"github.com/matzehuels/distcache/pkg/errors"
)

func writeLayout(t *testing.T, root string, pkginfo string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(root, "EGG-INFO"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "EGG-INFO", "PKG-INFO"), []byte(pkginfo), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "pkg"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "pkg", "__init__.py"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func zipLayout(t *testing.T, src, dst string) {
	t.Helper()
	f, err := os.Create(dst)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := archive.WriteZip(f, src); err != nil {
		t.Fatal(err)
	}
}

func TestReadDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "zope_interface-6.0-py3.12-linux-x86_64.egg")
	writeLayout(t, root, "Metadata-Version: 1.1\nName: zope.interface\nVersion: 6.0\n")

	d, err := Read(root)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := &Distribution{Name: "zope.interface", Version: "6.0", Python: "3.12", Platform: "linux-x86_64", Location: root}
	if *d != *want {
		t.Errorf("Read = %+v, want %+v", d, want)
	}
}

func TestReadArchive(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeLayout(t, src, "Name: six\nVersion: 1.16.0\n")
	path := filepath.Join(dir, "six-1.16.0-py3.12.egg")
	zipLayout(t, src, path)

	d, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if d.Name != "six" || d.Version != "1.16.0" || d.Python != "3.12" || d.Platform != "" {
		t.Errorf("Read = %+v", d)
	}
	if d.Key() != "six-1.16.0-py3.12.egg" {
		t.Errorf("Key() = %q", d.Key())
	}
}

func TestReadInvalid(t *testing.T) {
	dir := t.TempDir()

	mismatch := filepath.Join(dir, "six-1.16.0-py3.12.egg")
	writeLayout(t, mismatch, "Name: six\nVersion: 1.15.0\n")

	nometa := filepath.Join(dir, "attrs-23.1-py3.12.egg")
	if err := os.MkdirAll(nometa, 0o755); err != nil {
		t.Fatal(err)
	}

	badname := filepath.Join(dir, "not-an-egg")
	writeLayout(t, badname, "Name: x\nVersion: 1\n")

	garbled := filepath.Join(dir, "idna-3.4-py3.12.egg")
	writeLayout(t, garbled, "this is not metadata\n")

	notzip := filepath.Join(dir, "certifi-2024.2-py3.12.egg")
	if err := os.WriteFile(notzip, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"version mismatch", mismatch},
		{"missing PKG-INFO", nometa},
		{"unrecognized filename", badname},
		{"garbled PKG-INFO", garbled},
		{"corrupt archive", notzip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(tt.path)
			if !errors.Is(err, errors.ErrCodeInvalidMetadata) {
				t.Errorf("Read() error = %v, want INVALID_METADATA", err)
			}
		})
	}
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "six-1.0-py3.12.egg"))
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Read() error = %v, want NOT_FOUND", err)
	}
}

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"Zope.Interface": "zope-interface",
		"zope_interface": "zope-interface",
		"a__b--c":        "a-b-c",
		"requests":       "requests",
	}
	for in, want := range tests {
		if got := NormalizeName(in); got != want {
			t.Errorf("NormalizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEqual(t *testing.T) {
	a := &Distribution{Name: "Foo_Bar", Version: "1.0", Python: "3.12", Location: "/a"}
	b := &Distribution{Name: "foo-bar", Version: "1.0", Python: "3.12", Location: "/b"}
	if !Equal(a, b) {
		t.Error("Equal should ignore location and name spelling")
	}
	b.Platform = "linux-x86_64"
	if Equal(a, b) {
		t.Error("Equal should compare platform")
	}
	if Equal(a, nil) || !Equal(nil, nil) {
		t.Error("Equal nil handling")
	}
}

func TestDigest(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	writeLayout(t, a, "Name: six\nVersion: 1.0\n")
	writeLayout(t, b, "Name: six\nVersion: 1.0\n")

	da, err := Digest(a)
	if err != nil {
		t.Fatal(err)
	}
	db, err := Digest(b)
	if err != nil {
		t.Fatal(err)
	}
	if da != db {
		t.Errorf("identical trees digest differently: %s vs %s", da, db)
	}
	if len(da) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(da))
	}

	if err := os.WriteFile(filepath.Join(b, "pkg", "__init__.py"), []byte("x = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	db2, err := Digest(b)
	if err != nil {
		t.Fatal(err)
	}
	if db2 == da {
		t.Error("digest did not change with contents")
	}

	za := filepath.Join(dir, "a.egg")
	zipLayout(t, a, za)
	z1, err := Digest(za)
	if err != nil {
		t.Fatal(err)
	}
	zb := filepath.Join(dir, "a2.egg")
	zipLayout(t, a, zb)
	z2, err := Digest(zb)
	if err != nil {
		t.Fatal(err)
	}
	if z1 != z2 {
		t.Error("archive digest not deterministic")
	}
}
