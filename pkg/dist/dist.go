package dist

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/matzehuels/distcache/pkg/archive"
	"github.com/matzehuels/distcache/pkg/errors"
	"github.com/matzehuels/distcache/pkg/link"
)

// MetadataPath is the location of the metadata file inside a layout.
const MetadataPath = "EGG-INFO/PKG-INFO"

// Distribution is a resolved, installed package artifact.
type Distribution struct {
	Name     string // Project name as declared in PKG-INFO
	Version  string // Project version
	Python   string // Interpreter version the artifact was built for
	Platform string // Target platform; empty for pure artifacts
	Location string // Absolute path of the cached layout
}

// String renders the distribution as "name version".
func (d *Distribution) String() string {
	return d.Name + " " + d.Version
}

// Key returns the identity used to name the distribution's cache entry.
func (d *Distribution) Key() string {
	return link.BinaryName(link.Identity{Name: d.Name, Version: d.Version, Python: d.Python, Platform: d.Platform})
}

// Read loads the distribution at path, which may be a directory layout or
// a single-file archive.
func Read(path string) (*Distribution, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "no distribution at %s", path)
		}
		return nil, err
	}

	id, err := link.ParseBinaryName(filepath.Base(abs))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidMetadata, err, "unrecognized layout %s", filepath.Base(abs))
	}

	var raw []byte
	if info.IsDir() {
		raw, err = os.ReadFile(filepath.Join(abs, filepath.FromSlash(MetadataPath)))
	} else {
		raw, err = archive.ReadZipFile(abs, MetadataPath)
	}
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeInvalidMetadata, err, "%s has no %s", filepath.Base(abs), MetadataPath)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidMetadata, err, "read metadata of %s", filepath.Base(abs))
	}

	pi, err := ParsePKGInfo(raw)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidMetadata, err, "parse metadata of %s", filepath.Base(abs))
	}
	if NormalizeName(pi.Name) != NormalizeName(id.Name) || link.Escape(pi.Version) != link.Escape(id.Version) {
		return nil, errors.New(errors.ErrCodeInvalidMetadata,
			"%s declares %s %s, filename says %s %s", filepath.Base(abs), pi.Name, pi.Version, id.Name, id.Version)
	}

	return &Distribution{
		Name:     pi.Name,
		Version:  pi.Version,
		Python:   id.Python,
		Platform: id.Platform,
		Location: abs,
	}, nil
}

var nameSepRE = regexp.MustCompile(`[-_.]+`)

// NormalizeName converts a project name to its PEP 503 canonical form.
func NormalizeName(name string) string {
	return nameSepRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// Equal reports whether two distributions have the same identity. Location
// is ignored.
func Equal(a, b *Distribution) bool {
	if a == nil || b == nil {
		return a == b
	}
	return NormalizeName(a.Name) == NormalizeName(b.Name) &&
		a.Version == b.Version &&
		a.Python == b.Python &&
		a.Platform == b.Platform
}
