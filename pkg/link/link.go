// Package link describes where a package can be obtained from.
//
// A [Link] is either a source link, pointing at a raw source archive that
// has to be built, or a binary link, pointing at a prebuilt archive that can
// be used as is. Links are immutable; translators read them and fetch what
// they point at.
//
// Kind and identity are derived from the filename:
//
//	requests-2.31.0.tar.gz                     source
//	requests-2.31.0.zip                        source
//	simplejson-3.19.1-py3.12-linux-x86_64.egg  binary, native
//	six-1.16.0-py3.12.egg                      binary, pure
package link

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/matzehuels/distcache/pkg/errors"
)

// Kind tags a link as a source or a binary link.
type Kind int

const (
	// Source links point at a source archive that must be built.
	Source Kind = iota + 1
	// Binary links point at a prebuilt archive.
	Binary
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case Source:
		return "source"
	case Binary:
		return "binary"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// BinaryExt is the filename extension of binary archives.
const BinaryExt = ".egg"

// SourceExts lists the recognized source archive extensions.
var SourceExts = []string{".tar.gz", ".tgz", ".tar.zst", ".zip"}

// Link is an immutable descriptor of a package source.
type Link struct {
	kind     Kind
	name     string
	version  string
	url      string
	python   string
	platform string
}

// New creates a link of the given kind. Binary links created this way are
// pure and interpreter-agnostic; use [Parse] to pick up tags from a filename.
func New(kind Kind, name, version, rawURL string) (*Link, error) {
	if kind != Source && kind != Binary {
		return nil, errors.New(errors.ErrCodeInvalidLink, "unknown link kind %d", int(kind))
	}
	if err := errors.ValidatePackageName(name); err != nil {
		return nil, err
	}
	if err := errors.ValidateURL(rawURL); err != nil {
		return nil, err
	}
	return &Link{kind: kind, name: name, version: version, url: rawURL}, nil
}

// Parse builds a link from a URL or local path, deriving its kind, name,
// version and tags from the filename.
func Parse(rawURL string) (*Link, error) {
	if err := errors.ValidateURL(rawURL); err != nil {
		return nil, err
	}
	base, err := Filename(rawURL)
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(base, BinaryExt) {
		id, err := ParseBinaryName(base)
		if err != nil {
			return nil, err
		}
		return &Link{
			kind:     Binary,
			name:     id.Name,
			version:  id.Version,
			url:      rawURL,
			python:   id.Python,
			platform: id.Platform,
		}, nil
	}

	for _, ext := range SourceExts {
		if !strings.HasSuffix(base, ext) {
			continue
		}
		name, version, err := splitNameVersion(strings.TrimSuffix(base, ext))
		if err != nil {
			return nil, err
		}
		return &Link{kind: Source, name: name, version: version, url: rawURL}, nil
	}

	return nil, errors.New(errors.ErrCodeInvalidLink, "unrecognized archive type: %s", base)
}

// Kind returns whether this is a source or binary link.
func (l *Link) Kind() Kind { return l.kind }

// Name returns the package name.
func (l *Link) Name() string { return l.name }

// Version returns the package version, possibly empty.
func (l *Link) Version() string { return l.version }

// URL returns the location the link points at.
func (l *Link) URL() string { return l.url }

// Python returns the interpreter version a binary link was built for.
// Empty means any interpreter.
func (l *Link) Python() string { return l.python }

// Platform returns the platform a binary link was built for.
// Empty means a pure artifact.
func (l *Link) Platform() string { return l.platform }

// Filename returns the last path element of the link URL.
func (l *Link) Filename() string {
	base, _ := Filename(l.url)
	return base
}

// Local reports whether the link points at the local filesystem.
func (l *Link) Local() bool {
	return !strings.HasPrefix(l.url, "http://") && !strings.HasPrefix(l.url, "https://")
}

// LocalPath returns the filesystem path of a local link.
func (l *Link) LocalPath() string {
	if strings.HasPrefix(l.url, "file://") {
		if u, err := url.Parse(l.url); err == nil {
			return filepath.FromSlash(u.Path)
		}
	}
	return l.url
}

// String renders the link for log output.
func (l *Link) String() string {
	if l.version == "" {
		return fmt.Sprintf("%s (%s)", l.name, l.kind)
	}
	return fmt.Sprintf("%s %s (%s)", l.name, l.version, l.kind)
}

// Filename extracts the final path element of a URL or filesystem path,
// ignoring query strings and fragments.
func Filename(rawURL string) (string, error) {
	p := rawURL
	if strings.Contains(rawURL, "://") {
		u, err := url.Parse(rawURL)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInvalidLink, err, "parse %s", rawURL)
		}
		p = u.Path
	}
	base := path.Base(filepath.ToSlash(p))
	if base == "." || base == "/" || base == "" {
		return "", errors.New(errors.ErrCodeInvalidLink, "no filename in %s", rawURL)
	}
	return base, nil
}

var versionStartRE = regexp.MustCompile(`-(\d[^-]*)$`)

// splitNameVersion splits "name-1.0" at the last dash followed by a digit.
func splitNameVersion(stem string) (name, version string, err error) {
	m := versionStartRE.FindStringSubmatchIndex(stem)
	if m == nil {
		return "", "", errors.New(errors.ErrCodeInvalidLink, "no version in %q", stem)
	}
	name, version = stem[:m[0]], stem[m[2]:m[3]]
	if err := errors.ValidatePackageName(name); err != nil {
		return "", "", err
	}
	return name, version, nil
}
