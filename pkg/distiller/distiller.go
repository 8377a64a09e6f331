// Package distiller normalizes a build into the install cache's canonical
// layout: one deterministic zip archive per distribution, named after its
// identity.
package distiller

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/distcache/pkg/archive"
	"github.com/matzehuels/distcache/pkg/cache"
	"github.com/matzehuels/distcache/pkg/dist"
	"github.com/matzehuels/distcache/pkg/errors"
	"github.com/matzehuels/distcache/pkg/install"
	"github.com/matzehuels/distcache/pkg/link"
)

// Distiller stores a build in the cache directory into and returns the
// path of the cached artifact.
type Distiller interface {
	Distill(ctx context.Context, b *install.Build, into string) (string, error)
}

// Zip is the default [Distiller]. Distilling the same build twice yields
// byte-identical archives.
type Zip struct {
	Logger *log.Logger
}

// New returns a Zip distiller. A nil logger uses log.Default().
func New(logger *log.Logger) *Zip {
	return &Zip{Logger: logger}
}

// Distill implements [Distiller]. The build's EGG-INFO/PKG-INFO is
// rewritten from the build identity when it is missing or disagrees with it.
func (z *Zip) Distill(ctx context.Context, b *install.Build, into string) (string, error) {
	if b == nil || b.Root == "" {
		return "", errors.New(errors.ErrCodeInternal, "distill: empty build")
	}
	if into == "" {
		return "", errors.New(errors.ErrCodeInvalidPath, "distill %s: no cache directory", b.Name)
	}
	logger := z.Logger
	if logger == nil {
		logger = log.Default()
	}

	if err := ensurePKGInfo(b); err != nil {
		return "", err
	}

	dir, err := cache.Open(into)
	if err != nil {
		return "", err
	}
	name := cache.EntryName(b.Name, b.Version, b.Python, b.Platform)
	path, err := dir.Put(ctx, name, func(w io.Writer) error {
		return archive.WriteZip(w, b.Root)
	})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "distill %s", name)
	}
	logger.Debug("distilled", "entry", name, "cache", dir.Path())
	return path, nil
}

func ensurePKGInfo(b *install.Build) error {
	path := filepath.Join(b.Root, filepath.FromSlash(dist.MetadataPath))
	if data, err := os.ReadFile(path); err == nil {
		info, err := dist.ParsePKGInfo(data)
		if err == nil && dist.NormalizeName(info.Name) == dist.NormalizeName(b.Name) &&
			link.Escape(info.Version) == link.Escape(b.Version) {
			return nil
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	info := dist.PKGInfo{Name: b.Name, Version: b.Version, Platform: b.Platform}
	return os.WriteFile(path, dist.FormatPKGInfo(info), 0o644)
}
