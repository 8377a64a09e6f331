package translate

import (
	"context"
	stderrors "errors"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/distcache/pkg/dist"
	"github.com/matzehuels/distcache/pkg/errors"
	"github.com/matzehuels/distcache/pkg/fetch"
	"github.com/matzehuels/distcache/pkg/link"
	"github.com/matzehuels/distcache/pkg/platform"
)

// BinaryTranslator resolves prebuilt .egg links by fetching them directly
// into the install cache.
type BinaryTranslator struct {
	cache    *sharedCache
	platform string
	python   string
	timeout  time.Duration
	fetcher  fetch.Fetcher
	logger   *log.Logger
}

// NewBinaryTranslator creates a BinaryTranslator from opts. Builder,
// Distiller, TempDir and StrictExempt are ignored.
func NewBinaryTranslator(opts Options) (*BinaryTranslator, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	return newBinary(opts, newSharedCache(opts.CacheDir)), nil
}

func newBinary(opts Options, c *sharedCache) *BinaryTranslator {
	return &BinaryTranslator{
		cache:    c,
		platform: opts.Platform,
		python:   opts.Python,
		timeout:  opts.ConnTimeout,
		fetcher:  opts.Fetcher,
		logger:   opts.Logger,
	}
}

func (t *BinaryTranslator) String() string { return "binary" }

// Translate implements [Translator]. An archive already present in the
// install cache is reused when its metadata reads back cleanly.
func (t *BinaryTranslator) Translate(ctx context.Context, l *link.Link) Result {
	if l == nil || l.Kind() != link.Binary {
		return NotApplicable()
	}
	if !platform.DistributionCompatible(l, t.python, t.platform) {
		return NotApplicable()
	}

	ctx, attempt := withAttempt(ctx)
	logger := t.logger.With("link", l.Name(), "attempt", attempt)

	installCache, err := t.cache.get()
	if err != nil {
		return Fatal(err)
	}

	if path, ok := installCache.Lookup(ctx, l.Filename()); ok {
		d, err := dist.Read(path)
		if err == nil {
			logger.Debug("using cached archive", "path", path)
			return Resolved(d)
		}
		logger.Debug("cached archive unreadable, fetching again", "path", path, "error", err)
	}

	done := stage(logger, "Fetching "+l.Name())
	path, err := t.fetcher.Fetch(ctx, l, installCache.Path(), t.timeout)
	done()
	if err != nil {
		if stderrors.Is(err, fetch.ErrNetwork) || stderrors.Is(err, fetch.ErrNotFound) {
			return Soft(err)
		}
		return fatal(err, errors.ErrCodeFetch, "fetch %s", l.Name())
	}

	d, err := dist.Read(path)
	if err != nil {
		// Only readable archives stay in the install cache.
		if rmErr := os.RemoveAll(path); rmErr != nil {
			logger.Warn("could not remove unreadable archive", "path", path, "error", rmErr)
		}
		return fatal(err, errors.ErrCodeInvalidMetadata, "read %s", path)
	}
	return Resolved(d)
}
