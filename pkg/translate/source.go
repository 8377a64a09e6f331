package translate

import (
	"context"
	stderrors "errors"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/distcache/pkg/dist"
	"github.com/matzehuels/distcache/pkg/distiller"
	"github.com/matzehuels/distcache/pkg/errors"
	"github.com/matzehuels/distcache/pkg/fetch"
	"github.com/matzehuels/distcache/pkg/install"
	"github.com/matzehuels/distcache/pkg/link"
	"github.com/matzehuels/distcache/pkg/platform"
)

// SourceTranslator resolves source links by fetching, building and
// distilling them into the install cache.
type SourceTranslator struct {
	cache     *sharedCache
	platform  string
	python    string
	timeout   time.Duration
	tempDir   string
	exempt    map[string]bool
	fetcher   fetch.Fetcher
	builder   install.Builder
	distiller distiller.Distiller
	logger    *log.Logger
}

// NewSourceTranslator creates a SourceTranslator from opts.
func NewSourceTranslator(opts Options) (*SourceTranslator, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	return newSource(opts, newSharedCache(opts.CacheDir)), nil
}

func newSource(opts Options, c *sharedCache) *SourceTranslator {
	return &SourceTranslator{
		cache:     c,
		platform:  opts.Platform,
		python:    opts.Python,
		timeout:   opts.ConnTimeout,
		tempDir:   opts.TempDir,
		exempt:    exemptSet(opts.StrictExempt),
		fetcher:   opts.Fetcher,
		builder:   opts.Builder,
		distiller: opts.Distiller,
		logger:    opts.Logger,
	}
}

func (t *SourceTranslator) String() string { return "source" }

// Translate implements [Translator].
func (t *SourceTranslator) Translate(ctx context.Context, l *link.Link) Result {
	if l == nil || l.Kind() != link.Source {
		return NotApplicable()
	}
	if !platform.Compatible(platform.Current(), t.platform) || !platform.VersionCompatible(platform.Python(), t.python) {
		return NotApplicable()
	}

	ctx, attempt := withAttempt(ctx)
	logger := t.logger.With("link", l.Name(), "attempt", attempt)

	installCache, err := t.cache.get()
	if err != nil {
		return Fatal(err)
	}

	unpackDir, err := os.MkdirTemp(t.tempDir, "distcache-unpack-")
	if err != nil {
		return fatal(err, errors.ErrCodeInternal, "create unpack directory")
	}
	defer func() {
		if err := os.RemoveAll(unpackDir); err != nil {
			logger.Warn("remove unpack directory", "path", unpackDir, "error", err)
		}
	}()

	src, err := t.fetcher.Fetch(ctx, l, unpackDir, t.timeout)
	if err != nil {
		return fatal(err, errors.ErrCodeFetch, "fetch %s", l.Name())
	}

	done := stage(logger, "Installing "+l.Name())
	build, err := t.builder.Build(ctx, src, t.strict(l.Name()))
	defer func() {
		if err := build.Cleanup(); err != nil {
			logger.Warn("remove build directory", "error", err)
		}
	}()
	done()
	if err != nil {
		if stderrors.Is(err, install.ErrBuildFailed) {
			return Soft(err)
		}
		return fatal(err, errors.ErrCodeBuildTool, "build %s", l.Name())
	}

	done = stage(logger, "Distilling "+l.Name())
	path, err := t.distiller.Distill(ctx, build, installCache.Path())
	done()
	if err != nil {
		return fatal(err, errors.ErrCodeInternal, "distill %s", l.Name())
	}

	d, err := dist.Read(path)
	if err != nil {
		return fatal(err, errors.ErrCodeInvalidMetadata, "read %s", path)
	}
	return Resolved(d)
}

func (t *SourceTranslator) strict(name string) bool {
	return !t.exempt[dist.NormalizeName(name)]
}

// stage logs msg at debug level with its duration when the returned func
// is called.
func stage(logger *log.Logger, msg string) func() {
	start := time.Now()
	return func() {
		logger.Debug(msg, "took", time.Since(start).Round(time.Millisecond))
	}
}
