package translate

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/distcache/pkg/cache"
	"github.com/matzehuels/distcache/pkg/dist"
	"github.com/matzehuels/distcache/pkg/distiller"
	"github.com/matzehuels/distcache/pkg/errors"
	"github.com/matzehuels/distcache/pkg/fetch"
	"github.com/matzehuels/distcache/pkg/install"
	"github.com/matzehuels/distcache/pkg/platform"
)

// DefaultStrictExempt lists packages built in non-strict mode. distribute
// must be able to bootstrap its own build tool before strict metadata
// validation can apply to it.
var DefaultStrictExempt = []string{"distribute"}

// Options configures translators. Zero values select defaults.
type Options struct {
	CacheDir     string              // Install cache; a temporary directory when empty
	Platform     string              // Target platform; defaults to platform.Current()
	Python       string              // Target interpreter; defaults to platform.Python()
	ConnTimeout  time.Duration       // Per-fetch timeout; zero means none
	TempDir      string              // Parent of scratch directories; defaults to os.TempDir()
	StrictExempt []string            // Defaults to DefaultStrictExempt
	Fetcher      fetch.Fetcher       // Defaults to fetch.New
	Builder      install.Builder     // Defaults to install.Tree
	Distiller    distiller.Distiller // Defaults to distiller.New
	Logger       *log.Logger         // Defaults to log.Default()
}

func (o Options) withDefaults() (Options, error) {
	if o.ConnTimeout < 0 {
		return o, errors.New(errors.ErrCodeInvalidConfig, "negative connection timeout %s", o.ConnTimeout)
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	if o.Platform == "" {
		o.Platform = platform.Current()
	}
	if o.Python == "" {
		o.Python = platform.Python()
	}
	if o.StrictExempt == nil {
		o.StrictExempt = DefaultStrictExempt
	}
	if o.Fetcher == nil {
		o.Fetcher = fetch.New(fetch.Options{Logger: o.Logger})
	}
	if o.Builder == nil {
		o.Builder = &install.Tree{Python: o.Python, TempDir: o.TempDir, Logger: o.Logger}
	}
	if o.Distiller == nil {
		o.Distiller = distiller.New(o.Logger)
	}
	return o, nil
}

func exemptSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[dist.NormalizeName(n)] = true
	}
	return set
}

// sharedCache opens the install cache on first use so that strategies
// built together share one directory, including a temporary one.
type sharedCache struct {
	path string
	once sync.Once
	dir  *cache.Dir
	err  error
}

func newSharedCache(path string) *sharedCache {
	return &sharedCache{path: path}
}

func (s *sharedCache) get() (*cache.Dir, error) {
	s.once.Do(func() {
		s.dir, s.err = cache.Open(s.path)
		if s.err != nil {
			s.err = errors.Wrap(errors.ErrCodeInvalidPath, s.err, "open install cache")
		}
	})
	return s.dir, s.err
}

// fatal wraps err, keeping the code of an already coded error.
func fatal(err error, code errors.Code, format string, args ...any) Result {
	if c := errors.GetCode(err); c != "" {
		code = c
	}
	return Fatal(errors.Wrap(code, err, format, args...))
}
