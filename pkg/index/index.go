// Package index queries a PyPI-compatible JSON API for the candidate links
// of a project.
//
// Only files distcache can translate are returned: .egg binaries and
// source archives. Binaries come first so that a chain tries prebuilt
// artifacts before building from source. Responses are cached through
// [httputil.Cache] and transient failures are retried.
package index

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/distcache/pkg/dist"
	"github.com/matzehuels/distcache/pkg/errors"
	"github.com/matzehuels/distcache/pkg/httputil"
	"github.com/matzehuels/distcache/pkg/link"
	"github.com/matzehuels/distcache/pkg/observability"
)

// DefaultURL is the public PyPI JSON API.
const DefaultURL = "https://pypi.org/pypi"

var (
	// ErrNotFound is returned when the project or version does not exist.
	ErrNotFound = stderrors.New("project not found")

	// ErrNetwork is returned for transport failures and unexpected statuses.
	ErrNetwork = stderrors.New("network error")
)

// Options configures a [Client].
type Options struct {
	BaseURL    string           // Defaults to DefaultURL
	Cache      *httputil.Cache  // Response cache; nil disables caching
	HTTPClient *http.Client     // Defaults to a client with a 30s timeout
	Backoff    httputil.Backoff // Defaults to httputil.DefaultBackoff
	UserAgent  string
	Logger     *log.Logger
}

// Client lists candidate links from a package index.
type Client struct {
	baseURL   string
	cache     *httputil.Cache
	http      *http.Client
	backoff   httputil.Backoff
	userAgent string
	logger    *log.Logger
}

// New creates a Client.
func New(opts Options) *Client {
	c := &Client{
		baseURL:   strings.TrimSuffix(opts.BaseURL, "/"),
		http:      opts.HTTPClient,
		backoff:   opts.Backoff,
		userAgent: opts.UserAgent,
		logger:    opts.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultURL
	}
	if opts.Cache != nil {
		c.cache = opts.Cache.Namespace("index:" + c.baseURL + ":")
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.backoff.Attempts == 0 {
		c.backoff = httputil.DefaultBackoff
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	return c
}

// File is one release file listed by the index.
type File struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Yanked   bool   `json:"yanked"`
}

type release struct {
	Info struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"info"`
	URLs []File `json:"urls"`
}

// Links returns the translatable files of name at version, or of its latest
// release when version is empty. refresh bypasses the response cache.
func (c *Client) Links(ctx context.Context, name, version string, refresh bool) ([]*link.Link, error) {
	if err := errors.ValidatePackageName(name); err != nil {
		return nil, err
	}
	files, err := c.Files(ctx, name, version, refresh)
	if err != nil {
		return nil, err
	}

	var links []*link.Link
	for _, f := range files {
		if f.Yanked {
			continue
		}
		l, err := link.Parse(f.URL)
		if err != nil {
			c.logger.Debug("skipping index file", "file", f.Filename, "reason", errors.UserMessage(err))
			continue
		}
		links = append(links, l)
	}
	sort.SliceStable(links, func(i, j int) bool {
		return links[i].Kind() == link.Binary && links[j].Kind() != link.Binary
	})
	return links, nil
}

// Files returns the raw file list of a release.
func (c *Client) Files(ctx context.Context, name, version string, refresh bool) ([]File, error) {
	project := dist.NormalizeName(name)
	key := project
	endpoint := fmt.Sprintf("%s/%s/json", c.baseURL, url.PathEscape(project))
	if version != "" {
		key += "@" + version
		endpoint = fmt.Sprintf("%s/%s/%s/json", c.baseURL, url.PathEscape(project), url.PathEscape(version))
	}

	var files []File
	if c.cache != nil && !refresh {
		ok, err := c.cache.Get(key, &files)
		if ok {
			observability.Cache().OnCacheHit(ctx, "index")
			return files, nil
		}
		if err != nil && !stderrors.Is(err, httputil.ErrExpired) {
			c.logger.Debug("ignoring unreadable index cache entry", "project", project, "error", err)
		}
		observability.Cache().OnCacheMiss(ctx, "index")
	}

	var rel release
	err := c.backoff.Retry(ctx, func() error {
		rel = release{}
		return c.get(ctx, endpoint, &rel)
	})
	if err != nil {
		switch {
		case stderrors.Is(err, ErrNotFound):
			what := project
			if version != "" {
				what += " " + version
			}
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "%s is not on %s", what, c.baseURL)
		case stderrors.Is(err, ErrNetwork):
			return nil, errors.Wrap(errors.ErrCodeNetwork, err, "query %s", c.baseURL)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "query %s", c.baseURL)
	}

	files = rel.URLs
	if c.cache != nil {
		if err := c.cache.Set(key, files); err != nil {
			c.logger.Debug("index cache write failed", "project", project, "error", err)
		}
	}
	return files, nil
}

func (c *Client) get(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests || code >= 500:
		return &httputil.RetryableError{
			Err:   fmt.Errorf("%w: status %d", ErrNetwork, code),
			After: retryAfter(resp.Header.Get("Retry-After")),
		}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}

// retryAfter parses a delay-seconds Retry-After header.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
