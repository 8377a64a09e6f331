package fetch

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/distcache/pkg/archive"
	"github.com/matzehuels/distcache/pkg/cache"
	"github.com/matzehuels/distcache/pkg/errors"
	"github.com/matzehuels/distcache/pkg/link"
)

var (
	// ErrNotFound is returned when the link target does not exist.
	ErrNotFound = stderrors.New("archive not found")

	// ErrNetwork is returned for transport failures, timeouts and 5xx responses.
	ErrNetwork = stderrors.New("network error")
)

// Fetcher retrieves the archive behind a link into dest and returns the
// local path of the result: the unpacked source tree for source links, the
// archive file for binary links.
type Fetcher interface {
	Fetch(ctx context.Context, l *link.Link, dest string, timeout time.Duration) (string, error)
}

// Options configures a [Client].
type Options struct {
	HTTPClient *http.Client      // Defaults to a client without a global timeout
	Headers    map[string]string // Applied to every request
	Logger     *log.Logger       // Defaults to log.Default()
}

// Client is the default [Fetcher].
type Client struct {
	http    *http.Client
	headers map[string]string
	logger  *log.Logger
}

// New creates a Client.
func New(opts Options) *Client {
	c := &Client{http: opts.HTTPClient, headers: opts.Headers, logger: opts.Logger}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	return c
}

// Fetch implements [Fetcher]. A zero timeout means no deadline beyond ctx.
func (c *Client) Fetch(ctx context.Context, l *link.Link, dest string, timeout time.Duration) (string, error) {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeFetch, err, "prepare %s", dest)
	}
	target := filepath.Join(dest, l.Filename())

	start := time.Now()
	var err error
	if l.Local() {
		err = copyLocal(l.LocalPath(), target)
	} else {
		err = c.download(ctx, l.URL(), target, timeout)
	}
	if err != nil {
		return "", err
	}
	c.logger.Debug("fetched", "link", l.Name(), "file", l.Filename(), "took", time.Since(start).Round(time.Millisecond))

	if l.Kind() == link.Binary {
		return target, nil
	}
	return unpackSource(target, dest)
}

func copyLocal(src, target string) error {
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFetch, fmt.Errorf("%w: %s", ErrNotFound, src), "copy %s", filepath.Base(src))
		}
		return errors.Wrap(errors.ErrCodeFetch, err, "copy %s", filepath.Base(src))
	}
	if filepath.Clean(src) == filepath.Clean(target) {
		return nil
	}
	if info.IsDir() {
		if err := copyDir(src, target); err != nil {
			return errors.Wrap(errors.ErrCodeFetch, err, "copy %s", filepath.Base(src))
		}
		return nil
	}

	f, err := os.Open(src)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFetch, err, "copy %s", filepath.Base(src))
	}
	defer f.Close()

	_, err = cache.WriteFileAtomic(target, func(w io.Writer) error {
		_, err := io.Copy(w, f)
		return err
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeFetch, err, "copy %s", filepath.Base(src))
	}
	return nil
}

// copyDir copies an unpacked egg directory to target. The tree is built in
// a hidden sibling and renamed into place, replacing any previous copy.
func copyDir(src, target string) error {
	tmp, err := os.MkdirTemp(filepath.Dir(target), ".fetch-")
	if err != nil {
		return err
	}
	if err := os.CopyFS(tmp, os.DirFS(src)); err != nil {
		os.RemoveAll(tmp)
		return err
	}
	if err := os.RemoveAll(target); err != nil {
		os.RemoveAll(tmp)
		return err
	}
	if err := os.Rename(tmp, target); err != nil {
		os.RemoveAll(tmp)
		return err
	}
	return nil
}

func (c *Client) download(ctx context.Context, url, target string, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	body, err := c.doRequest(ctx, url)
	if err != nil {
		return errors.Wrap(codeFor(err), err, "fetch %s", filepath.Base(target))
	}
	defer body.Close()

	_, err = cache.WriteFileAtomic(target, func(w io.Writer) error {
		if _, err := io.Copy(w, body); err != nil {
			return fmt.Errorf("%w: %v", ErrNetwork, err)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(codeFor(err), err, "fetch %s", filepath.Base(target))
	}
	return nil
}

func codeFor(err error) errors.Code {
	if stderrors.Is(err, ErrNetwork) {
		return errors.ErrCodeNetwork
	}
	return errors.ErrCodeFetch
}

// unpackSource extracts a source archive into dest, removes the archive
// and returns the single top-level directory if there is exactly one.
func unpackSource(archivePath, dest string) (string, error) {
	if err := archive.Unpack(archivePath, dest); err != nil {
		os.Remove(archivePath)
		return "", errors.Wrap(errors.ErrCodeFetch, err, "unpack %s", filepath.Base(archivePath))
	}
	if err := os.Remove(archivePath); err != nil {
		return "", errors.Wrap(errors.ErrCodeFetch, err, "remove %s", filepath.Base(archivePath))
	}

	entries, err := os.ReadDir(dest)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeFetch, err, "list %s", dest)
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(dest, entries[0].Name()), nil
	}
	return dest, nil
}
