// Package httputil provides the response cache and retry policy used by
// the package index client.
//
// # Caching
//
// [Cache] stores JSON-encoded values on disk, one file per key, under
// $XDG_CACHE_HOME/distcache/http by default. Entries record when they were
// stored and expire after the cache's TTL:
//
//	c, err := httputil.NewCache("", time.Hour)
//	ok, err := c.Get("pypi:six", &files)
//	if !ok {
//	    files = query()
//	    c.Set("pypi:six", files)
//	}
//
// Writes go through a temporary file and a rename, so concurrent processes
// sharing a directory never read a torn entry.
//
// # Retry
//
// [Retry] and [Backoff.Retry] re-run an operation while it fails with a
// [RetryableError], doubling the delay between attempts up to a ceiling.
// A RetryableError may carry a server-provided delay (Retry-After) that
// overrides the computed one.
package httputil
