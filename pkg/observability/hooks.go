// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries in this module emit events through the hooks registered here;
// the defaults are no-ops, so instrumentation costs nothing until main
// installs a real implementation. This keeps backends (OpenTelemetry,
// Prometheus, plain logs) out of the library import graph.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetTranslateHooks(&myTranslateHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Translate().OnTranslateStart(ctx, "source", name)
//	// ... fetch, build, distill ...
//	observability.Translate().OnTranslateComplete(ctx, "source", name, "resolved", duration)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Translate Hooks
// =============================================================================

// TranslateHooks receives events from translator strategies.
type TranslateHooks interface {
	// OnTranslateStart records that a strategy started working on a link.
	OnTranslateStart(ctx context.Context, strategy, pkg string)

	// OnTranslateComplete records the outcome ("resolved", "not_applicable",
	// "soft_failure", "fatal") of a strategy for a link.
	OnTranslateComplete(ctx context.Context, strategy, pkg, outcome string, duration time.Duration)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from install cache operations.
type CacheHooks interface {
	// OnCacheHit records a lookup that found an existing entry.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a lookup that found nothing.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopTranslateHooks is a no-op implementation of TranslateHooks.
type NoopTranslateHooks struct{}

func (NoopTranslateHooks) OnTranslateStart(context.Context, string, string) {}
func (NoopTranslateHooks) OnTranslateComplete(context.Context, string, string, string, time.Duration) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	translateHooks TranslateHooks = NoopTranslateHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	httpHooks      HTTPHooks      = NoopHTTPHooks{}
	hooksMu        sync.RWMutex
)

// SetTranslateHooks registers custom translate hooks.
// This should be called once at application startup before any translation.
func SetTranslateHooks(h TranslateHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		translateHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Translate returns the registered translate hooks.
func Translate() TranslateHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return translateHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	translateHooks = NoopTranslateHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
