package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/distcache/pkg/observability"
	"github.com/matzehuels/distcache/pkg/translate"
)

// debugHooks forwards library events to the CLI logger at debug level.
type debugHooks struct {
	logger *log.Logger
}

func (h debugHooks) OnTranslateStart(ctx context.Context, strategy, pkg string) {
	h.logger.Debug("strategy start", "strategy", strategy, "link", pkg, "attempt", translate.AttemptID(ctx))
}

func (h debugHooks) OnTranslateComplete(ctx context.Context, strategy, pkg, outcome string, d time.Duration) {
	h.logger.Debug("strategy done", "strategy", strategy, "link", pkg, "outcome", outcome,
		"took", d.Round(time.Millisecond), "attempt", translate.AttemptID(ctx))
}

func (h debugHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h debugHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h debugHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h debugHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h debugHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "host", host, "path", path,
		"status", status, "took", d.Round(time.Millisecond))
}

func (h debugHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "error", err)
}

// installHooks registers debug hooks when the logger would print them.
func (c *CLI) installHooks() {
	if c.Logger.GetLevel() > log.DebugLevel {
		return
	}
	h := debugHooks{logger: c.Logger}
	observability.SetTranslateHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}
