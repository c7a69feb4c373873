package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Loaded 42 creators (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// logHooks reports pipeline, cache, HTTP and session events at debug level.
// Failures are logged as warnings.
type logHooks struct {
	logger *log.Logger
}

func (h *logHooks) OnLoadStart(_ context.Context, source, platform string) {
	h.logger.Debug("loading network", "source", source, "platform", platform)
}

func (h *logHooks) OnLoadComplete(_ context.Context, source, platform string, nodeCount int, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("load failed", "source", source, "platform", platform, "err", err)
		return
	}
	h.logger.Debug("loaded network", "platform", platform, "creators", nodeCount, "duration", d.Round(time.Millisecond))
}

func (h *logHooks) OnLayoutStart(_ context.Context, nodeCount int) {
	h.logger.Debug("layout started", "nodes", nodeCount)
}

func (h *logHooks) OnLayoutComplete(_ context.Context, ticks int, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("layout failed", "ticks", ticks, "err", err)
		return
	}
	h.logger.Debug("layout finished", "ticks", ticks, "duration", d.Round(time.Millisecond))
}

func (h *logHooks) OnRenderStart(_ context.Context, format string) {
	h.logger.Debug("rendering", "format", format)
}

func (h *logHooks) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("render failed", "format", format, "err", err)
		return
	}
	h.logger.Debug("rendered", "format", format, "bytes", size, "duration", d.Round(time.Millisecond))
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *logHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("request", "method", method, "host", host, "path", path)
}

func (h *logHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "host", host, "path", path, "status", status, "duration", d.Round(time.Millisecond))
}

func (h *logHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Warn("request failed", "method", method, "host", host, "path", path, "err", err)
}

func (h *logHooks) OnSessionOpen(_ context.Context, id string, nodeCount int) {
	h.logger.Info("session opened", "session", id, "nodes", nodeCount)
}

func (h *logHooks) OnSessionClose(_ context.Context, id, reason string) {
	h.logger.Info("session closed", "session", id, "reason", reason)
}

func (h *logHooks) OnCommand(_ context.Context, id, kind string) {
	h.logger.Debug("session command", "session", id, "kind", kind)
}

func (h *logHooks) OnSettle(_ context.Context, id string, ticks int) {
	h.logger.Debug("session settled", "session", id, "ticks", ticks)
}
