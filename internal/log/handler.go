package log

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// mirrorErrors controls whether error level records are also delivered to the
// secondary (stderr) handler. Interactive views disable it so stray writes do
// not corrupt the terminal UI.
var mirrorErrors atomic.Bool

func init() {
	mirrorErrors.Store(true)
}

func EnableErrorMirroring() {
	mirrorErrors.Store(true)
}

func DisableErrorMirroring() {
	mirrorErrors.Store(false)
}

// NewDualHandler wraps a primary handler and, optionally, a secondary handler
// that only receives error level records while mirroring is enabled.
func NewDualHandler(primary slog.Handler, secondary slog.Handler) slog.Handler {
	return &dualHandler{
		primary:   primary,
		secondary: secondary,
	}
}

type dualHandler struct {
	primary   slog.Handler
	secondary slog.Handler
}

func (h *dualHandler) shouldMirror(level slog.Level) bool {
	return level >= slog.LevelError && mirrorErrors.Load()
}

func (h *dualHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.primary != nil && h.primary.Enabled(ctx, level) {
		return true
	}
	if !h.shouldMirror(level) {
		return false
	}
	return h.secondary != nil && h.secondary.Enabled(ctx, level)
}

func (h *dualHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.primary != nil && h.primary.Enabled(ctx, record.Level) {
		if err := h.primary.Handle(ctx, record); err != nil {
			return err
		}
	}
	if !h.shouldMirror(record.Level) {
		return nil
	}
	if h.secondary != nil && h.secondary.Enabled(ctx, record.Level) {
		return h.secondary.Handle(ctx, record.Clone())
	}
	return nil
}

func (h *dualHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := &dualHandler{}
	if h.primary != nil {
		clone.primary = h.primary.WithAttrs(attrs)
	}
	if h.secondary != nil {
		clone.secondary = h.secondary.WithAttrs(attrs)
	}
	return clone
}

func (h *dualHandler) WithGroup(name string) slog.Handler {
	clone := &dualHandler{}
	if h.primary != nil {
		clone.primary = h.primary.WithGroup(name)
	}
	if h.secondary != nil {
		clone.secondary = h.secondary.WithGroup(name)
	}
	return clone
}
