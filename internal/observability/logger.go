// Package observability builds the structured logger used across the
// mining engine and its CLI front-end.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

const attrService = "service"

// serviceHandler is an [slog.Handler] that pre-attaches the service name to
// every record, following the teacher's handler-wrapping idiom for
// decorating a base handler without touching call sites.
type serviceHandler struct {
	inner slog.Handler
}

// newServiceHandler wraps inner, attaching service at the top level.
func newServiceHandler(inner slog.Handler, service string) *serviceHandler {
	return &serviceHandler{inner: inner.WithAttrs([]slog.Attr{slog.String(attrService, service)})}
}

func (h *serviceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *serviceHandler) Handle(ctx context.Context, record slog.Record) error {
	if err := h.inner.Handle(ctx, record); err != nil {
		return fmt.Errorf("service handler: %w", err)
	}

	return nil
}

func (h *serviceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &serviceHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *serviceHandler) WithGroup(name string) slog.Handler {
	return &serviceHandler{inner: h.inner.WithGroup(name)}
}

const serviceName = "adl-diff-miner"

// Verbosity selects the logger's minimum severity.
type Verbosity int

const (
	// LevelNormal logs info and above.
	LevelNormal Verbosity = iota
	// LevelVerbose logs debug and above.
	LevelVerbose
	// LevelQuiet logs warnings and above only.
	LevelQuiet
)

// NewLogger builds a logger writing text-formatted records to stderr, with
// its minimum level controlled by verbosity.
func NewLogger(verbosity Verbosity) *slog.Logger {
	base := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelFor(verbosity)})

	return slog.New(newServiceHandler(base, serviceName))
}

// levelFor maps a Verbosity to its minimum slog.Level.
func levelFor(verbosity Verbosity) slog.Level {
	switch verbosity {
	case LevelVerbose:
		return slog.LevelDebug
	case LevelQuiet:
		return slog.LevelWarn
	case LevelNormal:
		return slog.LevelInfo
	default:
		return slog.LevelInfo
	}
}
