// Package logger provides a structured, levelled logger built on log/slog.
//
// The key extension over plain slog is WithCtx: it returns the logger the
// request middleware stored in the context, so every log line from a handler
// is automatically correlated:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("admin seeded", "email", email)
//	// → time=... level=INFO msg="admin seeded" request_id=a1b2c3d4 email=...
//
// Extra sinks (the Mongo handler) can be attached at runtime with Attach;
// loggers derived from L before the call pick them up too.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/shashiranjanraj/folio/config"
)

var (
	L *slog.Logger

	sink atomic.Pointer[slog.Handler]
	base slog.Handler
)

func init() {
	Setup(config.AppEnv(), os.Stdout)
}

// Setup rebuilds the base handler for env and writes to w. Production gets
// JSON for log aggregators, everything else human-readable text.
func Setup(env string, w io.Writer) {
	var handler slog.Handler

	switch env {
	case "production", "prod":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}

	base = handler
	sink.Store(&handler)

	if L == nil {
		L = slog.New(&swapHandler{})
		slog.SetDefault(L)
	}
}

// Attach fans every subsequent record out to extra in addition to the base
// handler. Calling Attach again replaces the previous extras.
func Attach(extra ...slog.Handler) {
	var h slog.Handler = NewMultiHandler(append([]slog.Handler{base}, extra...)...)
	sink.Store(&h)
}

// Detach drops every handler added by Attach.
func Detach() {
	h := base
	sink.Store(&h)
}

// swapHandler resolves the current sink on every call so Attach is visible
// to loggers that were derived with With/WithGroup earlier.
type swapHandler struct {
	ops []func(slog.Handler) slog.Handler
}

func (s *swapHandler) current() slog.Handler {
	h := *sink.Load()
	for _, op := range s.ops {
		h = op(h)
	}
	return h
}

func (s *swapHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return (*sink.Load()).Enabled(ctx, l)
}

func (s *swapHandler) Handle(ctx context.Context, r slog.Record) error {
	return s.current().Handle(ctx, r)
}

func (s *swapHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return s.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (s *swapHandler) WithGroup(name string) slog.Handler {
	return s.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (s *swapHandler) derive(op func(slog.Handler) slog.Handler) slog.Handler {
	ops := make([]func(slog.Handler) slog.Handler, len(s.ops)+1)
	copy(ops, s.ops)
	ops[len(s.ops)] = op
	return &swapHandler{ops: ops}
}

// ─────────────────────────────────────────────
// Context-aware logger
// ─────────────────────────────────────────────

// ctxKey is the unexported key used to store a per-request *slog.Logger.
type ctxKey struct{}

// WithCtx returns the *slog.Logger stored in ctx by the request logger
// middleware. If none is present the base logger is returned unchanged.
func WithCtx(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a *slog.Logger (pre-tagged with request_id) into ctx.
// Called by the Logger middleware; not usually needed in application code.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// ─────────────────────────────────────────────
// Short-hand helpers (use base logger)
// ─────────────────────────────────────────────

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at INFO level.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at WARN level.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at ERROR level.
func Error(msg string, args ...any) { L.Error(msg, args...) }
