// File: internal/infra/logging/logging.go
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"chatbot-feedback/internal/config"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New creates a zerolog logger configured from config.
// Supports "trace" | "debug" | "info" | "warn" | "error" levels
// and "json" | "console" formats. When cfg.File is set the logger writes there,
// which keeps the terminal free for the TUI. The returned closer is never nil.
func New(cfg config.LogConfig, dev bool) (*zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}

	var base zerolog.Logger
	if strings.ToLower(cfg.Format) == "console" || dev {
		cw := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: cfg.File != ""}
		base = zerolog.New(cw).With().Timestamp().Logger()
	} else {
		base = zerolog.New(out).With().Timestamp().Logger()
	}

	if cfg.Sampling && !dev {
		// Simple sampling: keep first 100, then 1 every 100 thereafter.
		sampled := base.Sample(&zerolog.BasicSampler{N: 100})
		return &sampled, closer, nil
	}
	return &base, closer, nil
}

// Nop returns a disabled logger, handy in tests.
func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type ctxKey string

const (
	ctxTraceID ctxKey = "trace_id"
	ctxConvID  ctxKey = "conversation_id"
)

// With attaches common context fields such as trace_id and conversation_id.
func With(ctx context.Context, base *zerolog.Logger) *zerolog.Logger {
	l := base.With()
	if v, ok := ctx.Value(ctxTraceID).(string); ok {
		l = l.Str("trace_id", v)
	}
	if v, ok := ctx.Value(ctxConvID).(int64); ok {
		l = l.Int64("conversation_id", v)
	}
	logger := l.Logger()
	return &logger
}

// TraceDuration logs start and end with elapsed duration at TRACE level.
// Usage: defer logging.TraceDuration(logger, "SessionUC.Send")()
func TraceDuration(logger *zerolog.Logger, name string) func() {
	start := time.Now()
	logger.Trace().Str("method", name).Msg("start")
	return func() {
		elapsed := time.Since(start)
		logger.Trace().Str("method", name).Dur("duration", elapsed).Msg("finish")
	}
}

// Redact hides message text when not in dev; keep short/preview.
func Redact(s string, dev bool) string {
	if dev {
		return s
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-2:]
}

// NewTraceID returns a lexically sortable id for one user intent.
func NewTraceID() string {
	return ulid.Make().String()
}

// Helpers to put IDs into context.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxTraceID, id)
}
func WithConvID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, ctxConvID, id)
}

// TraceIDFrom returns the trace id stored in ctx, if any.
func TraceIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(ctxTraceID).(string)
	return v
}

// Expose global (optional). Prefer injection where possible.
var Global = log.Logger
