// Package log provides the structured (slog) logging used by the host runtime.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/reglet-dev/typeddata/hostconfig"
)

// LevelBug is the level of runtime-integrity violations that terminate the
// process. It sorts above slog.LevelError and renders as "BUG".
const LevelBug = slog.LevelError + 4

// Format selects the record encoding.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// HandlerOption configures the Handler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	writer    io.Writer
	format    Format
	level     slog.Level
	addSource bool
}

// defaultHandlerConfig returns the default configuration.
func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		writer: os.Stderr,
		format: FormatText,
		level:  slog.LevelInfo,
	}
}

// WithLevel sets the minimum log level to report.
func WithLevel(level slog.Level) HandlerOption {
	return func(c *handlerConfig) {
		c.level = level
	}
}

// WithSource enables reporting of source location (file/line).
func WithSource(enabled bool) HandlerOption {
	return func(c *handlerConfig) {
		c.addSource = enabled
	}
}

// WithFormat selects text or JSON output.
func WithFormat(f Format) HandlerOption {
	return func(c *handlerConfig) {
		c.format = f
	}
}

// WithWriter sets the output destination (default os.Stderr).
func WithWriter(w io.Writer) HandlerOption {
	return func(c *handlerConfig) {
		c.writer = w
	}
}

// Handler is the runtime's slog.Handler. It tags every record with the
// component that produced it and knows how to render LevelBug.
type Handler struct {
	inner slog.Handler
	level slog.Level
}

// NewHandler creates a Handler with the given options.
func NewHandler(opts ...HandlerOption) *Handler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	hopts := &slog.HandlerOptions{
		AddSource:   cfg.addSource,
		Level:       cfg.level,
		ReplaceAttr: replaceLevel,
	}
	var inner slog.Handler
	if cfg.format == FormatJSON {
		inner = slog.NewJSONHandler(cfg.writer, hopts)
	} else {
		inner = slog.NewTextHandler(cfg.writer, hopts)
	}
	return &Handler{inner: inner, level: cfg.level}
}

// Enabled reports whether the handler handles records at the given level.
// Bug records are always handled.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level || level >= LevelBug
}

// Handle formats the record.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	return h.inner.Handle(ctx, r)
}

// WithAttrs returns a new Handler that includes the given attributes.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{inner: h.inner.WithAttrs(attrs), level: h.level}
}

// WithGroup returns a new Handler with the given group name.
func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{inner: h.inner.WithGroup(name), level: h.level}
}

func replaceLevel(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.LevelKey {
		if lvl, ok := a.Value.Any().(slog.Level); ok && lvl >= LevelBug {
			a.Value = slog.StringValue("BUG")
		}
	}
	return a
}

// ParseLevel maps a config level name to a slog.Level. Unknown names map to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger from the runtime log configuration.
func New(cfg hostconfig.LogConfig, w io.Writer) *slog.Logger {
	format := FormatText
	if cfg.Format == string(FormatJSON) {
		format = FormatJSON
	}
	return slog.New(NewHandler(
		WithWriter(w),
		WithFormat(format),
		WithLevel(ParseLevel(cfg.Level)),
	))
}
