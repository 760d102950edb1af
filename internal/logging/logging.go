// Package logging provides the service slog logger:
// - text output on a TTY, JSON otherwise (LOG_FORMAT overrides)
// - LOG_LEVEL env var (debug/info/warn/error)
// - source file:line with paths relative to the working directory
// - request-scoped attributes (session ID, client IP) taken from the context
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options controls handler construction. Zero values fall back to the
// environment.
type Options struct {
	Format string // "text" or "json"
	Level  string
	Writer io.Writer
}

// New creates a logger configured from the environment.
func New() *slog.Logger {
	return NewWithOptions(Options{})
}

// NewWithOptions creates a logger from opts, consulting LOG_FORMAT and
// LOG_LEVEL for anything left empty.
func NewWithOptions(o Options) *slog.Logger {
	w := o.Writer
	if w == nil {
		w = os.Stdout
	}
	format := o.Format
	if format == "" {
		format = os.Getenv("LOG_FORMAT")
	}
	level := o.Level
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}

	useText := format == "text"
	if format == "" {
		f, ok := w.(*os.File)
		useText = ok && isatty(f)
	}

	wd, _ := os.Getwd()
	opts := &slog.HandlerOptions{
		Level:     parseLogLevel(level),
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				if src, ok := a.Value.Any().(*slog.Source); ok {
					if rel, err := filepath.Rel(wd, src.File); err == nil {
						src.File = rel
					} else {
						src.File = filepath.Base(src.File)
					}
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if useText {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(&contextHandler{Handler: handler})
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetDefault creates a new logger and sets it as the default slog logger.
func SetDefault() *slog.Logger {
	logger := New()
	slog.SetDefault(logger)
	return logger
}

func isatty(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

type ctxKey int

const (
	sessionIDKey ctxKey = iota
	clientIPKey
)

// WithSessionID attaches a chat session ID to records logged with ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// WithClientIP attaches the resolved client IP to records logged with ctx.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// contextHandler adds request attributes from the context to each record.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if id, ok := ctx.Value(sessionIDKey).(string); ok && id != "" {
			r.AddAttrs(slog.String("session_id", id))
		}
		if ip, ok := ctx.Value(clientIPKey).(string); ok && ip != "" {
			r.AddAttrs(slog.String("client_ip", ip))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}
