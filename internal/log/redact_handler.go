package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// RedactHandler wraps an slog.Handler to rewrite home-directory paths.
// It intercepts log records and replaces the user's home directory prefix
// with "~" in string attribute values before passing them to the
// underlying handler.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Call sites keep logging raw paths; redaction stays in one place
type RedactHandler struct {
	// handler is the underlying slog handler that receives redacted records.
	handler slog.Handler

	// home is the home directory prefix being rewritten.
	home string
}

// NewRedactHandler creates a new RedactHandler wrapping the given handler.
// If handler is nil, the returned RedactHandler uses slog.Default().Handler().
// If the home directory cannot be determined, records pass through unchanged.
func NewRedactHandler(handler slog.Handler) *RedactHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return &RedactHandler{handler: handler, home: home}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *RedactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle redacts the record's attributes and passes it to the underlying
// handler.
func (h *RedactHandler) Handle(ctx context.Context, r slog.Record) error {
	redacted := slog.NewRecord(r.Time, r.Level, h.redactString(r.Message), r.PC)

	r.Attrs(func(a slog.Attr) bool {
		redacted.AddAttrs(h.redactAttr(a))
		return true
	})

	return h.handler.Handle(ctx, redacted)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are redacted before being added.
func (h *RedactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redactedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redactedAttrs[i] = h.redactAttr(a)
	}
	return &RedactHandler{handler: h.handler.WithAttrs(redactedAttrs), home: h.home}
}

// WithGroup returns a new handler with the given group name.
func (h *RedactHandler) WithGroup(name string) slog.Handler {
	return &RedactHandler{handler: h.handler.WithGroup(name), home: h.home}
}

// redactAttr redacts a single attribute, recursively handling groups.
func (h *RedactHandler) redactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		redactedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			redactedAttrs[i] = h.redactAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redactedAttrs...)}
	}

	if a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, h.redactString(a.Value.String()))
	}

	return a
}

// redactString replaces every occurrence of the home directory prefix.
// Paths appear mid-string in messages like `parsing "/home/x/file" failed`,
// so this is a substring replacement, not a prefix check.
func (h *RedactHandler) redactString(s string) string {
	if h.home == "" || !strings.Contains(s, h.home) {
		return s
	}
	return strings.ReplaceAll(s, h.home, "~")
}

// NewLogger creates a new slog.Logger with home-path redaction.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
//
// Returns a *slog.Logger that can be used with slog.SetDefault() or passed
// to components that accept *slog.Logger.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	textHandler := slog.NewTextHandler(w, opts)
	return slog.New(NewRedactHandler(textHandler))
}

// NewJSONLogger creates a new slog.Logger with home-path redaction that
// outputs JSON format. Useful for structured log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	jsonHandler := slog.NewJSONHandler(w, opts)
	return slog.New(NewRedactHandler(jsonHandler))
}
