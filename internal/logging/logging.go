package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Setup configures the global slog default with a JSON handler on stdout.
// level is one of DEBUG, INFO, WARN, ERROR (case-insensitive). Defaults to INFO.
// component names the binary ("server", "migrate") on every record.
func Setup(level, component string) {
	New(os.Stdout, level, "component", component)
}

// New builds the JSON logger on w, installs it as the slog default and returns it.
// ERROR records carry a stack trace and every record carries service=workbridge.
func New(w io.Writer, level string, attrs ...any) *slog.Logger {
	json := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       parseLevel(level),
		AddSource:   true,
		ReplaceAttr: shortSource,
	})
	logger := slog.New(&stackHandler{Handler: json}).With("service", "workbridge").With(attrs...)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// shortSource は source を "package/file.go:line" に縮める
func shortSource(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.SourceKey {
		return a
	}
	src, ok := a.Value.Any().(*slog.Source)
	if !ok || src == nil {
		return a
	}
	file := filepath.Join(filepath.Base(filepath.Dir(src.File)), filepath.Base(src.File))
	return slog.String(slog.SourceKey, filepath.ToSlash(file)+":"+strconv.Itoa(src.Line))
}

// Fatal logs at Error level and exits with code 1.
func Fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}

// stackHandler wraps a slog.Handler and appends a stack trace for ERROR+.
type stackHandler struct {
	slog.Handler
}

func (h *stackHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		buf := make([]byte, 4096)
		n := runtime.Stack(buf, false)
		r.AddAttrs(slog.String("stacktrace", string(buf[:n])))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *stackHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &stackHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *stackHandler) WithGroup(name string) slog.Handler {
	return &stackHandler{Handler: h.Handler.WithGroup(name)}
}
