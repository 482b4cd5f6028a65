// Package log writes the application's logfmt lines. Every line carries ts,
// level and msg, and the request_id and user_id of the context it was logged
// with, so one workbench request can be followed through handlers and store.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	userIDKey
)

var (
	levelVar = new(slog.LevelVar)

	loggerMu sync.RWMutex
	logger   = slog.New(newHandler(os.Stdout))
)

// WithRequestID tags ctx so lines logged with it carry request_id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(withContext(ctx), requestIDKey, id)
}

// RequestID returns the request id stored by WithRequestID.
func RequestID(ctx context.Context) string {
	id, _ := withContext(ctx).Value(requestIDKey).(string)
	return id
}

// WithUserID tags ctx with the signed-in account.
func WithUserID(ctx context.Context, id uint) context.Context {
	return context.WithValue(withContext(ctx), userIDKey, id)
}

// UserID returns the account stored by WithUserID.
func UserID(ctx context.Context) (uint, bool) {
	id, ok := withContext(ctx).Value(userIDKey).(uint)
	return id, ok && id > 0
}

// contextHandler appends the context's request and user to each record.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := RequestID(ctx); id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}
	if id, ok := UserID(ctx); ok {
		r.AddAttrs(slog.Uint64("user_id", uint64(id)))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

func newHandler(w io.Writer) slog.Handler {
	opts := slog.HandlerOptions{
		Level: levelVar,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
				if attr.Value.Kind() == slog.KindTime {
					attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339Nano))
				}
			case slog.LevelKey:
				attr.Key = "level"
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			case slog.MessageKey:
				attr.Key = "msg"
			}
			return attr
		},
	}
	return contextHandler{slog.NewTextHandler(w, &opts)}
}

// SetLevel sets the minimum level: debug, info (also empty), warn or error.
func SetLevel(level string) error {
	var l slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		l = slog.LevelInfo
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		return fmt.Errorf("log: unknown level %q", level)
	}
	levelVar.Set(l)
	return nil
}

// Logger returns the installed logger.
func Logger() *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// ReplaceLogger installs l, for example to capture output in tests.
func ReplaceLogger(l *slog.Logger) {
	if l == nil {
		panic("log: nil logger provided")
	}
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

func Debug(ctx context.Context, msg string, args ...any) {
	Logger().DebugContext(withContext(ctx), msg, args...)
}

func Info(ctx context.Context, msg string, args ...any) {
	Logger().InfoContext(withContext(ctx), msg, args...)
}

func Warn(ctx context.Context, msg string, args ...any) {
	Logger().WarnContext(withContext(ctx), msg, args...)
}

func Error(ctx context.Context, msg string, args ...any) {
	Logger().ErrorContext(withContext(ctx), msg, args...)
}

func withContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// Sync flushes handlers that buffer. The text handler writes through, so
// this is usually a no-op.
func Sync() error {
	type syncer interface {
		Sync() error
	}
	h := Logger().Handler()
	if c, ok := h.(contextHandler); ok {
		h = c.Handler
	}
	if s, ok := h.(syncer); ok {
		return s.Sync()
	}
	return nil
}
