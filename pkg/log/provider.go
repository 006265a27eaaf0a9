package log

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

var (
	levelVar = new(slog.LevelVar)

	providerMu    sync.RWMutex
	defaultLogger Logger = NewSlogLogger(slog.New(WrapByErrFmtHandler(
		slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar}),
	)))
)

// SlogLogger adapts *slog.Logger to the Logger interface.
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps l. A nil l uses slog.Default().
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{l: l}
}

func (s *SlogLogger) Debug(msg string, fields ...any) { s.l.Debug(msg, errFirst(fields)...) }
func (s *SlogLogger) Info(msg string, fields ...any)  { s.l.Info(msg, errFirst(fields)...) }
func (s *SlogLogger) Warn(msg string, fields ...any)  { s.l.Warn(msg, errFirst(fields)...) }
func (s *SlogLogger) Error(msg string, fields ...any) { s.l.Error(msg, errFirst(fields)...) }

func (s *SlogLogger) With(fields ...any) Logger {
	return &SlogLogger{l: s.l.With(errFirst(fields)...)}
}

func (s *SlogLogger) Enabled(ctx context.Context, level Level) bool {
	return s.l.Enabled(ctx, slog.Level(level))
}

// errFirst turns a leading bare error into an ErrAttr so ErrFmtHandler can
// find it.
func errFirst(fields []any) []any {
	if len(fields) == 0 {
		return fields
	}
	if err, ok := fields[0].(error); ok {
		out := make([]any, 0, len(fields))
		out = append(out, ErrAttr(err))
		return append(out, fields[1:]...)
	}
	return fields
}

// GetLogger returns the package default Logger.
func GetLogger() Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return defaultLogger
}

// GetLoggerWithName returns the default Logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	return GetLogger().With(ComponentKey, name)
}

// SetLogger replaces the package default Logger. Loggers already handed
// out keep their previous backend.
func SetLogger(l Logger) {
	if l == nil {
		return
	}
	providerMu.Lock()
	defer providerMu.Unlock()
	defaultLogger = l
}

// SetLevel changes the minimum level of the slog-backed default logger.
func SetLevel(level Level) {
	levelVar.Set(slog.Level(level))
}

type defaultProvider struct{}

// DefaultProvider exposes the package-level functions as a LoggerProvider.
var DefaultProvider LoggerProvider = defaultProvider{}

func (defaultProvider) GetLogger() Logger                    { return GetLogger() }
func (defaultProvider) GetLoggerWithName(name string) Logger { return GetLoggerWithName(name) }
func (defaultProvider) SetLevel(level Level)                 { SetLevel(level) }
