package logging

import (
	"io"
	"log/slog"
)

// Logger is the leveled logging API that domain packages depend on.
// Arguments after msg are alternating key-value pairs, as with slog.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// SlogAdapter adapts an slog.Logger to the Logger interface.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter wrapping the given slog.Logger.
// If logger is nil, slog.Default() is used.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

func (a *SlogAdapter) Debug(msg string, args ...interface{}) { a.logger.Debug(msg, args...) }
func (a *SlogAdapter) Info(msg string, args ...interface{})  { a.logger.Info(msg, args...) }
func (a *SlogAdapter) Warn(msg string, args ...interface{})  { a.logger.Warn(msg, args...) }
func (a *SlogAdapter) Error(msg string, args ...interface{}) { a.logger.Error(msg, args...) }

// Logger returns the underlying slog.Logger for direct access when needed.
func (a *SlogAdapter) Logger() *slog.Logger {
	return a.logger
}

// With returns an adapter whose records carry the given attributes.
func (a *SlogAdapter) With(args ...interface{}) *SlogAdapter {
	return &SlogAdapter{logger: a.logger.With(args...)}
}

// DefaultLogger returns a Logger using the default slog.Logger.
func DefaultLogger() *SlogAdapter {
	return NewSlogAdapter(slog.Default())
}

// DiscardLogger returns a Logger that drops every record.
func DiscardLogger() *SlogAdapter {
	return NewSlogAdapter(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
