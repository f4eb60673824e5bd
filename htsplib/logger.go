package htsplib

import "log/slog"

// Logger is compatible with *slog.Logger. A custom implementation may be
// set on Conn; otherwise slog.Default() is used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

func defaultLogger() Logger { return slog.Default() }
