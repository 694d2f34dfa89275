package application

import "log/slog"

// ResolveLogger returns slog.Default when no logger was wired.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
