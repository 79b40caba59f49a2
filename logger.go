package ingestsync

// Logger receives the engine's key/value log lines. The CLI adapts zerolog to
// it, and *slog.Logger satisfies it as is.
type Logger interface {
	// Debug carries per-tick detail.
	Debug(msg string, args ...any)
	// Info carries queue and schedule state changes.
	Info(msg string, args ...any)
	// Warn carries per-item failures that were counted.
	Warn(msg string, args ...any)
	// Error carries failures that could not be absorbed into tick counts.
	Error(msg string, args ...any)
}

// NopLogger discards every line. It is the default when no logger is configured.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}
