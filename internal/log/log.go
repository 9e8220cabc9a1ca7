package log

import "sync"

var (
	defaultLogger *Logger
	mu            sync.RWMutex
)

// SetDefaultLogger sets the default global logger that will be used if calling logging functions directly exported by this package
func SetDefaultLogger(logger *Logger) {
	mu.Lock()
	defaultLogger = logger
	mu.Unlock()
}

// DefaultLogger returns the current default logger
func DefaultLogger() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// With returns the default logger scoped with args.  It returns nil, which logs nothing, if no default logger is set.
func With(args ...any) *Logger {
	return DefaultLogger().With(args...)
}

// Debug logs at debug Level using the default logger.
func Debug(msg string, args ...any) {
	DefaultLogger().Debug(msg, args...)
}

// Info logs at info Level using the default logger.
func Info(msg string, args ...any) {
	DefaultLogger().Info(msg, args...)
}

// Warn logs at warn Level using the default logger.
func Warn(msg string, args ...any) {
	DefaultLogger().Warn(msg, args...)
}

// Error logs at error Level using the default logger.
func Error(msg string, args ...any) {
	DefaultLogger().Error(msg, args...)
}

// Trace logs at debug level, but only if trace logging is enabled.
// This is a 'fake' trace level.
func Trace(msg string, args ...any) {
	DefaultLogger().Trace(msg, args...)
}
