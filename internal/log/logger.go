package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Logger wraps slog for webauth.  A nil *Logger discards everything, so scoped loggers can be handed out before the
// default logger has been configured.
type Logger struct {
	logger       *slog.Logger
	file         *os.File
	traceEnabled bool
}

// Config contains logging information used to set up the logging framework
type Config struct {
	// Log Level.  One of: trace, debug, info, warn, error
	Level string
	// Path to the file to log into
	FilePath string
	// Format of each record.  One of: json, text.  Defaults to json
	Format string
}

func New(config Config) (*Logger, error) {
	dir := filepath.Dir(config.FilePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	logger := NewWithWriter(file, config)
	logger.file = file
	return logger, nil
}

// NewWithWriter builds a logger writing to w.  Config.FilePath is ignored.
func NewWithWriter(w io.Writer, config Config) *Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(config.Level),
	}

	var handler slog.Handler
	if strings.EqualFold(config.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{
		logger:       slog.New(handler),
		traceEnabled: strings.EqualFold(config.Level, "trace"),
	}
}

// Close the log file
func (l *Logger) Close() {
	if l == nil || l.file == nil {
		return
	}
	if err := l.file.Close(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error closing logger: %v\n", err)
	}
}

// With returns a logger that adds args to every record
func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{
		logger:       l.logger.With(args...),
		traceEnabled: l.traceEnabled,
	}
}

func (l *Logger) Trace(msg string, args ...any) {
	if l != nil && l.traceEnabled {
		l.logger.Debug("TRACE: "+msg, args...)
	}
}

func (l *Logger) Debug(msg string, args ...any) {
	if l != nil {
		l.logger.Debug(msg, args...)
	}
}

func (l *Logger) Info(msg string, args ...any) {
	if l != nil {
		l.logger.Info(msg, args...)
	}
}

func (l *Logger) Warn(msg string, args ...any) {
	if l != nil {
		l.logger.Warn(msg, args...)
	}
}

func (l *Logger) Error(msg string, args ...any) {
	if l != nil {
		l.logger.Error(msg, args...)
	}
}

// parseLogLevel converts a string log Level into the slog version.  Defaults to info if a matching log Level cannot be
// found.
func parseLogLevel(lvl string) slog.Level {
	switch strings.ToLower(lvl) {
	case "trace", "debug":
		// Trace is filtered by this package rather than by slog
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
