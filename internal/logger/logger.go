// Package logger provides structured logging utilities for the video-maker application.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
)

// Level represents the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) charm() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ParseLevel maps a config string (debug, info, warn, error) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Options configures a Logger.
type Options struct {
	Level  Level
	Format string // text, logfmt or json
	Output io.Writer
}

// Logger wraps a charmbracelet logger with a printf-style API.
type Logger struct {
	mu    sync.Mutex
	level Level
	base  *log.Logger
}

var defaultLogger = New(LevelInfo, os.Stderr)

// New creates a logger writing to output at level.
func New(level Level, output io.Writer) *Logger {
	return NewWithOptions(Options{Level: level, Output: output})
}

// NewWithOptions builds a Logger. Text format falls back to logfmt when the
// output is not a terminal so redirected logs stay machine readable.
func NewWithOptions(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	base := log.NewWithOptions(out, log.Options{
		Level:           opts.Level.charm(),
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Formatter:       formatterFor(opts.Format, out),
	})
	return &Logger{level: opts.Level, base: base}
}

func formatterFor(format string, out io.Writer) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	}
	if !isTerminal(out) {
		return log.LogfmtFormatter
	}
	return log.TextFormatter
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Configure replaces the default logger.
func Configure(opts Options) {
	l := NewWithOptions(opts)
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.level = l.level
	defaultLogger.base = l.base
}

// Default returns the process-wide logger.
func Default() *Logger {
	return defaultLogger
}

// SetLevel sets the minimum log level for the default logger.
func SetLevel(level Level) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.level = level
	defaultLogger.base.SetLevel(level.charm())
}

// SetOutput sets the output writer for the default logger.
func SetOutput(w io.Writer) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.base.SetOutput(w)
}

// With returns a child logger carrying key/value fields on every record.
func (l *Logger) With(keyvals ...any) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{level: l.level, base: l.base.With(keyvals...)}
}

func (l *Logger) charm() *log.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.base
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	l.charm().Debugf(format, args...)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) {
	l.charm().Infof(format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...any) {
	l.charm().Warnf(format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.charm().Errorf(format, args...)
}

// Package-level functions that use the default logger

// Debug logs a debug message using the default logger.
func Debug(format string, args ...any) {
	defaultLogger.Debug(format, args...)
}

// Info logs an informational message using the default logger.
func Info(format string, args ...any) {
	defaultLogger.Info(format, args...)
}

// Warn logs a warning message using the default logger.
func Warn(format string, args ...any) {
	defaultLogger.Warn(format, args...)
}

// Error logs an error message using the default logger.
func Error(format string, args ...any) {
	defaultLogger.Error(format, args...)
}

// With returns a child of the default logger.
func With(keyvals ...any) *Logger {
	return defaultLogger.With(keyvals...)
}
