package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

const (
	// TraceLevel indicates a log message's level of criticality
	TraceLevel = iota
	// DebugLevel indicates a log message's level of criticality
	DebugLevel
	// InfoLevel indicates a log message's level of criticality
	InfoLevel
	// WarnLevel indicates a log message's level of criticality
	WarnLevel
	// ErrorLevel indicates a log message's level of criticality
	ErrorLevel
	// FatalLevel indicates a log message's level of criticality
	FatalLevel
)

// LogLevelToString translates a log level enum to a string representation
func LogLevelToString(level int) string {
	switch level {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "TRACE"
	}
}

// StringToLogLevel is the inverse of LogLevelToString. Unknown names map to InfoLevel.
func StringToLogLevel(name string) int {
	switch name {
	case "TRACE", "trace":
		return TraceLevel
	case "DEBUG", "debug":
		return DebugLevel
	case "WARN", "warn":
		return WarnLevel
	case "ERROR", "error":
		return ErrorLevel
	case "FATAL", "fatal":
		return FatalLevel
	default:
		return InfoLevel
	}
}

// slog has no trace or fatal levels
var slogLevels = map[int]slog.Level{
	TraceLevel: slog.LevelDebug - 4,
	DebugLevel: slog.LevelDebug,
	InfoLevel:  slog.LevelInfo,
	WarnLevel:  slog.LevelWarn,
	ErrorLevel: slog.LevelError,
	FatalLevel: slog.LevelError + 4,
}

// Logger is a leveled logger. Messages below the configured level are dropped
// before they are formatted.
type Logger struct {
	level int
	out   *slog.Logger
}

// New produces a Logger writing text records to stderr
func New(level int) *Logger {
	return NewWithHandler(level, slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevels[TraceLevel]}))
}

// NewWithHandler produces a Logger writing to an arbitrary slog.Handler
func NewWithHandler(level int, h slog.Handler) *Logger {
	return &Logger{level: level, out: slog.New(h)}
}

// Discard produces a Logger which drops every message
func Discard() *Logger {
	return &Logger{level: FatalLevel + 1}
}

// Level returns the minimum level this Logger emits
func (l *Logger) Level() int {
	return l.level
}

// Enabled returns true iff messages at level would be emitted
func (l *Logger) Enabled(level int) bool {
	return l != nil && l.out != nil && level >= l.level
}

// Logf emits a formatted message at a level, with optional structured attributes
func (l *Logger) Logf(ctx context.Context, level int, format string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	if level == TraceLevel || level == FatalLevel {
		l.out.Log(ctx, slogLevels[level], fmt.Sprintf(format, args...), slog.String("severity", LogLevelToString(level)))
		return
	}
	l.out.Log(ctx, slogLevels[level], fmt.Sprintf(format, args...))
}

// Debugf emits a formatted message at DebugLevel
func (l *Logger) Debugf(ctx context.Context, format string, args ...interface{}) {
	l.Logf(ctx, DebugLevel, format, args...)
}

// Infof emits a formatted message at InfoLevel
func (l *Logger) Infof(ctx context.Context, format string, args ...interface{}) {
	l.Logf(ctx, InfoLevel, format, args...)
}

// Warnf emits a formatted message at WarnLevel
func (l *Logger) Warnf(ctx context.Context, format string, args ...interface{}) {
	l.Logf(ctx, WarnLevel, format, args...)
}

// Errorf emits a formatted message at ErrorLevel
func (l *Logger) Errorf(ctx context.Context, format string, args ...interface{}) {
	l.Logf(ctx, ErrorLevel, format, args...)
}
