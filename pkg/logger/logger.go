// Package logger provides a simple, clean logging interface.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// Constants for logging operations.
const (
	callerSkipFrames = 2 // Skip frames: getCaller -> logging method -> actual caller
	nameKey          = "logger"
)

// Logger defines the logging interface.
type Logger interface {
	// Context-aware variants
	Info(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	Debug(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Fatal(ctx context.Context, msg string, fields ...Field)

	Named(name string) Logger
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value interface{}
}

// Field constructors.
func String(key, val string) Field          { return Field{Key: key, Value: val} }
func Int(key string, val int) Field         { return Field{Key: key, Value: val} }
func Int64(key string, val int64) Field     { return Field{Key: key, Value: val} }
func Float64(key string, val float64) Field { return Field{Key: key, Value: val} }
func Any(key string, val interface{}) Field { return Field{Key: key, Value: val} }
func Error(err error) Field                 { return Field{Key: "error", Value: err} }

// logrusLogger implements Logger on top of a logrus entry.
type logrusLogger struct {
	entry *logrus.Entry
	name  string
}

func (l *logrusLogger) Named(name string) Logger {
	if l.name != "" {
		name = l.name + "." + name
	}
	return &logrusLogger{entry: l.entry.WithField(nameKey, name), name: name}
}

func (l *logrusLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.with(ctx, getCaller(), fields).Info(msg)
}

func (l *logrusLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.with(ctx, getCaller(), fields).Error(msg)
}

func (l *logrusLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.with(ctx, getCaller(), fields).Debug(msg)
}

func (l *logrusLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.with(ctx, getCaller(), fields).Warn(msg)
}

func (l *logrusLogger) Fatal(ctx context.Context, msg string, fields ...Field) {
	// logrus.Fatal calls the configured exit handler (os.Exit(1) by default).
	l.with(ctx, getCaller(), fields).Fatal(msg)
}

func (l *logrusLogger) with(ctx context.Context, caller string, fields []Field) *logrus.Entry {
	return l.entry.WithContext(ctx).WithFields(convertFields(fields)).WithField("source", caller)
}

// convertFields converts our Field type to logrus.Fields.
func convertFields(fields []Field) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}

var (
	global Logger
	base   *logrus.Logger
)

// Init initializes the global logger.
func Init() error {
	return InitWithOutput(os.Stdout)
}

// InitWithOutput initializes the global logger writing to w.
func InitWithOutput(w io.Writer) error {
	if w == nil {
		return fmt.Errorf("logger output must not be nil")
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	// Default to info; can be changed with SetLevel*/SetLevelString.
	l.SetLevel(logrus.InfoLevel)
	base = l
	global = &logrusLogger{entry: logrus.NewEntry(l)}
	return nil
}

// getCaller returns the caller location in format relative/path/file.go:line (IDE-friendly).
func getCaller() string {
	_, file, line, ok := runtime.Caller(callerSkipFrames)
	if !ok {
		return "unknown:0"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	relPath, err := filepath.Rel(cwd, file)
	if err != nil {
		return fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	return fmt.Sprintf("%s:%d", relPath, line)
}

// Get returns the global logger.
func Get() Logger {
	if global == nil {
		// Don't auto-initialize with production settings
		// The logger should be explicitly initialized by the application
		panic("logger not initialized. Call logger.Init() first")
	}
	return global
}

// Named creates a named logger.
func Named(name string) Logger {
	return Get().Named(name)
}

// Sync flushes buffered log entries.
func Sync() error {
	// logrus writes synchronously; nothing to flush
	return nil
}

// SetLevel updates the current logging level for the global logger.
func SetLevel(level logrus.Level) {
	if base != nil {
		base.SetLevel(level)
	}
}

// SetLevelString parses and sets the logging level.
// Accepts: debug, info, warn/warning, error (case-insensitive).
func SetLevelString(level string) error {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		SetLevel(logrus.DebugLevel)
	case "", "info":
		SetLevel(logrus.InfoLevel)
	case "warn", "warning":
		SetLevel(logrus.WarnLevel)
	case "error":
		SetLevel(logrus.ErrorLevel)
	default:
		return fmt.Errorf("unknown log level: %s", level)
	}
	return nil
}
