package logger

// Logger provides a unified logging interface for the retrieval engine.
// Components log through the package-level functions; tests can swap the
// backend for a silent one.

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

// LogLevel represents log severity levels
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	level   atomic.Int32
	backend atomic.Pointer[slog.Logger]
)

func init() {
	level.Store(int32(LevelInfo))
	backend.Store(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

// SetLevel sets the minimum log level.
func SetLevel(l LogLevel) {
	level.Store(int32(l))
}

// SetWriter redirects log output, e.g. to a buffer in tests.
func SetWriter(w io.Writer) {
	backend.Store(slog.New(slog.NewTextHandler(w, nil)))
}

// Silence discards all log output; used in tests.
func Silence() {
	SetWriter(io.Discard)
}

// Debugf logs a debug message
func Debugf(format string, args ...interface{}) {
	logf(LevelDebug, format, args...)
}

// Infof logs an info message
func Infof(format string, args ...interface{}) {
	logf(LevelInfo, format, args...)
}

// Warnf logs a warning message
func Warnf(format string, args ...interface{}) {
	logf(LevelWarn, format, args...)
}

// Errorf logs an error message
func Errorf(format string, args ...interface{}) {
	logf(LevelError, format, args...)
}

func logf(l LogLevel, format string, args ...interface{}) {
	if int32(l) < level.Load() {
		return
	}
	msg := fmt.Sprintf(format, args...)
	log := backend.Load()
	switch l {
	case LevelDebug:
		log.Debug(msg)
	case LevelInfo:
		log.Info(msg)
	case LevelWarn:
		log.Warn(msg)
	case LevelError:
		log.Error(msg)
	}
}
