// Package logging writes the engine's event log. Two append-only files are
// kept: one receiving every record, one receiving warnings and errors only.
// Rotation is managed externally; this package only appends.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level is the logging verbosity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

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
	}
	return "INFO"
}

// ParseLevel maps a config string to a Level; unknown strings mean info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Config holds logger configuration.
type Config struct {
	Dir   string // directory for the two log files
	Level Level  // minimum level written to the main log
}

// Logger appends timestamped lines to the two log files. The zero value is
// a no-op logger, so components can log unconditionally.
type Logger struct {
	mu    sync.Mutex
	all   io.WriteCloser
	warns io.WriteCloser
	level Level
	now   func() time.Time
}

// New opens (creating if needed) the two log files under cfg.Dir:
// dockwatch.log and dockwatch-warnings.log.
func New(cfg Config) (*Logger, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory %s: %w", cfg.Dir, err)
	}
	all, err := openAppend(filepath.Join(cfg.Dir, "dockwatch.log"))
	if err != nil {
		return nil, err
	}
	warns, err := openAppend(filepath.Join(cfg.Dir, "dockwatch-warnings.log"))
	if err != nil {
		all.Close()
		return nil, err
	}
	return &Logger{all: all, warns: warns, level: cfg.Level, now: time.Now}, nil
}

func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return f, nil
}

// NewWriters builds a logger on arbitrary writers; used by tests and by the
// CLI when logging to stderr.
func NewWriters(all, warns io.Writer, level Level) *Logger {
	return &Logger{
		all:   nopCloser{all},
		warns: nopCloser{warns},
		level: level,
		now:   time.Now,
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// Close flushes and closes both files.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	var err error
	if l.all != nil {
		err = l.all.Close()
	}
	if l.warns != nil {
		if e := l.warns.Close(); err == nil {
			err = e
		}
	}
	return err
}

func (l *Logger) log(level Level, format string, args ...any) {
	if l == nil || l.all == nil || level < l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	ts := l.now().Format(time.RFC3339)
	line := fmt.Sprintf("[%s] %s %s\n", ts, level, fmt.Sprintf(format, args...))
	io.WriteString(l.all, line)
	if level >= LevelWarn && l.warns != nil {
		io.WriteString(l.warns, line)
	}
}

func (l *Logger) Debugf(format string, args ...any) { l.log(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.log(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.log(LevelError, format, args...) }
