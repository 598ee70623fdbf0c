// Package tuilog provides file-based logging for the TUI, where
// stdout/stderr belong to the terminal UI and cannot carry diagnostics.
package tuilog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Logger appends timestamped lines to a file. The zero value is a
// disabled logger whose methods are all no-ops.
type Logger struct {
	mu   sync.Mutex
	file *os.File
}

// Log is the process-wide logger. Disabled until Init is called with a
// non-empty path.
var Log = &Logger{}

// Init points the global logger at a file. An empty path leaves logging
// disabled. Calling Init twice replaces the destination.
func Init(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	Log.mu.Lock()
	old := Log.file
	Log.file = f
	Log.mu.Unlock()
	if old != nil {
		old.Close()
	}
	Log.Infof("log opened pid=%d", os.Getpid())
	return nil
}

// Close closes the log file and disables the logger.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Enabled reports whether lines will actually be written.
func (l *Logger) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file != nil
}

// Writer exposes the log destination for libraries that want an
// io.Writer. Returns io.Discard while disabled.
func (l *Logger) Writer() io.Writer {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return io.Discard
	}
	return l.file
}

func (l *Logger) writef(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	fmt.Fprintf(l.file, "%s [%s] %s\n",
		time.Now().Format("15:04:05.000"), level, fmt.Sprintf(format, args...))
	l.file.Sync()
}

// Debugf logs a formatted debug line.
func (l *Logger) Debugf(format string, args ...any) { l.writef("DEBUG", format, args...) }

// Infof logs a formatted info line.
func (l *Logger) Infof(format string, args ...any) { l.writef("INFO", format, args...) }

// Warnf logs a formatted warning line.
func (l *Logger) Warnf(format string, args ...any) { l.writef("WARN", format, args...) }

// Errorf logs a formatted error line.
func (l *Logger) Errorf(format string, args ...any) { l.writef("ERROR", format, args...) }
