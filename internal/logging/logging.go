// Package logging configures the process-wide zerolog logger: human-readable
// console output on stderr, optionally duplicated to a monthly log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Setup builds the root logger. When logDir is non-empty, events are also
// appended to a monthly file inside it; the returned closer releases that
// file and is a no-op otherwise. verbose lowers the level to Debug.
func Setup(logDir string, verbose bool) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}

	var w io.Writer = console
	var closer io.Closer = nopCloser{}
	if logDir != "" {
		mw, err := NewMonthlyWriter(logDir, time.Now)
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		w = zerolog.MultiLevelWriter(console, mw)
		closer = mw
	}

	log := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return log, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// MonthlyWriter appends to rasterbatch-YYYY-MM.log in a directory, opening a
// new file when a write lands in a different month than the current file.
type MonthlyWriter struct {
	dir   string
	now   func() time.Time
	file  *os.File
	month string
}

// NewMonthlyWriter creates the log directory if needed and opens the current
// month's file. now is injectable for tests; nil means time.Now.
func NewMonthlyWriter(dir string, now func() time.Time) (*MonthlyWriter, error) {
	if now == nil {
		now = time.Now
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	w := &MonthlyWriter{dir: dir, now: now}
	if err := w.rotate(w.now().Format("2006-01")); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *MonthlyWriter) Write(p []byte) (int, error) {
	month := w.now().Format("2006-01")
	if month != w.month {
		if err := w.rotate(month); err != nil {
			return 0, err
		}
	}
	return w.file.Write(p)
}

// Close releases the current file. Further writes reopen it.
func (w *MonthlyWriter) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	w.month = ""
	return err
}

// Path returns the file currently being written.
func (w *MonthlyWriter) Path() string {
	if w.file == nil {
		return ""
	}
	return w.file.Name()
}

func (w *MonthlyWriter) rotate(month string) error {
	if w.file != nil {
		w.file.Close()
	}
	name := filepath.Join(w.dir, fmt.Sprintf("rasterbatch-%s.log", month))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	w.file = f
	w.month = month
	return nil
}
