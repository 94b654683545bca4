package incident

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Logger appends incident records to a file. Every call opens the file in
// append mode and syncs before returning, so a record that was reported as
// written survives a crash right after.
type Logger struct {
	path   string
	format Format
	mu     sync.Mutex
}

func NewLogger(path string, format Format) (*Logger, error) {
	if path == "" {
		return nil, fmt.Errorf("incident log path is empty")
	}
	if format == "" {
		format = FormatText
	}
	if !format.Valid() {
		return nil, fmt.Errorf("unsupported incident format %q", format)
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return &Logger{path: path, format: format}, nil
}

func (l *Logger) Path() string {
	return l.path
}

func (l *Logger) Format() Format {
	return l.format
}

// Record appends one line for rec.
func (l *Logger) Record(rec Record) error {
	line, err := rec.Line(l.format)
	if err != nil {
		return err
	}

	return l.append(line)
}

// Begin checks that the log can be opened for appending, creating it if
// needed. Existing content is never touched.
func (l *Logger) Begin() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.open()
	if err != nil {
		return err
	}
	return f.Close()
}

func (l *Logger) open() (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create incident log directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open incident log %s: %w", l.path, err)
	}
	return f, nil
}

func (l *Logger) append(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.open()
	if err != nil {
		return err
	}

	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("failed to write incident log %s: %w", l.path, err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush incident log %s: %w", l.path, err)
	}

	return f.Close()
}
