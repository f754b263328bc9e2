package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	ExecutionLogFile   = "test-execution.log"
	PageActionsLogFile = "page-actions.log"
	ErrorsLogFile      = "errors.log"

	// PageActionSubsystem routes entries to page-actions.log.
	PageActionSubsystem = "PageAction"

	lineTimeFormat = "2006-01-02 15:04:05.000"
)

// logFile is one append target. Writes to the same file are serialized.
type logFile struct {
	mu     sync.Mutex
	name   string
	title  string
	w      io.WriteCloser
	failed bool
}

func (f *logFile) writeLine(line string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.w == nil || f.failed {
		return
	}
	if _, err := io.WriteString(f.w, line+"\n"); err != nil {
		// Reported once; the run carries on without this file.
		f.failed = true
		fmt.Fprintf(os.Stderr, "[LOGGING_ERROR] writing %s: %v\n", f.name, err)
	}
}

func (f *logFile) close(now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.w == nil {
		return nil
	}
	if !f.failed {
		_, _ = fmt.Fprintf(f.w, "=== %s LOG ENDED AT %s ===\n", f.title, now.Format(lineTimeFormat))
	}
	err := f.w.Close()
	f.w = nil
	return err
}

// RunLogs holds the categorized log files of one test run.
type RunLogs struct {
	dir        string
	minLevel   LogLevel
	execution  *logFile
	pageAction *logFile
	errors     *logFile
	closeOnce  sync.Once
	closeErr   error
}

// OpenRunLogs creates dir and the three run log files inside it, writes
// their headers, and starts teeing every log entry at or above minLevel
// into them. Call Close on the returned value when the run ends.
func OpenRunLogs(dir string, minLevel LogLevel) (*RunLogs, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	now := time.Now()
	rl := &RunLogs{dir: dir, minLevel: minLevel}
	specs := []struct {
		target **logFile
		name   string
		title  string
	}{
		{&rl.execution, ExecutionLogFile, "TEST EXECUTION"},
		{&rl.pageAction, PageActionsLogFile, "PAGE ACTIONS"},
		{&rl.errors, ErrorsLogFile, "ERRORS"},
	}
	for _, s := range specs {
		f, err := os.OpenFile(filepath.Join(dir, s.name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			_ = rl.closeFiles(now)
			return nil, fmt.Errorf("failed to open %s: %w", s.name, err)
		}
		lf := &logFile{name: s.name, title: s.title, w: f}
		lf.writeLine(fmt.Sprintf("=== %s LOG STARTED AT %s ===", s.title, now.Format(lineTimeFormat)))
		*s.target = lf
	}

	mu.Lock()
	runLogs = rl
	mu.Unlock()
	return rl, nil
}

// Dir returns the directory holding the log files.
func (rl *RunLogs) Dir() string {
	return rl.dir
}

func (rl *RunLogs) write(e Entry) {
	if e.Level < rl.minLevel {
		return
	}
	line := FormatEntry(e)
	rl.execution.writeLine(line)
	if e.Subsystem == PageActionSubsystem {
		rl.pageAction.writeLine(line)
	}
	if e.Level >= LevelWarn {
		rl.errors.writeLine(line)
	}
}

// FormatEntry renders an entry the way it appears in the run log files.
func FormatEntry(e Entry) string {
	line := fmt.Sprintf("%s - [%s] [%s]", e.Timestamp.Format(lineTimeFormat), e.Level, e.Subsystem)
	if e.Feature != "" || e.Scenario != "" {
		line += fmt.Sprintf(" [%s / %s]", e.Feature, e.Scenario)
	}
	line += " " + e.Message
	if e.Err != nil {
		line += ": " + e.Err.Error()
	}
	return line
}

// Close writes the closing footers, closes the files, and detaches them
// from the logger. It is safe to call more than once.
func (rl *RunLogs) Close() error {
	rl.closeOnce.Do(func() {
		mu.Lock()
		if runLogs == rl {
			runLogs = nil
		}
		mu.Unlock()
		rl.closeErr = rl.closeFiles(time.Now())
	})
	return rl.closeErr
}

func (rl *RunLogs) closeFiles(now time.Time) error {
	var errs []error
	for _, f := range []*logFile{rl.execution, rl.pageAction, rl.errors} {
		if f == nil {
			continue
		}
		if err := f.close(now); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", f.name, err))
		}
	}
	return errors.Join(errs...)
}
