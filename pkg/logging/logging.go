package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel defines the severity of the log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String makes LogLevel satisfy the fmt.Stringer interface.
func (l LogLevel) String() string {
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

func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel converts a level name such as "debug" or "WARN" to a LogLevel.
// Unknown names yield LevelInfo and an error.
func ParseLevel(name string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// Entry is one formatted log record as handed to the run log files.
type Entry struct {
	Timestamp time.Time
	Level     LogLevel
	Subsystem string
	Message   string
	Err       error
	Feature   string
	Scenario  string
}

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
	runLogs       *RunLogs
)

// InitForCLI initializes the logging system for console output.
// This should be called once at application startup.
func InitForCLI(filterLevel LogLevel, output io.Writer) {
	handler := slog.NewTextHandler(output, &slog.HandlerOptions{Level: filterLevel.SlogLevel()})
	mu.Lock()
	defaultLogger = slog.New(handler)
	mu.Unlock()
	slog.SetDefault(defaultLogger)
}

type scenarioKey struct{}

type scenarioLabels struct {
	feature  string
	scenario string
}

// WithScenario returns a context whose log lines carry the feature and
// scenario they were written from.
func WithScenario(ctx context.Context, feature, scenario string) context.Context {
	return context.WithValue(ctx, scenarioKey{}, scenarioLabels{feature: feature, scenario: scenario})
}

func labelsFrom(ctx context.Context) scenarioLabels {
	if ctx == nil {
		return scenarioLabels{}
	}
	l, _ := ctx.Value(scenarioKey{}).(scenarioLabels)
	return l
}

func logInternal(ctx context.Context, level LogLevel, subsystem string, err error, messageFmt string, args ...interface{}) {
	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}
	labels := labelsFrom(ctx)

	mu.RLock()
	logger, files := defaultLogger, runLogs
	mu.RUnlock()

	if files != nil {
		files.write(Entry{
			Timestamp: time.Now(),
			Level:     level,
			Subsystem: subsystem,
			Message:   msg,
			Err:       err,
			Feature:   labels.feature,
			Scenario:  labels.scenario,
		})
	}

	if logger == nil {
		if level >= LevelWarn {
			fmt.Fprintf(os.Stderr, "[LOGGING_ERROR] Logger not initialized. Log: %s [%s] %s\n", time.Now().Format(time.RFC3339), level, msg)
		}
		return
	}
	if !logger.Enabled(context.Background(), level.SlogLevel()) {
		return
	}

	attrs := []slog.Attr{slog.String("subsystem", subsystem)}
	if labels.feature != "" {
		attrs = append(attrs, slog.String("feature", labels.feature))
	}
	if labels.scenario != "" {
		attrs = append(attrs, slog.String("scenario", labels.scenario))
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	logger.LogAttrs(context.Background(), level.SlogLevel(), msg, attrs...)
}

// Debug logs a debug message.
func Debug(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(context.Background(), LevelDebug, subsystem, nil, messageFmt, args...)
}

// Info logs an informational message.
func Info(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(context.Background(), LevelInfo, subsystem, nil, messageFmt, args...)
}

// Warn logs a warning message.
func Warn(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(context.Background(), LevelWarn, subsystem, nil, messageFmt, args...)
}

// Error logs an error message.
func Error(subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(context.Background(), LevelError, subsystem, err, messageFmt, args...)
}

// DebugCtx logs a debug message labelled with the scenario carried by ctx.
func DebugCtx(ctx context.Context, subsystem string, messageFmt string, args ...interface{}) {
	logInternal(ctx, LevelDebug, subsystem, nil, messageFmt, args...)
}

// InfoCtx logs an informational message labelled with the scenario carried by ctx.
func InfoCtx(ctx context.Context, subsystem string, messageFmt string, args ...interface{}) {
	logInternal(ctx, LevelInfo, subsystem, nil, messageFmt, args...)
}

// WarnCtx logs a warning labelled with the scenario carried by ctx.
func WarnCtx(ctx context.Context, subsystem string, messageFmt string, args ...interface{}) {
	logInternal(ctx, LevelWarn, subsystem, nil, messageFmt, args...)
}

// ErrorCtx logs an error labelled with the scenario carried by ctx.
func ErrorCtx(ctx context.Context, subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(ctx, LevelError, subsystem, err, messageFmt, args...)
}
