package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
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
		return slog.LevelInfo // Default to INFO for unknown
	}
}

// ParseLevel maps a settings string to a LogLevel. Unknown strings map to INFO.
func ParseLevel(s string) LogLevel {
	switch s {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// LogEntry is the structured log entry retained for the diagnostics buffer.
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Subsystem string
	Message   string
	Err       error
}

var (
	mu            sync.Mutex
	defaultLogger *slog.Logger
	diagnostics   *ringBuffer
)

// diagnosticsBufferSize is the number of recent entries kept for
// "show diagnostics" output on fatal errors.
const diagnosticsBufferSize = 512

// ringBuffer is a fixed-size buffer of the most recent log entries.
type ringBuffer struct {
	entries []LogEntry
	next    int
	full    bool
}

func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{entries: make([]LogEntry, size)}
}

func (rb *ringBuffer) add(e LogEntry) {
	rb.entries[rb.next] = e
	rb.next = (rb.next + 1) % len(rb.entries)
	if rb.next == 0 {
		rb.full = true
	}
}

func (rb *ringBuffer) snapshot() []LogEntry {
	if !rb.full {
		out := make([]LogEntry, rb.next)
		copy(out, rb.entries[:rb.next])
		return out
	}
	out := make([]LogEntry, 0, len(rb.entries))
	out = append(out, rb.entries[rb.next:]...)
	out = append(out, rb.entries[:rb.next]...)
	return out
}

// InitForCLI initializes the logging system.
// This should be called once at application startup.
func InitForCLI(filterLevel LogLevel, output io.Writer) {
	opts := &slog.HandlerOptions{
		Level: filterLevel.SlogLevel(),
	}

	mu.Lock()
	defer mu.Unlock()
	defaultLogger = slog.New(slog.NewTextHandler(output, opts))
	slog.SetDefault(defaultLogger)
	diagnostics = newRingBuffer(diagnosticsBufferSize)
}

// Recent returns the most recent log entries, oldest first. The diagnostics
// buffer retains entries below the configured filter level as well, so a
// failure report can include DEBUG context the CLI output suppressed.
func Recent() []LogEntry {
	mu.Lock()
	defer mu.Unlock()
	if diagnostics == nil {
		return nil
	}
	return diagnostics.snapshot()
}

func logInternal(level LogLevel, subsystem string, err error, messageFmt string, args ...interface{}) {
	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}
	now := time.Now()

	mu.Lock()
	logger := defaultLogger
	if diagnostics != nil {
		diagnostics.add(LogEntry{
			Timestamp: now,
			Level:     level,
			Subsystem: subsystem,
			Message:   msg,
			Err:       err,
		})
	}
	mu.Unlock()

	if logger == nil {
		fmt.Fprintf(os.Stderr, "[LOGGING_ERROR] Logger not initialized. Log: %s [%s] %s\n", now.Format(time.RFC3339), level, msg)
		return
	}
	if !logger.Enabled(context.Background(), level.SlogLevel()) {
		return
	}

	var slogAttrs []slog.Attr
	slogAttrs = append(slogAttrs, slog.String("subsystem", subsystem))
	if err != nil {
		slogAttrs = append(slogAttrs, slog.String("error", err.Error()))
	}

	logger.LogAttrs(context.Background(), level.SlogLevel(), msg, slogAttrs...)
}

// Debug logs a debug message.
func Debug(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelDebug, subsystem, nil, messageFmt, args...)
}

// Info logs an informational message.
func Info(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelInfo, subsystem, nil, messageFmt, args...)
}

// Warn logs a warning message.
func Warn(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelWarn, subsystem, nil, messageFmt, args...)
}

// Error logs an error message.
func Error(subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(LevelError, subsystem, err, messageFmt, args...)
}

// FormatDiagnostics renders recent entries for a user-facing
// "show diagnostics" report.
func FormatDiagnostics(entries []LogEntry) string {
	out := ""
	for _, e := range entries {
		out += fmt.Sprintf("%s [%s] %s: %s", e.Timestamp.Format(time.RFC3339), e.Level, e.Subsystem, e.Message)
		if e.Err != nil {
			out += fmt.Sprintf(" (error: %v)", e.Err)
		}
		out += "\n"
	}
	return out
}
