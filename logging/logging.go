// Package logging provides leveled operational logging for the SDK.
// Output goes to stdout by default or to a file in the session host's log
// folder, one line per entry.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// ParseLevel maps a case-insensitive level name to a Level.
// Unknown names fall back to LevelInfo.
func ParseLevel(s string) Level {
	switch Level(strings.ToUpper(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug
	case LevelWarn, "WARNING":
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger writes structured log lines.
type Logger struct {
	mu        *sync.Mutex
	output    io.Writer
	closer    io.Closer
	minLevel  Level
	component string
	traceID   string
}

var levelPriority = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// New creates a new Logger writing to stdout at INFO.
func New() *Logger {
	return &Logger{
		mu:       &sync.Mutex{},
		output:   os.Stdout,
		minLevel: LevelInfo,
	}
}

// NewFile creates a Logger writing to GSDK_output_<nanos>.txt inside folder.
// The folder is created if missing. An empty folder means the current
// working directory.
func NewFile(folder string) (*Logger, error) {
	if folder == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving log folder: %w", err)
		}
		folder = wd
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, fmt.Errorf("creating log folder: %w", err)
	}

	name := filepath.Join(folder, fmt.Sprintf("GSDK_output_%d.txt", time.Now().UTC().UnixNano()))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	l := New()
	l.output = f
	l.closer = f
	return l, nil
}

// WithComponent returns a new logger with the given component name.
// The derived logger shares the parent's output and lock.
func (l *Logger) WithComponent(component string) *Logger {
	c := *l
	c.component = component
	c.closer = nil
	return &c
}

// WithTraceID returns a new logger that tags every line with trace=<id>.
func (l *Logger) WithTraceID(traceID string) *Logger {
	c := *l
	c.traceID = traceID
	c.closer = nil
	return &c
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.minLevel = level
	l.mu.Unlock()
}

// SetOutput sets the output writer (default: stdout).
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	l.output = w
	l.mu.Unlock()
}

// Close closes the underlying file, if this logger opened one.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, fields...)
}

// formatFields renders fields as sorted key=value pairs.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return " " + strings.Join(parts, " ")
}

// log writes: LEVEL TIMESTAMP [component] message key=value ...
func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if levelPriority[level] < levelPriority[l.minLevel] {
		return
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	var fieldStr string
	if len(fields) > 0 && fields[0] != nil {
		fieldStr = formatFields(fields[0])
	}
	if l.traceID != "" {
		fieldStr += " trace=" + l.traceID
	}

	var line string
	if l.component != "" {
		line = fmt.Sprintf("%-5s %s [%s] %s%s\n", level, timestamp, l.component, msg, fieldStr)
	} else {
		line = fmt.Sprintf("%-5s %s %s%s\n", level, timestamp, msg, fieldStr)
	}

	l.output.Write([]byte(line))
}

// --- Heartbeat event logging ---

// HeartbeatExchange logs a completed heartbeat round trip.
func (l *Logger) HeartbeatExchange(state string, players []string, operation string, interval time.Duration) {
	l.Debug("heartbeat", map[string]interface{}{
		"state":     state,
		"players":   strings.Join(players, ","),
		"operation": operation,
		"interval":  interval.String(),
	})
}

// StateTransition logs a lifecycle state change.
func (l *Logger) StateTransition(from, to string) {
	l.Info("state_transition", map[string]interface{}{
		"from": from,
		"to":   to,
	})
}

// OperationIgnored logs an operation that has no local effect.
func (l *Logger) OperationIgnored(operation string) {
	l.Warn("operation_ignored", map[string]interface{}{
		"operation": operation,
	})
}

// RetryAttempt logs a failed heartbeat attempt that will be retried.
func (l *Logger) RetryAttempt(attempt int, err error) {
	l.Warn("heartbeat_attempt_failed", map[string]interface{}{
		"attempt": attempt,
		"error":   err.Error(),
	})
}
