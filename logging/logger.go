package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a case-insensitive level name ("debug", "info", "warn",
// "warning", "error") into a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug, nil
	case "", "info":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger defines the minimal logging interface for crewmesh.
// This allows users to provide their own logger implementation or use the built-in adapters.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// CrewLogger wraps slog.Logger adding run / component context and domain
// helpers for tool calls, model calls and task executions. With* methods
// return modified copies, the receiver is never changed.
type CrewLogger struct {
	logger    *slog.Logger
	level     LogLevel
	component string
	runID     string
	attrs     []slog.Attr
}

// LoggerConfig configures construction of a CrewLogger.
type LoggerConfig struct {
	Level     LogLevel
	Format    string // json or text
	Output    io.Writer
	AddSource bool
	Component string
}

// DefaultLoggerConfig returns a baseline text info level configuration writing to stderr.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "text", Output: os.Stderr}
}

// NewLogger builds a CrewLogger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) *CrewLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return &CrewLogger{logger: slog.New(handler), level: cfg.Level, component: cfg.Component}
}

// NewSlogLogger creates a new CrewLogger with the specified level and format.
func NewSlogLogger(level LogLevel, format string, addSource bool) *CrewLogger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	if format != "" {
		cfg.Format = format
	}
	cfg.AddSource = addSource
	return NewLogger(cfg)
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *CrewLogger) clone() *CrewLogger {
	nl := *l
	nl.attrs = append([]slog.Attr(nil), l.attrs...)
	return &nl
}

// With attaches a key/value attribute to every subsequent log entry.
func (l *CrewLogger) With(key string, value any) *CrewLogger {
	nl := l.clone()
	nl.attrs = append(nl.attrs, slog.Any(key, value))
	return nl
}

// WithComponent sets the logical component (runner, agent, tool, ...).
func (l *CrewLogger) WithComponent(c string) *CrewLogger {
	nl := l.clone()
	nl.component = c
	return nl
}

// WithRun attaches the pipeline run identifier.
func (l *CrewLogger) WithRun(runID string) *CrewLogger {
	nl := l.clone()
	nl.runID = runID
	return nl
}

func (l *CrewLogger) buildAttrs(args []any) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(l.attrs)+len(args)/2+2)
	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	if l.runID != "" {
		attrs = append(attrs, slog.String("run_id", l.runID))
	}
	attrs = append(attrs, l.attrs...)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", args[i])
		}
		if i+1 >= len(args) {
			attrs = append(attrs, slog.String("!BADKEY", key))
			break
		}
		attrs = append(attrs, slog.Any(key, args[i+1]))
	}
	return attrs
}

func (l *CrewLogger) log(level slog.Level, min LogLevel, msg string, args ...any) {
	if l.level > min {
		return
	}
	l.logger.LogAttrs(context.Background(), level, msg, l.buildAttrs(args)...)
}

// Debug logs at debug level.
func (l *CrewLogger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, LogLevelDebug, msg, args...)
}

// Info logs at info level.
func (l *CrewLogger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, LogLevelInfo, msg, args...)
}

// Warn logs at warn level.
func (l *CrewLogger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, LogLevelWarn, msg, args...)
}

// Error logs at error level.
func (l *CrewLogger) Error(msg string, args ...any) {
	l.log(slog.LevelError, LogLevelError, msg, args...)
}

// LogToolCall records execution details for a tool invocation.
func (l *CrewLogger) LogToolCall(tool string, dur time.Duration, err error) {
	args := []any{"tool_name", tool, "duration", dur, "success", err == nil}
	if err != nil {
		l.Error("Tool execution failed", append(args, "error", err.Error())...)
		return
	}
	l.Info("Tool execution completed", args...)
}

// LogLLMCall records model call latency, token usage and success.
func (l *CrewLogger) LogLLMCall(model string, tokens int, dur time.Duration, err error) {
	args := []any{"model", model, "token_count", tokens, "duration", dur, "success", err == nil}
	if err != nil {
		l.Error("LLM call failed", append(args, "error", err.Error())...)
		return
	}
	l.Info("LLM call completed", args...)
}

// LogTaskExecution records the outcome of a single pipeline task.
func (l *CrewLogger) LogTaskExecution(task, agent string, dur time.Duration, err error) {
	args := []any{"task", task, "agent", agent, "duration", dur, "success", err == nil}
	if err != nil {
		l.Error("Task execution failed", append(args, "error", err.Error())...)
		return
	}
	l.Info("Task execution completed", args...)
}

// StartTimer returns a closure that logs the elapsed duration when invoked.
func (l *CrewLogger) StartTimer(op string) func() {
	start := time.Now()
	return func() { l.Info("Operation completed", "operation", op, "duration", time.Since(start)) }
}

// Recorder is implemented by loggers that know how to record tool, LLM and
// task outcomes. *CrewLogger is one.
type Recorder interface {
	LogToolCall(tool string, dur time.Duration, err error)
	LogLLMCall(model string, tokens int, dur time.Duration, err error)
	LogTaskExecution(task, agent string, dur time.Duration, err error)
}

// ToolCall records a tool invocation on l, through its Recorder helpers when
// l has them.
func ToolCall(l Logger, tool string, dur time.Duration, err error) {
	if rec, ok := l.(Recorder); ok {
		rec.LogToolCall(tool, dur, err)
		return
	}
	outcome(l, "tool.call", err, "tool_name", tool, "duration", dur)
}

// LLMCall records a model call on l.
func LLMCall(l Logger, model string, tokens int, dur time.Duration, err error) {
	if rec, ok := l.(Recorder); ok {
		rec.LogLLMCall(model, tokens, dur, err)
		return
	}
	outcome(l, "llm.call", err, "model", model, "token_count", tokens, "duration", dur)
}

// TaskExecution records the outcome of a pipeline task on l.
func TaskExecution(l Logger, task, agent string, dur time.Duration, err error) {
	if rec, ok := l.(Recorder); ok {
		rec.LogTaskExecution(task, agent, dur, err)
		return
	}
	outcome(l, "task.execution", err, "task", task, "agent", agent, "duration", dur)
}

func outcome(l Logger, msg string, err error, args ...any) {
	l = OrNoOp(l)
	args = append(args, "success", err == nil)
	if err != nil {
		l.Error(msg+".failed", append(args, "error", err.Error())...)
		return
	}
	l.Info(msg+".completed", args...)
}

// With returns l carrying key/value on every entry when l is a *CrewLogger.
// Other loggers are returned unchanged.
func With(l Logger, key string, value any) Logger {
	if cl, ok := l.(*CrewLogger); ok {
		return cl.With(key, value)
	}
	return l
}

// ForRun scopes l to a pipeline run when l is a *CrewLogger.
func ForRun(l Logger, runID string) Logger {
	if cl, ok := l.(*CrewLogger); ok {
		return cl.WithRun(runID)
	}
	return l
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// OrNoOp returns l, or a NoOpLogger when l is nil.
func OrNoOp(l Logger) Logger {
	if l == nil {
		return NoOpLogger{}
	}
	return l
}
