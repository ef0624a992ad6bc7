package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel) (*CrewLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := NewLogger(&LoggerConfig{Level: level, Format: "json", Output: buf})
	return l, buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   LogLevelDebug,
		"INFO":    LogLevelInfo,
		"":        LogLevelInfo,
		"warning": LogLevelWarn,
		"Error":   LogLevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestCrewLogger_LevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(LogLevelWarn)

	l.Debug("dropped")
	l.Info("dropped")
	l.Warn("kept")
	l.Error("kept too")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "kept", lines[0]["msg"])
	assert.Equal(t, "kept too", lines[1]["msg"])
}

func TestCrewLogger_ContextAttributes(t *testing.T) {
	l, buf := newBufferLogger(LogLevelDebug)

	l.WithComponent("runner").WithRun("run-1").With("crew", "job_posting").Info("runner.run.start", "tasks", 3)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "runner", lines[0]["component"])
	assert.Equal(t, "run-1", lines[0]["run_id"])
	assert.Equal(t, "job_posting", lines[0]["crew"])
	assert.Equal(t, float64(3), lines[0]["tasks"])
}

func TestCrewLogger_WithDoesNotMutateReceiver(t *testing.T) {
	l, buf := newBufferLogger(LogLevelDebug)

	_ = l.With("extra", true)
	l.Info("plain")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	_, ok := lines[0]["extra"]
	assert.False(t, ok)
}

func TestCrewLogger_DomainHelpers(t *testing.T) {
	l, buf := newBufferLogger(LogLevelDebug)

	l.LogToolCall("search_internet", 10*time.Millisecond, nil)
	l.LogTaskExecution("draft", "Writer", time.Second, errors.New("boom"))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "Tool execution completed", lines[0]["msg"])
	assert.Equal(t, true, lines[0]["success"])
	assert.Equal(t, "Task execution failed", lines[1]["msg"])
	assert.Equal(t, "boom", lines[1]["error"])
	assert.Equal(t, "ERROR", lines[1]["level"])
}

func TestOrNoOp(t *testing.T) {
	assert.IsType(t, NoOpLogger{}, OrNoOp(nil))

	l, _ := newBufferLogger(LogLevelInfo)
	assert.Same(t, l, OrNoOp(l))
}

func TestHelpers_FallBackToPlainLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewSlogAdapter(slog.New(slog.NewJSONHandler(buf, nil)))

	ToolCall(l, "csv_search", time.Millisecond, nil)
	LLMCall(l, "gpt-4o", 42, time.Second, errors.New("timeout"))
	TaskExecution(l, "read_cv", "CV Reader", time.Second, nil)
	assert.Same(t, l, ForRun(l, "run-1"))
	assert.Same(t, l, With(l, "k", "v"))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "tool.call.completed", lines[0]["msg"])
	assert.Equal(t, "csv_search", lines[0]["tool_name"])
	assert.Equal(t, "llm.call.failed", lines[1]["msg"])
	assert.Equal(t, "timeout", lines[1]["error"])
	assert.Equal(t, float64(42), lines[1]["token_count"])
	assert.Equal(t, "task.execution.completed", lines[2]["msg"])
	assert.Equal(t, "CV Reader", lines[2]["agent"])
}

func TestHelpers_UseCrewLogger(t *testing.T) {
	l, buf := newBufferLogger(LogLevelDebug)

	scoped := With(ForRun(l, "run-7"), "agent", "Matcher")
	ToolCall(scoped, "markdown_search", time.Millisecond, nil)
	l.StartTimer("train")()

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "Tool execution completed", lines[0]["msg"])
	assert.Equal(t, "run-7", lines[0]["run_id"])
	assert.Equal(t, "Matcher", lines[0]["agent"])
	assert.Equal(t, "Operation completed", lines[1]["msg"])
	assert.Equal(t, "train", lines[1]["operation"])
}
