package task

import (
	"strings"
	"time"
)

const summaryWords = 10

// Output is the text an agent produced for a task.
type Output struct {
	Task     string
	Agent    string
	Raw      string
	Summary  string
	Duration time.Duration
}

// NewOutput builds an Output; Summary holds the first ten words of raw.
func NewOutput(taskName, agentRole, raw string) Output {
	return Output{Task: taskName, Agent: agentRole, Raw: raw, Summary: Summarize(raw)}
}

// Summarize returns the first ten words of s followed by "...".
func Summarize(s string) string {
	words := strings.Fields(s)
	if len(words) > summaryWords {
		words = words[:summaryWords]
	}
	return strings.Join(words, " ") + "..."
}

func (o Output) String() string { return o.Raw }
