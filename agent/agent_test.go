package agent

import (
	"context"
	"testing"

	"github.com/alpinecapital/crewmesh/core"
	"github.com/alpinecapital/crewmesh/model"
	"github.com/alpinecapital/crewmesh/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockInvoker is a testify mock of a coworker.
type MockInvoker struct {
	mock.Mock
	role string
}

func (m *MockInvoker) Role() string { return m.role }

func (m *MockInvoker) Invoke(ctx context.Context, as Assignment, coworkers Directory) (string, error) {
	args := m.Called(ctx, as, coworkers)
	return args.String(0), args.Error(1)
}

func echoTool(name string) tool.Tool {
	return tool.NewQueryTool(name, "echo the query", func(_ context.Context, q string) (string, error) {
		return "echo: " + q, nil
	})
}

func newAgent(t *testing.T, role string, llm model.Model, optFns ...func(o *Options)) *Agent {
	t.Helper()
	a, err := New(role, llm, optFns...)
	require.NoError(t, err)
	return a
}

func TestNew(t *testing.T) {
	llm := model.NewMockModel("stub", "mock")
	tools := []tool.Tool{echoTool("search_internet")}

	a := newAgent(t, "  Research Analyst ", llm, func(o *Options) {
		o.Goal = "Analyze the company website"
		o.Backstory = "Expert in understanding company culture."
		o.Tools = tools
		o.AllowDelegation = true
		o.MaxIterations = 0
	})

	assert.Equal(t, "Research Analyst", a.Role())
	assert.Equal(t, "Analyze the company website", a.Goal())
	assert.True(t, a.AllowDelegation())
	assert.Equal(t, DefaultMaxIterations, a.MaxIterations())
	assert.Equal(t, []string{"search_internet"}, a.ToolNames())
	assert.Same(t, llm, a.Model())

	// the agent keeps its own copy of the tool list
	tools[0] = echoTool("other")
	assert.Equal(t, []string{"search_internet"}, a.ToolNames())
}

func TestNew_ConfigurationErrors(t *testing.T) {
	_, err := New("Writer", nil)
	assert.True(t, core.IsConfigurationError(err))

	_, err = New(" ", model.NewMockModel("stub", "mock"))
	assert.True(t, core.IsConfigurationError(err))
}

func TestInstructionsAndPrompt(t *testing.T) {
	a := newAgent(t, "Job Description Writer", model.NewMockModel("stub", "mock"), func(o *Options) {
		o.Goal = "Write compelling job descriptions"
		o.Backstory = "Skilled writer."
	})

	sys := a.Instructions()
	assert.Contains(t, sys, "You are Job Description Writer. Skilled writer.")
	assert.Contains(t, sys, "Your personal goal is: Write compelling job descriptions")

	p := Assignment{Description: "Draft the posting", ExpectedOutput: "A markdown posting", Context: "culture notes"}.Prompt()
	assert.Contains(t, p, "Current Task: Draft the posting")
	assert.Contains(t, p, "expected criteria for your final answer: A markdown posting")
	assert.Contains(t, p, "This is the context you're working with:\nculture notes")

	bare := Assignment{Description: "Only this"}.Prompt()
	assert.NotContains(t, bare, "context you're working with")
	assert.NotContains(t, bare, "expected criteria")
}
