package task

import (
	"context"
	"errors"
	"testing"

	"github.com/alpinecapital/crewmesh/agent"
	"github.com/alpinecapital/crewmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockInvoker struct {
	mock.Mock
}

func (m *MockInvoker) Role() string { return "Research Analyst" }

func (m *MockInvoker) Invoke(ctx context.Context, as agent.Assignment, coworkers agent.Directory) (string, error) {
	args := m.Called(ctx, as, coworkers)
	return args.String(0), args.Error(1)
}

func researchDefinition() Definition {
	return Definition{
		Name:           "research_company_culture",
		Agent:          "Research Analyst",
		Description:    MustTemplate("research.description", "Analyze {{.company_domain}}", Param{Name: "company_domain", Required: true}),
		ExpectedOutput: MustTemplate("research.expected", "A report on {{.company_domain}}", Param{Name: "company_domain", Required: true}),
		Context:        []string{"earlier"},
	}
}

func TestDefinition_Validate(t *testing.T) {
	require.NoError(t, researchDefinition().Validate())

	d := researchDefinition()
	d.Agent = ""
	assert.True(t, core.IsConfigurationError(d.Validate()))

	d = researchDefinition()
	d.Description = MustTemplate("empty", "   ")
	assert.ErrorIs(t, d.Validate(), ErrEmptyTemplate)

	assert.Error(t, Definition{}.Validate())
}

func TestDefinition_Bind(t *testing.T) {
	inv := &MockInvoker{}
	tk, err := researchDefinition().Bind(inv, core.NewInputs(map[string]string{"company_domain": "alpinecapitalbank.com"}))
	require.NoError(t, err)

	assert.Equal(t, "Analyze alpinecapitalbank.com", tk.Description)
	assert.Equal(t, "A report on alpinecapitalbank.com", tk.ExpectedOutput)
	assert.Same(t, inv, tk.Agent)
	assert.Equal(t, []string{"earlier"}, tk.Context)

	_, err = researchDefinition().Bind(inv, core.NewInputs(nil))
	assert.True(t, core.IsInputError(err))
}

func TestTask_Execute(t *testing.T) {
	inv := &MockInvoker{}
	inv.On("Invoke", mock.Anything, agent.Assignment{
		Description:    "Analyze x",
		ExpectedOutput: "A report on x",
		Context:        "previous output",
	}, agent.Directory{}).Return("one two three four five six seven eight nine ten eleven", nil)

	tk, err := researchDefinition().Bind(inv, core.NewInputs(map[string]string{"company_domain": "x"}))
	require.NoError(t, err)

	out, err := tk.Execute(context.Background(), "previous output", agent.Directory{})
	require.NoError(t, err)
	assert.Equal(t, "research_company_culture", out.Task)
	assert.Equal(t, "Research Analyst", out.Agent)
	assert.Equal(t, "one two three four five six seven eight nine ten...", out.Summary)
	assert.Equal(t, out.Raw, out.String())
	inv.AssertExpectations(t)
}

func TestTask_ExecuteFailure(t *testing.T) {
	boom := errors.New("model down")
	inv := &MockInvoker{}
	inv.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return("", boom)

	tk := &Task{Name: "draft", Agent: inv}
	_, err := tk.Execute(context.Background(), "", agent.Directory{})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "task draft failed")
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "short text...", Summarize("  short\n text "))
	assert.Equal(t, "...", Summarize(""))
}
