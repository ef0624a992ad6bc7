package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alpinecapital/crewmesh/agent"
	"github.com/alpinecapital/crewmesh/core"
)

// ErrEmptyTemplate is returned by Definition.Validate for a task without a description.
var ErrEmptyTemplate = errors.New("task description is empty")

// Definition is a task as declared in a crew: templates plus the role of the
// agent that executes it.
type Definition struct {
	Name           string
	Agent          string
	Description    *Template
	ExpectedOutput *Template
	// Context names earlier tasks whose outputs this task receives.
	Context []string
}

// Validate checks the definition is complete.
func (d Definition) Validate() error {
	if d.Name == "" {
		return core.NewConfigurationError("task.name", "must not be empty")
	}
	if d.Agent == "" {
		return core.NewConfigurationError("task."+d.Name+".agent", "must not be empty")
	}
	if d.Description == nil || strings.TrimSpace(d.Description.Text()) == "" {
		return &core.ConfigurationError{Field: "task." + d.Name + ".description", Reason: "missing", Err: ErrEmptyTemplate}
	}
	return nil
}

// Bind renders the templates with inputs and assigns the task to invoker.
func (d Definition) Bind(invoker agent.Invoker, inputs core.Inputs) (*Task, error) {
	desc, err := d.Description.Render(inputs)
	if err != nil {
		return nil, err
	}
	expected := ""
	if d.ExpectedOutput != nil {
		if expected, err = d.ExpectedOutput.Render(inputs); err != nil {
			return nil, err
		}
	}
	return &Task{
		Name:           d.Name,
		Description:    desc,
		ExpectedOutput: expected,
		Agent:          invoker,
		Context:        append([]string(nil), d.Context...),
	}, nil
}

// Task is one unit of work with a fully interpolated description and exactly
// one assigned agent. It is consumed once by the runner.
type Task struct {
	Name           string
	Description    string
	ExpectedOutput string
	Agent          agent.Invoker
	Context        []string
}

// Execute dispatches the task to its agent and waits for the outcome.
func (t *Task) Execute(ctx context.Context, priorOutputs string, coworkers agent.Directory) (Output, error) {
	start := time.Now()
	raw, err := t.Agent.Invoke(ctx, agent.Assignment{
		Description:    t.Description,
		ExpectedOutput: t.ExpectedOutput,
		Context:        priorOutputs,
	}, coworkers)
	if err != nil {
		return Output{}, fmt.Errorf("task %s failed: %w", t.Name, err)
	}
	out := NewOutput(t.Name, t.Agent.Role(), raw)
	out.Duration = time.Since(start)
	return out, nil
}
