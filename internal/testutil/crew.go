package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alpinecapital/crewmesh/crew"
	"github.com/alpinecapital/crewmesh/model"
	"github.com/alpinecapital/crewmesh/task"
)

// CrewBuilder assembles a crew definition in code.
type CrewBuilder struct {
	def crew.Definition
}

// NewCrew starts a sequential crew called name.
func NewCrew(name string) *CrewBuilder {
	return &CrewBuilder{def: crew.Definition{Name: name, Process: crew.ProcessSequential, Inputs: map[string]string{}}}
}

// Hierarchical switches the crew to the hierarchical process under manager.
func (b *CrewBuilder) Hierarchical(manager string) *CrewBuilder {
	b.def.Process = crew.ProcessHierarchical
	b.def.Manager = manager
	return b
}

// Agent adds a persona with the given tools.
func (b *CrewBuilder) Agent(role string, tools ...string) *CrewBuilder {
	b.def.Agents = append(b.def.Agents, crew.AgentSpec{
		Role:      role,
		Goal:      "Act as " + role,
		Backstory: role + " backstory.",
		Tools:     tools,
	})
	return b
}

// Task adds a task; context names earlier tasks.
func (b *CrewBuilder) Task(name, agentRole, description string, context ...string) *CrewBuilder {
	b.def.Tasks = append(b.def.Tasks, crew.TaskSpec{
		Name:           name,
		Agent:          agentRole,
		Description:    description,
		ExpectedOutput: "The result of " + name + ".",
		Context:        context,
	})
	return b
}

// Param declares a crew-level required parameter.
func (b *CrewBuilder) Param(name string, required bool) *CrewBuilder {
	b.def.Params = append(b.def.Params, task.Param{Name: name, Required: required})
	return b
}

// Input bakes an input value into the crew.
func (b *CrewBuilder) Input(key, value string) *CrewBuilder {
	b.def.Inputs[key] = value
	return b
}

// Definition returns the assembled definition.
func (b *CrewBuilder) Definition() *crew.Definition {
	def := b.def
	return &def
}

// Build builds the crew against llm, failing the test on error.
func (b *CrewBuilder) Build(t testing.TB, llm model.Model) *crew.Crew {
	t.Helper()
	c, err := crew.Build(b.Definition(), crew.Dependencies{Model: llm})
	require.NoError(t, err)
	return c
}

// BuildWith builds the crew against deps, failing the test on error.
func (b *CrewBuilder) BuildWith(t testing.TB, deps crew.Dependencies) *crew.Crew {
	t.Helper()
	c, err := crew.Build(b.Definition(), deps)
	require.NoError(t, err)
	return c
}
