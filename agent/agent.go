package agent

import (
	"strings"

	"github.com/alpinecapital/crewmesh/core"
	"github.com/alpinecapital/crewmesh/logging"
	"github.com/alpinecapital/crewmesh/model"
	"github.com/alpinecapital/crewmesh/tool"
)

// DefaultMaxIterations bounds the model turns of one invocation.
const DefaultMaxIterations = 15

// Options configures an Agent.
type Options struct {
	Goal            string
	Backstory       string
	Tools           []tool.Tool
	AllowDelegation bool
	MaxIterations   int
	Logger          logging.Logger
}

// Agent is an immutable persona. It is safe to share across the tasks of a
// run and across runs.
type Agent struct {
	role            string
	goal            string
	backstory       string
	tools           []tool.Tool
	allowDelegation bool
	maxIterations   int
	llm             model.Model
	logger          logging.Logger
}

// New creates an agent identified by role. A nil llm is a configuration error.
func New(role string, llm model.Model, optFns ...func(o *Options)) (*Agent, error) {
	opts := Options{MaxIterations: DefaultMaxIterations}
	for _, fn := range optFns {
		fn(&opts)
	}

	role = strings.TrimSpace(role)
	if role == "" {
		return nil, core.NewConfigurationError("agent.role", "must not be empty")
	}
	if llm == nil {
		return nil, core.NewConfigurationError("agent."+role, "no LLM backend")
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}

	return &Agent{
		role:            role,
		goal:            strings.TrimSpace(opts.Goal),
		backstory:       strings.TrimSpace(opts.Backstory),
		tools:           append([]tool.Tool(nil), opts.Tools...),
		allowDelegation: opts.AllowDelegation,
		maxIterations:   opts.MaxIterations,
		llm:             llm,
		logger:          logging.OrNoOp(opts.Logger),
	}, nil
}

// Role returns the name identifying the agent within a crew.
func (a *Agent) Role() string { return a.role }

// Goal returns the agent's personal goal.
func (a *Agent) Goal() string { return a.goal }

// Backstory returns the agent's backstory.
func (a *Agent) Backstory() string { return a.backstory }

// AllowDelegation reports whether the agent may hand work to coworkers.
func (a *Agent) AllowDelegation() bool { return a.allowDelegation }

// MaxIterations returns the model turn budget per invocation.
func (a *Agent) MaxIterations() int { return a.maxIterations }

// Model returns the LLM backend handle.
func (a *Agent) Model() model.Model { return a.llm }

// ToolNames lists the agent's own tools in declaration order.
func (a *Agent) ToolNames() []string {
	names := make([]string, len(a.tools))
	for i, t := range a.tools {
		names[i] = t.Name()
	}
	return names
}
