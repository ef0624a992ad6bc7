package crew

import (
	"fmt"
	"strings"

	"github.com/alpinecapital/crewmesh/agent"
	"github.com/alpinecapital/crewmesh/core"
	"github.com/alpinecapital/crewmesh/logging"
	"github.com/alpinecapital/crewmesh/model"
	"github.com/alpinecapital/crewmesh/task"
	"github.com/alpinecapital/crewmesh/tool"
)

// Dependencies are the runtime collaborators a crew is built against.
type Dependencies struct {
	Model model.Model
	Tools *tool.Registry
	// MaxIterations overrides the per-agent turn budget when an agent spec leaves it unset.
	MaxIterations int
	Logger        logging.Logger
}

// Crew is a validated, runnable crew. It holds no per-run state and can be
// run any number of times.
type Crew struct {
	name        string
	description string
	process     Process
	manager     *agent.Agent
	agents      *agent.Registry
	tasks       []task.Definition
	inputs      core.Inputs
}

// Build validates def and wires its agents to the model and tools in deps.
func Build(def *Definition, deps Dependencies) (*Crew, error) {
	if def == nil {
		return nil, core.NewConfigurationError("crew", "no definition")
	}
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return nil, core.NewConfigurationError("crew.name", "must not be empty")
	}
	if deps.Model == nil {
		return nil, core.NewConfigurationError("crew."+name, "no LLM backend")
	}
	tools := deps.Tools
	if tools == nil {
		tools = tool.NewRegistry()
	}
	logger := logging.OrNoOp(deps.Logger)

	process := def.Process
	if process == "" {
		process = ProcessSequential
	}
	if process != ProcessSequential && process != ProcessHierarchical {
		return nil, core.NewConfigurationError("crew."+name+".process", fmt.Sprintf("unknown process %q", process))
	}

	if len(def.Agents) == 0 {
		return nil, core.NewConfigurationError("crew."+name+".agents", "at least one agent is required")
	}
	registry, err := agent.NewRegistry()
	if err != nil {
		return nil, err
	}
	for _, spec := range def.Agents {
		field := "crew." + name + ".agents." + spec.Role
		resolved, err := tools.Resolve(spec.Tools)
		if err != nil {
			return nil, &core.ConfigurationError{Field: field + ".tools", Reason: "unknown tool", Err: err}
		}
		maxIter := spec.MaxIterations
		if maxIter <= 0 {
			maxIter = deps.MaxIterations
		}
		a, err := agent.New(spec.Role, deps.Model, func(o *agent.Options) {
			o.Goal = spec.Goal
			o.Backstory = spec.Backstory
			o.Tools = resolved
			o.AllowDelegation = spec.AllowDelegation || (process == ProcessHierarchical && strings.EqualFold(spec.Role, def.Manager))
			o.MaxIterations = maxIter
			o.Logger = logger
		})
		if err != nil {
			return nil, err
		}
		if err := registry.Register(a); err != nil {
			return nil, &core.ConfigurationError{Field: field, Reason: "duplicate role", Err: err}
		}
	}

	var manager *agent.Agent
	if process == ProcessHierarchical {
		m, ok := registry.Get(def.Manager)
		if !ok {
			return nil, core.NewConfigurationError("crew."+name+".manager", fmt.Sprintf("hierarchical crew needs a manager among its agents, got %q", def.Manager))
		}
		if registry.Len() < 2 {
			return nil, core.NewConfigurationError("crew."+name+".agents", "hierarchical crew needs at least one worker besides the manager")
		}
		manager = m
	} else if def.Manager != "" {
		return nil, core.NewConfigurationError("crew."+name+".manager", "only hierarchical crews have a manager")
	}

	if len(def.Tasks) == 0 {
		return nil, core.NewConfigurationError("crew."+name+".tasks", "at least one task is required")
	}
	tasks := make([]task.Definition, 0, len(def.Tasks))
	earlier := map[string]bool{}
	for _, spec := range def.Tasks {
		field := "crew." + name + ".tasks." + spec.Name
		if spec.Name == "" {
			return nil, core.NewConfigurationError("crew."+name+".tasks", "task without a name")
		}
		if earlier[spec.Name] {
			return nil, core.NewConfigurationError(field, "duplicate task name")
		}
		if _, ok := registry.Get(spec.Agent); !ok {
			return nil, core.NewConfigurationError(field+".agent", fmt.Sprintf("unknown agent role %q", spec.Agent))
		}
		for _, dep := range spec.Context {
			if !earlier[dep] {
				return nil, core.NewConfigurationError(field+".context", fmt.Sprintf("%q is not an earlier task", dep))
			}
		}

		params := def.params(spec)
		desc, err := task.NewTemplate(spec.Name+".description", spec.Description, params...)
		if err != nil {
			return nil, err
		}
		var expected *task.Template
		if strings.TrimSpace(spec.ExpectedOutput) != "" {
			if expected, err = task.NewTemplate(spec.Name+".expected_output", spec.ExpectedOutput, params...); err != nil {
				return nil, err
			}
		}
		td := task.Definition{
			Name:           spec.Name,
			Agent:          spec.Agent,
			Description:    desc,
			ExpectedOutput: expected,
			Context:        append([]string(nil), spec.Context...),
		}
		if err := td.Validate(); err != nil {
			return nil, err
		}
		tasks = append(tasks, td)
		earlier[spec.Name] = true
	}

	logger.Debug("crew.build.complete", "crew", name, "process", string(process), "agents", registry.Len(), "tasks", len(tasks))

	return &Crew{
		name:        name,
		description: strings.TrimSpace(def.Description),
		process:     process,
		manager:     manager,
		agents:      registry,
		tasks:       tasks,
		inputs:      core.NewInputs(def.Inputs),
	}, nil
}

// Name returns the crew name.
func (c *Crew) Name() string { return c.name }

// Description returns the human readable summary.
func (c *Crew) Description() string { return c.description }

// Process returns how tasks are assigned.
func (c *Crew) Process() Process { return c.process }

// Manager returns the manager of a hierarchical crew, or nil.
func (c *Crew) Manager() *agent.Agent { return c.manager }

// Agents returns the crew's agent registry.
func (c *Crew) Agents() *agent.Registry { return c.agents }

// Tasks returns the task definitions in execution order.
func (c *Crew) Tasks() []task.Definition {
	return append([]task.Definition(nil), c.tasks...)
}

// Inputs returns the baked-in run inputs.
func (c *Crew) Inputs() core.Inputs { return c.inputs }

// Workers returns the coworker directory the manager delegates to.
func (c *Crew) Workers() agent.Directory {
	if c.manager == nil {
		return c.agents.Directory()
	}
	return c.agents.Directory(c.manager.Role())
}

// Assignee returns the invoker and coworker directory for a task.
// Sequential crews use the task's own agent and its peers, hierarchical
// crews route everything through the manager.
func (c *Crew) Assignee(def task.Definition) (agent.Invoker, agent.Directory, error) {
	if c.process == ProcessHierarchical {
		return c.manager, c.Workers(), nil
	}
	a, ok := c.agents.Get(def.Agent)
	if !ok {
		return nil, agent.Directory{}, core.NewConfigurationError("task."+def.Name+".agent", fmt.Sprintf("unknown agent role %q", def.Agent))
	}
	if !a.AllowDelegation() {
		return a, agent.Directory{}, nil
	}
	return a, c.agents.Directory(a.Role()), nil
}

// RequiredInputs lists every required parameter across the crew's templates.
func (c *Crew) RequiredInputs() []string {
	templates := make([]*task.Template, 0, 2*len(c.tasks))
	for _, t := range c.tasks {
		templates = append(templates, t.Description, t.ExpectedOutput)
	}
	return task.MissingInputs(core.Inputs{}, templates...)
}
