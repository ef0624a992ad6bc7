// Package crew declares agent crews: the personas taking part, the task
// templates they work through and the process ordering them.
//
// Definitions are plain YAML documents. The built-in crews are embedded in the
// binary and exposed through Catalog and Lookup; Build turns a Definition into
// a runnable Crew once the LLM backend and tool adapters are known.
package crew

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/alpinecapital/crewmesh/task"
)

// Process selects how the runner assigns tasks.
type Process string

const (
	// ProcessSequential runs every task with the agent it names.
	ProcessSequential Process = "sequential"
	// ProcessHierarchical hands every task to the manager, who delegates to workers.
	ProcessHierarchical Process = "hierarchical"
)

// Definition is the declarative form of a crew.
type Definition struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Process     Process           `yaml:"process,omitempty"`
	Manager     string            `yaml:"manager,omitempty"`
	Inputs      map[string]string `yaml:"inputs,omitempty"`
	// Params are shared by every task template of the crew.
	Params []task.Param `yaml:"params,omitempty"`
	Agents []AgentSpec  `yaml:"agents"`
	Tasks  []TaskSpec   `yaml:"tasks"`
}

// AgentSpec declares one persona.
type AgentSpec struct {
	Role            string   `yaml:"role"`
	Goal            string   `yaml:"goal"`
	Backstory       string   `yaml:"backstory"`
	Tools           []string `yaml:"tools,omitempty"`
	AllowDelegation bool     `yaml:"allow_delegation,omitempty"`
	MaxIterations   int      `yaml:"max_iterations,omitempty"`
}

// TaskSpec declares one task. Params extend or override the crew params.
type TaskSpec struct {
	Name           string       `yaml:"name"`
	Agent          string       `yaml:"agent"`
	Description    string       `yaml:"description"`
	ExpectedOutput string       `yaml:"expected_output,omitempty"`
	Params         []task.Param `yaml:"params,omitempty"`
	Context        []string     `yaml:"context,omitempty"`
}

// Parse decodes a definition. Unknown fields are rejected.
func Parse(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse crew definition: empty document")
		}
		return nil, fmt.Errorf("parse crew definition: %w", err)
	}
	if def.Process == "" {
		def.Process = ProcessSequential
	}
	return &def, nil
}

// LoadFile reads and parses a definition from path.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read crew definition: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// ToolNames returns every tool referenced by the crew's agents, without duplicates.
func (d *Definition) ToolNames() []string {
	seen := map[string]bool{}
	var names []string
	for _, a := range d.Agents {
		for _, t := range a.Tools {
			if !seen[t] {
				seen[t] = true
				names = append(names, t)
			}
		}
	}
	return names
}

// params merges the crew params with the task's own, task entries winning.
func (d *Definition) params(t TaskSpec) []task.Param {
	merged := make([]task.Param, 0, len(d.Params)+len(t.Params))
	index := map[string]int{}
	for _, p := range append(append([]task.Param(nil), d.Params...), t.Params...) {
		if i, ok := index[p.Name]; ok {
			merged[i] = p
			continue
		}
		index[p.Name] = len(merged)
		merged = append(merged, p)
	}
	return merged
}
