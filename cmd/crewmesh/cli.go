// Package main defines the CLI structure using kong.
package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/alpinecapital/crewmesh"
	"github.com/alpinecapital/crewmesh/crew"
)

// CLI defines the command-line interface.
type CLI struct {
	Config     string   `help:"Config file path (TOML)" type:"path"`
	LogLevel   string   `help:"Log level (debug, info, warn, error)" name:"log-level"`
	LogFormat  string   `help:"Log format (text, json)" name:"log-format"`
	Definition []string `help:"Additional crew definition file (repeatable)" type:"path"`

	Run     RunCmd     `cmd:"" help:"Run a crew once"`
	Train   TrainCmd   `cmd:"" help:"Run a crew repeatedly for training"`
	List    ListCmd    `cmd:"" help:"List available crews"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// RunCmd kicks off a crew once.
type RunCmd struct {
	Crew  string            `short:"c" default:"${default_crew}" help:"Crew to run"`
	Input map[string]string `short:"i" help:"Input key=value overriding the crew's defaults (repeatable)"`
}

// TrainCmd runs a crew n_iterations times.
type TrainCmd struct {
	Iterations string            `arg:"" name:"n_iterations" help:"Number of training iterations"`
	Crew       string            `short:"c" default:"${default_crew}" help:"Crew to train"`
	Input      map[string]string `short:"i" help:"Input key=value overriding the crew's defaults (repeatable)"`
}

// ListCmd prints the available crews.
type ListCmd struct{}

// VersionCmd shows version information.
type VersionCmd struct{}

// kongVars returns variables for kong.
func kongVars() kong.Vars {
	return kong.Vars{
		"version":      version,
		"default_crew": crew.DefaultCrew,
	}
}

// Run executes the run command.
func (c *RunCmd) Run(a *app) error {
	m, err := a.mesh()
	if err != nil {
		return err
	}
	defer m.Close()
	defer a.logger.StartTimer("run " + c.Crew)()

	res, err := m.Kickoff(a.ctx, c.Crew, c.Input)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, res.Output)
	return nil
}

// Run executes the train command. The iteration count is checked before the
// configuration is loaded, so a bad count never reaches the backend.
func (c *TrainCmd) Run(a *app) error {
	n, err := crewmesh.ParseIterations(c.Iterations)
	if err != nil {
		return err
	}
	m, err := a.mesh()
	if err != nil {
		return err
	}
	defer m.Close()
	defer a.logger.StartTimer("train " + c.Crew)()

	res, err := m.TrainN(a.ctx, c.Crew, n, c.Input)
	if res != nil {
		for i, run := range res.Runs {
			fmt.Fprintf(a.out, "iteration %d/%d: %s (%s)\n", i+1, res.Iterations, run.Status, run.Duration.Round(time.Millisecond))
		}
	}
	return err
}

// Run executes the list command.
func (c *ListCmd) Run(a *app) error {
	defs, err := crew.Catalog()
	if err != nil {
		return err
	}
	for _, path := range a.globals.Definition {
		def, err := crew.LoadFile(path)
		if err != nil {
			return err
		}
		defs = append(defs, def)
	}
	printCrews(a.out, defs)
	return nil
}

func printCrews(w io.Writer, defs []*crew.Definition) {
	for _, def := range defs {
		marker := " "
		if def.Name == crew.DefaultCrew {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-22s %-12s %s\n", marker, def.Name, def.Process, def.Description)
		if keys := inputKeys(def); len(keys) > 0 {
			fmt.Fprintf(w, "  %-22s inputs: %s\n", "", strings.Join(keys, ", "))
		}
	}
}

func inputKeys(def *crew.Definition) []string {
	keys := make([]string, 0, len(def.Params))
	for _, p := range def.Params {
		k := p.Name
		if !p.Required {
			k += "?"
		}
		keys = append(keys, k)
	}
	return keys
}

// Run executes the version command.
func (c *VersionCmd) Run(a *app) error {
	fmt.Fprintf(a.out, "crewmesh %s (commit %s, built %s)\n", version, commit, buildTime)
	return nil
}
