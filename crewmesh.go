// Package crewmesh is the entry point for running agent crews. It resolves
// the configured LLM backend, wires the tool adapters (web search, page
// scraping, CSV and markdown search) and runs a named crew once (Kickoff) or
// repeatedly (Train). Most applications interact with this package by:
//  1. Loading a config.Config (TOML file plus environment)
//  2. Creating a Crewmesh via New(), which validates the configuration once
//  3. Calling Kickoff or Train with a crew name and optional input overrides
//
// Every crew carries baked-in inputs, so a run needs no overrides at all.
package crewmesh

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/alpinecapital/crewmesh/config"
	"github.com/alpinecapital/crewmesh/core"
	"github.com/alpinecapital/crewmesh/crew"
	"github.com/alpinecapital/crewmesh/events"
	"github.com/alpinecapital/crewmesh/logging"
	"github.com/alpinecapital/crewmesh/model"
	"github.com/alpinecapital/crewmesh/model/provider"
	"github.com/alpinecapital/crewmesh/runner"
	"github.com/alpinecapital/crewmesh/tool"
	"github.com/alpinecapital/crewmesh/tool/browser"
	"github.com/alpinecapital/crewmesh/tool/document"
	"github.com/alpinecapital/crewmesh/tool/search"
)

// Options configures a Crewmesh instance.
type Options struct {
	// Model replaces the backend resolved from the configuration.
	Model model.Model
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
	// Sink receives run events in addition to the NATS sink from the configuration.
	Sink events.Sink
	// HTTPClient is used by the search and scraping tools.
	HTTPClient *http.Client
	// Tracer overrides the global OpenTelemetry tracer.
	Tracer trace.Tracer
}

// Crewmesh is the high-level facade over crews, tools and the runner.
type Crewmesh struct {
	cfg      *config.Config
	llm      model.Model
	tools    *tool.Registry
	searcher *document.Searcher
	sink     events.Sink
	runner   *runner.Runner
	logger   logging.Logger

	mu     sync.RWMutex
	extras map[string]*crew.Definition
}

// New validates cfg and wires the backend and tools. A nil cfg means defaults
// plus environment overrides.
func New(cfg *config.Config, optFns ...func(o *Options)) (*Crewmesh, error) {
	opts := Options{
		Logger:     logging.NoOpLogger{},
		HTTPClient: http.DefaultClient,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := logging.OrNoOp(opts.Logger)

	if cfg == nil {
		var err error
		if cfg, err = config.Load(""); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	llm := opts.Model
	if llm == nil {
		var err error
		if llm, err = provider.New(cfg); err != nil {
			return nil, err
		}
	}
	logger.Info("crewmesh.backend", "provider", llm.Info().Provider, "model", llm.Info().Name)

	toolOpts := func(o *tool.Options) { o.Logger = logger }
	searchClient := search.New(func(o *search.Options) {
		o.Endpoint = cfg.Search.Endpoint
		o.APIKey = cfg.SearchAPIKey()
		o.ResultCount = cfg.Search.ResultCount
		o.HTTPClient = opts.HTTPClient
		o.Logger = logger
	})
	scraper := browser.New(llm, func(o *browser.Options) {
		o.ChunkSize = cfg.Browser.ChunkSize
		o.HTTPClient = opts.HTTPClient
		o.Logger = logger
	})
	searcher := document.NewSearcher(func(o *document.Options) { o.Logger = logger })

	registry := tool.NewRegistry(search.Tools(searchClient, toolOpts)...)
	if err := registry.Register(scraper.Tool(toolOpts)); err != nil {
		return nil, err
	}
	for _, t := range document.Tools(searcher, toolOpts) {
		if err := registry.Register(t); err != nil {
			return nil, err
		}
	}

	// connect last so no error path below can leave the connection open
	sink := events.NewMulti(opts.Sink)
	if cfg.Events.NATSURL != "" {
		ns, err := events.NewNATSSink(cfg.Events.NATSURL, func(o *events.NATSOptions) {
			if cfg.Events.Subject != "" {
				o.Subject = cfg.Events.Subject
			}
		})
		if err != nil {
			return nil, &core.ConfigurationError{Field: "events.nats_url", Reason: "cannot connect", Err: err}
		}
		sink.Add(ns)
	}

	r := runner.New(func(o *runner.Options) {
		o.Logger = logger
		o.Sink = sink
		o.Tracer = opts.Tracer
	})

	return &Crewmesh{
		cfg:      cfg,
		llm:      llm,
		tools:    registry,
		searcher: searcher,
		sink:     sink,
		runner:   r,
		logger:   logger,
		extras:   map[string]*crew.Definition{},
	}, nil
}

// Register adds a crew definition next to the built-in catalog. A definition
// with the name of a built-in crew shadows it.
func (m *Crewmesh) Register(def *crew.Definition) error {
	if def == nil || strings.TrimSpace(def.Name) == "" {
		return core.NewConfigurationError("crew.name", "must not be empty")
	}
	m.mu.Lock()
	m.extras[def.Name] = def
	m.mu.Unlock()
	return nil
}

// Crews lists every crew that can be run.
func (m *Crewmesh) Crews() []string {
	seen := map[string]bool{}
	var names []string
	for _, n := range crew.Names() {
		seen[n] = true
		names = append(names, n)
	}
	m.mu.RLock()
	for n := range m.extras {
		if !seen[n] {
			names = append(names, n)
		}
	}
	m.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Tools lists the names of the tool adapters available to crews.
func (m *Crewmesh) Tools() []string { return m.tools.Names() }

// Kickoff runs crewName once with its baked-in inputs overlaid by overrides.
func (m *Crewmesh) Kickoff(ctx context.Context, crewName string, overrides map[string]string) (*runner.Result, error) {
	c, inputs, err := m.prepare(crewName, overrides)
	if err != nil {
		return nil, err
	}
	m.logger.Info("crewmesh.kickoff", "crew", c.Name(), "inputs", inputs.Keys())
	return m.runner.Run(ctx, c, inputs)
}

// Train runs crewName the number of times given by iterations, a decimal
// string as typed on the command line. The count is parsed before anything
// else, so a malformed value never reaches the backend.
func (m *Crewmesh) Train(ctx context.Context, crewName, iterations string, overrides map[string]string) (*runner.TrainResult, error) {
	n, err := ParseIterations(iterations)
	if err != nil {
		return nil, err
	}
	return m.TrainN(ctx, crewName, n, overrides)
}

// TrainN runs crewName n times. Callers that accept the count as text should
// validate it with ParseIterations before building a Crewmesh.
func (m *Crewmesh) TrainN(ctx context.Context, crewName string, n int, overrides map[string]string) (*runner.TrainResult, error) {
	c, inputs, err := m.prepare(crewName, overrides)
	if err != nil {
		return nil, err
	}
	m.logger.Info("crewmesh.train", "crew", c.Name(), "iterations", n)
	return m.runner.Train(ctx, c, n, inputs)
}

// ParseIterations converts a training iteration count. Anything that is not
// a positive integer is a *core.InputError.
func ParseIterations(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &core.InputError{Field: "n_iterations", Reason: fmt.Sprintf("%q is not a number", s), Err: err}
	}
	if n < 1 {
		return 0, core.NewInputError("n_iterations", fmt.Sprintf("must be at least 1, got %d", n))
	}
	return n, nil
}

// Close releases the event sinks and document indexes.
func (m *Crewmesh) Close() error {
	err := m.sink.Close()
	if cerr := m.searcher.Close(); err == nil {
		err = cerr
	}
	return err
}

func (m *Crewmesh) definition(name string) (*crew.Definition, error) {
	if name == "" {
		name = crew.DefaultCrew
	}
	m.mu.RLock()
	def, ok := m.extras[name]
	m.mu.RUnlock()
	if ok {
		return def, nil
	}
	def, err := crew.Lookup(name)
	if err != nil {
		return nil, &core.InputError{Field: "crew", Reason: "unknown crew", Err: err}
	}
	return def, nil
}

func (m *Crewmesh) prepare(name string, overrides map[string]string) (*crew.Crew, core.Inputs, error) {
	def, err := m.definition(name)
	if err != nil {
		return nil, core.Inputs{}, err
	}
	if usesSearch(def) && m.cfg.SearchAPIKey() == "" {
		return nil, core.Inputs{}, core.NewConfigurationError("search.api_key_env",
			fmt.Sprintf("crew %s uses web search but %s is not set", def.Name, m.cfg.Search.APIKeyEnv))
	}
	c, err := crew.Build(def, crew.Dependencies{
		Model:         m.llm,
		Tools:         m.tools,
		MaxIterations: m.cfg.Agent.MaxIterations,
		Logger:        m.logger,
	})
	if err != nil {
		return nil, core.Inputs{}, err
	}
	return c, c.Inputs().With(overrides), nil
}

func usesSearch(def *crew.Definition) bool {
	for _, name := range def.ToolNames() {
		switch name {
		case search.InternetToolName, search.LinkedInToolName, search.TwitterToolName:
			return true
		}
	}
	return false
}
