// Package main is the entry point for the crewmesh CLI.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/alpinecapital/crewmesh"
	"github.com/alpinecapital/crewmesh/config"
	"github.com/alpinecapital/crewmesh/crew"
	"github.com/alpinecapital/crewmesh/logging"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// app carries what every command needs.
type app struct {
	ctx     context.Context
	globals *CLI
	out     io.Writer
	errOut  io.Writer
	logger  *logging.CrewLogger
}

func main() {
	// .env supplies MODEL, SERPER_API_KEY and provider keys
	_ = godotenv.Load()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("crewmesh"),
		kong.Description("Run LLM agent crews for marketing and HR automation."),
		kong.UsageOnError(),
		kongVars(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := kctx.Run(&app{ctx: ctx, globals: &cli, out: os.Stdout, errOut: os.Stderr})
	kctx.FatalIfErrorf(err)
}

// mesh loads the configuration and builds the facade.
func (a *app) mesh() (*crewmesh.Crewmesh, error) {
	cfg, err := config.Load(a.globals.Config)
	if err != nil {
		return nil, err
	}
	if a.globals.LogLevel != "" {
		cfg.Logging.Level = a.globals.LogLevel
	}
	if a.globals.LogFormat != "" {
		cfg.Logging.Format = a.globals.LogFormat
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	base := logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Logging.Format,
		Output: a.errOut,
	})
	a.logger = base.WithComponent("cli").With("version", version)

	m, err := crewmesh.New(cfg, func(o *crewmesh.Options) { o.Logger = base.WithComponent("crewmesh") })
	if err != nil {
		return nil, err
	}
	for _, path := range a.globals.Definition {
		def, err := crew.LoadFile(path)
		if err != nil {
			_ = m.Close()
			return nil, err
		}
		if err := m.Register(def); err != nil {
			_ = m.Close()
			return nil, err
		}
	}
	return m, nil
}
