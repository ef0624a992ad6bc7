// Package logging provides a minimal logging interface and adapters for crewmesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the runner, agents and tools use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - CrewLogger with run/component context and tool, LLM and task helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	r := runner.New(func(o *runner.Options) { o.Logger = logger })
//
// All methods take a message followed by alternating key/value pairs, the same
// convention log/slog uses.
package logging
