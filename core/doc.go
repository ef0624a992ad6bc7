// Package core provides the foundational domain types shared by every other
// crewmesh package:
//
//   - Content / Part (role-based conversation segments exchanged with models)
//   - Inputs (immutable run parameters supplied at the entry point)
//   - Status (pipeline run state machine)
//   - Event (pipeline lifecycle records published to sinks)
//   - the error taxonomy (configuration, input, tool invocation, pipeline)
//
// The package holds no behavior beyond small helpers so that model, tool,
// agent, task and runner can depend on it without cycles.
package core
