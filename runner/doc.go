// Package runner implements the Pipeline Runner for crewmesh.
//
// A Runner takes a built crew plus run inputs and executes the crew's tasks
// strictly in order, handing each task the outputs it depends on. Each run
// moves through PENDING, RUNNING and then COMPLETED or FAILED; every state
// change is published to an events.Sink and traced with OpenTelemetry spans
// (crew.run and task.<name>).
//
// Train repeats a run a fixed number of times and reports the first failing
// iteration as a *core.PipelineError.
package runner
