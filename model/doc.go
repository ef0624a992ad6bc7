// Package model defines the provider-agnostic LLM backend handle used by
// agents and tools inside crewmesh.
//
// A Model receives a normalized Request (instructions, conversation contents
// and the tools the agent may call) and answers with assistant content that
// is either final text or a set of function calls. Provider adapters live in
// sub packages (openai, anthropic) and model/provider resolves one from
// configuration.
//
// MockModel is the deterministic stub used throughout the test suite.
package model
