package model

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alpinecapital/crewmesh/core"
)

// ToolDefinition exposes a callable function to the model. Parameters is a
// JSON schema object.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by an agent.
type Request struct {
	Instructions string           `json:"instructions"` // System prompt
	Contents     []core.Content   `json:"contents"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "ollama", "mock"
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the LLM backend handle shared by the agents of a crew.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// ErrNoResponse is returned by Collect when a model closes its channels
// without emitting a final response.
var ErrNoResponse = errors.New("model returned no response")

// Collect drives one generation to completion and returns the final
// (non-partial) response.
func Collect(ctx context.Context, m Model, req Request) (Response, error) {
	respCh, errCh := m.Generate(ctx, req)

	var (
		final Response
		seen  bool
	)
	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if !r.Partial {
				final, seen = r, true
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return Response{}, err
			}
		}
	}
	if !seen {
		return Response{}, ErrNoResponse
	}
	return final, nil
}

// MockModel is a deterministic in-memory Model for tests and dry runs.
//
// Replies are chosen in this order: the next scripted response queued with
// Enqueue, a canned reply registered with AddResponse for the last user
// text, then "Mock response to: <last user text>".
type MockModel struct {
	mu        sync.Mutex
	info      Info
	script    []Response
	responses map[string]string
	err       error
	requests  []Request
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Enqueue appends scripted responses consumed one per Generate call.
func (m *MockModel) Enqueue(resps ...Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, resps...)
}

// EnqueueText queues a final assistant text reply.
func (m *MockModel) EnqueueText(text string) {
	m.Enqueue(Response{
		Content:      core.NewTextContent(core.RoleAssistant, text),
		FinishReason: "stop",
	})
}

// EnqueueToolCall queues an assistant reply requesting a single function call.
func (m *MockModel) EnqueueToolCall(id, name, arguments string) {
	m.Enqueue(Response{
		Content: core.Content{
			Role:  core.RoleAssistant,
			Parts: []core.Part{core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: id, Name: name, Arguments: arguments}}},
		},
		FinishReason: "tool_calls",
	})
}

// FailWith makes every subsequent Generate call fail with err. Pass nil to reset.
func (m *MockModel) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the number of Generate invocations so far.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of every request received.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	resp, err := m.next(req)
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)
		if err != nil {
			errCh <- err
			return
		}
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- resp:
		}
	}()
	return respCh, errCh
}

func (m *MockModel) next(req Request) (Response, error) {
	if m.err != nil {
		return Response{}, m.err
	}
	if len(m.script) > 0 {
		r := m.script[0]
		m.script = m.script[1:]
		return r, nil
	}
	if len(req.Contents) == 0 {
		return Response{}, fmt.Errorf("no contents provided")
	}
	input := lastUserText(req.Contents)
	full, ok := m.responses[input]
	if !ok {
		full = fmt.Sprintf("Mock response to: %s", input)
	}
	return Response{
		Content:      core.NewTextContent(core.RoleAssistant, full),
		FinishReason: "stop",
	}, nil
}

func lastUserText(contents []core.Content) string {
	for i := len(contents) - 1; i >= 0; i-- {
		if contents[i].Role == core.RoleUser {
			return contents[i].Text()
		}
	}
	return contents[len(contents)-1].Text()
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
