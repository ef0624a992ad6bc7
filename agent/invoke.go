package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alpinecapital/crewmesh/core"
	"github.com/alpinecapital/crewmesh/internal/util"
	"github.com/alpinecapital/crewmesh/logging"
	"github.com/alpinecapital/crewmesh/model"
	"github.com/alpinecapital/crewmesh/tool"
)

// Invoker is the capability every agent exposes to the runner and to its
// coworkers: take an assignment, return text.
type Invoker interface {
	Role() string
	Invoke(ctx context.Context, as Assignment, coworkers Directory) (string, error)
}

var _ Invoker = (*Agent)(nil)

// Invoke runs the reasoning loop for one assignment. Tool failures are fed
// back to the model as function responses; model failures end the invocation.
func (a *Agent) Invoke(ctx context.Context, as Assignment, coworkers Directory) (string, error) {
	tools := a.toolsFor(coworkers)
	defs := definitions(tools)
	instructions := a.Instructions()
	contents := []core.Content{core.NewTextContent(core.RoleUser, as.Prompt())}
	limiter := core.NewIterationLimiter(a.maxIterations)

	a.logger.Debug("agent.invoke.start", "agent", a.role, "tools", len(tools), "coworkers", coworkers.Len())

	for {
		if err := limiter.Increment(); err != nil {
			a.logger.Warn("agent.invoke.iteration_limit", "agent", a.role, "max_iterations", a.maxIterations)
			break
		}

		resp, err := a.generate(ctx, model.Request{Instructions: instructions, Contents: contents, Tools: defs})
		if err != nil {
			return "", err
		}

		calls := resp.Content.FunctionCalls()
		if len(calls) == 0 {
			a.logger.Debug("agent.invoke.complete", "agent", a.role, "iterations", limiter.Count())
			return strings.TrimSpace(resp.Content.Text()), nil
		}

		contents = append(contents, resp.Content)
		for _, call := range calls {
			contents = append(contents, a.execute(ctx, tools, call))
		}
	}

	contents = append(contents, core.NewTextContent(core.RoleUser, finalAnswerPrompt))
	resp, err := a.generate(ctx, model.Request{Instructions: instructions, Contents: contents})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content.Text()), nil
}

func (a *Agent) generate(ctx context.Context, req model.Request) (model.Response, error) {
	start := time.Now()
	resp, err := model.Collect(ctx, a.llm, req)
	tokens := 0
	if resp.Usage != nil {
		tokens = resp.Usage.TotalTokens
	}
	logging.LLMCall(logging.With(a.logger, "agent", a.role), a.llm.Info().Name, tokens, time.Since(start), err)
	if err != nil {
		return model.Response{}, fmt.Errorf("agent %s: model call failed: %w", a.role, err)
	}
	a.logger.Debug("agent.model.response", "agent", a.role, "fn_calls", len(resp.Content.FunctionCalls()))
	return resp, nil
}

// execute runs one requested function call and records the outcome as tool content.
func (a *Agent) execute(ctx context.Context, tools []tool.Tool, call core.FunctionCall) core.Content {
	start := time.Now()
	result, err := a.callTool(ctx, tools, call)
	logging.ToolCall(logging.With(a.logger, "agent", a.role), call.Name, time.Since(start), err)
	if err != nil {
		var tie *core.ToolInvocationError
		if errors.As(err, &tie) {
			a.logger.Warn("tool.call.error", "agent", a.role, "tool", call.Name, "error", err.Error())
		}
	}
	return core.NewFunctionResponseContent(call.ID, call.Name, result, err)
}

func (a *Agent) callTool(ctx context.Context, tools []tool.Tool, call core.FunctionCall) (any, error) {
	t := findTool(tools, call.Name)
	if t == nil {
		names := make([]string, len(tools))
		for i, tl := range tools {
			names[i] = tl.Name()
		}
		return nil, fmt.Errorf("tool %s not found, available tools: %s", call.Name, strings.Join(names, ", "))
	}
	args, err := util.DecodeArguments(call.Arguments)
	if err != nil {
		return nil, err
	}
	return t.Call(ctx, args)
}

// toolsFor returns the agent's tools plus the delegation tools when the agent
// may delegate and has someone to delegate to.
func (a *Agent) toolsFor(coworkers Directory) []tool.Tool {
	if !a.allowDelegation || coworkers.Len() == 0 {
		return a.tools
	}
	out := make([]tool.Tool, 0, len(a.tools)+2)
	out = append(out, a.tools...)
	return append(out, DelegationTools(coworkers, a.logger)...)
}

func findTool(tools []tool.Tool, name string) tool.Tool {
	for _, t := range tools {
		if t.Name() == name {
			return t
		}
	}
	return nil
}

func definitions(tools []tool.Tool) []model.ToolDefinition {
	if len(tools) == 0 {
		return nil
	}
	defs := make([]model.ToolDefinition, len(tools))
	for i, t := range tools {
		defs[i] = model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		}
	}
	return defs
}
