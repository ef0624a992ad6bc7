package tool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alpinecapital/crewmesh/internal/util"
	"github.com/alpinecapital/crewmesh/logging"
)

// Func is the implementation behind a FunctionTool. args are already validated.
type Func func(ctx context.Context, args map[string]any) (any, error)

// Options configure a FunctionTool.
type Options struct {
	Logger logging.Logger
}

// FunctionTool exposes a plain Go function as a Tool.
//
// Arguments are validated against the declared schema before fn runs.
// Failures are normalized to *ToolError:
//
//	validation failure       -> Code VALIDATION_ERROR
//	*ToolError returned by fn -> forwarded unchanged
//	any other error          -> Code EXECUTION_ERROR, cause kept in Err
//
// A FunctionTool has no mutable state after construction.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          Func
	logger      logging.Logger
}

// NewFunctionTool constructs a FunctionTool from an explicit schema and function.
//
//	lookup := tool.NewFunctionTool(
//		"lookup_ticker",
//		"Look up the stock ticker of a company",
//		map[string]any{
//			"type":       "object",
//			"properties": map[string]any{"company": map[string]any{"type": "string"}},
//			"required":   []string{"company"},
//		},
//		func(ctx context.Context, args map[string]any) (any, error) {
//			return tickers[args["company"].(string)], nil
//		},
//	)
func NewFunctionTool(name, description string, parameters map[string]any, fn Func, optFns ...func(o *Options)) *FunctionTool {
	opts := Options{}
	for _, f := range optFns {
		f(&opts)
	}
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
		logger:      logging.OrNoOp(opts.Logger),
	}
}

// NewFunctionToolFromStruct derives the parameter schema from an argument
// struct (see util.SchemaFor).
func NewFunctionToolFromStruct(name, description string, args any, fn Func, optFns ...func(o *Options)) *FunctionTool {
	return NewFunctionTool(name, description, util.SchemaFor(args), fn, optFns...)
}

// Name returns the tool name used in function call declarations and routing.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema describing expected arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call validates args then invokes the wrapped function.
func (t *FunctionTool) Call(ctx context.Context, args map[string]any) (any, error) {
	start := time.Now()
	t.logger.Debug("tool.call.start", "tool", t.name)

	if err := util.ValidateParameters(args, t.parameters); err != nil {
		t.logger.Warn("tool.call.validation_failed", "tool", t.name, "error", err.Error())
		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    CodeValidation,
			Err:     err,
		}
	}

	result, err := t.fn(ctx, args)
	if err != nil {
		t.logger.Error("tool.call.error", "tool", t.name, "error", err.Error())

		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			return nil, err
		}
		return nil, &ToolError{
			Tool:    t.name,
			Message: err.Error(),
			Code:    CodeExecution,
			Err:     err,
		}
	}

	t.logger.Info("tool.call.success", "tool", t.name, "duration_ms", time.Since(start).Milliseconds())
	return result, nil
}
