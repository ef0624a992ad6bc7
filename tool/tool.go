// Package tool implements the Tool Adapters agents call while they reason:
// named capabilities with a JSON schema for their arguments and a uniform
// error model.
package tool

import (
	"context"
	"fmt"

	"github.com/alpinecapital/crewmesh/internal/util"
)

// Tool is a stateless capability an agent may invoke. Implementations must be
// safe for concurrent use since one instance is shared by every agent of a crew.
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case).
	Name() string

	// Description is shown to the model to decide when to call the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected input.
	Parameters() map[string]any

	// Call executes the tool with arguments decoded from the model's function call.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// ValidationError represents parameter validation errors.
type ValidationError = util.ValidationError

// Error codes attached to ToolError.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
)

// ToolError represents errors that occur during tool execution. The
// underlying cause stays reachable through errors.As / errors.Is.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Err     error  `json:"-"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

func (e *ToolError) Unwrap() error { return e.Err }

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
