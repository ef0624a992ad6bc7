package core

import (
	"errors"
	"fmt"
)

// ErrMissingInput is wrapped by InputError values raised for absent required parameters.
var ErrMissingInput = errors.New("missing required input")

// ConfigurationError reports a bad or missing backend, credential or crew
// definition. It is raised before any task executes and is always fatal.
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

// NewConfigurationError creates a ConfigurationError for field.
func NewConfigurationError(field, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: reason}
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// InputError reports malformed run inputs, for example a missing template
// parameter or a non-numeric iteration count. Raised before any task executes.
type InputError struct {
	Field  string
	Reason string
	Err    error
}

// NewInputError creates an InputError for field.
func NewInputError(field, reason string) *InputError {
	return &InputError{Field: field, Reason: reason}
}

func (e *InputError) Error() string {
	msg := fmt.Sprintf("input error: %s: %s", e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InputError) Unwrap() error { return e.Err }

// ToolInvocationError reports a network or authentication failure inside a
// tool adapter. It is handed back to the invoking agent and never retried.
type ToolInvocationError struct {
	Tool string
	Err  error
}

// NewToolInvocationError wraps err as a failure of tool.
func NewToolInvocationError(tool string, err error) *ToolInvocationError {
	return &ToolInvocationError{Tool: tool, Err: err}
}

func (e *ToolInvocationError) Error() string {
	return fmt.Sprintf("tool %s invocation failed: %v", e.Tool, e.Err)
}

func (e *ToolInvocationError) Unwrap() error { return e.Err }

// PipelineError wraps the failure of one training iteration (1-based).
type PipelineError struct {
	Iteration  int
	Iterations int
	Err        error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("an error occurred while training the crew: iteration %d of %d failed: %v",
		e.Iteration, e.Iterations, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsInputError reports whether err wraps an InputError.
func IsInputError(err error) bool {
	var target *InputError
	return errors.As(err, &target)
}
