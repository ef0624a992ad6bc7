package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestContent_Helpers(t *testing.T) {
	c := Content{Role: RoleAssistant, Parts: []Part{
		TextPart{Text: "hello "},
		FunctionCallPart{FunctionCall: FunctionCall{ID: "c1", Name: "search_internet", Arguments: `{"query":"x"}`}},
		TextPart{Text: "world"},
	}}

	if got := c.Text(); got != "hello world" {
		t.Fatalf("Text() = %q", got)
	}
	calls := c.FunctionCalls()
	if len(calls) != 1 || calls[0].Name != "search_internet" || calls[0].ID != "c1" {
		t.Fatalf("FunctionCalls() = %+v", calls)
	}

	ok := NewFunctionResponseContent("c1", "search_internet", "result", nil)
	resps := ok.FunctionResponses()
	if ok.Role != RoleTool || len(resps) != 1 || resps[0].Response != "result" || resps[0].Error != "" {
		t.Fatalf("success response malformed: %+v", ok)
	}

	failed := NewFunctionResponseContent("c2", "search_internet", nil, errors.New("boom"))
	if failed.FunctionResponses()[0].Error != "boom" {
		t.Fatalf("expected error to be copied: %+v", failed)
	}
}

func TestInputs_Immutable(t *testing.T) {
	src := map[string]string{"company_domain": "careers.example.com"}
	in := NewInputs(src)

	src["company_domain"] = "mutated"
	if in.Get("company_domain") != "careers.example.com" {
		t.Fatal("NewInputs must copy its source map")
	}

	m := in.Map()
	m["company_domain"] = "mutated"
	if in.Get("company_domain") != "careers.example.com" {
		t.Fatal("Map must return a copy")
	}

	next := in.With(map[string]string{"hiring_needs": "Analyst"})
	if _, ok := in.Lookup("hiring_needs"); ok {
		t.Fatal("With must not modify the receiver")
	}
	if next.Get("hiring_needs") != "Analyst" || next.Get("company_domain") != "careers.example.com" {
		t.Fatalf("With produced %+v", next.Map())
	}
	if keys := next.Keys(); strings.Join(keys, ",") != "company_domain,hiring_needs" {
		t.Fatalf("Keys not sorted: %v", keys)
	}

	var zero Inputs
	if zero.Len() != 0 || zero.Get("x") != "" {
		t.Fatal("zero Inputs must behave as empty")
	}
}

func TestStatus_Transitions(t *testing.T) {
	all := []Status{StatusPending, StatusRunning, StatusCompleted, StatusFailed}
	allowed := map[[2]Status]bool{
		{StatusPending, StatusRunning}:   true,
		{StatusRunning, StatusCompleted}: true,
		{StatusRunning, StatusFailed}:    true,
	}
	for _, from := range all {
		for _, to := range all {
			if got := from.CanTransition(to); got != allowed[[2]Status{from, to}] {
				t.Errorf("%s -> %s: got %v", from, to, got)
			}
		}
	}
	if !StatusCompleted.IsTerminal() || !StatusFailed.IsTerminal() || StatusRunning.IsTerminal() {
		t.Error("terminal states misreported")
	}
}

func TestErrors_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")

	tie := NewToolInvocationError("search_internet", cause)
	if !errors.Is(tie, cause) {
		t.Error("ToolInvocationError must unwrap to its cause")
	}

	pe := &PipelineError{Iteration: 2, Iterations: 3, Err: tie}
	if !errors.Is(pe, cause) {
		t.Error("PipelineError must unwrap through to the root cause")
	}
	if !strings.Contains(pe.Error(), "iteration 2 of 3") {
		t.Errorf("PipelineError message must name the iteration: %s", pe)
	}

	wrapped := fmt.Errorf("startup: %w", NewConfigurationError("llm.provider", "unknown provider"))
	if !IsConfigurationError(wrapped) || IsInputError(wrapped) {
		t.Error("IsConfigurationError must see through wrapping")
	}

	ie := &InputError{Field: "n_iterations", Reason: "not a number", Err: ErrMissingInput}
	if !IsInputError(ie) || !errors.Is(ie, ErrMissingInput) {
		t.Error("InputError must be detectable and unwrap")
	}
}

func TestIterationLimiter(t *testing.T) {
	l := NewIterationLimiter(2)
	if err := l.Increment(); err != nil {
		t.Fatal(err)
	}
	if l.Remaining() != 1 {
		t.Fatalf("Remaining = %d", l.Remaining())
	}
	if err := l.Increment(); err != nil {
		t.Fatal(err)
	}
	if err := l.Increment(); !errors.Is(err, ErrIterationLimit) {
		t.Fatalf("expected ErrIterationLimit, got %v", err)
	}
	if l.Count() != 3 || l.Remaining() != 0 {
		t.Fatalf("Count=%d Remaining=%d", l.Count(), l.Remaining())
	}

	unlimited := NewIterationLimiter(0)
	for i := 0; i < 100; i++ {
		if err := unlimited.Increment(); err != nil {
			t.Fatal(err)
		}
	}
	if unlimited.Remaining() != -1 {
		t.Fatal("unlimited limiter must report -1")
	}
}

func TestNewEvent(t *testing.T) {
	e := NewEvent(EventTaskStarted, "run-1", "job_posting")
	if e.ID == "" || e.Timestamp.IsZero() || e.RunID != "run-1" || e.Crew != "job_posting" || e.Type != EventTaskStarted {
		t.Fatalf("NewEvent did not initialize fields correctly: %+v", e)
	}
	if NewEvent(EventRunStarted, "r", "c").ID == e.ID {
		t.Fatal("event IDs must be unique")
	}
}
