package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/alpinecapital/crewmesh/logging"
	"github.com/alpinecapital/crewmesh/tool"
)

// Delegation tool names.
const (
	DelegateWorkToolName = "delegate_work_to_coworker"
	AskQuestionToolName  = "ask_question_to_coworker"
)

type delegateArgs struct {
	Task     string `json:"task" description:"The task to delegate"`
	Context  string `json:"context" description:"Everything the coworker needs to know to execute the task"`
	Coworker string `json:"coworker" description:"Role of the coworker to delegate to"`
}

type questionArgs struct {
	Question string `json:"question" description:"The question to ask"`
	Context  string `json:"context" description:"Everything the coworker needs to know to answer"`
	Coworker string `json:"coworker" description:"Role of the coworker to ask"`
}

// DelegationTools returns the tools that re-submit work to coworkers. The
// coworker runs with an empty directory.
func DelegationTools(coworkers Directory, logger logging.Logger) []tool.Tool {
	roles := strings.Join(coworkers.Roles(), ", ")
	opt := func(o *tool.Options) { o.Logger = logger }

	delegate := tool.NewFunctionToolFromStruct(DelegateWorkToolName,
		fmt.Sprintf("Delegate a specific task to one of the following coworkers: %s. "+
			"Provide the coworker role, the task and ALL necessary context: they know nothing about the "+
			"task, so explain everything instead of referencing it.", roles),
		delegateArgs{},
		func(ctx context.Context, args map[string]any) (any, error) {
			return resubmit(ctx, coworkers, logger, str(args, "coworker"), Assignment{
				Description:    str(args, "task"),
				ExpectedOutput: "Your best answer to your coworker asking you this, accounting for the context shared.",
				Context:        str(args, "context"),
			})
		}, opt)

	ask := tool.NewFunctionToolFromStruct(AskQuestionToolName,
		fmt.Sprintf("Ask a specific question to one of the following coworkers: %s. "+
			"Provide the coworker role, the question and ALL necessary context: they know nothing about "+
			"the question, so explain everything instead of referencing it.", roles),
		questionArgs{},
		func(ctx context.Context, args map[string]any) (any, error) {
			return resubmit(ctx, coworkers, logger, str(args, "coworker"), Assignment{
				Description:    str(args, "question"),
				ExpectedOutput: "Your best answer to your coworker asking you this, accounting for the context shared.",
				Context:        str(args, "context"),
			})
		}, opt)

	return []tool.Tool{delegate, ask}
}

func resubmit(ctx context.Context, coworkers Directory, logger logging.Logger, role string, as Assignment) (string, error) {
	target, ok := coworkers.Lookup(role)
	if !ok {
		return "", fmt.Errorf("coworker %q not found, it must be one of: %s", role, strings.Join(coworkers.Roles(), ", "))
	}
	logging.OrNoOp(logger).Info("agent.delegate", "coworker", target.Role())
	return target.Invoke(ctx, as, Directory{})
}

func str(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}
