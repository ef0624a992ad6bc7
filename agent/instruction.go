package agent

import (
	"fmt"
	"strings"
)

// Assignment is the unit of work handed to an agent: a task description, the
// shape of the expected answer and the outputs of earlier tasks.
type Assignment struct {
	Description    string
	ExpectedOutput string
	Context        string
}

// Instructions returns the system prompt built from the agent's persona.
func (a *Agent) Instructions() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s.", a.role)
	if a.backstory != "" {
		b.WriteString(" ")
		b.WriteString(a.backstory)
	}
	if a.goal != "" {
		fmt.Fprintf(&b, "\nYour personal goal is: %s", a.goal)
	}
	b.WriteString("\nUse the tools available to you when they help. When you are done, reply with your " +
		"complete final answer as plain text without calling any tool.")
	return b.String()
}

// Prompt renders an assignment as the opening user message.
func (as Assignment) Prompt() string {
	var b strings.Builder
	b.WriteString("Current Task: ")
	b.WriteString(strings.TrimSpace(as.Description))
	if eo := strings.TrimSpace(as.ExpectedOutput); eo != "" {
		b.WriteString("\n\nThis is the expected criteria for your final answer: ")
		b.WriteString(eo)
		b.WriteString("\nYou MUST return the actual complete content as the final answer, not a summary.")
	}
	if ctx := strings.TrimSpace(as.Context); ctx != "" {
		b.WriteString("\n\nThis is the context you're working with:\n")
		b.WriteString(ctx)
	}
	b.WriteString("\n\nBegin! This is VERY important to you, use the tools available and give your best Final Answer.")
	return b.String()
}

const finalAnswerPrompt = "You have used the maximum number of steps for this task. " +
	"Do not call any more tools. Give your best complete final answer now based on what you know."
