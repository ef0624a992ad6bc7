// Package agent implements the Agent Registry of a crew: role-played personas
// bound to a goal, a backstory, a subset of tools and a shared LLM backend.
//
// An Agent turns an Assignment into text with a reasoning loop: the model is
// asked for an answer, any tool calls it requests are executed and fed back,
// and the loop ends when the model replies without calling a tool or the
// iteration budget is spent.
//
// Delegation is explicit. An agent constructed with AllowDelegation receives
// two extra tools when it is invoked with a non-empty Directory of coworkers:
//
//   - delegate_work_to_coworker re-submits a new Assignment to a coworker
//   - ask_question_to_coworker does the same with a question
//
// Coworkers run with an empty directory, so delegation never recurses.
package agent
