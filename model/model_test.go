package model

import (
	"context"
	"errors"
	"testing"

	"github.com/alpinecapital/crewmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userRequest(text string) Request {
	return Request{Contents: []core.Content{core.NewTextContent(core.RoleUser, text)}}
}

func TestMockModel_DefaultReplyIsDeterministic(t *testing.T) {
	m := NewMockModel("stub", "mock")

	first, err := Collect(context.Background(), m, userRequest("draft a post"))
	require.NoError(t, err)
	second, err := Collect(context.Background(), m, userRequest("draft a post"))
	require.NoError(t, err)

	assert.Equal(t, "Mock response to: draft a post", first.Content.Text())
	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, 2, m.Calls())
}

func TestMockModel_ScriptTakesPrecedence(t *testing.T) {
	m := NewMockModel("stub", "mock")
	m.AddResponse("hello", "canned")
	m.EnqueueToolCall("call-1", "search_internet", `{"query":"banks"}`)
	m.EnqueueText("scripted")

	r1, err := Collect(context.Background(), m, userRequest("hello"))
	require.NoError(t, err)
	calls := r1.Content.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "search_internet", calls[0].Name)

	r2, err := Collect(context.Background(), m, userRequest("hello"))
	require.NoError(t, err)
	assert.Equal(t, "scripted", r2.Content.Text())

	r3, err := Collect(context.Background(), m, userRequest("hello"))
	require.NoError(t, err)
	assert.Equal(t, "canned", r3.Content.Text())
}

func TestMockModel_UsesLastUserMessage(t *testing.T) {
	m := NewMockModel("stub", "mock")
	req := Request{Contents: []core.Content{
		core.NewTextContent(core.RoleUser, "question"),
		core.NewFunctionResponseContent("c1", "search_internet", "result", nil),
	}}

	r, err := Collect(context.Background(), m, req)
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: question", r.Content.Text())
	assert.Len(t, m.Requests(), 1)
}

func TestMockModel_FailWith(t *testing.T) {
	m := NewMockModel("stub", "mock")
	boom := errors.New("backend down")
	m.FailWith(boom)

	_, err := Collect(context.Background(), m, userRequest("x"))
	assert.ErrorIs(t, err, boom)

	m.FailWith(nil)
	_, err = Collect(context.Background(), m, userRequest("x"))
	assert.NoError(t, err)
}

func TestMockModel_EmptyContents(t *testing.T) {
	_, err := Collect(context.Background(), NewMockModel("stub", "mock"), Request{})
	assert.Error(t, err)
}

type silentModel struct{}

func (silentModel) Generate(context.Context, Request) (<-chan Response, <-chan error) {
	r := make(chan Response)
	e := make(chan error)
	close(r)
	close(e)
	return r, e
}

func (silentModel) Info() Info { return Info{Name: "silent"} }

func TestCollect_NoFinalResponse(t *testing.T) {
	_, err := Collect(context.Background(), silentModel{}, userRequest("x"))
	assert.ErrorIs(t, err, ErrNoResponse)
}
