package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alpinecapital/crewmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(i int) map[string]any {
	return map[string]any{
		"title":   fmt.Sprintf("Title %d", i),
		"link":    fmt.Sprintf("https://example.com/%d", i),
		"snippet": fmt.Sprintf("Snippet %d", i),
	}
}

type fakeSerper struct {
	t       *testing.T
	status  int
	organic []map[string]any
	queries []string
}

func (f *fakeSerper) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	assert.Equal(f.t, http.MethodPost, r.Method)
	assert.Equal(f.t, "test-key", r.Header.Get("X-API-KEY"))
	assert.Equal(f.t, "application/json", r.Header.Get("Content-Type"))

	var body map[string]string
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
	f.queries = append(f.queries, body["q"])

	if f.status != 0 && f.status != http.StatusOK {
		http.Error(w, "invalid api key", f.status)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"organic": f.organic})
}

func newClient(t *testing.T, f *fakeSerper) *Client {
	t.Helper()
	f.t = t
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return New(func(o *Options) {
		o.Endpoint = srv.URL
		o.APIKey = "test-key"
	})
}

func TestSearch_FormatsTopResults(t *testing.T) {
	f := &fakeSerper{}
	for i := 1; i <= 7; i++ {
		f.organic = append(f.organic, result(i))
	}

	out, err := newClient(t, f).Search(context.Background(), "alpine capital bank")
	require.NoError(t, err)

	assert.Equal(t, []string{"alpine capital bank"}, f.queries)
	assert.True(t, strings.HasPrefix(out, "\nSearch result: Title: Title 1\nLink: https://example.com/1\nSnippet: Snippet 1\n"))
	assert.Equal(t, 5, strings.Count(out, "-----------------"))
	assert.NotContains(t, out, "Title 6")
	assert.True(t, strings.HasSuffix(out, "-----------------\n"))
}

func TestSearch_SkipsResultsMissingFields(t *testing.T) {
	f := &fakeSerper{organic: []map[string]any{result(1), result(2), result(3), result(4), result(5)}}
	delete(f.organic[2], "snippet")

	out, err := newClient(t, f).Search(context.Background(), "q")
	require.NoError(t, err)

	assert.Equal(t, 4, strings.Count(out, "Title: "))
	assert.NotContains(t, out, "Title 3")
}

func TestSearch_EmptyResults(t *testing.T) {
	out, err := newClient(t, &fakeSerper{}).Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "\nSearch result: No results found.\n", out)
}

func TestSearch_NonOKStatus(t *testing.T) {
	_, err := newClient(t, &fakeSerper{status: http.StatusForbidden}).Search(context.Background(), "q")

	var tie *core.ToolInvocationError
	require.ErrorAs(t, err, &tie)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestSearch_MissingAPIKey(t *testing.T) {
	_, err := New().Search(context.Background(), "q")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestSearch_TransportError(t *testing.T) {
	c := New(func(o *Options) {
		o.Endpoint = "http://127.0.0.1:1"
		o.APIKey = "k"
	})
	_, err := c.Search(context.Background(), "q")
	var tie *core.ToolInvocationError
	assert.ErrorAs(t, err, &tie)
}

func TestTools_SitePrefixes(t *testing.T) {
	f := &fakeSerper{organic: []map[string]any{result(1)}}
	tools := Tools(newClient(t, f))
	require.Len(t, tools, 3)

	for _, tl := range tools {
		_, err := tl.Call(context.Background(), map[string]any{"query": "senior analyst"})
		require.NoError(t, err)
	}

	assert.Equal(t, []string{
		"senior analyst",
		"site:linkedin.com senior analyst",
		"site:twitter.com OR site:x.com senior analyst",
	}, f.queries)
	assert.Equal(t, LinkedInToolName, tools[1].Name())
}

func TestTools_ErrorNamesTool(t *testing.T) {
	tools := Tools(newClient(t, &fakeSerper{status: http.StatusUnauthorized}))

	_, err := tools[2].Call(context.Background(), map[string]any{"query": "q"})
	var tie *core.ToolInvocationError
	require.ErrorAs(t, err, &tie)
	assert.Equal(t, TwitterToolName, tie.Tool)
}
