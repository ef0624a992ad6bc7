// Package search implements the web search Tool Adapters on top of a
// serper.dev compatible search API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/alpinecapital/crewmesh/core"
	"github.com/alpinecapital/crewmesh/logging"
	"github.com/alpinecapital/crewmesh/tool"
)

// Tool names exposed to agents.
const (
	InternetToolName = "search_internet"
	LinkedInToolName = "search_linkedin"
	TwitterToolName  = "search_twitter"
)

const (
	linkedInPrefix = "site:linkedin.com "
	twitterPrefix  = "site:twitter.com OR site:x.com "

	separator = "\n-----------------"
	noResults = "No results found."
)

// ErrMissingAPIKey is wrapped in the ToolInvocationError returned when no key is configured.
var ErrMissingAPIKey = errors.New("search api key is not configured")

// Options configure a Client.
type Options struct {
	Endpoint    string
	APIKey      string
	ResultCount int
	HTTPClient  *http.Client
	Logger      logging.Logger
}

// Client performs one POST per query against the search endpoint.
type Client struct {
	opts Options
}

// New creates a search client. Defaults: serper endpoint, top 5 results.
func New(optFns ...func(o *Options)) *Client {
	opts := Options{
		Endpoint:    "https://google.serper.dev/search",
		ResultCount: 5,
		HTTPClient:  http.DefaultClient,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	return &Client{opts: opts}
}

type searchRequest struct {
	Q string `json:"q"`
}

type searchResponse struct {
	Organic []map[string]any `json:"organic"`
}

// Search runs query and returns the normalized text block. Results lacking a
// title, link or snippet are skipped. Transport, auth and non-2xx failures are
// returned as *core.ToolInvocationError.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	if c.opts.APIKey == "" {
		return "", core.NewToolInvocationError(InternetToolName, ErrMissingAPIKey)
	}

	body, err := json.Marshal(searchRequest{Q: query})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", core.NewToolInvocationError(InternetToolName, err)
	}
	req.Header.Set("X-API-KEY", c.opts.APIKey)
	req.Header.Set("Content-Type", "application/json")

	c.opts.Logger.Debug("search.request", "query", query)

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return "", core.NewToolInvocationError(InternetToolName, fmt.Errorf("search request failed: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", core.NewToolInvocationError(InternetToolName, fmt.Errorf("read search response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", core.NewToolInvocationError(InternetToolName,
			fmt.Errorf("search API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	var sr searchResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return "", core.NewToolInvocationError(InternetToolName, fmt.Errorf("decode search response: %w", err))
	}

	block, kept := Format(sr.Organic, c.opts.ResultCount)
	c.opts.Logger.Debug("search.response", "query", query, "results", kept)
	return block, nil
}

// Format renders the first k organic results as a search result block and
// reports how many entries it kept.
func Format(organic []map[string]any, k int) (string, int) {
	if k > 0 && len(organic) > k {
		organic = organic[:k]
	}

	entries := make([]string, 0, len(organic))
	for _, r := range organic {
		title, ok1 := r["title"].(string)
		link, ok2 := r["link"].(string)
		snippet, ok3 := r["snippet"].(string)
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		entries = append(entries, strings.Join([]string{
			"Title: " + title,
			"Link: " + link,
			"Snippet: " + snippet,
			separator,
		}, "\n"))
	}

	content := noResults
	if len(entries) > 0 {
		content = strings.Join(entries, "\n")
	}
	return "\nSearch result: " + content + "\n", len(entries)
}

// Tools returns the three search tools backed by c.
func Tools(c *Client, optFns ...func(o *tool.Options)) []tool.Tool {
	return []tool.Tool{
		tool.NewQueryTool(InternetToolName,
			"Useful to search the internet about a given topic and return relevant results.",
			c.Search, optFns...),
		tool.NewQueryTool(LinkedInToolName,
			"Useful to search LinkedIn for posts and profiles about a given topic.",
			c.withPrefix(LinkedInToolName, linkedInPrefix), optFns...),
		tool.NewQueryTool(TwitterToolName,
			"Useful to search Twitter / X for posts about a given topic.",
			c.withPrefix(TwitterToolName, twitterPrefix), optFns...),
	}
}

func (c *Client) withPrefix(name, prefix string) tool.QueryFunc {
	return func(ctx context.Context, query string) (string, error) {
		out, err := c.Search(ctx, prefix+query)
		var tie *core.ToolInvocationError
		if errors.As(err, &tie) {
			tie.Tool = name
		}
		return out, err
	}
}
