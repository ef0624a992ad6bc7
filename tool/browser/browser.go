// Package browser implements the scrape_and_summarize_website Tool Adapter:
// it fetches a page, reduces the HTML to readable text and has the LLM
// summarize it chunk by chunk.
package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alpinecapital/crewmesh/core"
	"github.com/alpinecapital/crewmesh/logging"
	"github.com/alpinecapital/crewmesh/model"
	"github.com/alpinecapital/crewmesh/tool"
)

// ToolName is the name agents use to call the scraper.
const ToolName = "scrape_and_summarize_website"

const (
	researcherPersona = "You are a Principal Researcher at a big company and you need to do a research " +
		"about a given topic. Your goal is to do amazing research and summaries based on the content you are working with."
	summaryPrompt = "Analyze and summarize the content below, make sure to include the most relevant " +
		"information in the summary, return only the summary nothing else.\n\nCONTENT\n----------\n"
)

// Options configure a Scraper.
type Options struct {
	// ChunkSize is the maximum number of runes summarized per model call.
	ChunkSize  int
	HTTPClient *http.Client
	UserAgent  string
	Logger     logging.Logger
}

// Scraper fetches and summarizes web pages.
type Scraper struct {
	llm  model.Model
	opts Options
}

// New creates a Scraper summarizing with llm.
func New(llm model.Model, optFns ...func(o *Options)) *Scraper {
	opts := Options{
		ChunkSize:  8000,
		HTTPClient: http.DefaultClient,
		UserAgent:  "crewmesh/1.0",
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	return &Scraper{llm: llm, opts: opts}
}

// ScrapeAndSummarize fetches website and returns the joined chunk summaries.
func (s *Scraper) ScrapeAndSummarize(ctx context.Context, website string) (string, error) {
	text, err := s.Fetch(ctx, website)
	if err != nil {
		return "", err
	}

	chunks := Chunk(text, s.opts.ChunkSize)
	s.opts.Logger.Debug("browser.fetch.complete", "url", website, "chars", len(text), "chunks", len(chunks))

	summaries := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		resp, err := model.Collect(ctx, s.llm, model.Request{
			Instructions: researcherPersona,
			Contents:     []core.Content{core.NewTextContent(core.RoleUser, summaryPrompt+chunk)},
		})
		if err != nil {
			return "", core.NewToolInvocationError(ToolName, fmt.Errorf("summarize chunk %d: %w", i+1, err))
		}
		summaries = append(summaries, resp.Content.Text())
	}
	return strings.Join(summaries, "\n\n"), nil
}

// Fetch downloads website and returns its visible text.
func (s *Scraper) Fetch(ctx context.Context, website string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, website, nil)
	if err != nil {
		return "", core.NewToolInvocationError(ToolName, err)
	}
	req.Header.Set("User-Agent", s.opts.UserAgent)

	resp, err := s.opts.HTTPClient.Do(req)
	if err != nil {
		return "", core.NewToolInvocationError(ToolName, fmt.Errorf("fetch %s: %w", website, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", core.NewToolInvocationError(ToolName,
			fmt.Errorf("fetch %s returned %d: %s", website, resp.StatusCode, strings.TrimSpace(string(body))))
	}

	text, err := ExtractText(resp.Body)
	if err != nil {
		return "", core.NewToolInvocationError(ToolName, err)
	}
	return text, nil
}

// ExtractText parses an HTML document and returns its visible text. Script,
// style and similar non-content elements are dropped; whitespace within a
// block collapses to single spaces and blocks are separated by newlines.
func ExtractText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var (
		blocks []string
		cur    strings.Builder
	)
	flush := func() {
		if s := strings.Join(strings.Fields(cur.String()), " "); s != "" {
			blocks = append(blocks, s)
		}
		cur.Reset()
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Svg, atom.Iframe, atom.Head:
				return
			}
		}
		if n.Type == html.TextNode {
			cur.WriteString(n.Data)
			cur.WriteByte(' ')
		}
		block := n.Type == html.ElementNode && isBlock(n.DataAtom)
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			flush()
		}
	}
	walk(doc)
	flush()

	return strings.Join(blocks, "\n"), nil
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Section, atom.Article, atom.Header, atom.Footer, atom.Main, atom.Nav,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Li, atom.Ul, atom.Ol, atom.Tr, atom.Table, atom.Br, atom.Blockquote, atom.Pre:
		return true
	}
	return false
}

// Chunk splits text into pieces of at most size runes.
func Chunk(text string, size int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if size <= 0 || len(runes) <= size {
		return []string{text}
	}
	chunks := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

type scrapeArgs struct {
	Website string `json:"website" description:"Full URL of the website to scrape"`
}

// Tool exposes s as scrape_and_summarize_website.
func (s *Scraper) Tool(optFns ...func(o *tool.Options)) tool.Tool {
	return tool.NewFunctionToolFromStruct(ToolName,
		"Useful to scrape and summarize a website content. Pass the full URL of the website.",
		scrapeArgs{},
		func(ctx context.Context, args map[string]any) (any, error) {
			website, _ := args["website"].(string)
			return s.ScrapeAndSummarize(ctx, website)
		}, optFns...)
}
