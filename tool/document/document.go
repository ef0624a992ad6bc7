// Package document implements the csv_search and markdown_search Tool
// Adapters used by the resume matcher crew. Each file is indexed once in an
// in-memory bleve index and queried with full-text match queries.
package document

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/alpinecapital/crewmesh/core"
	"github.com/alpinecapital/crewmesh/logging"
	"github.com/alpinecapital/crewmesh/tool"
)

// Tool names exposed to agents.
const (
	CSVToolName      = "csv_search"
	MarkdownToolName = "markdown_search"
)

// Entry is one searchable unit: a CSV row or a markdown section. Fields keep
// their source order.
type Entry struct {
	ID     string
	Fields []Field
}

// Field is a named value of an Entry.
type Field struct {
	Name  string
	Value string
}

func (e Entry) doc() map[string]any {
	m := make(map[string]any, len(e.Fields))
	for _, f := range e.Fields {
		m[f.Name] = f.Value
	}
	return m
}

func (e Entry) String() string {
	var b strings.Builder
	for _, f := range e.Fields {
		if f.Value == "" {
			continue
		}
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(f.Value)
		b.WriteByte('\n')
	}
	return b.String()
}

// Corpus is an indexed set of entries from one file.
type Corpus struct {
	index   bleve.Index
	entries map[string]Entry
	order   []string
}

// NewCorpus indexes entries in a memory-only bleve index.
func NewCorpus(entries []Entry) (*Corpus, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	c := &Corpus{index: idx, entries: make(map[string]Entry, len(entries))}
	batch := idx.NewBatch()
	for _, e := range entries {
		if err := batch.Index(e.ID, e.doc()); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("index entry %s: %w", e.ID, err)
		}
		c.entries[e.ID] = e
		c.order = append(c.order, e.ID)
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("index batch: %w", err)
	}
	return c, nil
}

// Search returns up to limit entries matching query, best match first. An
// empty query returns the first entries in file order.
func (c *Corpus) Search(query string, limit int) ([]Entry, error) {
	if strings.TrimSpace(query) == "" {
		n := max(min(limit, len(c.order)), 0)
		out := make([]Entry, 0, n)
		for _, id := range c.order[:n] {
			out = append(out, c.entries[id])
		}
		return out, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(query), limit, 0, false)
	res, err := c.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	out := make([]Entry, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if e, ok := c.entries[hit.ID]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// Len returns the number of indexed entries.
func (c *Corpus) Len() int { return len(c.order) }

// Close releases the index.
func (c *Corpus) Close() error { return c.index.Close() }

// ParseCSV turns every data row into an Entry keyed by the header row.
func ParseCSV(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var entries []Entry
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", row, err)
		}
		e := Entry{ID: "row-" + strconv.Itoa(row)}
		for i, v := range rec {
			name := "column_" + strconv.Itoa(i+1)
			if i < len(header) && header[i] != "" {
				name = header[i]
			}
			e.Fields = append(e.Fields, Field{Name: name, Value: strings.TrimSpace(v)})
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ParseMarkdown splits a markdown document into heading-delimited sections.
// Text before the first heading forms a section titled "Introduction".
func ParseMarkdown(r io.Reader) ([]Entry, error) {
	var (
		entries []Entry
		heading = "Introduction"
		body    []string
	)
	flush := func() {
		text := strings.TrimSpace(strings.Join(body, "\n"))
		if text != "" {
			entries = append(entries, Entry{
				ID:     "section-" + strconv.Itoa(len(entries)+1),
				Fields: []Field{{Name: "section", Value: heading}, {Name: "content", Value: text}},
			})
		}
		body = body[:0]
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if h, ok := headingText(line); ok {
			flush()
			heading = h
			continue
		}
		body = append(body, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}
	flush()
	return entries, nil
}

func headingText(line string) (string, bool) {
	trimmed := strings.TrimLeft(line, "#")
	level := len(line) - len(trimmed)
	if level == 0 || level > 6 || (trimmed != "" && trimmed[0] != ' ') {
		return "", false
	}
	return strings.TrimSpace(trimmed), true
}

// Options configure a Searcher.
type Options struct {
	MaxResults int
	Logger     logging.Logger
}

// Searcher serves queries against CSV and markdown files, indexing each
// path on first use.
type Searcher struct {
	opts Options

	mu      sync.Mutex
	corpora map[string]*Corpus
}

// NewSearcher creates a Searcher returning at most five entries per query by default.
func NewSearcher(optFns ...func(o *Options)) *Searcher {
	opts := Options{MaxResults: 5}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.MaxResults = max(opts.MaxResults, 1)
	opts.Logger = logging.OrNoOp(opts.Logger)
	return &Searcher{opts: opts, corpora: map[string]*Corpus{}}
}

// SearchCSV queries the rows of the CSV file at path.
func (s *Searcher) SearchCSV(ctx context.Context, query, path string) (string, error) {
	return s.search(ctx, CSVToolName, query, path, ParseCSV)
}

// SearchMarkdown queries the sections of the markdown file at path.
func (s *Searcher) SearchMarkdown(ctx context.Context, query, path string) (string, error) {
	return s.search(ctx, MarkdownToolName, query, path, ParseMarkdown)
}

func (s *Searcher) search(ctx context.Context, toolName, query, path string, parse func(io.Reader) ([]Entry, error)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c, err := s.corpus(path, parse)
	if err != nil {
		return "", core.NewToolInvocationError(toolName, err)
	}
	hits, err := c.Search(query, s.opts.MaxResults)
	if err != nil {
		return "", core.NewToolInvocationError(toolName, err)
	}
	s.opts.Logger.Debug("document.search", "tool", toolName, "path", path, "query", query, "hits", len(hits))

	if len(hits) == 0 {
		return "No matching entries found.", nil
	}
	blocks := make([]string, len(hits))
	for i, h := range hits {
		blocks[i] = h.String()
	}
	return "Relevant content:\n" + strings.Join(blocks, "\n"), nil
}

func (s *Searcher) corpus(path string, parse func(io.Reader) ([]Entry, error)) (*Corpus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.corpora[path]; ok {
		return c, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	entries, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	c, err := NewCorpus(entries)
	if err != nil {
		return nil, err
	}
	s.corpora[path] = c
	return c, nil
}

// Close releases every cached index.
func (s *Searcher) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for p, c := range s.corpora {
		errs = append(errs, c.Close())
		delete(s.corpora, p)
	}
	return errors.Join(errs...)
}

type csvArgs struct {
	Query   string `json:"query" description:"What to look for in the file"`
	CSVPath string `json:"csv_path" description:"Path of the CSV file to search"`
}

type markdownArgs struct {
	Query        string `json:"query" description:"What to look for in the document"`
	MarkdownPath string `json:"markdown_path" description:"Path of the markdown file to search"`
}

// Tools returns csv_search and markdown_search backed by s.
func Tools(s *Searcher, optFns ...func(o *tool.Options)) []tool.Tool {
	return []tool.Tool{
		tool.NewFunctionToolFromStruct(CSVToolName,
			"A tool that can be used to semantic search a query from a CSV's content.",
			csvArgs{},
			func(ctx context.Context, args map[string]any) (any, error) {
				q, _ := args["query"].(string)
				p, _ := args["csv_path"].(string)
				return s.SearchCSV(ctx, q, p)
			}, optFns...),
		tool.NewFunctionToolFromStruct(MarkdownToolName,
			"A tool that can be used to semantic search a query from a markdown document's content.",
			markdownArgs{},
			func(ctx context.Context, args map[string]any) (any, error) {
				q, _ := args["query"].(string)
				p, _ := args["markdown_path"].(string)
				return s.SearchMarkdown(ctx, q, p)
			}, optFns...),
	}
}
