package document

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alpinecapital/crewmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jobsCSV = `Job Title,Location,Description
Senior Financial Analyst,New York,Corporate finance modelling and forecasting
Software Engineer,Zurich,Go services for payments
Branch Manager,Geneva,Retail banking team leadership
`

const resumeMD = `Jane Doe, CFA

# Experience
Financial analyst at a retail bank. Built forecasting models.

## Skills
- Excel, SQL
- Go

# Education
MBA Finance
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestParseCSV(t *testing.T) {
	entries, err := ParseCSV(strings.NewReader(jobsCSV))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "row-1", entries[0].ID)
	assert.Equal(t, Field{Name: "Job Title", Value: "Senior Financial Analyst"}, entries[0].Fields[0])
	assert.Equal(t, "Job Title: Software Engineer\nLocation: Zurich\nDescription: Go services for payments\n", entries[1].String())

	entries, err = ParseCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseMarkdown(t *testing.T) {
	entries, err := ParseMarkdown(strings.NewReader(resumeMD))
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, "Introduction", entries[0].Fields[0].Value)
	assert.Equal(t, "Jane Doe, CFA", entries[0].Fields[1].Value)
	assert.Equal(t, "Skills", entries[2].Fields[0].Value)
	assert.Equal(t, "- Excel, SQL\n- Go", entries[2].Fields[1].Value)
}

func TestHeadingText(t *testing.T) {
	h, ok := headingText("## Skills ")
	assert.True(t, ok)
	assert.Equal(t, "Skills", h)

	_, ok = headingText("#hashtag")
	assert.False(t, ok)
	_, ok = headingText("plain")
	assert.False(t, ok)
}

func TestSearcher_CSV(t *testing.T) {
	s := NewSearcher(func(o *Options) { o.MaxResults = 2 })
	defer s.Close()
	path := writeFile(t, "jobs.csv", jobsCSV)

	out, err := s.SearchCSV(context.Background(), "financial forecasting", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Relevant content:\nJob Title: Senior Financial Analyst"))

	out, err = s.SearchCSV(context.Background(), "", path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "Job Title:"))

	out, err = s.SearchCSV(context.Background(), "astronaut", path)
	require.NoError(t, err)
	assert.Equal(t, "No matching entries found.", out)
}

func TestSearcher_NonPositiveMaxResults(t *testing.T) {
	for _, limit := range []int{0, -3} {
		s := NewSearcher(func(o *Options) { o.MaxResults = limit })
		path := writeFile(t, "jobs.csv", jobsCSV)

		out, err := s.SearchCSV(context.Background(), "", path)
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(out, "Job Title:"), "max results %d", limit)
		require.NoError(t, s.Close())
	}
}

func TestCorpus_EmptyQueryNegativeLimit(t *testing.T) {
	c, err := NewCorpus([]Entry{{ID: "1", Fields: []Field{{Name: "Job Title", Value: "Branch Manager"}}}})
	require.NoError(t, err)
	defer c.Close()

	hits, err := c.Search("", -1)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearcher_Markdown(t *testing.T) {
	s := NewSearcher()
	defer s.Close()
	path := writeFile(t, "cv.md", resumeMD)

	out, err := s.SearchMarkdown(context.Background(), "MBA", path)
	require.NoError(t, err)
	assert.Contains(t, out, "section: Education")
	assert.NotContains(t, out, "section: Skills")
}

func TestSearcher_CachesIndexPerPath(t *testing.T) {
	s := NewSearcher()
	defer s.Close()
	path := writeFile(t, "jobs.csv", jobsCSV)

	_, err := s.SearchCSV(context.Background(), "Zurich", path)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	out, err := s.SearchCSV(context.Background(), "Zurich", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Software Engineer")
}

func TestSearcher_MissingFile(t *testing.T) {
	s := NewSearcher()
	_, err := s.SearchMarkdown(context.Background(), "x", filepath.Join(t.TempDir(), "nope.md"))

	var tie *core.ToolInvocationError
	require.ErrorAs(t, err, &tie)
	assert.Equal(t, MarkdownToolName, tie.Tool)
}

func TestTools(t *testing.T) {
	s := NewSearcher()
	defer s.Close()
	tools := Tools(s)
	require.Len(t, tools, 2)

	res, err := tools[0].Call(context.Background(), map[string]any{
		"query":    "Geneva",
		"csv_path": writeFile(t, "jobs.csv", jobsCSV),
	})
	require.NoError(t, err)
	assert.Contains(t, res, "Branch Manager")

	_, err = tools[1].Call(context.Background(), map[string]any{"query": "x"})
	assert.Error(t, err, "markdown_path is required")
}
