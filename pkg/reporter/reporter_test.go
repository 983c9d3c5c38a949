package reporter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/trackmcp/pkg/catalog"
	"github.com/yaklabco/trackmcp/pkg/mdrender"
	"github.com/yaklabco/trackmcp/pkg/reporter"
)

func sampleTools() []catalog.Tool {
	return []catalog.Tool{
		{
			ID:          1,
			RepoName:    "github-mcp-server",
			Description: "GitHub's official MCP server",
			Stars:       15200,
			GitHubURL:   "https://github.com/github/github-mcp-server",
			Category:    catalog.CategoryDeveloperKits,
			Status:      catalog.StatusApproved,
		},
		{
			ID:        2,
			RepoName:  "sqlite-mcp",
			Stars:     42,
			GitHubURL: "https://github.com/example/sqlite-mcp",
			Status:    catalog.StatusPending,
		},
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    reporter.Format
		wantErr bool
	}{
		{"", reporter.FormatTable, false},
		{"table", reporter.FormatTable, false},
		{"text", reporter.FormatText, false},
		{"json", reporter.FormatJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := reporter.ParseFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.False(t, got.IsValid())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.IsValid())
		})
	}
}

func TestParseDocFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    reporter.DocFormat
		wantErr bool
	}{
		{"", reporter.DocHTML, false},
		{"html", reporter.DocHTML, false},
		{"md", reporter.DocMarkdown, false},
		{"markdown", reporter.DocMarkdown, false},
		{"json", reporter.DocJSON, false},
		{"tree", reporter.DocTree, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := reporter.ParseDocFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	_, err := reporter.New(reporter.Options{Writer: &bytes.Buffer{}, Format: "xml"})
	require.Error(t, err)
}

func TestJSONReporter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rep, err := reporter.New(reporter.Options{Writer: &buf, Format: reporter.FormatJSON})
	require.NoError(t, err)

	n, err := rep.Report(context.Background(), sampleTools())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var out reporter.JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "1", out.Version)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, "github-mcp-server", out.Tools[0].RepoName)
}

func TestJSONReporter_EmptyIsArray(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rep, err := reporter.New(reporter.Options{Writer: &buf, Format: reporter.FormatJSON, Compact: true})
	require.NoError(t, err)

	_, err = rep.Report(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"tools":[]`)
}

func TestTextReporter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rep, err := reporter.New(reporter.Options{
		Writer:     &buf,
		Format:     reporter.FormatText,
		Color:      "never",
		ShowStatus: true,
		ShowID:     true,
	})
	require.NoError(t, err)

	n, err := rep.Report(context.Background(), sampleTools())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "#1 github-mcp-server ★15200 [approved] https://github.com/github/github-mcp-server", lines[0])
	assert.Contains(t, lines[1], "[pending]")
}

func TestTextReporter_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := reporter.New(reporter.Options{Writer: &bytes.Buffer{}, Format: reporter.FormatText, Color: "never"})
	require.NoError(t, err)

	n, err := rep.Report(ctx, sampleTools())
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
}

func TestTableReporter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rep, err := reporter.New(reporter.Options{Writer: &buf, Color: "never", TermWidth: 120})
	require.NoError(t, err)

	_, err = rep.Report(context.Background(), sampleTools())
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "github-mcp-server")
	assert.Contains(t, out, "15k")
}

const sampleDoc = `# Title

## Install

Run **this**:

` + "```go\nfunc main() {}\n```" + `

- one
  - nested
`

func TestWriteDocument_Formats(t *testing.T) {
	t.Parallel()

	blocks := mdrender.Render(sampleDoc, "")

	t.Run("html", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, reporter.WriteDocument(&buf, blocks, reporter.DocHTML, nil))
		assert.Contains(t, buf.String(), `<h2 id="install"`)
	})

	t.Run("markdown", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, reporter.WriteDocument(&buf, blocks, reporter.DocMarkdown, nil))
		assert.Contains(t, buf.String(), "## Install")
		assert.Contains(t, buf.String(), "**this**")
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, reporter.WriteDocument(&buf, blocks, reporter.DocJSON, nil))

		var doc reporter.Document
		require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
		require.NotEmpty(t, doc.Blocks)
		assert.Equal(t, "heading", doc.Blocks[0].Type)
		assert.Equal(t, 1, doc.Blocks[0].Level)

		var types []string
		for _, b := range doc.Blocks {
			types = append(types, b.Type)
		}
		assert.Contains(t, types, "code_block")
		assert.Contains(t, types, "list")
	})

	t.Run("tree", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, reporter.WriteDocument(&buf, blocks, reporter.DocTree, nil))
		out := buf.String()
		assert.Contains(t, out, "heading h2 #install")
		assert.Contains(t, out, "code_block go (1 lines)")
		assert.Contains(t, out, "\n      item\n")
	})

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()
		require.Error(t, reporter.WriteDocument(&bytes.Buffer{}, blocks, "pdf", nil))
	})
}
