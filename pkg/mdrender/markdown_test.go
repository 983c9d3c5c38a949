package mdrender_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yaklabco/trackmcp/pkg/mdrender"
)

func TestMarkdown_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "paragraph", input: "Hello **world** and `code` with [docs](http://x) and *style*"},
		{name: "heading", input: "## Install [now](http://i)"},
		{name: "list", input: "- one\n  - two\n    - three\n- four"},
		{name: "table", input: "| a | b |\n| --- | --- |\n| 1 | **2** |"},
		{name: "quote", input: "> quoted\n> again"},
		{name: "code", input: "```go\nfmt.Println(\"hi\")\n```"},
		{name: "rule", input: "---"},
		{name: "image", input: "[![ci](https://ci/badge.svg)](https://ci)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			first := mdrender.Render(tt.input, "")
			second := mdrender.Render(mdrender.Markdown(first), "")
			assert.Equal(t, first, second)
		})
	}
}

func TestMarkdown_Output(t *testing.T) {
	t.Parallel()

	blocks := mdrender.Render("# Title\n\ntext\n\n- a\n  - b", "")

	assert.Equal(t, "# Title\n\ntext\n\n- a\n  - b", mdrender.Markdown(blocks))
}

func TestMarkdown_EmptyLinkStaysDropped(t *testing.T) {
	t.Parallel()

	blocks := mdrender.Render("before [](http://x) after", "")

	assert.Equal(t, "before  after", mdrender.Markdown(blocks))
}
