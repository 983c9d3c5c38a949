// Package reporter writes tool listings and rendered documents in the
// formats the CLI offers.
package reporter

import (
	"bufio"
	"context"
	"fmt"

	"github.com/yaklabco/trackmcp/internal/ui/pretty"
	"github.com/yaklabco/trackmcp/pkg/catalog"
)

// Reporter formats and writes a list of tools.
type Reporter interface {
	// Report writes formatted output for tools and returns how many were written.
	Report(ctx context.Context, tools []catalog.Tool) (int, error)
}

// New creates a Reporter for the specified options.
func New(opts Options) (Reporter, error) {
	if opts.Writer == nil {
		opts.Writer = DefaultOptions().Writer
	}

	format := opts.Format
	if format == "" {
		format = FormatTable
	}

	switch format {
	case FormatJSON:
		return &JSONReporter{opts: opts}, nil
	case FormatTable:
		return newTableReporter(opts), nil
	case FormatText:
		return newTextReporter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// TableReporter writes tools as an aligned table.
type TableReporter struct {
	opts      Options
	formatter *pretty.TableFormatter
}

func newTableReporter(opts Options) *TableReporter {
	width := opts.TermWidth
	if width <= 0 {
		width = pretty.TermWidth(opts.Writer)
	}
	styles := pretty.NewStyles(pretty.IsColorEnabled(opts.Color, opts.Writer))
	return &TableReporter{
		opts: opts,
		formatter: pretty.NewTableFormatter(styles, width, pretty.TableOptions{
			ShowStatus: opts.ShowStatus,
			ShowID:     opts.ShowID,
		}),
	}
}

// Report implements Reporter.
func (r *TableReporter) Report(_ context.Context, tools []catalog.Tool) (int, error) {
	if _, err := fmt.Fprint(r.opts.Writer, r.formatter.FormatTools(tools)); err != nil {
		return 0, fmt.Errorf("write table: %w", err)
	}
	return len(tools), nil
}

// TextReporter writes one line per tool: name, stars, url.
type TextReporter struct {
	opts   Options
	styles *pretty.Styles
}

func newTextReporter(opts Options) *TextReporter {
	return &TextReporter{
		opts:   opts,
		styles: pretty.NewStyles(pretty.IsColorEnabled(opts.Color, opts.Writer)),
	}
}

// Report implements Reporter.
func (r *TextReporter) Report(ctx context.Context, tools []catalog.Tool) (_ int, err error) {
	bw := bufio.NewWriterSize(r.opts.Writer, bufWriterSize)
	defer func() {
		if flushErr := bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	for i := range tools {
		if ctx.Err() != nil {
			return i, fmt.Errorf("report: %w", ctx.Err())
		}
		t := &tools[i]
		line := r.styles.Name.Render(t.RepoName) + " " + r.styles.Stars.Render(fmt.Sprintf("★%d", t.Stars))
		if r.opts.ShowID {
			line = r.styles.Dim.Render(fmt.Sprintf("#%d ", t.ID)) + line
		}
		if r.opts.ShowStatus {
			line += " " + r.styles.StatusStyle(t.Status).Render("["+string(t.Status)+"]")
		}
		line += " " + r.styles.URL.Render(t.GitHubURL)
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return i, fmt.Errorf("write line: %w", err)
		}
	}
	return len(tools), nil
}
