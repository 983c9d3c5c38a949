package pretty

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/padding"
	"github.com/muesli/reflow/truncate"

	"github.com/yaklabco/trackmcp/pkg/catalog"
)

// Table formatting constants.
const (
	tablePadding        = 2
	ellipsis            = "…"
	minNameWidth        = 16
	maxNameWidth        = 40
	starsWidth          = 7
	minCategoryWidth    = 10
	maxCategoryWidth    = 24
	statusWidth         = 8
	minDescriptionWidth = 20
	heavySeparator      = "="
)

// TableOptions selects optional table columns.
type TableOptions struct {
	// ShowStatus adds the moderation status column.
	ShowStatus bool

	// ShowID adds the numeric id column.
	ShowID bool
}

// TableFormatter formats tools as a width-constrained table.
type TableFormatter struct {
	styles    *Styles
	termWidth int
	opts      TableOptions
}

// NewTableFormatter creates a new table formatter. A non-positive termWidth
// means DefaultTermWidth.
func NewTableFormatter(styles *Styles, termWidth int, opts TableOptions) *TableFormatter {
	if termWidth <= 0 {
		termWidth = DefaultTermWidth
	}
	return &TableFormatter{styles: styles, termWidth: termWidth, opts: opts}
}

type column struct {
	title string
	width int
	right bool
}

// FormatTools renders tools as a table. An empty list renders nothing.
func (t *TableFormatter) FormatTools(tools []catalog.Tool) string {
	if len(tools) == 0 {
		return ""
	}

	cols := t.columns(tools)

	var b strings.Builder
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.title
	}
	b.WriteString(t.styles.TableHeader.Render(t.line(cols, header)))
	b.WriteByte('\n')
	b.WriteString(t.separator(cols))
	b.WriteByte('\n')

	for _, tool := range tools {
		b.WriteString(t.row(cols, tool))
		b.WriteByte('\n')
	}
	return b.String()
}

func (t *TableFormatter) columns(tools []catalog.Tool) []column {
	nameWidth, categoryWidth, idWidth := minNameWidth, minCategoryWidth, 2
	for _, tool := range tools {
		nameWidth = max(nameWidth, len(tool.RepoName))
		categoryWidth = max(categoryWidth, len(tool.Category))
		idWidth = max(idWidth, len(strconv.FormatInt(tool.ID, 10)))
	}
	nameWidth = min(nameWidth, maxNameWidth)
	categoryWidth = min(categoryWidth, maxCategoryWidth)

	var cols []column
	if t.opts.ShowID {
		cols = append(cols, column{title: "ID", width: idWidth, right: true})
	}
	cols = append(cols,
		column{title: "NAME", width: nameWidth},
		column{title: "STARS", width: starsWidth, right: true},
		column{title: "CATEGORY", width: categoryWidth},
	)
	if t.opts.ShowStatus {
		cols = append(cols, column{title: "STATUS", width: statusWidth})
	}

	// The leading space plus every column and its gap must fit the terminal;
	// category gives way first, then name, before the description shrinks.
	used := 1
	for _, c := range cols {
		used += c.width + tablePadding
	}
	deficit := minDescriptionWidth - (t.termWidth - used)
	for _, shrink := range []struct {
		title string
		floor int
	}{{"CATEGORY", minCategoryWidth}, {"NAME", minNameWidth}} {
		for i := range cols {
			if deficit <= 0 || cols[i].title != shrink.title {
				continue
			}
			cut := min(deficit, max(cols[i].width-shrink.floor, 0))
			cols[i].width -= cut
			used -= cut
			deficit -= cut
		}
	}
	desc := max(t.termWidth-used, 1)
	return append(cols, column{title: "DESCRIPTION", width: desc})
}

func (t *TableFormatter) row(cols []column, tool catalog.Tool) string {
	cells := make([]string, 0, len(cols))
	if t.opts.ShowID {
		cells = append(cells, strconv.FormatInt(tool.ID, 10))
	}
	cells = append(cells,
		t.styles.Name.Render(tool.RepoName),
		t.styles.Stars.Render(FormatStars(tool.Stars)),
		t.styles.Category.Render(tool.Category),
	)
	if t.opts.ShowStatus {
		cells = append(cells, t.styles.StatusStyle(tool.Status).Render(string(tool.Status)))
	}
	cells = append(cells, oneLine(tool.Description))
	return t.line(cols, cells)
}

func (t *TableFormatter) line(cols []column, cells []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fit(cells[i], c.width, c.right)
	}
	return " " + strings.TrimRight(strings.Join(parts, strings.Repeat(" ", tablePadding)), " ")
}

func (t *TableFormatter) separator(cols []column) string {
	total := 1
	for _, c := range cols {
		total += c.width
	}
	total += tablePadding * (len(cols) - 1)
	return t.styles.TableSeparator.Render(strings.Repeat(heavySeparator, min(total, t.termWidth)))
}

// fit truncates s to width printable cells and pads it to exactly width.
// ANSI sequences do not count toward the width.
func fit(s string, width int, right bool) string {
	if lipgloss.Width(s) > width {
		s = truncate.StringWithTail(s, uint(width), ellipsis) //nolint:gosec // Widths are small and positive.
	}
	if right {
		gap := width - lipgloss.Width(s)
		if gap > 0 {
			return strings.Repeat(" ", gap) + s
		}
		return s
	}
	return padding.String(s, uint(width)) //nolint:gosec // Widths are small and positive.
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FormatStars abbreviates large star counts: 950, 1.2k, 15k.
func FormatStars(n int) string {
	switch {
	case n < 1000:
		return strconv.Itoa(n)
	case n < 10000:
		s := strconv.FormatFloat(float64(n)/1000, 'f', 1, 64)
		return strings.TrimSuffix(s, ".0") + "k"
	default:
		return strconv.Itoa(n/1000) + "k"
	}
}
