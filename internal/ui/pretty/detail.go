package pretty

import (
	"fmt"
	"strings"
	"time"

	"github.com/yaklabco/trackmcp/pkg/catalog"
)

const dateLayout = "2006-01-02"

// FormatTool renders the full record of one tool as aligned key/value lines.
func (s *Styles) FormatTool(t *catalog.Tool) string {
	var b strings.Builder
	b.WriteString(s.Title.Render(t.RepoName))
	b.WriteByte('\n')
	if t.Description != "" {
		b.WriteString(oneLine(t.Description))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	topics := make([]string, len(t.Topics))
	for i, topic := range t.Topics {
		topics[i] = s.Topic.Render(topic)
	}

	rows := [][2]string{
		{"id", fmt.Sprint(t.ID)},
		{"url", s.URL.Render(t.GitHubURL)},
		{"stars", s.Stars.Render(fmt.Sprint(t.Stars))},
		{"category", s.Category.Render(t.Category)},
		{"status", s.StatusStyle(t.Status).Render(string(t.Status))},
		{"language", t.Language},
		{"topics", strings.Join(topics, " ")},
		{"branch", t.DefaultBranch},
		{"updated", formatDate(t.LastUpdated)},
		{"added", formatDate(t.CreatedAt)},
	}
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		b.WriteString(s.KeyValue(row[0], row[1]))
	}
	return b.String()
}

// KeyValue renders one aligned "key  value" line.
func (s *Styles) KeyValue(key, value string) string {
	return fmt.Sprintf("  %s %s\n", s.Key.Render(fmt.Sprintf("%-10s", key)), s.Value.Render(value))
}

// FormatHeading renders a section heading with an optional count.
func (s *Styles) FormatHeading(title string, count int) string {
	if count < 0 {
		return s.Bold.Render(title) + "\n"
	}
	return s.Bold.Render(title) + s.Dim.Render(fmt.Sprintf(" (%d)", count)) + "\n"
}

// FormatCategories renders category counts, one per line.
func (s *Styles) FormatCategories(cats []catalog.CategoryCount) string {
	width := 0
	for _, c := range cats {
		width = max(width, len(c.Name))
	}

	var b strings.Builder
	for _, c := range cats {
		fmt.Fprintf(&b, "  %s  %s  %s\n",
			s.Category.Render(fmt.Sprintf("%-*s", width, c.Name)),
			s.Stars.Render(fmt.Sprintf("%5d", c.Count)),
			s.Dim.Render("/category/"+c.Slug))
	}
	return b.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}
