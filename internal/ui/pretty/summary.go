package pretty

import (
	"fmt"
	"strings"
	"time"

	"github.com/yaklabco/trackmcp/pkg/catalog"
	"github.com/yaklabco/trackmcp/pkg/refresh"
)

// FormatRefreshSummary renders the outcome of a refresh run: one line per
// changed or failed tool, then a totals line.
func (s *Styles) FormatRefreshSummary(sum *refresh.Summary, verbose bool) string {
	if sum == nil {
		return ""
	}

	var b strings.Builder
	for _, o := range sum.Outcomes {
		switch {
		case o.Err != nil:
			fmt.Fprintf(&b, "  %s %s %s\n", s.Error.Render("✗"), s.Name.Render(o.RepoName), s.Dim.Render(o.Err.Error()))
		case o.Change.Meaningful():
			fmt.Fprintf(&b, "  %s %s %s %s\n", s.Success.Render("↑"), s.Name.Render(o.RepoName),
				s.Warning.Render(o.Change.Significance.String()), strings.Join(o.Change.Fields, ", "))
		case verbose:
			detail := "unchanged"
			if len(o.Change.Fields) > 0 {
				detail = strings.Join(o.Change.Fields, ", ")
			}
			fmt.Fprintf(&b, "  %s %s %s\n", s.Dim.Render("·"), o.RepoName, s.Dim.Render(detail))
		}
	}

	b.WriteString(s.FormatRefreshOneLine(sum))
	return b.String()
}

// FormatRefreshOneLine formats refresh totals as a single line.
// Example: "12 checked, 3 updated, 9 refreshed, 0 failed (1.2s)".
func (s *Styles) FormatRefreshOneLine(sum *refresh.Summary) string {
	if sum.Checked == 0 {
		return s.Success.Render("Nothing to refresh") + "\n"
	}

	parts := []string{fmt.Sprintf("%d checked", sum.Checked)}
	parts = append(parts, s.Success.Render(fmt.Sprintf("%d updated", sum.Updated)))
	parts = append(parts, fmt.Sprintf("%d refreshed", sum.Freshened))
	failed := fmt.Sprintf("%d failed", sum.Failed)
	if sum.Failed > 0 {
		failed = s.Error.Render(failed)
	}
	parts = append(parts, failed)

	return strings.Join(parts, ", ") + s.Dim.Render(" ("+sum.Duration.Round(time.Millisecond).String()+")") + "\n"
}

// FormatStats renders catalog totals and freshness.
func (s *Styles) FormatStats(stats *catalog.Stats, fresh *refresh.Freshness) string {
	var b strings.Builder
	b.WriteString(s.KeyValue("tools", fmt.Sprint(stats.Tools)))
	b.WriteString(s.KeyValue("stars", fmt.Sprint(stats.Stars)))
	b.WriteString(s.KeyValue("categories", fmt.Sprint(stats.Categories)))
	if fresh != nil {
		b.WriteString(s.KeyValue("recent", fmt.Sprintf("%d updated in the last 30 days", fresh.Recent)))
		stale := fmt.Sprintf("%d (%d%%)", fresh.Stale, fresh.StalePercent)
		if fresh.StalePercent > 50 {
			stale = s.Warning.Render(stale)
		}
		b.WriteString(s.KeyValue("stale", stale))
	}
	return b.String()
}
