package mdrender

import (
	"regexp"
	"strconv"
	"strings"
)

//nolint:gochecknoglobals // Compiled patterns are immutable.
var (
	slugStripPattern = regexp.MustCompile(`[^\w\s-]`)
	slugSpacePattern = regexp.MustCompile(`\s+`)
	slugDashPattern  = regexp.MustCompile(`-+`)
)

// PlainText flattens inline content to its visible text.
func PlainText(content []Inline) string {
	var sb strings.Builder
	writePlain(&sb, content)
	return sb.String()
}

func writePlain(sb *strings.Builder, content []Inline) {
	for _, n := range content {
		switch n := n.(type) {
		case Text:
			sb.WriteString(n.Value)
		case Code:
			sb.WriteString(n.Value)
		case Bold:
			writePlain(sb, n.Children)
		case Italic:
			writePlain(sb, n.Children)
		case Link:
			sb.WriteString(n.Text)
		case InlineImage:
			sb.WriteString(n.Alt)
		}
	}
}

// Slugify converts heading text to an anchor id.
func Slugify(text string) string {
	s := strings.TrimSpace(strings.ToLower(text))
	s = slugStripPattern.ReplaceAllString(s, "")
	s = slugSpacePattern.ReplaceAllString(s, "-")
	s = slugDashPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// assignHeadingIDs gives every heading a unique slug. Repeats get a
// numeric suffix.
func assignHeadingIDs(blocks []Block) {
	used := make(map[string]bool)
	suffix := make(map[string]int)
	for i, b := range blocks {
		h, ok := b.(Heading)
		if !ok {
			continue
		}
		base := Slugify(PlainText(h.Content))
		if base == "" {
			base = "section"
		}
		id := base
		for used[id] {
			suffix[base]++
			id = base + "-" + strconv.Itoa(suffix[base])
		}
		used[id] = true
		h.ID = id
		blocks[i] = h
	}
}
