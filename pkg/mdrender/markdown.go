package mdrender

import (
	"strings"
)

// Markdown serializes blocks back to Markdown that Render reads as the same
// blocks. Constructs the renderer dropped on the way in stay dropped.
func Markdown(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if s := blockMarkdown(b); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

func blockMarkdown(b Block) string {
	switch b := b.(type) {
	case Heading:
		return strings.Repeat("#", b.Level) + " " + InlineMarkdown(b.Content)
	case Paragraph:
		return InlineMarkdown(b.Content)
	case List:
		var sb strings.Builder
		writeList(&sb, b, 0)
		return strings.TrimRight(sb.String(), "\n")
	case Table:
		return tableMarkdown(b)
	case BlockQuote:
		lines := make([]string, 0, len(b.Lines))
		for _, l := range b.Lines {
			lines = append(lines, "> "+InlineMarkdown(l))
		}
		return strings.Join(lines, "\n")
	case CodeBlock:
		return "```" + b.Language + "\n" + b.Code + "\n```"
	case Image:
		img := "![" + b.Alt + "](" + b.Src + ")"
		if b.Link != "" {
			return "[" + img + "](" + b.Link + ")"
		}
		return img
	case HorizontalRule:
		return "---"
	default:
		return ""
	}
}

func writeList(sb *strings.Builder, l List, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, item := range l.Items {
		sb.WriteString(indent)
		sb.WriteString("- ")
		sb.WriteString(InlineMarkdown(item.Content))
		sb.WriteByte('\n')
		if item.Children != nil {
			writeList(sb, *item.Children, depth+1)
		}
	}
}

func tableMarkdown(t Table) string {
	var sb strings.Builder
	writeRow(&sb, t.Header)
	sb.WriteString("|")
	for range t.Header {
		sb.WriteString(" --- |")
	}
	sb.WriteByte('\n')
	for _, row := range t.Rows {
		writeRow(&sb, row)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func writeRow(sb *strings.Builder, row []Cell) {
	sb.WriteString("|")
	for _, c := range row {
		sb.WriteString(" ")
		sb.WriteString(InlineMarkdown(c))
		sb.WriteString(" |")
	}
	sb.WriteByte('\n')
}

// InlineMarkdown serializes inline content.
func InlineMarkdown(content []Inline) string {
	var sb strings.Builder
	for _, n := range content {
		switch n := n.(type) {
		case Text:
			sb.WriteString(n.Value)
		case Code:
			sb.WriteString("`" + n.Value + "`")
		case Bold:
			sb.WriteString("**" + InlineMarkdown(n.Children) + "**")
		case Italic:
			sb.WriteString("*" + InlineMarkdown(n.Children) + "*")
		case Link:
			if n.Image != nil {
				sb.WriteString("[![" + n.Image.Alt + "](" + n.Image.Src + ")](" + n.URL + ")")
				continue
			}
			sb.WriteString("[" + n.Text + "](" + n.URL + ")")
		case InlineImage:
			sb.WriteString("![" + n.Alt + "](" + n.Src + ")")
		}
	}
	return sb.String()
}
