package mdrender

import (
	"regexp"
	"sort"
	"strings"
)

//nolint:gochecknoglobals // Compiled patterns are immutable.
var (
	imageLinkPattern = regexp.MustCompile(`\[!\[([^\]]*)\]\(([^)]+)\)\]\(([^)]+)\)`)
	imagePattern     = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	linkPattern      = regexp.MustCompile(`\[([^\]]*)\]\(([^)]+)\)`)
	emphasisPattern  = regexp.MustCompile("`([^`]+)`|\\*\\*([^*]+?)\\*\\*|\\*([^*]+?)\\*")
)

// buttonWords mark a link as a call to action.
//
//nolint:gochecknoglobals // Read-only lookup table.
var buttonWords = []string{"click", "install", "button", "try"}

// span is a matched region of a line. A nil node consumes the region
// without emitting anything.
type span struct {
	start, end int
	node       Inline
}

// ParseInline parses the inline content of a single line with no base
// repository.
func ParseInline(text string) []Inline {
	return parseInline(text, resolver{})
}

// parseInline finds image links, then images, then links, and treats the
// text between them as emphasis runs. Later passes skip regions already
// claimed by earlier ones.
func parseInline(text string, res resolver) []Inline {
	if text == "" {
		return nil
	}

	var spans []span
	spans = claim(spans, imageLinkPattern, text, func(m []string) Inline {
		return Link{
			Text:  m[1],
			URL:   firstField(m[3]),
			Image: &InlineImage{Alt: m[1], Src: res.resolve(firstField(m[2]))},
		}
	})
	spans = claim(spans, imagePattern, text, func(m []string) Inline {
		return InlineImage{Alt: m[1], Src: res.resolve(firstField(m[2]))}
	})
	spans = claim(spans, linkPattern, text, func(m []string) Inline {
		label := strings.TrimSpace(m[1])
		if label == "" {
			return nil
		}
		return Link{Text: label, URL: firstField(m[2]), Button: IsButtonText(label)}
	})

	sortSpans(spans)

	var out []Inline
	pos := 0
	for _, s := range spans {
		if s.start > pos {
			out = append(out, emphasis(text[pos:s.start])...)
		}
		if s.node != nil {
			out = append(out, s.node)
		}
		pos = s.end
	}
	if pos < len(text) {
		out = append(out, emphasis(text[pos:])...)
	}
	return out
}

func claim(spans []span, re *regexp.Regexp, text string, build func(m []string) Inline) []span {
	for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
		if overlaps(spans, idx[0], idx[1]) {
			continue
		}
		groups := make([]string, len(idx)/2)
		for g := range groups {
			if idx[2*g] >= 0 {
				groups[g] = text[idx[2*g]:idx[2*g+1]]
			}
		}
		spans = append(spans, span{start: idx[0], end: idx[1], node: build(groups)})
	}
	return spans
}

func sortSpans(spans []span) {
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
}

func overlaps(spans []span, start, end int) bool {
	for _, s := range spans {
		if start < s.end && s.start < end {
			return true
		}
	}
	return false
}

// emphasis splits a run into code, bold, italic and plain text. Bold is
// tried before italic at each offset.
func emphasis(text string) []Inline {
	var out []Inline
	pos := 0
	for _, m := range emphasisPattern.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > pos {
			out = append(out, Text{Value: text[pos:m[0]]})
		}
		switch {
		case m[2] >= 0:
			out = append(out, Code{Value: text[m[2]:m[3]]})
		case m[4] >= 0:
			out = append(out, Bold{Children: []Inline{Text{Value: text[m[4]:m[5]]}}})
		default:
			out = append(out, Italic{Children: []Inline{Text{Value: text[m[6]:m[7]]}}})
		}
		pos = m[1]
	}
	if pos < len(text) {
		out = append(out, Text{Value: text[pos:]})
	}
	return out
}

// IsButtonText reports whether link text reads as a call to action.
func IsButtonText(text string) bool {
	lower := strings.ToLower(text)
	for _, word := range buttonWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// firstField drops an optional title from a link destination.
func firstField(dest string) string {
	fields := strings.Fields(dest)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
