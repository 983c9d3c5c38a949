package mdrender

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

//nolint:gochecknoglobals // Compiled patterns are immutable.
var (
	tagPattern      = regexp.MustCompile(`<[^>]+>`)
	blankRunPattern = regexp.MustCompile(`\n{3,}`)

	regexBlockPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<div[^>]*>[\s\S]*?</div>`),
		regexp.MustCompile(`(?i)<section[^>]*>[\s\S]*?</section>`),
		regexp.MustCompile(`(?i)<a[^>]*>[\s\S]*?</a>`),
	}
)

// removableTags are dropped together with everything they enclose.
//
//nolint:gochecknoglobals // Read-only lookup table.
var removableTags = map[string]bool{
	"div":     true,
	"section": true,
	"a":       true,
}

func (r *Renderer) preprocess(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	if r.opts.StripHTML == StripRegex {
		text = stripBlocksRegex(text)
	} else {
		text = stripBlocks(text)
	}

	text = tagPattern.ReplaceAllString(text, "")
	text = blankRunPattern.ReplaceAllString(text, "\n\n")

	if !r.opts.DisableReferenceLinks {
		text = resolveReferences(text)
	}
	return text
}

func stripBlocksRegex(text string) string {
	for _, re := range regexBlockPatterns {
		text = re.ReplaceAllString(text, "")
	}
	return text
}

// stripBlocks removes removable elements and their content using a tag
// stack. Content is only discarded once the outermost removable element
// closes; an element still open at end of input is written back unchanged.
// Comments are dropped.
func stripBlocks(text string) string {
	if !strings.Contains(text, "<") {
		return text
	}

	var (
		out      strings.Builder
		held     strings.Builder
		open     []string
		consumed int
	)
	out.Grow(len(text))

	z := html.NewTokenizer(strings.NewReader(text))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		raw := z.Raw()
		consumed += len(raw)

		switch tt {
		case html.CommentToken:
			continue

		case html.StartTagToken:
			name, _ := z.TagName()
			if removableTags[string(name)] {
				open = append(open, string(name))
				held.Write(raw)
				continue
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			if idx := lastIndex(open, string(name)); idx >= 0 {
				open = open[:idx]
				if len(open) == 0 {
					held.Reset()
				} else {
					held.Write(raw)
				}
				continue
			}

		default:
		}

		if len(open) > 0 {
			held.Write(raw)
		} else {
			out.Write(raw)
		}
	}

	out.WriteString(held.String())
	if consumed < len(text) {
		out.WriteString(text[consumed:])
	}
	return out.String()
}

func lastIndex(stack []string, name string) int {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == name {
			return i
		}
	}
	return -1
}
