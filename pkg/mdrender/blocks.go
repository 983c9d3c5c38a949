package mdrender

import (
	"regexp"
	"strings"
)

// EmptyCodePlaceholder is the body of a fenced block with no content.
const EmptyCodePlaceholder = "// Code block"

//nolint:gochecknoglobals // Compiled patterns are immutable.
var (
	headingPattern   = regexp.MustCompile(`^(#{1,6}) (.*)$`)
	rulePattern      = regexp.MustCompile(`^(-{3,}|\*{3,}|_{3,})$`)
	separatorPattern = regexp.MustCompile(`^\|[\s\-|:]+\|$`)
	indentedBullet   = regexp.MustCompile(`^\s+[-*]\s`)
	listItemPattern  = regexp.MustCompile(`^(\s*)[-*]\s(.+)$`)
)

// scanner walks the preprocessed lines once. Every case either advances i
// or reports that it did not match, so the loop always makes progress.
type scanner struct {
	lines []string
	i     int
	res   resolver
	opts  Options
	out   []Block
}

func (s *scanner) scan() []Block {
	for s.i < len(s.lines) {
		line := s.lines[s.i]
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			s.codeBlock(trimmed)
			continue
		}
		if s.heading(line) {
			continue
		}
		if strings.HasPrefix(trimmed, ">") {
			s.blockQuote()
			continue
		}
		if s.imageLine(line) {
			continue
		}
		if rulePattern.MatchString(trimmed) {
			s.emit(HorizontalRule{})
			s.i++
			continue
		}
		if strings.Contains(line, "|") && s.table() {
			continue
		}
		if isListStart(line) && s.list() {
			continue
		}

		if trimmed != "" {
			s.emit(Paragraph{Content: s.inline(trimmed)})
		}
		s.i++
	}
	return s.out
}

func (s *scanner) emit(b Block) {
	s.out = append(s.out, b)
}

func (s *scanner) inline(text string) []Inline {
	return parseInline(text, s.res)
}

func (s *scanner) codeBlock(opening string) {
	lang := strings.TrimSpace(strings.TrimLeft(opening, "`"))
	s.i++

	start := s.i
	for s.i < len(s.lines) && !isFence(s.lines[s.i]) {
		s.i++
	}

	code := trimCode(strings.Join(s.lines[start:s.i], "\n"))
	if code == "" {
		code = EmptyCodePlaceholder
	}
	s.emit(CodeBlock{Language: lang, Code: code})

	if s.i < len(s.lines) {
		s.i++
	}
}

// trimCode drops leading blank lines and trailing whitespace, keeping the
// indentation of the first code line.
func trimCode(code string) string {
	code = strings.TrimRight(code, " \t\n")
	for {
		nl := strings.IndexByte(code, '\n')
		if nl < 0 {
			if strings.TrimSpace(code) == "" {
				return ""
			}
			return code
		}
		if strings.TrimSpace(code[:nl]) != "" {
			return code
		}
		code = code[nl+1:]
	}
}

func (s *scanner) heading(line string) bool {
	m := headingPattern.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	s.emit(Heading{Level: len(m[1]), Content: s.inline(strings.TrimSpace(m[2]))})
	s.i++
	return true
}

func (s *scanner) blockQuote() {
	var quote BlockQuote
	for s.i < len(s.lines) {
		trimmed := strings.TrimSpace(s.lines[s.i])
		if !strings.HasPrefix(trimmed, ">") {
			break
		}
		quote.Lines = append(quote.Lines, s.inline(strings.TrimSpace(trimmed[1:])))
		s.i++
	}
	s.emit(quote)
}

// imageLine emits one Image per image on the line and discards the rest of
// the line's text.
func (s *scanner) imageLine(line string) bool {
	if !strings.Contains(line, "![") {
		return false
	}

	spans := claim(nil, imageLinkPattern, line, func(m []string) Inline {
		return Link{Text: m[1], URL: firstField(m[3]), Image: &InlineImage{Alt: m[1], Src: s.res.resolve(firstField(m[2]))}}
	})
	spans = claim(spans, imagePattern, line, func(m []string) Inline {
		return InlineImage{Alt: m[1], Src: s.res.resolve(firstField(m[2]))}
	})
	if len(spans) == 0 {
		return false
	}

	sortSpans(spans)
	for _, sp := range spans {
		switch n := sp.node.(type) {
		case Link:
			s.emit(Image{Alt: n.Image.Alt, Src: n.Image.Src, Link: n.URL})
		case InlineImage:
			s.emit(Image{Alt: n.Alt, Src: n.Src})
		}
	}
	s.i++
	return true
}

// table commits only when the window yields a header and at least one
// body row; otherwise the cursor is left where it was.
func (s *scanner) table() bool {
	var rows [][]Cell
	j := s.i
	for j < len(s.lines) && strings.Contains(s.lines[j], "|") {
		if cells := s.cells(s.lines[j]); len(cells) > 0 {
			rows = append(rows, cells)
		}
		j++
		if j < len(s.lines) && separatorPattern.MatchString(s.lines[j]) {
			j++
		}
	}

	if len(rows) < 2 {
		return false
	}
	s.emit(Table{Header: rows[0], Rows: rows[1:]})
	s.i = j
	return true
}

func (s *scanner) cells(row string) []Cell {
	var cells []Cell
	for _, part := range strings.Split(row, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		cells = append(cells, Cell(s.inline(part)))
	}
	return cells
}

func isListStart(line string) bool {
	return strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") || indentedBullet.MatchString(line)
}

// list collects the run of bullet lines starting at the cursor. It reports
// false when the opening line carries no item text.
func (s *scanner) list() bool {
	var items []ListItem
	j := s.i
	for j < len(s.lines) {
		m := listItemPattern.FindStringSubmatch(s.lines[j])
		if m == nil {
			break
		}
		items = append(items, ListItem{
			Content: s.inline(strings.TrimSpace(m[2])),
			Level:   len(m[1]) / 2,
		})
		j++
	}
	if len(items) == 0 {
		return false
	}

	s.emit(nest(items, s.opts.Nesting))
	s.i = j
	return true
}
