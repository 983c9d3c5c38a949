package mdrender

import "github.com/emirpasic/gods/stacks/arraystack"

// MinTOCEntries is the number of headings needed before a table of contents
// is worth showing.
const MinTOCEntries = 3

// TOC levels.
const (
	tocMinLevel = 2
	tocMaxLevel = 4
)

// TOCEntry is one heading in a table of contents.
type TOCEntry struct {
	Level    int        `json:"level"`
	Text     string     `json:"text"`
	ID       string     `json:"id"`
	Children []TOCEntry `json:"children,omitempty"`
}

type tocNode struct {
	entry    TOCEntry
	children []*tocNode
}

// TableOfContents collects level 2 to 4 headings into a tree. A heading
// nests under the closest preceding heading of a lower level.
func TableOfContents(blocks []Block) []TOCEntry {
	root := &tocNode{entry: TOCEntry{Level: tocMinLevel - 1}}
	stack := arraystack.New()
	stack.Push(root)

	for _, b := range blocks {
		h, ok := b.(Heading)
		if !ok || h.Level < tocMinLevel || h.Level > tocMaxLevel {
			continue
		}
		node := &tocNode{entry: TOCEntry{Level: h.Level, Text: PlainText(h.Content), ID: h.ID}}
		parent := peekTOC(stack)
		for stack.Size() > 1 && parent.entry.Level >= h.Level {
			stack.Pop()
			parent = peekTOC(stack)
		}
		parent.children = append(parent.children, node)
		stack.Push(node)
	}
	return flatten(root.children)
}

func peekTOC(stack *arraystack.Stack) *tocNode {
	v, _ := stack.Peek()
	n, _ := v.(*tocNode)
	return n
}

func flatten(nodes []*tocNode) []TOCEntry {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]TOCEntry, 0, len(nodes))
	for _, n := range nodes {
		e := n.entry
		e.Children = flatten(n.children)
		out = append(out, e)
	}
	return out
}

// CountTOC returns the number of entries in a tree.
func CountTOC(entries []TOCEntry) int {
	total := 0
	for _, e := range entries {
		total += 1 + CountTOC(e.Children)
	}
	return total
}

// ShowTOC reports whether a table of contents has enough entries to show.
func ShowTOC(entries []TOCEntry) bool {
	return CountTOC(entries) >= MinTOCEntries
}
