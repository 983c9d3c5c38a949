package reporter

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/yaklabco/trackmcp/pkg/mdhtml"
	"github.com/yaklabco/trackmcp/pkg/mdrender"
)

// Node is the JSON form of a rendered block or inline. Type names the
// variant; only the fields that variant uses are set.
type Node struct {
	Type     string     `json:"type"`
	Level    int        `json:"level,omitempty"`
	ID       string     `json:"id,omitempty"`
	Text     string     `json:"text,omitempty"`
	URL      string     `json:"url,omitempty"`
	Button   bool       `json:"button,omitempty"`
	Language string     `json:"language,omitempty"`
	Code     string     `json:"code,omitempty"`
	Alt      string     `json:"alt,omitempty"`
	Src      string     `json:"src,omitempty"`
	Link     string     `json:"link,omitempty"`
	Content  []Node     `json:"content,omitempty"`
	Items    []Node     `json:"items,omitempty"`
	Children []Node     `json:"children,omitempty"`
	Header   [][]Node   `json:"header,omitempty"`
	Rows     [][][]Node `json:"rows,omitempty"`
	Lines    [][]Node   `json:"lines,omitempty"`
}

// Document is the JSON form of a whole rendered document.
type Document struct {
	Blocks []Node              `json:"blocks"`
	TOC    []mdrender.TOCEntry `json:"toc,omitempty"`
}

// WriteDocument writes blocks in the given format. html is used only for
// DocHTML and may be nil otherwise.
func WriteDocument(w io.Writer, blocks []mdrender.Block, format DocFormat, html *mdhtml.Renderer) (err error) {
	bw := bufio.NewWriterSize(w, bufWriterSize)
	defer func() {
		if flushErr := bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	switch format {
	case DocHTML, "":
		if html == nil {
			html = mdhtml.New(mdhtml.Options{})
		}
		if err := html.Render(bw, blocks); err != nil {
			return fmt.Errorf("render html: %w", err)
		}
		return nil
	case DocMarkdown:
		_, err := fmt.Fprintln(bw, mdrender.Markdown(blocks))
		return err
	case DocJSON:
		return encodeJSON(bw, Document{Blocks: BlockNodes(blocks), TOC: mdrender.TableOfContents(blocks)}, false)
	case DocTree:
		_, err := io.WriteString(bw, Tree(blocks))
		return err
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// BlockNodes converts blocks to their JSON form.
func BlockNodes(blocks []mdrender.Block) []Node {
	nodes := make([]Node, 0, len(blocks))
	for _, b := range blocks {
		nodes = append(nodes, blockNode(b))
	}
	return nodes
}

func blockNode(b mdrender.Block) Node {
	switch b := b.(type) {
	case mdrender.Heading:
		return Node{Type: "heading", Level: b.Level, ID: b.ID, Content: inlineNodes(b.Content)}
	case mdrender.Paragraph:
		return Node{Type: "paragraph", Content: inlineNodes(b.Content)}
	case mdrender.List:
		return listNode(b)
	case mdrender.Table:
		n := Node{Type: "table"}
		for _, c := range b.Header {
			n.Header = append(n.Header, inlineNodes(c))
		}
		for _, row := range b.Rows {
			cells := make([][]Node, 0, len(row))
			for _, c := range row {
				cells = append(cells, inlineNodes(c))
			}
			n.Rows = append(n.Rows, cells)
		}
		return n
	case mdrender.BlockQuote:
		n := Node{Type: "blockquote"}
		for _, l := range b.Lines {
			n.Lines = append(n.Lines, inlineNodes(l))
		}
		return n
	case mdrender.CodeBlock:
		return Node{Type: "code_block", Language: b.Language, Code: b.Code}
	case mdrender.Image:
		return Node{Type: "image", Alt: b.Alt, Src: b.Src, Link: b.Link}
	case mdrender.HorizontalRule:
		return Node{Type: "hr"}
	default:
		return Node{Type: "unknown"}
	}
}

func listNode(l mdrender.List) Node {
	n := Node{Type: "list"}
	for _, item := range l.Items {
		in := Node{Type: "item", Level: item.Level, Content: inlineNodes(item.Content)}
		if item.Children != nil {
			in.Children = []Node{listNode(*item.Children)}
		}
		n.Items = append(n.Items, in)
	}
	return n
}

func inlineNodes(content []mdrender.Inline) []Node {
	nodes := make([]Node, 0, len(content))
	for _, in := range content {
		switch in := in.(type) {
		case mdrender.Text:
			nodes = append(nodes, Node{Type: "text", Text: in.Value})
		case mdrender.Bold:
			nodes = append(nodes, Node{Type: "bold", Content: inlineNodes(in.Children)})
		case mdrender.Italic:
			nodes = append(nodes, Node{Type: "italic", Content: inlineNodes(in.Children)})
		case mdrender.Code:
			nodes = append(nodes, Node{Type: "code", Text: in.Value})
		case mdrender.Link:
			n := Node{Type: "link", Text: in.Text, URL: in.URL, Button: in.Button}
			if in.Image != nil {
				n.Alt, n.Src = in.Image.Alt, in.Image.Src
			}
			nodes = append(nodes, n)
		case mdrender.InlineImage:
			nodes = append(nodes, Node{Type: "image", Alt: in.Alt, Src: in.Src})
		}
	}
	return nodes
}

// Tree renders blocks as an indented outline, one node per line.
func Tree(blocks []mdrender.Block) string {
	var b strings.Builder
	for _, n := range BlockNodes(blocks) {
		writeTree(&b, n, 0)
	}
	return b.String()
}

func writeTree(b *strings.Builder, n Node, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.Type)
	if label := treeLabel(n); label != "" {
		b.WriteString(" ")
		b.WriteString(label)
	}
	b.WriteByte('\n')

	for _, c := range n.Content {
		writeTree(b, c, depth+1)
	}
	for _, c := range n.Items {
		writeTree(b, c, depth+1)
	}
	for _, c := range n.Children {
		writeTree(b, c, depth+1)
	}
	for _, line := range n.Lines {
		for _, c := range line {
			writeTree(b, c, depth+1)
		}
	}
	if n.Type == "table" {
		fmt.Fprintf(b, "%s%d columns, %d rows\n", strings.Repeat("  ", depth+1), len(n.Header), len(n.Rows))
	}
}

func treeLabel(n Node) string {
	switch n.Type {
	case "heading":
		return fmt.Sprintf("h%d #%s", n.Level, n.ID)
	case "text", "code":
		return fmt.Sprintf("%q", n.Text)
	case "link":
		label := fmt.Sprintf("%q -> %s", n.Text, n.URL)
		if n.Button {
			label += " (button)"
		}
		return label
	case "image":
		return fmt.Sprintf("%q %s", n.Alt, n.Src)
	case "code_block":
		lines := strings.Count(n.Code, "\n") + 1
		return fmt.Sprintf("%s (%d lines)", n.Language, lines)
	default:
		return ""
	}
}
