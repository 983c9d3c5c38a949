package mdrender

// Block is a structural unit of a rendered document.
//
// The set of implementations is closed: Heading, Paragraph, List, Table,
// BlockQuote, CodeBlock, Image and HorizontalRule.
type Block interface {
	block()
}

// Inline is a run of formatted text within a block.
//
// The set of implementations is closed: Text, Bold, Italic, Code, Link and
// InlineImage.
type Inline interface {
	inline()
}

// Heading is an ATX heading of level 1 through 6.
type Heading struct {
	Level   int
	Content []Inline
	// ID is the anchor slug used by the table of contents.
	ID string
}

// Paragraph is a single line of prose.
type Paragraph struct {
	Content []Inline
}

// List is a bullet list. Nested lists hang off their parent item.
type List struct {
	Items []ListItem
}

// ListItem is one bullet of a List.
type ListItem struct {
	Content []Inline
	// Level is the indentation level, two columns per level.
	Level    int
	Children *List
}

// Cell is the inline content of one table cell.
type Cell []Inline

// Table is a pipe table with one header row.
type Table struct {
	Header []Cell
	Rows   [][]Cell
}

// BlockQuote groups consecutive quoted lines.
type BlockQuote struct {
	Lines [][]Inline
}

// CodeBlock is a fenced code block.
type CodeBlock struct {
	// Language is the info string after the opening fence, possibly empty.
	Language string
	Code     string
}

// Image is an image that occupied a line of its own.
type Image struct {
	Alt string
	Src string
	// Link is set when the image was wrapped in a link.
	Link string
}

// HorizontalRule is a thematic break.
type HorizontalRule struct{}

func (Heading) block()        {}
func (Paragraph) block()      {}
func (List) block()           {}
func (Table) block()          {}
func (BlockQuote) block()     {}
func (CodeBlock) block()      {}
func (Image) block()          {}
func (HorizontalRule) block() {}

// Text is literal text.
type Text struct {
	Value string
}

// Bold is strongly emphasized content.
type Bold struct {
	Children []Inline
}

// Italic is emphasized content.
type Italic struct {
	Children []Inline
}

// Code is an inline code span.
type Code struct {
	Value string
}

// Link is a hyperlink.
type Link struct {
	Text string
	URL  string
	// Button marks call-to-action links such as "Install" or "Try it".
	Button bool
	// Image is set for the [![alt](img)](url) form; Text is then the alt text.
	Image *InlineImage
}

// InlineImage is an image embedded in running text.
type InlineImage struct {
	Alt string
	Src string
}

func (Text) inline()        {}
func (Bold) inline()        {}
func (Italic) inline()      {}
func (Code) inline()        {}
func (Link) inline()        {}
func (InlineImage) inline() {}
