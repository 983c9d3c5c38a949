// Package mdhtml writes rendered Markdown blocks as HTML for the tool pages.
package mdhtml

import (
	"errors"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/yaklabco/trackmcp/pkg/langdetect"
	"github.com/yaklabco/trackmcp/pkg/mdrender"
)

// DefaultStyle is the chroma style used for highlighted code.
const DefaultStyle = "github"

// ErrUnknownNode is returned for a block or inline type the writer does not
// know how to render.
var ErrUnknownNode = errors.New("unknown markdown node")

// Options configures a Renderer.
type Options struct {
	// Highlight enables syntax highlighting of code blocks.
	Highlight bool

	// Style is a chroma style name. Defaults to DefaultStyle.
	Style string
}

// Renderer writes blocks as HTML. It is safe for concurrent use.
type Renderer struct {
	highlight bool
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// New returns a Renderer.
func New(opts Options) *Renderer {
	name := opts.Style
	if name == "" {
		name = DefaultStyle
	}
	return &Renderer{
		highlight: opts.Highlight,
		style:     styles.Get(name),
		formatter: chromahtml.New(chromahtml.WithClasses(true)),
	}
}

// WriteCSS writes the stylesheet for highlighted code.
func (r *Renderer) WriteCSS(w io.Writer) error {
	if err := r.formatter.WriteCSS(w, r.style); err != nil {
		return fmt.Errorf("write highlight css: %w", err)
	}
	return nil
}

// RenderString renders blocks to a string.
func (r *Renderer) RenderString(blocks []mdrender.Block) (string, error) {
	var sb strings.Builder
	if err := r.Render(&sb, blocks); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Render writes blocks to w.
func (r *Renderer) Render(w io.Writer, blocks []mdrender.Block) error {
	ew := &errWriter{w: w}
	for _, b := range blocks {
		if err := r.block(ew, b); err != nil {
			return err
		}
		ew.str("\n")
	}
	return ew.err
}

func (r *Renderer) block(w *errWriter, b mdrender.Block) error {
	switch b := b.(type) {
	case mdrender.Heading:
		level := strconv.Itoa(b.Level)
		w.str(`<h`, level, ` id="`, html.EscapeString(b.ID), `">`)
		if err := inlines(w, b.Content); err != nil {
			return err
		}
		w.str(`</h`, level, `>`)

	case mdrender.Paragraph:
		w.str(`<p>`)
		if err := inlines(w, b.Content); err != nil {
			return err
		}
		w.str(`</p>`)

	case mdrender.List:
		return list(w, b)

	case mdrender.Table:
		return table(w, b)

	case mdrender.BlockQuote:
		w.str(`<blockquote>`)
		for _, line := range b.Lines {
			w.str(`<p>`)
			if err := inlines(w, line); err != nil {
				return err
			}
			w.str(`</p>`)
		}
		w.str(`</blockquote>`)

	case mdrender.CodeBlock:
		return r.code(w, b)

	case mdrender.Image:
		w.str(`<p class="md-image">`)
		if b.Link != "" {
			w.str(`<a href="`, attr(safeURL(b.Link)), `" target="_blank" rel="noopener noreferrer">`)
		}
		image(w, b.Alt, b.Src, "")
		if b.Link != "" {
			w.str(`</a>`)
		}
		w.str(`</p>`)

	case mdrender.HorizontalRule:
		w.str(`<hr>`)

	default:
		return fmt.Errorf("render block %T: %w", b, ErrUnknownNode)
	}
	return w.err
}

func list(w *errWriter, l mdrender.List) error {
	w.str(`<ul>`)
	for _, item := range l.Items {
		w.str(`<li>`)
		if err := inlines(w, item.Content); err != nil {
			return err
		}
		if item.Children != nil && len(item.Children.Items) > 0 {
			if err := list(w, *item.Children); err != nil {
				return err
			}
		}
		w.str(`</li>`)
	}
	w.str(`</ul>`)
	return w.err
}

func table(w *errWriter, t mdrender.Table) error {
	w.str(`<div class="md-table"><table><thead><tr>`)
	for _, c := range t.Header {
		w.str(`<th>`)
		if err := inlines(w, c); err != nil {
			return err
		}
		w.str(`</th>`)
	}
	w.str(`</tr></thead><tbody>`)
	for _, row := range t.Rows {
		w.str(`<tr>`)
		for _, c := range row {
			w.str(`<td>`)
			if err := inlines(w, c); err != nil {
				return err
			}
			w.str(`</td>`)
		}
		w.str(`</tr>`)
	}
	w.str(`</tbody></table></div>`)
	return w.err
}

func inlines(w *errWriter, content []mdrender.Inline) error {
	for _, n := range content {
		switch n := n.(type) {
		case mdrender.Text:
			w.str(html.EscapeString(n.Value))
		case mdrender.Bold:
			w.str(`<strong>`)
			if err := inlines(w, n.Children); err != nil {
				return err
			}
			w.str(`</strong>`)
		case mdrender.Italic:
			w.str(`<em>`)
			if err := inlines(w, n.Children); err != nil {
				return err
			}
			w.str(`</em>`)
		case mdrender.Code:
			w.str(`<code>`, html.EscapeString(n.Value), `</code>`)
		case mdrender.Link:
			class := "md-link"
			if n.Button {
				class = "md-button"
			}
			w.str(`<a href="`, attr(safeURL(n.URL)), `" class="`, class, `" target="_blank" rel="noopener noreferrer">`)
			if n.Image != nil {
				image(w, n.Image.Alt, n.Image.Src, "md-inline-image")
			} else {
				w.str(html.EscapeString(n.Text))
			}
			w.str(`</a>`)
		case mdrender.InlineImage:
			image(w, n.Alt, n.Src, "md-inline-image")
		default:
			return fmt.Errorf("render inline %T: %w", n, ErrUnknownNode)
		}
	}
	return w.err
}

// image writes an img tag. Branch fallbacks go in data-fallback for the page
// script, which swaps them in one at a time on load errors.
func image(w *errWriter, alt, src, class string) {
	w.str(`<img src="`, attr(safeImageURL(src)), `" alt="`, attr(alt), `" loading="lazy"`)
	if class != "" {
		w.str(` class="`, class, `"`)
	}
	if fallbacks := mdrender.BranchFallbacks(src); len(fallbacks) > 0 {
		w.str(` data-fallback="`, attr(strings.Join(fallbacks, " ")), `"`)
	}
	w.str(`>`)
}

func (r *Renderer) code(w *errWriter, b mdrender.CodeBlock) error {
	lang := langdetect.Normalize(b.Language)
	if lang == "" {
		lang = langdetect.Detect(b.Code)
	}
	label := lang
	if label == "" {
		label = "code"
	}

	w.str(`<div class="md-code"><div class="md-code-header"><span class="md-code-lang">`, html.EscapeString(label),
		`</span><button type="button" class="md-copy" data-copy>Copy</button></div>`)

	if r.highlight {
		if lexer := lookupLexer(lang); lexer != nil {
			iter, err := chroma.Coalesce(lexer).Tokenise(nil, b.Code)
			if err == nil {
				if err := r.formatter.Format(w, r.style, iter); err != nil {
					return fmt.Errorf("highlight %s block: %w", lang, err)
				}
				w.str(`</div>`)
				return w.err
			}
		}
	}

	w.str(`<pre><code`)
	if lang != "" {
		w.str(` class="language-`, attr(lang), `"`)
	}
	w.str(`>`, html.EscapeString(b.Code), `</code></pre></div>`)
	return w.err
}

func lookupLexer(lang string) chroma.Lexer {
	if lang == "" {
		return nil
	}
	return lexers.Get(lang)
}

func attr(s string) string {
	return html.EscapeString(s)
}

//nolint:gochecknoglobals // Read-only lookup table.
var unsafeSchemes = []string{"javascript:", "vbscript:", "data:"}

// schemeKey normalizes u the way browsers do before reading the scheme:
// leading and trailing C0 controls and spaces are dropped, tabs and
// newlines are removed anywhere.
func schemeKey(u string) string {
	u = strings.TrimFunc(u, func(r rune) bool { return r <= 0x20 })
	u = strings.NewReplacer("\t", "", "\n", "", "\r", "").Replace(u)
	return strings.ToLower(u)
}

// safeURL neutralizes script-bearing link targets.
func safeURL(u string) string {
	l := schemeKey(u)
	for _, scheme := range unsafeSchemes {
		if strings.HasPrefix(l, scheme) {
			return "#"
		}
	}
	return u
}

// safeImageURL allows inline data images but nothing else script-capable.
func safeImageURL(u string) string {
	if strings.HasPrefix(schemeKey(u), "data:image/") {
		return u
	}
	return safeURL(u)
}

// errWriter keeps the first write error and drops later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

func (e *errWriter) str(parts ...string) {
	for _, p := range parts {
		if e.err != nil {
			return
		}
		_, e.err = io.WriteString(e.w, p)
	}
}
