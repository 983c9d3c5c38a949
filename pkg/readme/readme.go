// Package readme turns a tool's GitHub README into a displayable page.
package readme

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/charmbracelet/log"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/yaklabco/trackmcp/pkg/catalog"
	"github.com/yaklabco/trackmcp/pkg/github"
	"github.com/yaklabco/trackmcp/pkg/mdhtml"
	"github.com/yaklabco/trackmcp/pkg/mdrender"
)

// Engine selects the README renderer.
type Engine string

const (
	// EngineBuiltin renders with mdrender and mdhtml.
	EngineBuiltin Engine = "builtin"

	// EngineCommonMark renders with goldmark and sanitizes the output.
	EngineCommonMark Engine = "commonmark"
)

// ParseEngine parses an engine name.
func ParseEngine(s string) (Engine, error) {
	switch Engine(strings.ToLower(s)) {
	case "", EngineBuiltin:
		return EngineBuiltin, nil
	case EngineCommonMark:
		return EngineCommonMark, nil
	default:
		return "", fmt.Errorf("unknown readme engine %q; valid engines: builtin, commonmark", s)
	}
}

// Source fetches raw README text. A missing README is reported with
// github.ErrNotFound.
type Source interface {
	Readme(ctx context.Context, owner, repo string) (string, error)
}

// Options configures a Service.
type Options struct {
	Engine    Engine
	Markdown  mdrender.Options
	Highlight bool
	// Style is the chroma style for highlighted code.
	Style  string
	Logger *log.Logger
}

// Page is a rendered README.
type Page struct {
	Blocks  []mdrender.Block
	HTML    template.HTML
	TOC     []mdrender.TOCEntry
	ShowTOC bool
	// Front holds front matter removed from the top of the README.
	Front map[string]any
	// Missing is set when the repository has no README.
	Missing bool
	Engine  Engine
}

// Service renders READMEs.
type Service struct {
	src    Source
	engine Engine
	mdOpts mdrender.Options
	md     *mdrender.Renderer
	html   *mdhtml.Renderer
	gm     goldmark.Markdown
	policy *bluemonday.Policy
	logger *log.Logger
}

// New returns a Service reading from src.
func New(src Source, opts Options) *Service {
	engine := opts.Engine
	if engine == "" {
		engine = EngineBuiltin
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	md := mdrender.New(opts.Markdown)
	return &Service{
		src:    src,
		engine: engine,
		mdOpts: md.Options(),
		md:     md,
		html:   mdhtml.New(mdhtml.Options{Highlight: opts.Highlight, Style: opts.Style}),
		gm:     newGoldmark(),
		policy: newPolicy(),
		logger: logger,
	}
}

// HTMLRenderer returns the renderer used for the builtin engine.
func (s *Service) HTMLRenderer() *mdhtml.Renderer {
	return s.html
}

// Fetch loads and renders the README of the repository at repoURL. branch is
// the repository's default branch, if known.
func (s *Service) Fetch(ctx context.Context, repoURL, branch string) (*Page, error) {
	owner, repo, err := github.ParseRepoURL(repoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch readme: %w", err)
	}

	raw, err := s.src.Readme(ctx, owner, repo)
	if errors.Is(err, github.ErrNotFound) {
		s.logger.Debug("no readme", "repo", owner+"/"+repo)
		return &Page{Missing: true, Engine: s.engine}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch readme %s/%s: %w", owner, repo, err)
	}

	return s.Render(raw, repoURL, branch)
}

// Page loads and renders the README of a catalog tool.
func (s *Service) Page(ctx context.Context, tool *catalog.Tool) (*Page, error) {
	return s.Fetch(ctx, tool.GitHubURL, tool.DefaultBranch)
}

// Render renders README text that belongs to the repository at repoURL.
func (s *Service) Render(raw, repoURL, branch string) (*Page, error) {
	front, body := StripFrontMatter(raw)

	r := s.md
	if branch != "" && branch != s.mdOpts.Branch {
		opts := s.mdOpts
		opts.Branch = branch
		r = mdrender.New(opts)
	}

	blocks := r.Render(body, repoURL)
	toc := mdrender.TableOfContents(blocks)
	page := &Page{
		Blocks:  blocks,
		TOC:     toc,
		ShowTOC: mdrender.ShowTOC(toc),
		Front:   front,
		Engine:  s.engine,
	}

	switch s.engine {
	case EngineCommonMark:
		out, err := s.commonmark(body, repoURL, r.Options().Branch)
		if err != nil {
			return nil, err
		}
		page.HTML = out
	default:
		out, err := s.html.RenderString(blocks)
		if err != nil {
			return nil, fmt.Errorf("render readme html: %w", err)
		}
		page.HTML = template.HTML(out) //nolint:gosec // Built from escaped nodes.
	}
	return page, nil
}

// StripFrontMatter splits a leading YAML or TOML front matter block from
// text. Text without valid front matter is returned unchanged.
func StripFrontMatter(raw string) (map[string]any, string) {
	trimmed := strings.TrimLeft(raw, "\ufeff \t\r\n")
	if !strings.HasPrefix(trimmed, "---") && !strings.HasPrefix(trimmed, "+++") {
		return nil, raw
	}

	var front map[string]any
	rest, err := frontmatter.Parse(strings.NewReader(trimmed), &front)
	if err != nil {
		return nil, raw
	}
	return front, string(rest)
}

func (s *Service) commonmark(body, repoURL, branch string) (template.HTML, error) {
	pc := parser.NewContext()
	pc.Set(baseKey, imageBase{repoURL: repoURL, branch: branch})

	var buf bytes.Buffer
	if err := s.gm.Convert([]byte(body), &buf, parser.WithContext(pc)); err != nil {
		return "", fmt.Errorf("convert readme: %w", err)
	}
	return template.HTML(s.policy.SanitizeBytes(buf.Bytes())), nil //nolint:gosec // Sanitized above.
}

//nolint:gochecknoglobals // Parser context key.
var baseKey = parser.NewContextKey()

type imageBase struct {
	repoURL string
	branch  string
}

// imageTransformer resolves relative image destinations against the
// repository, matching the builtin engine.
type imageTransformer struct{}

func (imageTransformer) Transform(doc *ast.Document, _ text.Reader, pc parser.Context) {
	base, ok := pc.Get(baseKey).(imageBase)
	if !ok || base.repoURL == "" {
		return
	}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if img, ok := n.(*ast.Image); ok && entering {
			img.Destination = []byte(mdrender.ResolveImage(string(img.Destination), base.repoURL, base.branch))
		}
		return ast.WalkContinue, nil
	})
}

const transformerPriority = 10000

func newGoldmark() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(imageTransformer{}, transformerPriority)),
		),
		goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
	)
}

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w+-]+$`)).OnElements("code")
	p.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}
