package mdrender

import (
	"fmt"
	"strings"
)

// ListNesting selects how flat bullet runs are folded into a tree.
type ListNesting string

const (
	// NestingStack folds items with an explicit level stack. An item deeper
	// than its predecessor always becomes a child of it, whatever the jump.
	NestingStack ListNesting = "stack"

	// NestingLookahead reproduces the single-level lookahead builder: items
	// more than one level deeper than the current parent are dropped.
	NestingLookahead ListNesting = "lookahead"
)

// StripMode selects how block-level HTML is removed before scanning.
type StripMode string

const (
	// StripDepth removes div, section and anchor elements by tracking tag
	// depth. Unclosed elements are left in place.
	StripDepth StripMode = "depth"

	// StripRegex removes them with non-greedy multi-line patterns.
	StripRegex StripMode = "regex"
)

// DefaultBranch is the branch assumed when resolving relative image paths.
const DefaultBranch = "main"

// Options configures a Renderer. The zero value is valid.
type Options struct {
	// Nesting defaults to NestingStack.
	Nesting ListNesting

	// StripHTML defaults to StripDepth.
	StripHTML StripMode

	// Branch is used in resolved raw-content URLs. Defaults to DefaultBranch.
	Branch string

	// DisableReferenceLinks skips reference-definition resolution.
	DisableReferenceLinks bool
}

// Renderer turns Markdown text into blocks.
type Renderer struct {
	opts Options
}

// New returns a Renderer with the given options. Empty fields take their
// defaults.
func New(opts Options) *Renderer {
	if opts.Nesting == "" {
		opts.Nesting = NestingStack
	}
	if opts.StripHTML == "" {
		opts.StripHTML = StripDepth
	}
	if opts.Branch == "" {
		opts.Branch = DefaultBranch
	}
	return &Renderer{opts: opts}
}

// Options returns the effective options.
func (r *Renderer) Options() Options {
	return r.opts
}

//nolint:gochecknoglobals // Immutable default renderer.
var defaultRenderer = New(Options{})

// Render renders text with default options. baseRepoURL is the GitHub
// repository the text belongs to and may be empty.
func Render(text, baseRepoURL string) []Block {
	return defaultRenderer.Render(text, baseRepoURL)
}

// Render renders text. baseRepoURL is the GitHub repository the text belongs
// to and may be empty, in which case relative image paths are kept as written.
func (r *Renderer) Render(text, baseRepoURL string) []Block {
	src := r.preprocess(text)
	s := &scanner{
		lines: strings.Split(src, "\n"),
		res:   newResolver(baseRepoURL, r.opts.Branch),
		opts:  r.opts,
	}
	blocks := s.scan()
	assignHeadingIDs(blocks)
	return blocks
}

// ParseNesting parses a list nesting mode name.
func ParseNesting(s string) (ListNesting, error) {
	switch ListNesting(strings.ToLower(s)) {
	case "", NestingStack:
		return NestingStack, nil
	case NestingLookahead:
		return NestingLookahead, nil
	default:
		return "", fmt.Errorf("unknown list nesting %q; valid values: stack, lookahead", s)
	}
}

// ParseStripMode parses an HTML strip mode name.
func ParseStripMode(s string) (StripMode, error) {
	switch StripMode(strings.ToLower(s)) {
	case "", StripDepth:
		return StripDepth, nil
	case StripRegex:
		return StripRegex, nil
	default:
		return "", fmt.Errorf("unknown html strip mode %q; valid values: depth, regex", s)
	}
}
