package cli

import (
	"bytes"
	"context"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/yaklabco/trackmcp/internal/logging"
	"github.com/yaklabco/trackmcp/internal/ui/pretty"
	"github.com/yaklabco/trackmcp/pkg/config"
	"github.com/yaklabco/trackmcp/pkg/fsutil"
	"github.com/yaklabco/trackmcp/pkg/mdhtml"
	"github.com/yaklabco/trackmcp/pkg/mdrender"
	"github.com/yaklabco/trackmcp/pkg/reporter"
)

// outputFilePermissions is the file mode for rendered output files.
const outputFilePermissions = 0o644

type renderFlags struct {
	base        string
	branch      string
	format      string
	nesting     string
	stripHTML   string
	style       string
	noHighlight bool
	output      string
}

func newRenderCommand() *cobra.Command {
	flags := &renderFlags{}

	cmd := &cobra.Command{
		Use:   "render [file|-]",
		Short: "Render a Markdown file",
		Long: `Render a README-style Markdown file into HTML, cleaned-up Markdown, a JSON
node tree or an indented outline.

Relative image paths resolve against --base, a GitHub repository URL.
With no file, or "-", the document is read from stdin.

Examples:
  trackmcp render README.md
  trackmcp render README.md --base https://github.com/owner/repo
  trackmcp render --format tree < README.md
  trackmcp render README.md --format json -o readme.json`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return runRender(cmd, path, flags)
		},
	}

	cmd.Flags().StringVar(&flags.base, "base", "", "GitHub repository URL relative images resolve against")
	cmd.Flags().StringVar(&flags.branch, "branch", "", "branch used in resolved image URLs (default main)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "html", "output format: html, markdown, json, tree")
	cmd.Flags().StringVar(&flags.nesting, "nesting", "", "list nesting strategy: stack or lookahead")
	cmd.Flags().StringVar(&flags.stripHTML, "strip-html", "", "HTML removal: depth or regex")
	cmd.Flags().StringVar(&flags.style, "style", "", "chroma style for highlighted code")
	cmd.Flags().BoolVar(&flags.noHighlight, "no-highlight", false, "disable code highlighting")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "write to a file instead of stdout")

	return cmd
}

func (f *renderFlags) config() *config.Config {
	cfg := &config.Config{Render: config.RenderConfig{
		Nesting:   f.nesting,
		StripHTML: f.stripHTML,
		Style:     f.style,
	}}
	if f.noHighlight {
		off := false
		cfg.Render.Highlight = &off
	}
	return cfg
}

func runRender(cmd *cobra.Command, path string, flags *renderFlags) error {
	format, err := reporter.ParseDocFormat(flags.format)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	cfg, err := loadConfig(cmd, flags.config())
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	blocks, err := renderInput(ctx, cmd, path, flags.base, flags.branch, cfg)
	if err != nil {
		return err
	}

	html := mdhtml.New(mdhtml.Options{Highlight: cfg.Render.HighlightEnabled(), Style: cfg.Render.Style})
	if flags.output == "" || flags.output == "-" {
		return reporter.WriteDocument(cmd.OutOrStdout(), blocks, format, html)
	}

	var buf bytes.Buffer
	if err := reporter.WriteDocument(&buf, blocks, format, html); err != nil {
		return err
	}
	changed, err := fsutil.WriteAtomicIfChanged(ctx, flags.output, buf.Bytes(), outputFilePermissions)
	if err != nil {
		return err
	}
	logging.Default().Info("rendered", logging.FieldPath, flags.output, "changed", changed, "blocks", len(blocks))
	return nil
}

func renderInput(ctx context.Context, cmd *cobra.Command, path, base, branch string, cfg *config.Config) ([]mdrender.Block, error) {
	content, err := fsutil.ReadInput(ctx, path, cmd.InOrStdin())
	if err != nil {
		return nil, err
	}
	opts, err := markdownOptions(cfg.Render.Nesting, cfg.Render.StripHTML)
	if err != nil {
		return nil, err
	}
	opts.Branch = branch
	return mdrender.New(opts).Render(string(content), base), nil
}

type showFlags struct {
	file  string
	base  string
	raw   bool
	width int
}

func newShowCommand() *cobra.Command {
	flags := &showFlags{}

	cmd := &cobra.Command{
		Use:   "show [name]",
		Short: "Preview a tool and its README in the terminal",
		Long: `Show the catalog record of a tool followed by its README, rendered for the
terminal. With --file a local Markdown file is previewed instead.

Examples:
  trackmcp show github-mcp-server
  trackmcp show --file README.md --base https://github.com/owner/repo
  trackmcp show postgres-mcp --raw`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.file == "" && len(args) == 0 {
				return fmt.Errorf("%w: a tool name or --file is required", ErrUsage)
			}
			if flags.file != "" {
				return runShowFile(cmd, flags)
			}
			return runShowTool(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.file, "file", "", "preview a local Markdown file")
	cmd.Flags().StringVar(&flags.base, "base", "", "GitHub repository URL for --file images")
	cmd.Flags().BoolVar(&flags.raw, "raw", false, "print cleaned-up Markdown without terminal styling")
	cmd.Flags().IntVar(&flags.width, "width", 0, "wrap width (default terminal width)")

	return cmd
}

func runShowFile(cmd *cobra.Command, flags *showFlags) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	blocks, err := renderInput(commandContext(cmd), cmd, flags.file, flags.base, "", cfg)
	if err != nil {
		return err
	}
	return showMarkdown(cmd, mdrender.Markdown(blocks), flags)
}

func runShowTool(cmd *cobra.Command, name string, flags *showFlags) error {
	return withApp(cmd, nil, func(ctx context.Context, a *app) error {
		tool, err := a.catalog.GetTool(ctx, name)
		if err != nil {
			return err
		}
		styles := stylesFor(cmd)
		if err := writeOut(cmd, styles.FormatTool(tool)+"\n"); err != nil {
			return err
		}

		page, err := a.readme.Page(ctx, tool)
		if err != nil {
			return err
		}
		if page.Missing {
			return writeOut(cmd, styles.Dim.Render("No README.")+"\n")
		}
		return showMarkdown(cmd, mdrender.Markdown(page.Blocks), flags)
	})
}

// showMarkdown prints md through glamour, or as is with --raw.
func showMarkdown(cmd *cobra.Command, md string, flags *showFlags) error {
	out := cmd.OutOrStdout()
	if flags.raw {
		return writeOut(cmd, md+"\n")
	}

	width := flags.width
	if width <= 0 {
		width = pretty.TermWidth(out)
	}
	style := glamour.WithAutoStyle()
	if !pretty.IsColorEnabled(colorMode(cmd), out) {
		style = glamour.WithStandardStyle("notty")
	}

	term, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return fmt.Errorf("create terminal renderer: %w", err)
	}
	rendered, err := term.Render(md)
	if err != nil {
		return fmt.Errorf("render for terminal: %w", err)
	}
	return writeOut(cmd, rendered)
}
