package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yaklabco/trackmcp/pkg/catalog"
	"github.com/yaklabco/trackmcp/pkg/refresh"
	"github.com/yaklabco/trackmcp/pkg/reporter"
)

const defaultListLimit = 50

type listFlags struct {
	format   string
	sort     string
	category string
	status   string
	limit    int
	compact  bool
}

func addListFlags(cmd *cobra.Command, flags *listFlags) {
	cmd.Flags().StringVarP(&flags.format, "format", "f", "table", "output format: table, text, json")
	cmd.Flags().IntVarP(&flags.limit, "limit", "n", defaultListLimit, "maximum number of tools")
	cmd.Flags().BoolVar(&flags.compact, "compact", false, "minified JSON output")
}

func (f *listFlags) reporter(cmd *cobra.Command) (reporter.Reporter, error) {
	format, err := reporter.ParseFormat(f.format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return reporter.New(reporter.Options{
		Writer:     cmd.OutOrStdout(),
		Format:     format,
		Color:      colorMode(cmd),
		ShowStatus: f.status != "",
		ShowID:     f.status != "",
		Compact:    f.compact,
	})
}

func newSearchCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog",
		Long: `Search tool names, descriptions and topics. Results are ordered by stars.
When nothing matches exactly, names are ranked by fuzzy similarity.

Examples:
  trackmcp search postgres
  trackmcp search "file system" --format json`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := flags.reporter(cmd)
			if err != nil {
				return err
			}
			return withApp(cmd, nil, func(ctx context.Context, a *app) error {
				tools, err := a.catalog.Search(ctx, strings.Join(args, " "), flags.limit)
				if err != nil {
					return err
				}
				_, err = rep.Report(ctx, tools)
				return err
			})
		},
	}

	addListFlags(cmd, flags)
	return cmd
}

func newListCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog tools",
		Long: `List visible tools, optionally within one category. --status lists tools
with that moderation status instead, including rejected ones, with their ids.

Examples:
  trackmcp list --sort recent
  trackmcp list --category "Developer Kits" --limit 10
  trackmcp list --status pending`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, flags)
		},
	}

	addListFlags(cmd, flags)
	cmd.Flags().StringVarP(&flags.sort, "sort", "s", "stars", "sort order: stars, recent, name, newest")
	cmd.Flags().StringVarP(&flags.category, "category", "c", "", "only tools in this category")
	cmd.Flags().StringVar(&flags.status, "status", "", "only tools with this status: pending, approved, rejected")
	return cmd
}

func runList(cmd *cobra.Command, flags *listFlags) error {
	sortOrder, err := catalog.ParseSort(flags.sort)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	filter := catalog.Filter{Sort: sortOrder}
	if flags.status != "" {
		status, err := catalog.ParseStatus(flags.status)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUsage, err)
		}
		filter.Statuses = []catalog.Status{status}
	}
	if flags.category != "" {
		filter.Category = resolveCategory(flags.category)
	}
	rep, err := flags.reporter(cmd)
	if err != nil {
		return err
	}

	return withApp(cmd, nil, func(ctx context.Context, a *app) error {
		tools, err := a.catalog.All(ctx, filter)
		if err != nil {
			return err
		}
		if flags.limit > 0 && len(tools) > flags.limit {
			tools = tools[:flags.limit]
		}
		_, err = rep.Report(ctx, tools)
		return err
	})
}

// resolveCategory accepts a category name or its slug.
func resolveCategory(s string) string {
	for _, name := range catalog.KnownCategories() {
		if strings.EqualFold(name, s) || catalog.CategorySlug(name) == strings.ToLower(s) {
			return name
		}
	}
	return s
}

func newCategoriesCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories with tool counts",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, nil, func(ctx context.Context, a *app) error {
				cats, err := a.catalog.Categories(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					if cats == nil {
						cats = []catalog.CategoryCount{}
					}
					return writeJSON(cmd, cats)
				}
				styles := stylesFor(cmd)
				return writeOut(cmd, styles.FormatHeading("Categories", len(cats))+styles.FormatCategories(cats))
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func newStatsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog and freshness statistics",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, nil, func(ctx context.Context, a *app) error {
				stats, err := a.catalog.Stats(ctx)
				if err != nil {
					return err
				}
				fresh, err := a.refresher.Stats(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, struct {
						*catalog.Stats
						Freshness *refresh.Freshness `json:"freshness"`
					}{stats, fresh})
				}
				return writeOut(cmd, stylesFor(cmd).FormatStats(stats, fresh))
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
