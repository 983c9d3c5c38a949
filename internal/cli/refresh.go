package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yaklabco/trackmcp/pkg/config"
	"github.com/yaklabco/trackmcp/pkg/refresh"
)

type refreshFlags struct {
	ids         []int64
	olderThan   time.Duration
	concurrency int
	limit       int
	verbose     bool
	recategory  bool
}

func newRefreshCommand() *cobra.Command {
	flags := &refreshFlags{}

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh tool metadata from GitHub",
		Long: `Fetch current GitHub metadata for stale tools and store what changed.
Tools move up the "recent" listing only when a change is meaningful: a
new description, topics, language or a large star swing.

Examples:
  trackmcp refresh                         Tools not updated for a week
  trackmcp refresh --older-than 24h -j 8
  trackmcp refresh --id 12 --id 40 -v`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRefresh(cmd, flags)
		},
	}

	cmd.Flags().Int64SliceVar(&flags.ids, "id", nil, "refresh only these tool ids")
	cmd.Flags().DurationVar(&flags.olderThan, "older-than", 0, "staleness threshold (default from config)")
	cmd.Flags().IntVarP(&flags.concurrency, "jobs", "j", 0, "concurrent GitHub requests")
	cmd.Flags().IntVar(&flags.limit, "limit", 0, "maximum number of tools to check")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "list unchanged tools too")
	cmd.Flags().BoolVar(&flags.recategory, "recategorize", false, "also assign categories to uncategorized tools")

	return cmd
}

func runRefresh(cmd *cobra.Command, flags *refreshFlags) error {
	cli := &config.Config{Refresh: config.RefreshConfig{
		OlderThan:   flags.olderThan,
		Concurrency: flags.concurrency,
		Limit:       flags.limit,
	}}

	return withApp(cmd, cli, func(ctx context.Context, a *app) error {
		if !a.github.Authenticated() {
			a.logger.Warn("no github token; refresh is limited to 60 requests per hour")
		}

		sum, runErr := a.refresher.Run(ctx, refresh.Options{
			IDs:         flags.ids,
			OlderThan:   a.cfg.Refresh.OlderThan,
			Concurrency: a.cfg.Refresh.Concurrency,
			Limit:       a.cfg.Refresh.Limit,
		})
		if sum == nil {
			return runErr
		}
		if err := writeOut(cmd, stylesFor(cmd).FormatRefreshSummary(sum, flags.verbose)); err != nil {
			return err
		}

		if flags.recategory {
			changed, err := a.catalog.Recategorize(ctx)
			if err != nil {
				return err
			}
			a.logger.Info("recategorized tools", "changed", changed)
		}

		if runErr != nil {
			a.logger.Debug("refresh failures", "error", runErr)
			return fmt.Errorf("refresh: %d of %d tools failed", sum.Failed, sum.Checked)
		}
		return nil
	})
}
