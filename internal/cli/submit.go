package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/yaklabco/trackmcp/pkg/catalog"
	"github.com/yaklabco/trackmcp/pkg/submit"
)

func newSubmitCommand() *cobra.Command {
	var req submit.Request

	cmd := &cobra.Command{
		Use:   "submit <github-url>",
		Short: "Submit a repository to the catalog",
		Long: `Validate a GitHub repository URL, fetch its metadata and add it to the
catalog as a pending tool. Without --category one is picked from the
repository name, description and topics.

Example:
  trackmcp submit https://github.com/owner/weather-mcp --email me@example.com`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.GitHubURL = args[0]
			req.Category = resolveCategory(req.Category)
			return withApp(cmd, nil, func(ctx context.Context, a *app) error {
				tool, err := a.submitter.Submit(ctx, req)
				if err != nil {
					return err
				}
				styles := stylesFor(cmd)
				return writeOut(cmd, styles.Success.Render("Submitted for review")+"\n\n"+styles.FormatTool(tool))
			})
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "submitter email address")
	cmd.Flags().StringVarP(&req.Category, "category", "c", "", "category name or slug")
	return cmd
}

func newModerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "moderate",
		Short: "Approve or reject submitted tools",
		Long: `Set the moderation status of tools by id. Ids are shown by
"trackmcp list --status pending".

Examples:
  trackmcp moderate approve 42
  trackmcp moderate reject 17 18`,
	}

	for _, status := range []catalog.Status{catalog.StatusApproved, catalog.StatusRejected, catalog.StatusPending} {
		cmd.AddCommand(newModerateStatusCommand(status))
	}
	return cmd
}

// moderateVerbs are the subcommand names per status.
//
//nolint:gochecknoglobals // Read-only lookup table.
var moderateVerbs = map[catalog.Status]string{
	catalog.StatusApproved: "approve",
	catalog.StatusRejected: "reject",
	catalog.StatusPending:  "reset",
}

func newModerateStatusCommand(status catalog.Status) *cobra.Command {
	return &cobra.Command{
		Use:   moderateVerbs[status] + " <id>...",
		Short: fmt.Sprintf("Mark tools %s", status),
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil || id <= 0 {
					return fmt.Errorf("%w: invalid tool id %q", ErrUsage, arg)
				}
				ids = append(ids, id)
			}

			return withApp(cmd, nil, func(ctx context.Context, a *app) error {
				styles := stylesFor(cmd)
				for _, id := range ids {
					if err := a.submitter.Moderate(ctx, id, status); err != nil {
						return err
					}
					if err := writeOut(cmd, fmt.Sprintf("%d %s\n", id, styles.StatusStyle(status).Render(string(status)))); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}
