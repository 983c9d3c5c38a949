package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yaklabco/trackmcp/internal/logging"
	"github.com/yaklabco/trackmcp/internal/server"
	"github.com/yaklabco/trackmcp/pkg/catalog"
	"github.com/yaklabco/trackmcp/pkg/config"
	"github.com/yaklabco/trackmcp/pkg/fsutil"
	"github.com/yaklabco/trackmcp/pkg/indexnow"
	"github.com/yaklabco/trackmcp/pkg/sitemap"
)

const sitemapFetchTimeout = 30 * time.Second

type sitemapFlags struct {
	output string
	robots string
	host   string
}

func newSitemapCommand() *cobra.Command {
	flags := &sitemapFlags{}

	cmd := &cobra.Command{
		Use:   "sitemap",
		Short: "Generate sitemap.xml for the catalog",
		Long: `Write a sitemap of the home, listing, category and tool pages. Output
files are replaced atomically and left alone when nothing changed.

Examples:
  trackmcp sitemap -o public/sitemap.xml
  trackmcp sitemap -o public/sitemap.xml --robots public/robots.txt
  trackmcp sitemap --host https://mcp.example.com`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSitemap(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "write the sitemap to a file instead of stdout")
	cmd.Flags().StringVar(&flags.robots, "robots", "", "also write robots.txt to this path")
	cmd.Flags().StringVar(&flags.host, "host", "", "public base URL (default from config)")

	return cmd
}

func runSitemap(cmd *cobra.Command, flags *sitemapFlags) error {
	cli := &config.Config{Server: config.ServerConfig{Host: flags.host}}
	return withApp(cmd, cli, func(ctx context.Context, a *app) error {
		set, err := buildSitemap(ctx, a)
		if err != nil {
			return err
		}
		body, err := sitemap.Marshal(set)
		if err != nil {
			return err
		}
		if err := writeOutput(ctx, cmd, flags.output, body); err != nil {
			return err
		}
		a.logger.Debug("sitemap built", logging.FieldCount, len(set.URLs))

		if flags.robots == "" {
			return nil
		}
		var robots bytes.Buffer
		if err := server.Robots(&robots, a.cfg.Server.Host); err != nil {
			return err
		}
		return writeOutput(ctx, cmd, flags.robots, robots.Bytes())
	})
}

func buildSitemap(ctx context.Context, a *app) (*sitemap.URLSet, error) {
	tools, err := a.catalog.All(ctx, catalog.Filter{Sort: catalog.SortStars})
	if err != nil {
		return nil, err
	}
	cats, err := a.catalog.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return sitemap.Build(a.cfg.Server.Host, tools, cats, time.Now()), nil
}

// writeOutput writes body to path, or to stdout when path is empty or "-".
func writeOutput(ctx context.Context, cmd *cobra.Command, path string, body []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(body)
		return err
	}
	if err := fsutil.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	changed, err := fsutil.WriteAtomicIfChanged(ctx, path, body, outputFilePermissions)
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Info("wrote file", logging.FieldPath, path, "changed", changed)
	return nil
}

type indexNowFlags struct {
	sitemap string
	keyDir  string
	dryRun  bool
}

func newIndexNowCommand() *cobra.Command {
	flags := &indexNowFlags{}

	cmd := &cobra.Command{
		Use:   "indexnow",
		Short: "Notify search engines of catalog URLs",
		Long: `Submit catalog URLs to IndexNow in batches. URLs come from --sitemap, a
local file or an http(s) URL, or else from the catalog itself.

The IndexNow key is read from INDEXNOW_KEY or indexnow.key. The site must
serve it at /{key}.txt; "trackmcp serve" does so when the key is set.

Examples:
  trackmcp indexnow
  trackmcp indexnow --sitemap https://www.trackmcp.com/sitemap.xml
  trackmcp indexnow --sitemap public/sitemap.xml --dry-run`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndexNow(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.sitemap, "sitemap", "", "sitemap file or URL to read locations from")
	cmd.Flags().StringVar(&flags.keyDir, "key-dir", "", "write the key verification file into this directory")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "list the URLs without submitting them")

	return cmd
}

func runIndexNow(cmd *cobra.Command, flags *indexNowFlags) error {
	return withApp(cmd, nil, func(ctx context.Context, a *app) error {
		urls, err := indexNowURLs(ctx, cmd, a, flags.sitemap)
		if err != nil {
			return err
		}

		if flags.dryRun {
			return writeOut(cmd, strings.Join(urls, "\n")+"\n")
		}

		client, err := indexnow.New(indexnow.Options{
			Endpoint:  a.cfg.IndexNow.Endpoint,
			Host:      a.cfg.Server.Host,
			Key:       a.cfg.IndexNow.Key,
			BatchSize: a.cfg.IndexNow.BatchSize,
			Pause:     a.cfg.IndexNow.Pause,
			Logger:    a.logger,
		})
		if err != nil {
			return err
		}

		if flags.keyDir != "" {
			name, body := client.KeyFile()
			if err := writeOutput(ctx, cmd, filepath.Join(flags.keyDir, name), []byte(body)); err != nil {
				return err
			}
		}

		res, err := client.Submit(ctx, urls)
		if res != nil {
			styles := stylesFor(cmd)
			line := fmt.Sprintf("%d urls in %d batches, %d accepted", res.URLs, res.Batches, res.Successful)
			if res.Successful == res.Batches {
				line = styles.Success.Render(line)
			}
			if writeErr := writeOut(cmd, line+"\n"); writeErr != nil && err == nil {
				err = writeErr
			}
		}
		return err
	})
}

func indexNowURLs(ctx context.Context, cmd *cobra.Command, a *app, source string) ([]string, error) {
	switch {
	case source == "":
		set, err := buildSitemap(ctx, a)
		if err != nil {
			return nil, err
		}
		urls := make([]string, 0, len(set.URLs))
		for _, u := range set.URLs {
			urls = append(urls, u.Loc)
		}
		return urls, nil
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return sitemap.Fetch(ctx, &http.Client{Timeout: sitemapFetchTimeout}, source)
	case source == "-":
		return sitemap.Parse(cmd.InOrStdin())
	default:
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open sitemap: %w", err)
		}
		defer f.Close()
		return sitemap.Parse(f)
	}
}
