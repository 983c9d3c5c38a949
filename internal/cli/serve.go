package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yaklabco/trackmcp/internal/logging"
	"github.com/yaklabco/trackmcp/internal/mcpserver"
	"github.com/yaklabco/trackmcp/internal/server"
	"github.com/yaklabco/trackmcp/pkg/config"
)

type serveFlags struct {
	addr   string
	host   string
	store  string
	dbPath string
	demo   bool
}

func newServeCommand(info BuildInfo) *cobra.Command {
	flags := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the catalog website and JSON API",
		Long: `Run the catalog website, JSON API, sitemap and robots.txt.

Admin routes are enabled only when an admin key is configured through
ADMIN_API_KEY or admin.api_key.

Examples:
  trackmcp serve                      Serve the sqlite catalog on :8080
  trackmcp serve --demo               Serve a built-in sample catalog
  trackmcp serve --addr 127.0.0.1:9000 --host https://mcp.example.com`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, info, flags)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().StringVar(&flags.host, "host", "", "public base URL for canonical links and the sitemap")
	cmd.Flags().StringVar(&flags.store, "store", "", "catalog store: sqlite or memory")
	cmd.Flags().StringVar(&flags.dbPath, "db", "", "sqlite database path")
	cmd.Flags().BoolVar(&flags.demo, "demo", false, "serve an in-memory sample catalog")

	return cmd
}

func (f *serveFlags) config() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Addr: f.addr, Host: f.host},
		Store:  config.StoreConfig{Driver: config.StoreDriver(f.store), Path: f.dbPath},
		Demo:   f.demo,
	}
}

func runServe(cmd *cobra.Command, info BuildInfo, flags *serveFlags) error {
	return withApp(cmd, flags.config(), func(ctx context.Context, a *app) error {
		srv, err := server.New(server.Options{
			Catalog:         a.catalog,
			Readme:          a.readme,
			Submitter:       a.submitter,
			Refresher:       a.refresher,
			Addr:            a.cfg.Server.Addr,
			Host:            a.cfg.Server.Host,
			AdminKey:        a.cfg.Admin.APIKey,
			IndexNowKey:     a.cfg.IndexNow.Key,
			ReadTimeout:     a.cfg.Server.ReadTimeout,
			WriteTimeout:    a.cfg.Server.WriteTimeout,
			ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
			Logger:          a.logger,
		})
		if err != nil {
			return err
		}
		a.logger.Info("starting trackmcp", logging.FieldVersion, info.Version,
			"authenticated", a.github.Authenticated())
		return srv.Run(ctx)
	})
}

type mcpFlags struct {
	store  string
	dbPath string
	demo   bool
}

func newMCPCommand(info BuildInfo) *cobra.Command {
	flags := &mcpFlags{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the catalog to MCP clients over stdio",
		Long: `Speak the Model Context Protocol on stdin and stdout, exposing catalog
search, tool details, categories and READMEs as MCP tools.

Logs go to stderr so they never mix with protocol messages.

Example client entry:
  {"command": "trackmcp", "args": ["mcp"]}`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli := &config.Config{
				Store: config.StoreConfig{Driver: config.StoreDriver(flags.store), Path: flags.dbPath},
				Demo:  flags.demo,
			}
			return withApp(cmd, cli, func(ctx context.Context, a *app) error {
				s := mcpserver.New(mcpserver.Options{
					Catalog: a.catalog,
					Readme:  a.readme,
					Version: info.Version,
					Logger:  a.logger,
				})
				return s.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}

	cmd.Flags().StringVar(&flags.store, "store", "", "catalog store: sqlite or memory")
	cmd.Flags().StringVar(&flags.dbPath, "db", "", "sqlite database path")
	cmd.Flags().BoolVar(&flags.demo, "demo", false, "serve an in-memory sample catalog")

	return cmd
}
