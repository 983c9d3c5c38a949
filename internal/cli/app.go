package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/yaklabco/trackmcp/internal/configloader"
	"github.com/yaklabco/trackmcp/internal/logging"
	"github.com/yaklabco/trackmcp/internal/store/memory"
	"github.com/yaklabco/trackmcp/internal/store/sqlite"
	"github.com/yaklabco/trackmcp/internal/ui/pretty"
	"github.com/yaklabco/trackmcp/pkg/catalog"
	"github.com/yaklabco/trackmcp/pkg/config"
	"github.com/yaklabco/trackmcp/pkg/fsutil"
	"github.com/yaklabco/trackmcp/pkg/github"
	"github.com/yaklabco/trackmcp/pkg/mdrender"
	"github.com/yaklabco/trackmcp/pkg/readme"
	"github.com/yaklabco/trackmcp/pkg/refresh"
	"github.com/yaklabco/trackmcp/pkg/submit"
)

// loadConfig resolves the configuration for cmd, layering cli on top of
// files and the environment, and installs the configured default logger.
func loadConfig(cmd *cobra.Command, cli *config.Config) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("get config flag: %w", err)
	}

	res, err := configloader.Load(commandContext(cmd), configloader.LoadOptions{
		ExplicitPath: configPath,
		CLIConfig:    cli,
	})
	if err != nil {
		return nil, errors.Join(errors.New("failed to load configuration"), err)
	}
	cfg := res.Config

	level := cfg.Log.Level
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = "debug"
	}
	logger := logging.NewWithOptions(cmd.ErrOrStderr(), logging.Options{
		Level:      level,
		Format:     string(cfg.Log.Format),
		Timestamps: cfg.Log.Format != config.LogText,
	})
	logging.SetDefault(logger)

	for _, warning := range res.Warnings {
		logger.Warn(warning)
	}
	if len(res.LoadedFrom) > 0 {
		logger.Debug("loaded configuration from", "files", res.LoadedFrom)
	}
	return cfg, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func colorMode(cmd *cobra.Command) string {
	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		return "auto"
	}
	return mode
}

func stylesFor(cmd *cobra.Command) *pretty.Styles {
	return pretty.NewStyles(pretty.IsColorEnabled(colorMode(cmd), cmd.OutOrStdout()))
}

// app holds the services a command works with.
type app struct {
	cfg       *config.Config
	logger    *log.Logger
	store     catalog.Store
	catalog   *catalog.Service
	github    *github.Client
	readme    *readme.Service
	submitter *submit.Submitter
	refresher *refresh.Refresher
}

// openApp opens the configured store and builds every service over it.
func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := logging.Default()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	token := github.NewTokenStore().Resolve(cfg.GitHub.Token)
	gh := newGitHubClient(cfg, token, logger)
	rd, err := newReadmeService(cfg, gh, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	cat := catalog.NewService(store, catalog.Options{Logger: logger})
	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		catalog: cat,
		github:  gh,
		readme:  rd,
		submitter: submit.New(cat, gh, submit.Options{
			Banned:   cfg.Banned,
			Branches: github.BranchResolver{Token: token},
			Logger:   logger,
		}),
		refresher: refresh.New(cat, gh, logger),
	}, nil
}

// Close releases the store.
func (a *app) Close() error {
	if err := a.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (catalog.Store, error) {
	if cfg.Demo || cfg.Store.Driver == config.StoreMemory {
		store := memory.New()
		if cfg.Demo {
			tools := demoTools(time.Now())
			if err := memory.Seed(ctx, store, tools); err != nil {
				return nil, fmt.Errorf("seed demo catalog: %w", err)
			}
			logger.Info("using demo catalog", logging.FieldCount, len(tools))
		}
		return store, nil
	}

	path := cfg.Store.Path
	if path != sqlite.MemoryPath {
		if err := fsutil.EnsureDir(filepath.Dir(path)); err != nil {
			return nil, err
		}
	}
	store, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	logger.Debug("opened catalog", logging.FieldPath, path)
	return store, nil
}

func newGitHubClient(cfg *config.Config, token string, logger *log.Logger) *github.Client {
	return github.NewClient(github.Options{
		BaseURL:    cfg.GitHub.BaseURL,
		Token:      token,
		CacheTTL:   cfg.GitHub.CacheTTL,
		CacheSize:  cfg.GitHub.CacheSize,
		MaxRetries: cfg.GitHub.MaxRetries,
		HTTPClient: &http.Client{Timeout: cfg.GitHub.Timeout},
		Logger:     logger,
	})
}

func newReadmeService(cfg *config.Config, src readme.Source, logger *log.Logger) (*readme.Service, error) {
	engine, err := readme.ParseEngine(cfg.Render.Engine)
	if err != nil {
		return nil, err
	}
	mdOpts, err := markdownOptions(cfg.Render.Nesting, cfg.Render.StripHTML)
	if err != nil {
		return nil, err
	}
	return readme.New(src, readme.Options{
		Engine:    engine,
		Markdown:  mdOpts,
		Highlight: cfg.Render.HighlightEnabled(),
		Style:     cfg.Render.Style,
		Logger:    logger,
	}), nil
}

func markdownOptions(nesting, strip string) (mdrender.Options, error) {
	n, err := mdrender.ParseNesting(nesting)
	if err != nil {
		return mdrender.Options{}, err
	}
	s, err := mdrender.ParseStripMode(strip)
	if err != nil {
		return mdrender.Options{}, err
	}
	return mdrender.Options{Nesting: n, StripHTML: s}, nil
}

// withApp loads configuration, opens the app and runs fn with it.
func withApp(cmd *cobra.Command, cli *config.Config, fn func(ctx context.Context, a *app) error) (err error) {
	cfg, err := loadConfig(cmd, cli)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(logging.WithLogger(ctx, a.logger), a)
}

func writeOut(cmd *cobra.Command, s string) error {
	_, err := fmt.Fprint(cmd.OutOrStdout(), s)
	return err
}
