package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yaklabco/trackmcp/internal/configloader"
	"github.com/yaklabco/trackmcp/internal/logging"
	"github.com/yaklabco/trackmcp/pkg/config"
)

// projectConfigName is the file "config init --project" writes.
const projectConfigName = ".trackmcp.yml"

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create and inspect configuration",
	}

	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigEnvCommand())
	return cmd
}

type configInitFlags struct {
	force   bool
	project bool
	output  string
}

func newConfigInitCommand() *cobra.Command {
	flags := &configInitFlags{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the defaults",
		Long: `Write the default configuration to the user config file, or with
--project to .trackmcp.yml in the current directory.

Secrets such as the GitHub token and admin key are better supplied through
environment variables or "trackmcp auth login" than kept in this file.

Examples:
  trackmcp config init
  trackmcp config init --project
  trackmcp config init -o deploy/trackmcp.yml --force`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "overwrite an existing file")
	cmd.Flags().BoolVar(&flags.project, "project", false, "write "+projectConfigName+" in the current directory")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file path")

	return cmd
}

func runConfigInit(cmd *cobra.Command, flags *configInitFlags) error {
	logger := logging.Default()

	path := flags.output
	switch {
	case path != "":
	case flags.project:
		path = projectConfigName
	default:
		path = configloader.UserConfigPath()
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if _, err := os.Stat(absPath); err == nil {
		if !flags.force {
			return fmt.Errorf("file %q already exists; use --force to overwrite", path)
		}
		logger.Warn("overwriting existing file", logging.FieldPath, path)
	}

	if err := configloader.WriteConfig(commandContext(cmd), config.NewConfig(), absPath); err != nil {
		return err
	}
	logger.Info("created configuration file", logging.FieldPath, absPath)
	return nil
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Long: `Print the configuration after merging every file, the environment and
defaults. Secrets are masked.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			out, err := cfg.Redacted().ToYAML()
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			return writeOut(cmd, string(out))
		},
	}
}

func newConfigEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List supported environment variables",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			vars := configloader.ListEnvVars()
			width := 0
			for _, v := range vars {
				width = max(width, len(v.Name))
			}
			styles := stylesFor(cmd)

			var b strings.Builder
			for _, v := range vars {
				fmt.Fprintf(&b, "%s  %s\n", styles.Key.Render(fmt.Sprintf("%-*s", width, v.Name)), v.Description)
			}
			return writeOut(cmd, b.String())
		},
	}
}
