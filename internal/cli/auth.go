package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yaklabco/trackmcp/pkg/github"
)

func newAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the stored GitHub token",
		Long: `Store a GitHub personal access token in the OS keyring. Authenticated
requests get a far higher rate limit, which refresh runs need.

GITHUB_TOKEN and github.token take precedence over the stored token.`,
	}

	cmd.AddCommand(newAuthLoginCommand())
	cmd.AddCommand(newAuthLogoutCommand())
	cmd.AddCommand(newAuthStatusCommand())
	return cmd
}

func newAuthLoginCommand() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a GitHub token in the keyring",
		Long: `Store a GitHub token. Without --token it is read from stdin, with a
hidden prompt when stdin is a terminal.

Examples:
  trackmcp auth login
  gh auth token | trackmcp auth login`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" {
				var err error
				if token, err = readToken(cmd); err != nil {
					return err
				}
			}
			if err := github.NewTokenStore().Save(token); err != nil {
				return err
			}
			styles := stylesFor(cmd)
			return writeOut(cmd, styles.Success.Render("Token stored")+" "+styles.Dim.Render(github.MaskToken(strings.TrimSpace(token)))+"\n")
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "token to store")
	return cmd
}

// readToken prompts on a terminal and otherwise reads the first line of stdin.
func readToken(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "GitHub token: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read token: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("%w: no token given", ErrUsage)
	}
	return line, nil
}

func newAuthLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored GitHub token",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := github.NewTokenStore().Delete(); err != nil {
				return err
			}
			return writeOut(cmd, "Token removed\n")
		},
	}
}

func newAuthStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which GitHub token is in use",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			styles := stylesFor(cmd)

			if cfg.GitHub.Token != "" {
				return writeOut(cmd, styles.KeyValue("token", github.MaskToken(cfg.GitHub.Token))+
					styles.KeyValue("source", "environment or config"))
			}
			token, err := github.NewTokenStore().Load()
			switch {
			case errors.Is(err, github.ErrNoToken):
				return writeOut(cmd, styles.Warning.Render("Not logged in")+
					styles.Dim.Render("; requests are limited to 60 per hour")+"\n")
			case err != nil:
				return err
			}
			return writeOut(cmd, styles.KeyValue("token", github.MaskToken(token))+styles.KeyValue("source", "keyring"))
		},
	}
}
