package configloader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/trackmcp/pkg/config"
)

func isolated(dir string, env map[string]string) LoadOptions {
	return LoadOptions{
		WorkingDir:         dir,
		IgnoreSystemConfig: true,
		IgnoreUserConfig:   true,
		Getenv:             func(k string) string { return env[k] },
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	result, err := Load(context.Background(), isolated(t.TempDir(), nil))
	require.NoError(t, err)
	require.NotNil(t, result.Config)

	assert.Equal(t, config.NewConfig(), result.Config)
	assert.Empty(t, result.LoadedFrom)
}

func TestLoad_ProjectConfigUpwardSearch(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o750))
	writeFile(t, filepath.Join(root, ".trackmcp.yml"), `
server:
  addr: ":9090"
render:
  engine: commonmark
`)
	nested := filepath.Join(root, "docs", "guide")
	require.NoError(t, os.MkdirAll(nested, 0o750))

	result, err := Load(context.Background(), isolated(nested, nil))
	require.NoError(t, err)

	assert.Equal(t, ":9090", result.Config.Server.Addr)
	assert.Equal(t, "commonmark", result.Config.Render.Engine)
	assert.Equal(t, "stack", result.Config.Render.Nesting, "unset fields keep defaults")
	assert.Equal(t, []string{filepath.Join(root, ".trackmcp.yml")}, result.LoadedFrom)
}

func TestFindProjectConfig_StopsAtVCSRoot(t *testing.T) {
	t.Parallel()

	outer := t.TempDir()
	writeFile(t, filepath.Join(outer, ".trackmcp.yml"), "log:\n  level: debug\n")
	repo := filepath.Join(outer, "repo")
	require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0o750))

	path, err := FindProjectConfig(context.Background(), repo)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestLoad_Precedence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o750))
	writeFile(t, filepath.Join(dir, ".trackmcp.yml"), `
server:
  host: https://project.example
log:
  level: debug
refresh:
  concurrency: 2
`)
	explicit := filepath.Join(t.TempDir(), "explicit.yml")
	writeFile(t, explicit, `
log:
  level: warn
refresh:
  concurrency: 6
`)

	opts := isolated(dir, map[string]string{
		"TRACKMCP_LOG_LEVEL": "error",
		"GITHUB_TOKEN":       "ghp_env",
	})
	opts.ExplicitPath = explicit
	opts.CLIConfig = &config.Config{Refresh: config.RefreshConfig{Concurrency: 8}, Demo: true}

	result, err := Load(context.Background(), opts)
	require.NoError(t, err)

	cfg := result.Config
	assert.Equal(t, "https://project.example", cfg.Server.Host)
	assert.Equal(t, "error", cfg.Log.Level, "environment beats files")
	assert.Equal(t, 8, cfg.Refresh.Concurrency, "flags beat everything")
	assert.Equal(t, "ghp_env", cfg.GitHub.Token)
	assert.True(t, cfg.Demo)
	assert.Len(t, result.LoadedFrom, 2)
}

func TestLoad_PrefixedEnvBeatsBare(t *testing.T) {
	t.Parallel()

	opts := isolated(t.TempDir(), map[string]string{
		"TRACKMCP_ADMIN_API_KEY": "prefixed",
		"ADMIN_API_KEY":          "bare",
		"INDEXNOW_KEY":           "idx",
	})

	result, err := Load(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, "prefixed", result.Config.Admin.APIKey)
	assert.Equal(t, "idx", result.Config.IndexNow.Key)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "malformed yaml",
			file:    "server: [unclosed",
			wantErr: "load explicit config",
		},
		{
			name:    "invalid driver",
			file:    "store:\n  driver: postgres\n",
			wantErr: "store.driver",
		},
		{
			name:    "invalid engine",
			file:    "render:\n  engine: pandoc\n",
			wantErr: "render.engine",
		},
		{
			name:    "relative host",
			file:    "server:\n  host: trackmcp.com\n",
			wantErr: "server.host",
		},
		{
			name:    "bad env duration",
			env:     map[string]string{"TRACKMCP_REFRESH_OLDER_THAN": "soon"},
			wantErr: "invalid duration for TRACKMCP_REFRESH_OLDER_THAN",
		},
		{
			name:    "bad env bool",
			env:     map[string]string{"TRACKMCP_RENDER_HIGHLIGHT": "maybe"},
			wantErr: "invalid boolean",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := isolated(t.TempDir(), tt.env)
			if tt.file != "" {
				path := filepath.Join(t.TempDir(), "config.yml")
				writeFile(t, path, tt.file)
				opts.ExplicitPath = path
			}

			_, err := Load(context.Background(), opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_Warnings(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yml")
	writeFile(t, path, `
github:
  token: ghp_in_file
render:
  style: no-such-style
banned:
  - not a url
`)
	opts := isolated(t.TempDir(), nil)
	opts.ExplicitPath = path

	result, err := Load(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 3)
	assert.Contains(t, result.Warnings[0], "contains secrets")
	assert.Contains(t, result.Warnings[1], "render.style")
	assert.Contains(t, result.Warnings[2], "banned[0]")
}

func TestLoad_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, isolated(t.TempDir(), nil))
	require.ErrorIs(t, err, context.Canceled)
}

func TestWriteConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trackmcp", "config.yml")
	cfg := config.NewConfig()
	cfg.Refresh.OlderThan = 36 * time.Hour

	require.NoError(t, WriteConfig(context.Background(), cfg, path))

	loaded, err := loadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, 36*time.Hour, loaded.Refresh.OlderThan)
}

func TestMergeAll(t *testing.T) {
	t.Parallel()

	off := false
	merged := MergeAll(
		config.NewConfig(),
		&config.Config{Render: config.RenderConfig{Highlight: &off}},
		&config.Config{Banned: []string{"https://github.com/x/y"}},
	)
	assert.False(t, merged.Render.HighlightEnabled())
	assert.Equal(t, []string{"https://github.com/x/y"}, merged.Banned)
	assert.Equal(t, ":8080", merged.Server.Addr)

	assert.Nil(t, MergeAll())
}

func TestListEnvVars(t *testing.T) {
	t.Parallel()

	vars := ListEnvVars()
	require.NotEmpty(t, vars)
	for i := 1; i < len(vars); i++ {
		assert.Less(t, vars[i-1].Name, vars[i].Name)
	}
}
