package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/yaklabco/trackmcp/internal/cli"
	"github.com/yaklabco/trackmcp/internal/store/memory"
	"github.com/yaklabco/trackmcp/internal/store/sqlite"
	"github.com/yaklabco/trackmcp/internal/store/storetest"
	"github.com/yaklabco/trackmcp/pkg/catalog"
	"github.com/yaklabco/trackmcp/pkg/reporter"
)

func TestMain(m *testing.M) {
	keyring.MockInit()
	os.Exit(m.Run())
}

const readmeMarkdown = "# Hello World\n\nSome **bold** text.\n\n- one\n- two\n"

// fakeGitHub serves repository metadata keyed by "owner/repo".
func fakeGitHub(t *testing.T, repos map[string]map[string]any) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/repos/"), "/")
		if len(parts) < 2 {
			http.NotFound(w, r)
			return
		}
		repo, ok := repos[parts[0]+"/"+parts[1]]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if len(parts) == 3 && parts[2] == "readme" {
			_, _ = w.Write([]byte(readmeMarkdown))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(repo)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type env struct {
	dir    string
	config string
}

// newEnv seeds a sqlite catalog with the store fixture and writes a config
// file pointing at it and at a fake GitHub API.
func newEnv(t *testing.T, extraYAML string) *env {
	t.Helper()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "catalog.db")

	ctx := context.Background()
	store, err := sqlite.Open(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, memory.Seed(ctx, store, storetest.Fixture()))
	require.NoError(t, store.Close())

	gh := fakeGitHub(t, map[string]map[string]any{
		"github/github-mcp-server": {
			"name": "github-mcp-server", "description": "Official GitHub MCP server",
			"stargazers_count": 1200, "language": "Go", "topics": []string{"mcp", "github"},
			"updated_at": time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), "default_branch": "main",
			"owner": map[string]any{"login": "github", "avatar_url": "https://avatars.example/github"},
		},
		"acme/weather-mcp": {
			"name": "weather-mcp", "description": "Weather forecasts over MCP",
			"stargazers_count": 42, "language": "TypeScript", "topics": []string{"weather"},
			"updated_at": time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC), "default_branch": "main",
			"owner": map[string]any{"login": "acme", "avatar_url": "https://avatars.example/acme"},
		},
	})

	cfgPath := filepath.Join(dir, "trackmcp.yml")
	content := "server:\n  host: https://example.test\n" +
		"store:\n  driver: sqlite\n  path: " + dbPath + "\n" +
		"github:\n  base_url: " + gh.URL + "\n" +
		extraYAML
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))

	return &env{dir: dir, config: cfgPath}
}

// run executes trackmcp with args and returns stdout, stderr and the error.
func (e *env) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	cmd := cli.NewRootCommand(testInfo())
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", e.config, "--color", "never"}, args...))

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func decodeTools(t *testing.T, out string) []catalog.Tool {
	t.Helper()

	var listing reporter.JSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &listing))
	require.Len(t, listing.Tools, listing.Count)
	return listing.Tools
}

func toolNames(tools []catalog.Tool) []string {
	names := make([]string, len(tools))
	for i, tool := range tools {
		names[i] = tool.RepoName
	}
	return names
}

func TestIntegration_Render(t *testing.T) {
	t.Parallel()

	e := newEnv(t, "")
	mdFile := filepath.Join(e.dir, "README.md")
	require.NoError(t, os.WriteFile(mdFile, []byte(readmeMarkdown), 0o644))

	tests := []struct {
		name         string
		args         []string
		stdin        string
		wantContains []string
	}{
		{
			name:         "html from file",
			args:         []string{"render", mdFile},
			wantContains: []string{`<h1 id="hello-world">`, "<strong>bold</strong>"},
		},
		{
			name:         "tree from stdin",
			args:         []string{"render", "-", "--format", "tree"},
			stdin:        readmeMarkdown,
			wantContains: []string{"heading h1 #hello-world"},
		},
		{
			name:         "markdown",
			args:         []string{"render", mdFile, "-f", "markdown"},
			wantContains: []string{"# Hello World", "**bold**"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stdout, _, err := e.run(t, tt.stdin, tt.args...)
			require.NoError(t, err)
			for _, want := range tt.wantContains {
				assert.Contains(t, stdout, want)
			}
		})
	}
}

func TestIntegration_RenderToFile(t *testing.T) {
	t.Parallel()

	e := newEnv(t, "")
	out := filepath.Join(e.dir, "out.html")

	stdout, _, err := e.run(t, readmeMarkdown, "render", "-", "-o", out)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<strong>bold</strong>")
}

func TestIntegration_RenderBadFormat(t *testing.T) {
	t.Parallel()

	e := newEnv(t, "")
	_, _, err := e.run(t, readmeMarkdown, "render", "-", "--format", "pdf")
	require.Error(t, err)
	assert.Equal(t, cli.ExitUsage, cli.ExitCode(err))
}

func TestIntegration_RenderMissingFile(t *testing.T) {
	t.Parallel()

	e := newEnv(t, "")
	_, _, err := e.run(t, "", "render", filepath.Join(e.dir, "missing.md"))
	require.Error(t, err)
	assert.Equal(t, cli.ExitIOError, cli.ExitCode(err))
}

func TestIntegration_Search(t *testing.T) {
	t.Parallel()

	e := newEnv(t, "")

	stdout, _, err := e.run(t, "", "search", "postgres", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, stdout, "postgres-mcp")
	assert.NotContains(t, stdout, "spam-mcp")

	stdout, _, err = e.run(t, "", "search", "mcp", "-f", "json", "-n", "2")
	require.NoError(t, err)
	assert.Len(t, decodeTools(t, stdout), 2)
}

func TestIntegration_ListByStatus(t *testing.T) {
	t.Parallel()

	e := newEnv(t, "")

	stdout, _, err := e.run(t, "", "list", "--status", "rejected", "-f", "json")
	require.NoError(t, err)
	assert.Equal(t, []string{"spam-mcp"}, toolNames(decodeTools(t, stdout)))

	stdout, _, err = e.run(t, "", "list", "--status", "rejected", "-f", "text")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[rejected]")
	assert.Contains(t, stdout, "#4 ")
}

func TestIntegration_ListByCategorySlug(t *testing.T) {
	t.Parallel()

	e := newEnv(t, "")

	stdout, _, err := e.run(t, "", "list", "--category", "communication", "-f", "json")
	require.NoError(t, err)
	assert.Equal(t, []string{"slack-mcp"}, toolNames(decodeTools(t, stdout)))
}

func TestIntegration_ListBadSort(t *testing.T) {
	t.Parallel()

	e := newEnv(t, "")
	_, _, err := e.run(t, "", "list", "--sort", "sideways")
	require.Error(t, err)
	assert.Equal(t, cli.ExitUsage, cli.ExitCode(err))
}

func TestIntegration_Categories(t *testing.T) {
	t.Parallel()

	e := newEnv(t, "")

	stdout, _, err := e.run(t, "", "categories", "--json")
	require.NoError(t, err)

	var cats []catalog.CategoryCount
	require.NoError(t, json.Unmarshal([]byte(stdout), &cats))
	assert.Contains(t, cats, catalog.CategoryCount{
		Name:  catalog.CategoryCommunication,
		Slug:  catalog.CategorySlug(catalog.CategoryCommunication),
		Count: 1,
	})
}

func TestIntegration_Moderate(t *testing.T) {
	t.Parallel()

	e := newEnv(t, "")

	stdout, _, err := e.run(t, "", "moderate", "approve", "4")
	require.NoError(t, err)
	assert.Equal(t, "4 approved\n", stdout)

	stdout, _, err = e.run(t, "", "list", "--status", "approved", "-f", "json", "-n", "0")
	require.NoError(t, err)
	assert.Contains(t, toolNames(decodeTools(t, stdout)), "spam-mcp")

	_, _, err = e.run(t, "", "moderate", "reject", "abc")
	require.Error(t, err)
	assert.Equal(t, cli.ExitUsage, cli.ExitCode(err))
}

func TestIntegration_Submit(t *testing.T) {
	t.Parallel()

	e := newEnv(t, "")

	stdout, _, err := e.run(t, "", "submit", "https://github.com/acme/weather-mcp", "--email", "dev@example.com")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Submitted for review")
	assert.Contains(t, stdout, "weather-mcp")

	stdout, _, err = e.run(t, "", "list", "--status", "pending", "-f", "json")
	require.NoError(t, err)
	assert.Contains(t, toolNames(decodeTools(t, stdout)), "weather-mcp")

	_, _, err = e.run(t, "", "submit", "https://github.com/acme/weather-mcp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already been submitted")

	_, _, err = e.run(t, "", "submit", "https://github.com/acme/unknown-mcp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repository not found")
}

func TestIntegration_Refresh(t *testing.T) {
	t.Parallel()

	e := newEnv(t, "")

	stdout, _, err := e.run(t, "", "refresh", "--id", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "github-mcp-server")

	stdout, _, err = e.run(t, "", "search", "github-mcp-server", "-f", "json")
	require.NoError(t, err)
	tools := decodeTools(t, stdout)
	require.NotEmpty(t, tools)
	assert.Equal(t, 1200, tools[0].Stars)
}

func TestIntegration_Sitemap(t *testing.T) {
	t.Parallel()

	e := newEnv(t, "")
	out := filepath.Join(e.dir, "public", "sitemap.xml")
	robots := filepath.Join(e.dir, "public", "robots.txt")

	_, _, err := e.run(t, "", "sitemap", "-o", out, "--robots", robots)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<loc>https://example.test/tool/github-mcp-server</loc>")
	assert.Contains(t, string(data), "<loc>https://example.test/category/communication</loc>")
	assert.NotContains(t, string(data), "spam-mcp")

	data, err = os.ReadFile(robots)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Sitemap: https://example.test/sitemap.xml")
}

func TestIntegration_IndexNowDryRun(t *testing.T) {
	t.Parallel()

	e := newEnv(t, "")

	stdout, _, err := e.run(t, "", "indexnow", "--dry-run")
	require.NoError(t, err)
	urls := strings.Split(strings.TrimSpace(stdout), "\n")
	assert.Contains(t, urls, "https://example.test/")
	assert.Contains(t, urls, "https://example.test/tool/slack-mcp")
}

func TestIntegration_ShowFileRaw(t *testing.T) {
	t.Parallel()

	e := newEnv(t, "")
	mdFile := filepath.Join(e.dir, "README.md")
	require.NoError(t, os.WriteFile(mdFile, []byte(readmeMarkdown), 0o644))

	stdout, _, err := e.run(t, "", "show", "--file", mdFile, "--raw")
	require.NoError(t, err)
	assert.Contains(t, stdout, "# Hello World")
	assert.Contains(t, stdout, "**bold**")

	_, _, err = e.run(t, "", "show")
	require.Error(t, err)
	assert.Equal(t, cli.ExitUsage, cli.ExitCode(err))
}

func TestIntegration_Config(t *testing.T) {
	t.Parallel()

	e := newEnv(t, "admin:\n  api_key: s3cret-admin-key\n")

	stdout, _, err := e.run(t, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "<redacted>")
	assert.NotContains(t, stdout, "s3cret-admin-key")
	assert.Contains(t, stdout, "https://example.test")

	out := filepath.Join(e.dir, "init", "trackmcp.yml")
	_, _, err = e.run(t, "", "config", "init", "-o", out)
	require.NoError(t, err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# trackmcp configuration"))

	_, _, err = e.run(t, "", "config", "init", "-o", out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = e.run(t, "", "config", "init", "-o", out, "--force")
	require.NoError(t, err)

	stdout, _, err = e.run(t, "", "config", "env")
	require.NoError(t, err)
	assert.Contains(t, stdout, "TRACKMCP_GITHUB_TOKEN")
}

func TestIntegration_InvalidConfig(t *testing.T) {
	t.Parallel()

	e := newEnv(t, "log:\n  level: loud\n")
	_, _, err := e.run(t, "", "categories")
	require.Error(t, err)
	assert.Equal(t, cli.ExitConfigError, cli.ExitCode(err))
}

//nolint:paralleltest // Uses t.Setenv and the shared mock keyring.
func TestIntegration_Auth(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("TRACKMCP_GITHUB_TOKEN", "")

	e := newEnv(t, "")

	stdout, _, err := e.run(t, "", "auth", "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Not logged in")

	stdout, _, err = e.run(t, "", "auth", "login", "--token", "ghp_abcdefghijklmnop1234")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Token stored")
	assert.NotContains(t, stdout, "ghp_abcdefghijklmnop1234")

	stdout, _, err = e.run(t, "", "auth", "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "keyring")

	_, _, err = e.run(t, "", "auth", "logout")
	require.NoError(t, err)

	_, _, err = e.run(t, "\n", "auth", "login")
	require.Error(t, err)
	assert.Equal(t, cli.ExitUsage, cli.ExitCode(err))
}

func TestIntegration_Version(t *testing.T) {
	t.Parallel()

	e := newEnv(t, "")
	stdout, _, err := e.run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "trackmcp")
	assert.Contains(t, stdout, "1.2.3")
}
