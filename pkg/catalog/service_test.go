package catalog_test

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/trackmcp/internal/store/memory"
	"github.com/yaklabco/trackmcp/internal/store/storetest"
	"github.com/yaklabco/trackmcp/pkg/catalog"
)

type countingStore struct {
	*memory.Store
	lists atomic.Int32
}

func (c *countingStore) ListTools(ctx context.Context, f catalog.Filter, offset, limit int) ([]catalog.Tool, error) {
	c.lists.Add(1)
	return c.Store.ListTools(ctx, f, offset, limit)
}

func newService(t *testing.T) (*catalog.Service, []catalog.Tool) {
	t.Helper()

	store := memory.New()
	tools := storetest.Seed(t, store)
	extra := catalog.Tool{
		RepoName: "gitlab-mcp", Description: "GitLab integration", Stars: 100,
		Category: catalog.CategoryDeveloperKits, Status: catalog.StatusApproved,
	}
	require.NoError(t, store.InsertTool(context.Background(), &extra))

	return catalog.NewService(store, catalog.Options{Logger: log.New(io.Discard)}), append(tools, extra)
}

func repoNames(tools []catalog.Tool) []string {
	out := make([]string, len(tools))
	for i, t := range tools {
		out[i] = t.RepoName
	}
	return out
}

func TestAllFetchesEveryBatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &countingStore{Store: memory.New()}
	const total = 2*catalog.MaxPageSize + 500
	for i := range total {
		tool := catalog.Tool{RepoName: fmt.Sprintf("tool-%05d", i), Stars: i, Status: catalog.StatusApproved}
		require.NoError(t, store.InsertTool(ctx, &tool))
	}

	svc := catalog.NewService(store, catalog.Options{Logger: log.New(io.Discard)})
	all, err := svc.All(ctx, catalog.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, total)
	assert.Equal(t, int32(3), store.lists.Load())
	assert.Equal(t, total-1, all[0].Stars)
}

func TestAllStopsOnExactMultiple(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &countingStore{Store: memory.New()}
	for i := range catalog.MaxPageSize {
		tool := catalog.Tool{RepoName: fmt.Sprintf("tool-%05d", i), Status: catalog.StatusApproved}
		require.NoError(t, store.InsertTool(ctx, &tool))
	}

	svc := catalog.NewService(store, catalog.Options{Logger: log.New(io.Discard)})
	all, err := svc.All(ctx, catalog.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, catalog.MaxPageSize)
	assert.Equal(t, int32(2), store.lists.Load())
}

func TestVisibilityRules(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	all, err := svc.All(context.Background(), catalog.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"github-mcp-server", "postgres-mcp", "slack-mcp", "gitlab-mcp"}, repoNames(all))
}

func TestSearch(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()

	got, err := svc.Search(ctx, "mcp", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"github-mcp-server", "postgres-mcp"}, repoNames(got))

	got, err = svc.Search(ctx, "Slack", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"slack-mcp"}, repoNames(got))

	got, err = svc.Search(ctx, "  ", 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = svc.Search(ctx, "spam", 0)
	require.NoError(t, err)
	assert.Empty(t, got, "rejected tools are not searchable")
}

func TestSearchFuzzyFallback(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	got, err := svc.Search(context.Background(), "gthbsrv", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"github-mcp-server"}, repoNames(got))
}

func TestTrendingRecentNewest(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()

	got, err := svc.Trending(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"github-mcp-server", "postgres-mcp"}, repoNames(got))

	got, err = svc.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = svc.Newest(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"gitlab-mcp"}, repoNames(got))
}

func TestPage(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	p, err := svc.Page(context.Background(), catalog.Filter{}, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Total)
	assert.Equal(t, 2, p.Pages)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, []string{"gitlab-mcp"}, repoNames(p.Tools))

	p, err = svc.Page(context.Background(), catalog.Filter{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, catalog.CategoryPageSize, p.PageSize)
}

func TestCategories(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()

	cats, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, cats)
	assert.Equal(t, catalog.CategoryDeveloperKits, cats[0].Name)
	assert.Equal(t, "developer-kits", cats[0].Slug)
	assert.Equal(t, 2, cats[0].Count)

	cat, page, err := svc.ByCategory(ctx, "developer-kits", 1)
	require.NoError(t, err)
	assert.Equal(t, catalog.CategoryDeveloperKits, cat.Name)
	assert.Equal(t, []string{"github-mcp-server", "gitlab-mcp"}, repoNames(page.Tools))

	_, _, err = svc.ByCategory(ctx, "nope", 1)
	require.ErrorIs(t, err, catalog.ErrNotFound)

	top, err := svc.TopByCategory(ctx, catalog.CategoryDeveloperKits, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"github-mcp-server"}, repoNames(top))
}

func TestGetTool(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()

	got, err := svc.GetTool(ctx, "GitHub-MCP-Server")
	require.NoError(t, err)
	assert.Equal(t, "github-mcp-server", got.RepoName)

	for _, name := range []string{"README", "license", "Contributing", "notes.md", "todo.txt", "awesome-mcp-servers", "spam-mcp", "missing", ""} {
		_, err := svc.GetTool(ctx, name)
		require.ErrorIs(t, err, catalog.ErrNotFound, name)
	}
}

func TestSimilar(t *testing.T) {
	t.Parallel()

	svc, tools := newService(t)
	got, err := svc.Similar(context.Background(), &tools[0], 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"gitlab-mcp"}, repoNames(got))

	got, err = svc.Similar(context.Background(), &catalog.Tool{}, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLookup(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()

	res, err := svc.Lookup(ctx, "Twitter")
	require.NoError(t, err)
	assert.Equal(t, catalog.CategoryCommunication, res.Category)
	assert.Equal(t, []string{"slack-mcp"}, repoNames(res.MCPs))

	res, err = svc.Lookup(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, res.Category)
	assert.NotNil(t, res.MCPs)
}

func TestSuggest(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()

	got, err := svc.Suggest(ctx, "GIT", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"github-mcp-server", "gitlab-mcp"}, got)

	got, err = svc.Suggest(ctx, "git", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"github-mcp-server"}, got)

	got, err = svc.Suggest(ctx, "awesome", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	tool := catalog.Tool{RepoName: "gitea-mcp", Status: catalog.StatusApproved}
	require.NoError(t, svc.Insert(ctx, &tool))

	got, err = svc.Suggest(ctx, "gite", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"gitea-mcp"}, got, "index rebuilt after insert")
}

func TestStats(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	st, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, st.Tools)
	assert.Equal(t, 900+400+250+100, st.Stars)
	assert.Positive(t, st.Categories)
}

func TestSetStatus(t *testing.T) {
	t.Parallel()

	svc, tools := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.SetStatus(ctx, tools[1].ID, catalog.StatusRejected))
	_, err := svc.GetTool(ctx, "postgres-mcp")
	require.ErrorIs(t, err, catalog.ErrNotFound)

	require.ErrorIs(t, svc.SetStatus(ctx, tools[1].ID, "bogus"), catalog.ErrInvalidStatus)
	require.ErrorIs(t, svc.SetStatus(ctx, 9999, catalog.StatusApproved), catalog.ErrNotFound)
}

func TestRecategorize(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()

	tool := catalog.Tool{RepoName: "notify-bot", Description: "Slack notification relay", Status: catalog.StatusPending}
	require.NoError(t, svc.Insert(ctx, &tool))

	n, err := svc.Recategorize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := svc.GetTool(ctx, "notify-bot")
	require.NoError(t, err)
	assert.Equal(t, catalog.CategoryCommunication, got.Category)
}
