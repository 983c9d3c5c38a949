// Package storetest checks a catalog.Store implementation against the
// behavior every backend shares.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/trackmcp/pkg/catalog"
)

// Fixture returns a small catalog spread over statuses and categories.
func Fixture() []catalog.Tool {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return []catalog.Tool{
		{RepoName: "github-mcp-server", Description: "Official GitHub MCP server", Stars: 900,
			GitHubURL: "https://github.com/github/github-mcp-server", Topics: []string{"mcp", "github"},
			Category: catalog.CategoryDeveloperKits, Status: catalog.StatusApproved,
			LastUpdated: base.Add(48 * time.Hour), CreatedAt: base},
		{RepoName: "postgres-mcp", Description: "Query Postgres databases", Stars: 400,
			GitHubURL: "https://github.com/acme/postgres-mcp", Topics: []string{"database", "sql"},
			Category: catalog.CategoryInfrastructure, Status: catalog.StatusPending,
			LastUpdated: base.Add(24 * time.Hour), CreatedAt: base.Add(time.Hour)},
		{RepoName: "slack-mcp", Description: "Chat with Slack", Stars: 250,
			GitHubURL: "https://github.com/acme/slack-mcp", Topics: []string{"chat"},
			Category: catalog.CategoryCommunication, Status: catalog.StatusApproved,
			LastUpdated: base.Add(72 * time.Hour), CreatedAt: base.Add(2 * time.Hour)},
		{RepoName: "spam-mcp", Description: "Rejected entry", Stars: 5000,
			GitHubURL: "https://github.com/acme/spam-mcp", Topics: []string{},
			Category: catalog.CategoryDeveloperKits, Status: catalog.StatusRejected,
			LastUpdated: base, CreatedAt: base.Add(3 * time.Hour)},
		{RepoName: "awesome-mcp-servers", Description: "A list", Stars: 10000,
			GitHubURL: "https://github.com/punkpeye/awesome-mcp-servers", Topics: []string{"awesome"},
			Category: catalog.CategoryOthers, Status: catalog.StatusApproved,
			LastUpdated: base, CreatedAt: base.Add(4 * time.Hour)},
	}
}

// Seed inserts the Fixture and returns the inserted tools with IDs.
func Seed(t *testing.T, s catalog.Store) []catalog.Tool {
	t.Helper()

	tools := Fixture()
	for i := range tools {
		require.NoError(t, s.InsertTool(context.Background(), &tools[i]))
	}
	return tools
}

// Run exercises a fresh store from newStore in each subtest.
func Run(t *testing.T, newStore func(t *testing.T) catalog.Store) {
	t.Helper()
	ctx := context.Background()

	names := func(tools []catalog.Tool) []string {
		out := make([]string, len(tools))
		for i, tool := range tools {
			out[i] = tool.RepoName
		}
		return out
	}

	t.Run("insert assigns ids", func(t *testing.T) {
		s := newStore(t)
		tools := Seed(t, s)
		for _, tool := range tools {
			assert.Positive(t, tool.ID)
		}
		assert.NotEqual(t, tools[0].ID, tools[1].ID)
	})

	t.Run("insert rejects duplicates case-insensitively", func(t *testing.T) {
		s := newStore(t)
		Seed(t, s)
		dup := catalog.Tool{RepoName: "Postgres-MCP", GitHubURL: "https://github.com/x/postgres-mcp"}
		require.ErrorIs(t, s.InsertTool(ctx, &dup), catalog.ErrDuplicate)
	})

	t.Run("insert defaults status", func(t *testing.T) {
		s := newStore(t)
		tool := catalog.Tool{RepoName: "fresh"}
		require.NoError(t, s.InsertTool(ctx, &tool))
		got, err := s.GetToolByID(ctx, tool.ID)
		require.NoError(t, err)
		assert.Equal(t, catalog.StatusPending, got.Status)
		assert.False(t, got.CreatedAt.IsZero())
		assert.Equal(t, []string{}, got.Topics)
	})

	t.Run("list orders by stars", func(t *testing.T) {
		s := newStore(t)
		Seed(t, s)
		got, err := s.ListTools(ctx, catalog.Filter{Statuses: catalog.VisibleStatuses}, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"awesome-mcp-servers", "github-mcp-server", "postgres-mcp", "slack-mcp"}, names(got))
	})

	t.Run("list sort orders", func(t *testing.T) {
		s := newStore(t)
		Seed(t, s)
		f := catalog.Filter{Statuses: catalog.VisibleStatuses, ExcludeNames: []string{"AWESOME-MCP-SERVERS"}}

		f.Sort = catalog.SortRecent
		got, err := s.ListTools(ctx, f, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"slack-mcp", "github-mcp-server", "postgres-mcp"}, names(got))

		f.Sort = catalog.SortName
		got, err = s.ListTools(ctx, f, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"github-mcp-server", "postgres-mcp", "slack-mcp"}, names(got))

		f.Sort = catalog.SortNewest
		got, err = s.ListTools(ctx, f, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"slack-mcp", "postgres-mcp", "github-mcp-server"}, names(got))
	})

	t.Run("list pages", func(t *testing.T) {
		s := newStore(t)
		Seed(t, s)
		f := catalog.Filter{Statuses: catalog.VisibleStatuses}
		got, err := s.ListTools(ctx, f, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"github-mcp-server", "postgres-mcp"}, names(got))

		got, err = s.ListTools(ctx, f, 10, 2)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("list filters", func(t *testing.T) {
		s := newStore(t)
		Seed(t, s)

		got, err := s.ListTools(ctx, catalog.Filter{Category: catalog.CategoryDeveloperKits}, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"spam-mcp", "github-mcp-server"}, names(got))

		got, err = s.ListTools(ctx, catalog.Filter{Query: "POSTGRES"}, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"postgres-mcp"}, names(got))

		got, err = s.ListTools(ctx, catalog.Filter{Query: "chat"}, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"slack-mcp"}, names(got))

		got, err = s.ListTools(ctx, catalog.Filter{Query: "sql"}, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"postgres-mcp"}, names(got))

		got, err = s.ListTools(ctx, catalog.Filter{Query: "100%"}, 0, 10)
		require.NoError(t, err)
		assert.Empty(t, got)

		cutoff := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
		got, err = s.ListTools(ctx, catalog.Filter{UpdatedBefore: cutoff, Statuses: catalog.VisibleStatuses}, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"awesome-mcp-servers", "postgres-mcp"}, names(got))
	})

	t.Run("list clamps limit", func(t *testing.T) {
		s := newStore(t)
		for i := range catalog.MaxPageSize + 5 {
			tool := catalog.Tool{RepoName: fmt.Sprintf("bulk-%04d", i), Stars: i, Status: catalog.StatusApproved}
			require.NoError(t, s.InsertTool(ctx, &tool))
		}
		got, err := s.ListTools(ctx, catalog.Filter{}, 0, 5000)
		require.NoError(t, err)
		assert.Len(t, got, catalog.MaxPageSize)

		n, err := s.CountTools(ctx, catalog.Filter{})
		require.NoError(t, err)
		assert.Equal(t, catalog.MaxPageSize+5, n)
	})

	t.Run("count", func(t *testing.T) {
		s := newStore(t)
		Seed(t, s)
		n, err := s.CountTools(ctx, catalog.Filter{Statuses: catalog.VisibleStatuses})
		require.NoError(t, err)
		assert.Equal(t, 4, n)
	})

	t.Run("get by name", func(t *testing.T) {
		s := newStore(t)
		Seed(t, s)
		got, err := s.GetTool(ctx, "SLACK-mcp")
		require.NoError(t, err)
		assert.Equal(t, "slack-mcp", got.RepoName)
		assert.Equal(t, []string{"chat"}, got.Topics)
		assert.True(t, got.LastUpdated.Equal(time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)))

		_, err = s.GetTool(ctx, "nope")
		require.ErrorIs(t, err, catalog.ErrNotFound)

		_, err = s.GetToolByID(ctx, 9999)
		require.ErrorIs(t, err, catalog.ErrNotFound)
	})

	t.Run("updates", func(t *testing.T) {
		s := newStore(t)
		tools := Seed(t, s)
		id := tools[1].ID

		require.NoError(t, s.UpdateStatus(ctx, id, catalog.StatusApproved))
		require.NoError(t, s.UpdateCategory(ctx, id, catalog.CategorySearch))
		stamp := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, s.UpdateMetadata(ctx, id, catalog.Metadata{
			Description: "new", Stars: 401, Language: "Go", Topics: []string{"sql"},
			DefaultBranch: "trunk", LastUpdated: stamp,
		}))

		got, err := s.GetToolByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, catalog.StatusApproved, got.Status)
		assert.Equal(t, catalog.CategorySearch, got.Category)
		assert.Equal(t, "new", got.Description)
		assert.Equal(t, 401, got.Stars)
		assert.Equal(t, "Go", got.Language)
		assert.Equal(t, []string{"sql"}, got.Topics)
		assert.Equal(t, "trunk", got.DefaultBranch)
		assert.True(t, got.LastUpdated.Equal(stamp))

		require.ErrorIs(t, s.UpdateStatus(ctx, 9999, catalog.StatusApproved), catalog.ErrNotFound)
		require.ErrorIs(t, s.UpdateCategory(ctx, 9999, "x"), catalog.ErrNotFound)
		require.ErrorIs(t, s.UpdateMetadata(ctx, 9999, catalog.Metadata{}), catalog.ErrNotFound)
	})

	t.Run("categories", func(t *testing.T) {
		s := newStore(t)
		Seed(t, s)
		got, err := s.Categories(ctx, catalog.VisibleStatuses)
		require.NoError(t, err)
		assert.Equal(t, []catalog.CategoryCount{
			{Name: catalog.CategoryCommunication, Count: 1},
			{Name: catalog.CategoryDeveloperKits, Count: 1},
			{Name: catalog.CategoryOthers, Count: 1},
			{Name: catalog.CategoryInfrastructure, Count: 1},
		}, got)

		got, err = s.Categories(ctx, nil)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Equal(t, catalog.CategoryDeveloperKits, got[0].Name)
		assert.Equal(t, 2, got[0].Count)
	})
}
