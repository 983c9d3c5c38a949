package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yaklabco/trackmcp/pkg/catalog"
)

func TestCategorize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		repo        string
		description string
		topics      []string
		want        string
	}{
		{name: "nothing matches", repo: "x", want: catalog.CategoryOthers},
		{name: "communication", repo: "slack-bot", description: "send messages to slack", want: catalog.CategoryCommunication},
		{name: "tie keeps earlier category", repo: "postgres-mcp", description: "Query Postgres databases",
			topics: []string{"database"}, want: catalog.CategoryInfrastructure},
		{name: "topics count", repo: "x", topics: []string{"openai", "llm"}, want: catalog.CategoryAI},
		{name: "case insensitive", repo: "PDF-Reader", description: "Reads PDF Documents", want: catalog.CategoryFiles},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, catalog.Categorize(tt.repo, tt.description, tt.topics))
		})
	}
}

func TestCategorySlugAndDisplayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		slug string
	}{
		{name: catalog.CategoryAI, slug: "ai-and-machine-learning"},
		{name: catalog.CategoryWeb, slug: "web-and-internet-tools"},
		{name: catalog.CategoryCommunication, slug: "communication"},
		{name: catalog.CategoryFiles, slug: "file-and-data-management"},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.slug, catalog.CategorySlug(tt.name))
			assert.Equal(t, tt.name, catalog.DisplayName(tt.slug))
		})
	}

	assert.Equal(t, "my-big-category", catalog.CategorySlug("  My   Big\tCategory "))
}

func TestKnownCategories(t *testing.T) {
	t.Parallel()

	cats := catalog.KnownCategories()
	assert.Len(t, cats, 9)
	assert.Equal(t, catalog.CategoryAI, cats[0])
	assert.Equal(t, catalog.CategoryOthers, cats[len(cats)-1])
}

func TestSiteCategory(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"GitHub":      catalog.CategoryDeveloperKits,
		"Kaggle":      catalog.CategoryFiles,
		"Twitter":     catalog.CategoryCommunication,
		"gitlab.com":  catalog.CategoryDeveloperKits,
		"my-llm-chat": catalog.CategoryAI,
		"bigdata":     catalog.CategorySearch,
		"example.com": catalog.CategoryAI,
	}

	for site, want := range tests {
		assert.Equal(t, want, catalog.SiteCategory(site), site)
	}
}
