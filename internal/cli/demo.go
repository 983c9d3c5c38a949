package cli

import (
	"time"

	"github.com/yaklabco/trackmcp/pkg/catalog"
)

// demoTools is the catalog served by `serve --demo`. Dates are relative to
// now so the freshness statistics look plausible.
func demoTools(now time.Time) []catalog.Tool {
	day := 24 * time.Hour
	tool := func(owner, name, lang, desc string, stars int, category string, topics []string, age time.Duration) catalog.Tool {
		return catalog.Tool{
			RepoName:      name,
			Description:   desc,
			Stars:         stars,
			GitHubURL:     "https://github.com/" + owner + "/" + name,
			Language:      lang,
			Topics:        topics,
			Category:      category,
			Status:        catalog.StatusApproved,
			DefaultBranch: "main",
			LastUpdated:   now.Add(-age),
			CreatedAt:     now.Add(-age - 30*day),
		}
	}

	return []catalog.Tool{
		tool("github", "github-mcp-server", "Go", "GitHub's official MCP Server", 15200,
			catalog.CategoryDeveloperKits, []string{"mcp", "github"}, 2*day),
		tool("mark3labs", "mcp-go", "Go", "A Go implementation of the Model Context Protocol", 6100,
			catalog.CategoryDeveloperKits, []string{"mcp", "golang", "sdk"}, 5*day),
		tool("crystaldba", "postgres-mcp", "Python", "Postgres MCP server with index tuning and health checks", 1200,
			catalog.CategoryInfrastructure, []string{"mcp", "postgres", "database"}, 12*day),
		tool("korotovsky", "slack-mcp-server", "Go", "Slack MCP server with stdio and SSE transports", 800,
			catalog.CategoryCommunication, []string{"mcp", "slack"}, 20*day),
		tool("microsoft", "playwright-mcp", "TypeScript", "Browser automation for agents through Playwright", 14000,
			catalog.CategoryWeb, []string{"mcp", "playwright", "browser"}, day),
		tool("makenotion", "notion-mcp-server", "TypeScript", "Official Notion MCP server", 2900,
			catalog.CategoryAutomation, []string{"mcp", "notion"}, 40*day),
		tool("Flux159", "mcp-server-kubernetes", "TypeScript", "Manage Kubernetes clusters from an MCP client", 1100,
			catalog.CategoryInfrastructure, []string{"mcp", "kubernetes"}, 200*day),
	}
}
