// Package mcpserver exposes the catalog to MCP clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/yaklabco/trackmcp/internal/logging"
	"github.com/yaklabco/trackmcp/pkg/catalog"
	"github.com/yaklabco/trackmcp/pkg/mdrender"
	"github.com/yaklabco/trackmcp/pkg/readme"
)

// Name is the server name reported to clients.
const Name = "trackmcp"

// Tool names.
const (
	ToolSearch     = "search_tools"
	ToolGet        = "get_tool"
	ToolCategories = "list_categories"
	ToolTop        = "top_tools"
	ToolReadme     = "get_readme"
)

const defaultResultLimit = 10

// Options configures a Server. Readme may be nil, which leaves get_readme
// unregistered.
type Options struct {
	Catalog *catalog.Service
	Readme  *readme.Service
	Version string
	Logger  *log.Logger
}

// Server is an MCP server over a catalog.
type Server struct {
	opts   Options
	logger *log.Logger
	mcp    *server.MCPServer
}

// New builds a Server with every catalog tool registered.
func New(opts Options) *Server {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}

	s := &Server{
		opts:   opts,
		logger: logger,
		mcp:    server.NewMCPServer(Name, opts.Version, server.WithToolCapabilities(false)),
	}
	s.register()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) register() {
	s.mcp.AddTool(mcp.NewTool(ToolSearch,
		mcp.WithDescription("Search MCP servers and tools by name, description or topic. Results are ordered by GitHub stars."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Text to search for")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10, at most 100)")),
	), s.searchTools)

	s.mcp.AddTool(mcp.NewTool(ToolGet,
		mcp.WithDescription("Get catalog details of one MCP tool by repository name."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Repository name, e.g. github-mcp-server")),
	), s.getTool)

	s.mcp.AddTool(mcp.NewTool(ToolCategories,
		mcp.WithDescription("List catalog categories with the number of tools in each."),
	), s.listCategories)

	s.mcp.AddTool(mcp.NewTool(ToolTop,
		mcp.WithDescription("List the most starred tools, optionally within one category."),
		mcp.WithString("category", mcp.Description("Category name as returned by list_categories")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)")),
	), s.topTools)

	if s.opts.Readme != nil {
		s.mcp.AddTool(mcp.NewTool(ToolReadme,
			mcp.WithDescription("Get the README of a tool as cleaned-up Markdown."),
			mcp.WithString("name", mcp.Required(), mcp.Description("Repository name")),
		), s.getReadme)
	}
}

// Serve speaks the MCP stdio protocol on in and out until ctx is canceled
// or in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel}))

	s.logger.Debug("mcp server listening on stdio", logging.FieldVersion, s.opts.Version)
	err := stdio.Listen(ctx, in, out)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("mcp stdio: %w", err)
}

// toolSummary is the shape tools are reported in.
type toolSummary struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Stars       int      `json:"stars"`
	URL         string   `json:"github_url"`
	Category    string   `json:"category,omitempty"`
	Language    string   `json:"language,omitempty"`
	Topics      []string `json:"topics,omitempty"`
	Status      string   `json:"status,omitempty"`
	LastUpdated string   `json:"last_updated,omitempty"`
}

func summarize(t *catalog.Tool, detail bool) toolSummary {
	sum := toolSummary{
		Name:        t.RepoName,
		Description: t.Description,
		Stars:       t.Stars,
		URL:         t.GitHubURL,
		Category:    t.Category,
	}
	if detail {
		sum.Language = t.Language
		sum.Topics = t.Topics
		sum.Status = string(t.Status)
		if !t.LastUpdated.IsZero() {
			sum.LastUpdated = t.LastUpdated.UTC().Format("2006-01-02")
		}
	}
	return sum
}

func summarizeAll(tools []catalog.Tool) []toolSummary {
	out := make([]toolSummary, 0, len(tools))
	for i := range tools {
		out = append(out, summarize(&tools[i], false))
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// failure reports catalog misses as tool errors the model can read and
// everything else as protocol errors.
func (s *Server) failure(tool string, err error) (*mcp.CallToolResult, error) {
	if errors.Is(err, catalog.ErrNotFound) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.logger.Error("mcp tool failed", "tool", tool, logging.FieldError, err)
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", tool, err)), nil
}

func (s *Server) searchTools(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil || strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	limit := req.GetInt("limit", defaultResultLimit)

	tools, err := s.opts.Catalog.Search(ctx, query, limit)
	if err != nil {
		return s.failure(ToolSearch, err)
	}
	return jsonResult(summarizeAll(tools))
}

func (s *Server) getTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name is required"), nil
	}
	tool, err := s.opts.Catalog.GetTool(ctx, name)
	if err != nil {
		return s.failure(ToolGet, err)
	}
	return jsonResult(summarize(tool, true))
}

func (s *Server) listCategories(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cats, err := s.opts.Catalog.Categories(ctx)
	if err != nil {
		return s.failure(ToolCategories, err)
	}
	if cats == nil {
		cats = []catalog.CategoryCount{}
	}
	return jsonResult(cats)
}

func (s *Server) topTools(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := strings.TrimSpace(req.GetString("category", ""))
	limit := req.GetInt("limit", defaultResultLimit)

	var (
		tools []catalog.Tool
		err   error
	)
	if category == "" {
		tools, err = s.opts.Catalog.Trending(ctx, limit)
	} else {
		tools, err = s.opts.Catalog.TopByCategory(ctx, category, limit)
	}
	if err != nil {
		return s.failure(ToolTop, err)
	}
	return jsonResult(summarizeAll(tools))
}

func (s *Server) getReadme(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name is required"), nil
	}
	tool, err := s.opts.Catalog.GetTool(ctx, name)
	if err != nil {
		return s.failure(ToolReadme, err)
	}
	page, err := s.opts.Readme.Page(ctx, tool)
	if err != nil {
		return s.failure(ToolReadme, err)
	}
	if page.Missing {
		return mcp.NewToolResultText(tool.RepoName + " has no README."), nil
	}
	return mcp.NewToolResultText(mdrender.Markdown(page.Blocks)), nil
}
