// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the published showcase to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/showcase/internal/apperr"
	"github.com/starford/showcase/internal/catalog"
	"github.com/starford/showcase/internal/models"
	"github.com/starford/showcase/internal/query"
)

// FormatResourceURI identifies the frontmatter contract resource.
const FormatResourceURI = "showcase://frontmatter-format"

// Server wraps the MCP server with showcase tools.
type Server struct {
	mcp      *server.MCPServer
	catalogs *catalog.Holder
}

// projectSummary is the compact listing entry returned by list and search.
type projectSummary struct {
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Tagline  string `json:"tagline"`
	Category string `json:"category"`
	Status   string `json:"status"`
	Priority int    `json:"portfolio_priority"`
	Featured bool   `json:"portfolio_featured"`
	Stars    int    `json:"github_stars"`
}

// New creates a new MCP server reading from catalogs.
func New(catalogs *catalog.Holder, version string) *Server {
	s := &Server{catalogs: catalogs}

	s.mcp = server.NewMCPServer(
		"Showcase",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List published portfolio projects, optionally filtered by category and sorted."),
		mcp.WithString("category", mcp.Description("Category to filter by, or \"all\" (default)")),
		mcp.WithString("sort", mcp.Description("Sort mode: priority (default), recent or popular")),
	), s.listProjects)

	s.mcp.AddTool(mcp.NewTool("get_project",
		mcp.WithDescription("Return the full published record of one project, including its Markdown body."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Project slug (e.g. invoice-bot)")),
	), s.getProject)

	s.mcp.AddTool(mcp.NewTool("search_projects",
		mcp.WithDescription("Search published projects by title, tagline, tags, tech stack and body."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchProjects)

	s.mcp.AddTool(mcp.NewTool("get_frontmatter_contract",
		mcp.WithDescription("Returns the PORTFOLIO.md frontmatter contract. "+
			"Call this before writing or editing a project document."),
	), s.getFrontmatterContract)

	s.mcp.AddResource(
		mcp.NewResource(FormatResourceURI, "Frontmatter Format Contract",
			mcp.WithResourceDescription("Header format every project document must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listProjects(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := req.GetString("category", models.CategoryAll)
	if !query.ValidCategory(category) {
		return mcp.NewToolResultError(fmt.Sprintf("unknown category: %s", category)), nil
	}
	mode, err := query.ParseSortMode(req.GetString("sort", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(summaries(s.catalogs.Current().View(category, mode)))
}

func (s *Server) getProject(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.catalogs.Current().Project(slug)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(p)
}

func (s *Server) searchProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.catalogs.Current().Search(ctx, q, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(summaries(results))
}

func (s *Server) getFrontmatterContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FrontmatterContract), nil
}

func (s *Server) readFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      FormatResourceURI,
			MIMEType: "text/markdown",
			Text:     FrontmatterContract,
		},
	}, nil
}

func summaries(projects []models.Project) []projectSummary {
	out := make([]projectSummary, len(projects))
	for i, p := range projects {
		out[i] = projectSummary{
			Slug:     p.Slug,
			Title:    p.Title,
			Tagline:  p.Tagline,
			Category: p.Category,
			Status:   p.Status,
			Priority: p.PortfolioPriority,
			Featured: p.PortfolioFeatured,
			Stars:    p.GitHubStars,
		}
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
