package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/showcase/internal/catalog"
	"github.com/starford/showcase/internal/models"
)

func project(slug, category string, priority, stars int) models.Project {
	return models.Project{
		Slug:              slug,
		Title:             "Project " + slug,
		Tagline:           "Tagline for " + slug,
		Category:          category,
		TechStack:         []string{"Go"},
		Status:            models.StatusProduction,
		BodyMarkdown:      "Body of " + slug + ".",
		PortfolioEnabled:  true,
		PortfolioPriority: priority,
		Provenance:        models.Provenance{GitHubStars: stars, GitHubTopics: []string{}},
	}
}

func testServer(t *testing.T) *Server {
	t.Helper()
	ds := models.Dataset{Projects: []models.Project{
		project("alpha", models.CategoryTools, 2, 5),
		project("beta", models.CategoryGames, 1, 50),
		project("gamma", models.CategoryTools, 3, 1),
	}}
	o := models.OrderingOverride{Featured: []string{"gamma"}}
	return New(catalog.NewHolder(catalog.New(ds, o)), "test")
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var (
		result *mcp.CallToolResult
		err    error
	)
	switch name {
	case "list_projects":
		result, err = srv.listProjects(ctx, req)
	case "get_project":
		result, err = srv.getProject(ctx, req)
	case "search_projects":
		result, err = srv.searchProjects(ctx, req)
	case "get_frontmatter_contract":
		result, err = srv.getFrontmatterContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func slugsOf(t *testing.T, r *mcp.CallToolResult) []string {
	t.Helper()
	if r.IsError {
		t.Fatalf("tool error: %s", resultText(r))
	}
	var got []projectSummary
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	out := make([]string, len(got))
	for i, p := range got {
		out[i] = p.Slug
	}
	return out
}

func TestListProjects(t *testing.T) {
	srv := testServer(t)

	got := strings.Join(slugsOf(t, callTool(t, srv, "list_projects", map[string]interface{}{})), ",")
	if got != "beta,alpha,gamma" {
		t.Errorf("default order = %s", got)
	}

	got = strings.Join(slugsOf(t, callTool(t, srv, "list_projects", map[string]interface{}{
		"category": "Tools",
		"sort":     "popular",
	})), ",")
	if got != "alpha,gamma" {
		t.Errorf("tools by popularity = %s", got)
	}
}

func TestListProjectsBadArguments(t *testing.T) {
	srv := testServer(t)
	if r := callTool(t, srv, "list_projects", map[string]interface{}{"category": "Robots"}); !r.IsError {
		t.Error("expected error for unknown category")
	}
	if r := callTool(t, srv, "list_projects", map[string]interface{}{"sort": "random"}); !r.IsError {
		t.Error("expected error for unknown sort")
	}
}

func TestGetProject(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "get_project", map[string]interface{}{"slug": "gamma"})
	if r.IsError {
		t.Fatalf("get_project: %s", resultText(r))
	}
	var p models.Project
	if err := json.Unmarshal([]byte(resultText(r)), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Slug != "gamma" || !p.PortfolioFeatured || p.BodyMarkdown != "Body of gamma." {
		t.Errorf("unexpected project: %+v", p)
	}

	r = callTool(t, srv, "get_project", map[string]interface{}{"slug": "nope"})
	if !r.IsError || !strings.Contains(resultText(r), "not found") {
		t.Errorf("missing project result = %q", resultText(r))
	}
}

func TestSearchProjects(t *testing.T) {
	srv := testServer(t)
	got := slugsOf(t, callTool(t, srv, "search_projects", map[string]interface{}{"query": "BETA"}))
	if len(got) != 1 || got[0] != "beta" {
		t.Errorf("search = %v", got)
	}

	if r := callTool(t, srv, "search_projects", map[string]interface{}{}); !r.IsError {
		t.Error("expected error without query")
	}
}

func TestSwapIsVisible(t *testing.T) {
	holder := catalog.NewHolder(catalog.New(models.Dataset{}, models.OrderingOverride{}))
	srv := New(holder, "test")
	if got := slugsOf(t, callTool(t, srv, "list_projects", map[string]interface{}{})); len(got) != 0 {
		t.Fatalf("expected empty listing, got %v", got)
	}

	holder.Swap(catalog.New(models.Dataset{Projects: []models.Project{project("late", models.CategoryTools, 1, 0)}}, models.OrderingOverride{}))
	if got := slugsOf(t, callTool(t, srv, "list_projects", map[string]interface{}{})); len(got) != 1 || got[0] != "late" {
		t.Errorf("after swap = %v", got)
	}
}

func TestFrontmatterContract(t *testing.T) {
	srv := testServer(t)
	text := resultText(callTool(t, srv, "get_frontmatter_contract", nil))
	for _, want := range []string{"portfolio_priority", "tech_stack", "complexity"} {
		if !strings.Contains(text, want) {
			t.Errorf("contract missing %q", want)
		}
	}

	contents, err := srv.readFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != FormatResourceURI || tc.Text != FrontmatterContract {
		t.Errorf("unexpected resource contents: %+v", contents[0])
	}
}
