package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/showcase/internal/catalog"
	"github.com/starford/showcase/internal/index"
	"github.com/starford/showcase/internal/models"
	"github.com/starford/showcase/internal/testutil"
)

func sampleCatalog() *catalog.Catalog {
	ds := models.Dataset{
		GeneratedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Projects: []models.Project{
			{Slug: "bot", Title: "Invoice Bot", Category: models.CategoryAIAutomation, PortfolioPriority: 1, PortfolioFeatured: true},
			{Slug: "game", Title: "Snake", Category: models.CategoryGames, PortfolioPriority: 2, Provenance: models.Provenance{GitHubStars: 30}},
			{Slug: "cli", Title: "Deploy CLI", Category: models.CategoryDeveloperTools, PortfolioPriority: 3, Provenance: models.Provenance{GitHubStars: 10}},
		},
	}
	return catalog.New(ds, models.OrderingOverride{Order: []string{"cli"}})
}

// testEnv builds a router over the sample catalog. An empty token means
// auth disabled.
func testEnv(t *testing.T, token string) (http.Handler, *index.DB) {
	t.Helper()
	db := testutil.TestDB(t)
	router := NewRouter(catalog.NewHolder(sampleCatalog()), RouterConfig{
		AuthEnabled: token != "",
		Token:       token,
		Runs:        db,
	})
	return router, db
}

func get(t *testing.T, h http.Handler, target string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func slugs(ps []models.Project) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Slug
	}
	return out
}

func TestListProjects(t *testing.T) {
	router, _ := testEnv(t, "")

	cases := []struct {
		target string
		want   []string
	}{
		{"/projects", []string{"cli", "bot", "game"}},
		{"/projects?sort=popular", []string{"game", "cli", "bot"}},
		{"/projects?category=Games", []string{"game"}},
		{"/projects?category=all&sort=priority", []string{"cli", "bot", "game"}},
	}
	for _, tc := range cases {
		w := get(t, router, tc.target)
		if w.Code != http.StatusOK {
			t.Fatalf("%s status = %d, body = %s", tc.target, w.Code, w.Body.String())
		}
		resp := decode[ProjectListResponse](t, w)
		if diff := cmp.Diff(tc.want, slugs(resp.Projects)); diff != "" {
			t.Errorf("%s (-want +got):\n%s", tc.target, diff)
		}
		if resp.Total != len(tc.want) {
			t.Errorf("%s total = %d", tc.target, resp.Total)
		}
	}
}

func TestListProjects_BadParams(t *testing.T) {
	router, _ := testEnv(t, "")
	for _, target := range []string{"/projects?sort=random", "/projects?category=Robots"} {
		if w := get(t, router, target); w.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", target, w.Code)
		}
	}
}

func TestGetProject(t *testing.T) {
	router, _ := testEnv(t, "")
	w := get(t, router, "/projects/game")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	p := decode[models.Project](t, w)
	if p.Title != "Snake" {
		t.Errorf("title = %q", p.Title)
	}

	if w := get(t, router, "/projects/missing"); w.Code != http.StatusNotFound {
		t.Errorf("missing status = %d, want 404", w.Code)
	}
}

func TestFeaturedAndCategories(t *testing.T) {
	router, _ := testEnv(t, "")
	featured := decode[map[string][]models.Project](t, get(t, router, "/featured"))
	if diff := cmp.Diff([]string{"bot"}, slugs(featured["projects"])); diff != "" {
		t.Errorf("featured (-want +got):\n%s", diff)
	}
	cats := decode[CategoryListResponse](t, get(t, router, "/categories"))
	if len(cats.Categories) != 3 {
		t.Errorf("categories = %+v", cats.Categories)
	}
}

func TestSearch(t *testing.T) {
	router, _ := testEnv(t, "")
	if w := get(t, router, "/search"); w.Code != http.StatusBadRequest {
		t.Errorf("empty query status = %d", w.Code)
	}
	resp := decode[SearchResponse](t, get(t, router, "/search?q=snake"))
	if diff := cmp.Diff([]string{"game"}, slugs(resp.Projects)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestRuns(t *testing.T) {
	router, db := testEnv(t, "")
	now := time.Now().UTC()
	if err := db.RecordRun(index.RunRow{RunID: "r1", Source: "github", StartedAt: now, FinishedAt: now, Accepted: 3}); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	resp := decode[RunListResponse](t, get(t, router, "/runs"))
	if len(resp.Runs) != 1 || resp.Runs[0].RunID != "r1" || resp.Runs[0].Accepted != 3 {
		t.Errorf("runs = %+v", resp.Runs)
	}
}

func TestDataset(t *testing.T) {
	router, _ := testEnv(t, "")
	ds := decode[models.Dataset](t, get(t, router, "/dataset"))
	if diff := cmp.Diff([]string{"cli", "bot", "game"}, slugs(ds.Projects)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestAuth(t *testing.T) {
	router, _ := testEnv(t, "secret")
	if w := get(t, router, "/projects"); w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", w.Code)
	}
	if w := get(t, router, "/projects", "Authorization", "Bearer wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token status = %d, want 401", w.Code)
	}
	if w := get(t, router, "/projects", "Authorization", "Bearer secret"); w.Code != http.StatusOK {
		t.Errorf("valid token status = %d, want 200", w.Code)
	}
}

func TestAssets(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "bot"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bot", "shot.png"), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	router := NewRouter(catalog.NewHolder(sampleCatalog()), RouterConfig{ImagesDir: dir})

	w := get(t, router, "/assets/bot/shot.png")
	if w.Code != http.StatusOK || w.Body.String() != "png" {
		t.Errorf("status = %d body = %q", w.Code, w.Body.String())
	}
	if w := get(t, router, "/assets/bot/missing.png"); w.Code != http.StatusNotFound {
		t.Errorf("missing status = %d", w.Code)
	}
	if w := get(t, router, "/assets/bot/..%2F..%2Fetc"); w.Code == http.StatusOK {
		t.Errorf("traversal served: %d", w.Code)
	}
}

func TestRunsWithoutIndex(t *testing.T) {
	router := NewRouter(catalog.NewHolder(sampleCatalog()), RouterConfig{})
	resp := decode[RunListResponse](t, get(t, router, "/runs"))
	if resp.Runs == nil || len(resp.Runs) != 0 {
		t.Errorf("runs = %#v", resp.Runs)
	}
}
