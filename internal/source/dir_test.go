package source

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/showcase/internal/apperr"
	"github.com/starford/showcase/internal/storage"
)

func newStore(t *testing.T, files map[string]string) *storage.FS {
	t.Helper()
	s, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	for p, c := range files {
		if err := s.Write(p, []byte(c)); err != nil {
			t.Fatalf("Write %s: %v", p, err)
		}
	}
	return s
}

func TestIdentifierFromFile(t *testing.T) {
	cases := map[string]string{
		"PORTFOLIO-invoice-bot.md": "invoice-bot",
		"PORTFOLIOtool.md":         "tool",
		"PORTFOLIO.md":             "PORTFOLIO.md",
	}
	for in, want := range cases {
		if got := IdentifierFromFile(in, DefaultPrefix); got != want {
			t.Errorf("IdentifierFromFile(%q) = %q, want %q", in, got, want)
		}
	}
	if got := FileName("", "x"); got != "PORTFOLIO-x.md" {
		t.Errorf("FileName = %q", got)
	}
}

func TestDir_ProjectsSkipsTemplatesAndOtherFiles(t *testing.T) {
	store := newStore(t, map[string]string{
		"drafts/PORTFOLIO-b.md":        "b",
		"drafts/PORTFOLIO-a.md":        "a",
		"drafts/PORTFOLIO-TEMPLATE.md": "t",
		"drafts/README.md":             "r",
		"drafts/PORTFOLIO-c.txt":       "c",
	})
	d := NewDir("drafts", store, "drafts", WithOwner("octo"))
	ids, err := d.Projects(context.Background())
	if err != nil {
		t.Fatalf("Projects: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, ids); diff != "" {
		t.Errorf("ids (-want +got):\n%s", diff)
	}
}

func TestDir_Fetch(t *testing.T) {
	store := newStore(t, map[string]string{"files/PORTFOLIO-tool.md": "content"})
	d := NewDir("files", store, "files", WithOwner("octo"))

	doc, err := d.Fetch(context.Background(), "tool")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(doc.Content) != "content" {
		t.Errorf("content = %q", doc.Content)
	}
	if doc.RepoName != "tool" || doc.RepoURL != "https://github.com/octo/tool" {
		t.Errorf("repo = %q %q", doc.RepoName, doc.RepoURL)
	}
	if doc.Provenance.GitHubStars != 0 || doc.Provenance.GitHubUpdatedAt == "" {
		t.Errorf("provenance = %+v", doc.Provenance)
	}
	if doc.Provenance.GitHubTopics == nil {
		t.Error("topics should be an empty list")
	}
}

func TestDir_FetchMissing(t *testing.T) {
	store := newStore(t, map[string]string{"files/PORTFOLIO-tool.md": "content"})
	d := NewDir("files", store, "files")
	_, err := d.Fetch(context.Background(), "other")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDir_MissingDirectoryServesNothing(t *testing.T) {
	store := newStore(t, nil)
	d := NewDir("files", store, "absent")
	ids, err := d.Projects(context.Background())
	if err != nil || len(ids) != 0 {
		t.Fatalf("Projects = %v, %v", ids, err)
	}
}

func TestDir_CollisionLastLexicalWins(t *testing.T) {
	store := newStore(t, map[string]string{
		"files/PORTFOLIO-x.md": "dash",
		"files/PORTFOLIOx.md":  "nodash",
	})
	d := NewDir("files", store, "files")
	ids, _ := d.Projects(context.Background())
	if diff := cmp.Diff([]string{"x"}, ids); diff != "" {
		t.Errorf("ids (-want +got):\n%s", diff)
	}
	doc, err := d.Fetch(context.Background(), "x")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	// "PORTFOLIOx.md" sorts after "PORTFOLIO-x.md".
	if string(doc.Content) != "nodash" {
		t.Errorf("content = %q, want nodash", doc.Content)
	}
}
