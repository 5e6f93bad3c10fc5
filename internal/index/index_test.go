package index

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/showcase/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "index-test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleDataset() models.Dataset {
	return models.Dataset{Projects: []models.Project{
		{Slug: "bot", Title: "Invoice Bot", Tagline: "Email to invoices", TechStack: []string{"Go", "OpenAI"}, PortfolioPriority: 1},
		{Slug: "game", Title: "Snake", Tagline: "A retro game about bots", Tags: []string{"retro"}, PortfolioPriority: 2},
		{Slug: "cli", Title: "Deploy CLI", Tagline: "Ships 100% of builds", BodyMarkdown: "Written in Go", PortfolioPriority: 3},
	}}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM projects`).Scan(&count); err != nil {
		t.Fatalf("projects table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM sync_runs`).Scan(&count); err != nil {
		t.Fatalf("sync_runs table missing: %v", err)
	}
}

func TestReplaceProjects(t *testing.T) {
	db := testDB(t)
	if err := db.ReplaceProjects(sampleDataset()); err != nil {
		t.Fatalf("ReplaceProjects: %v", err)
	}
	sums, err := db.Checksums()
	if err != nil {
		t.Fatalf("Checksums: %v", err)
	}
	if len(sums) != 3 || sums["bot"] == "" {
		t.Errorf("checksums = %v", sums)
	}

	smaller := models.Dataset{Projects: sampleDataset().Projects[:1]}
	if err := db.ReplaceProjects(smaller); err != nil {
		t.Fatalf("ReplaceProjects: %v", err)
	}
	sums, _ = db.Checksums()
	if len(sums) != 1 {
		t.Errorf("stale rows kept: %v", sums)
	}
}

func TestSearch(t *testing.T) {
	db := testDB(t)
	_ = db.ReplaceProjects(sampleDataset())

	cases := []struct {
		q    string
		want []string
	}{
		// Title match ranks before the tagline match.
		{"bot", []string{"bot", "game"}},
		{"go", []string{"bot", "cli"}},
		{"RETRO", []string{"game"}},
		{"100%", []string{"cli"}},
		{"nothing-here", []string{}},
		{"  ", []string{}},
	}
	for _, tc := range cases {
		got, err := db.SearchSlugs(context.Background(), tc.q, 10)
		if err != nil {
			t.Fatalf("Search %q: %v", tc.q, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("Search %q (-want +got):\n%s", tc.q, diff)
		}
	}
}

func TestSearch_Limit(t *testing.T) {
	db := testDB(t)
	_ = db.ReplaceProjects(sampleDataset())
	got, err := db.Search("o", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
}

func TestRecordAndListRuns(t *testing.T) {
	db := testDB(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"r1", "r2", "r3"} {
		err := db.RecordRun(RunRow{
			RunID:      id,
			Source:     "github",
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Minute),
			Total:      5,
			Accepted:   i,
		})
		if err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}
	runs, err := db.Runs(2)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "r3" || runs[1].RunID != "r2" {
		t.Fatalf("runs = %+v", runs)
	}
	if runs[0].Accepted != 2 || runs[0].Source != "github" || !runs[0].FinishedAt.Equal(base.Add(2*time.Hour+time.Minute)) {
		t.Errorf("run = %+v", runs[0])
	}
}
