package index

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/starford/showcase/internal/checksum"
	"github.com/starford/showcase/internal/models"
)

// SearchResult represents one search hit.
type SearchResult struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// RunRow represents a row in the sync_runs table.
type RunRow struct {
	RunID           string    `json:"run_id"`
	Source          string    `json:"source"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	Total           int       `json:"total"`
	Accepted        int       `json:"accepted"`
	Disabled        int       `json:"skipped_disabled"`
	Invalid         int       `json:"skipped_invalid"`
	Errored         int       `json:"skipped_error"`
	Missing         int       `json:"skipped_missing"`
	Replaced        int       `json:"replaced"`
	DatasetChecksum string    `json:"dataset_checksum"`
}

// ReplaceProjects swaps the indexed projects for those of ds within one
// transaction. Positions follow the dataset's order.
func (db *DB) ReplaceProjects(ds models.Dataset) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM projects`); err != nil {
		return fmt.Errorf("index: clear projects: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO projects (slug, position, title, tagline, category, priority, featured, tags, tech_stack, body, checksum, record)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("index: prepare project insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range ds.Projects {
		record, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("index: encode %s: %w", p.Slug, err)
		}
		tags, _ := json.Marshal(nonNil(p.Tags))
		tech, _ := json.Marshal(nonNil(p.TechStack))
		_, err = stmt.Exec(p.Slug, i, p.Title, p.Tagline, p.Category, p.PortfolioPriority, p.PortfolioFeatured,
			string(tags), string(tech), p.BodyMarkdown, checksum.Sum(record), string(record))
		if err != nil {
			return fmt.Errorf("index: insert %s: %w", p.Slug, err)
		}
	}
	return tx.Commit()
}

// Checksums returns the record checksum of every indexed slug.
func (db *DB) Checksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT slug, checksum FROM projects`)
	if err != nil {
		return nil, fmt.Errorf("index: checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var slug, cs string
		if err := rows.Scan(&slug, &cs); err != nil {
			return nil, err
		}
		out[slug] = cs
	}
	return out, rows.Err()
}

// Search matches q against title, tagline, tags, tech stack and body.
// Title matches rank first, then display position.
func (db *DB) Search(q string, limit int) ([]SearchResult, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []SearchResult{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + escapeLike(q) + "%"
	rows, err := db.conn.Query(`
		SELECT slug, title, tagline
		FROM projects
		WHERE title LIKE ?1 ESCAPE '\'
		   OR tagline LIKE ?1 ESCAPE '\'
		   OR tags LIKE ?1 ESCAPE '\'
		   OR tech_stack LIKE ?1 ESCAPE '\'
		   OR body LIKE ?1 ESCAPE '\'
		ORDER BY (title LIKE ?1 ESCAPE '\') DESC, position
		LIMIT ?2
	`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Slug, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SearchSlugs is Search reduced to slugs, for the catalog.
func (db *DB) SearchSlugs(_ context.Context, q string, limit int) ([]string, error) {
	hits, err := db.Search(q, limit)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Slug
	}
	return out, nil
}

// RecordRun stores the summary of one sync run.
func (db *DB) RecordRun(r RunRow) error {
	_, err := db.conn.Exec(`
		INSERT INTO sync_runs (run_id, source, started_at, finished_at, total, accepted, disabled, invalid, errored, missing, replaced, dataset_checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.RunID, r.Source, r.StartedAt.UTC(), r.FinishedAt.UTC(), r.Total, r.Accepted, r.Disabled, r.Invalid,
		r.Errored, r.Missing, r.Replaced, r.DatasetChecksum)
	if err != nil {
		return fmt.Errorf("index: record run: %w", err)
	}
	return nil
}

// Runs returns the most recent runs, newest first.
func (db *DB) Runs(limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT run_id, source, started_at, finished_at, total, accepted, disabled, invalid, errored, missing, replaced, dataset_checksum
		FROM sync_runs
		ORDER BY finished_at DESC, run_id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("index: runs: %w", err)
	}
	defer rows.Close()

	out := []RunRow{}
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.RunID, &r.Source, &r.StartedAt, &r.FinishedAt, &r.Total, &r.Accepted, &r.Disabled,
			&r.Invalid, &r.Errored, &r.Missing, &r.Replaced, &r.DatasetChecksum); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
