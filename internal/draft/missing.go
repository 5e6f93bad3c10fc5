package draft

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/showcase/internal/apperr"
	"github.com/starford/showcase/internal/source"
)

// Repos is the subset of the GitHub source used to find repositories
// without a document.
type Repos interface {
	Repos(ctx context.Context) ([]source.Repo, error)
	Fetch(ctx context.Context, id string) (*source.Document, error)
}

// Candidate is a repository lacking a document, with what was inferred.
type Candidate struct {
	Repo       source.Repo
	Suggestion Suggestion
}

// Finder lists repositories that do not publish a document.
type Finder struct {
	repos       Repos
	now         func() time.Time
	concurrency int
	logger      *slog.Logger
}

// NewFinder creates a finder. now defaults to time.Now.
func NewFinder(repos Repos, now func() time.Time, logger *slog.Logger) *Finder {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Finder{repos: repos, now: now, concurrency: 4, logger: logger}
}

// Missing returns repositories without a document, in listing order.
// filter keeps only names containing it (case-insensitive); limit caps
// the result when positive. Repositories whose check fails are logged
// and left out.
func (f *Finder) Missing(ctx context.Context, filter string, limit int) ([]Candidate, error) {
	repos, err := f.repos.Repos(ctx)
	if err != nil {
		return nil, fmt.Errorf("draft: list repos: %w", err)
	}
	if filter != "" {
		needle := strings.ToLower(filter)
		kept := repos[:0:0]
		for _, r := range repos {
			if strings.Contains(strings.ToLower(r.Name), needle) {
				kept = append(kept, r)
			}
		}
		repos = kept
	}

	missing := make([]bool, len(repos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, r := range repos {
		g.Go(func() error {
			_, err := f.repos.Fetch(gctx, r.Name)
			switch {
			case errors.Is(err, apperr.ErrNotFound):
				missing[i] = true
			case err != nil:
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				f.logger.Warn("draft: check failed", slog.String("repo", r.Name), slog.String("error", err.Error()))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := f.now()
	out := []Candidate{}
	for i, r := range repos {
		if !missing[i] {
			continue
		}
		out = append(out, Candidate{Repo: r, Suggestion: Infer(r, now)})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// WriteTable prints candidates as a name | category | priority table.
func WriteTable(w io.Writer, candidates []Candidate) error {
	if _, err := fmt.Fprintf(w, "%-33s | %-15s | %s\n%s|%s|%s\n",
		"Repo Name", "Category", "Priority",
		strings.Repeat("-", 34), strings.Repeat("-", 17), strings.Repeat("-", 10)); err != nil {
		return err
	}
	for _, c := range candidates {
		if _, err := fmt.Fprintf(w, "%-33s | %-15s | %d\n", c.Repo.Name, c.Suggestion.Category, c.Suggestion.Priority); err != nil {
			return err
		}
	}
	return nil
}
