// Package aggregate turns project documents from a source into one
// validated, deduplicated and priority-sorted dataset.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/starford/showcase/internal/apperr"
	"github.com/starford/showcase/internal/models"
	"github.com/starford/showcase/internal/schema"
	"github.com/starford/showcase/internal/source"
)

// Engine defaults.
const (
	DefaultConcurrency  = 4
	DefaultFetchTimeout = 15 * time.Second
)

// Engine aggregates documents from one source.
type Engine struct {
	source      source.Source
	concurrency int
	timeout     time.Duration
	limit       int
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithConcurrency bounds the number of in-flight fetches.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithFetchTimeout bounds each fetch individually.
func WithFetchTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLimit processes only the first n listed identifiers. Zero means
// no limit.
func WithLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.limit = n
		}
	}
}

// WithClock sets the clock used for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger for per-project outcomes.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine over src.
func New(src source.Source, opts ...Option) *Engine {
	e := &Engine{
		source:      src,
		concurrency: DefaultConcurrency,
		timeout:     DefaultFetchTimeout,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Run lists every identifier the source serves and aggregates them.
// Failing to list is fatal; per-project failures are not.
func (e *Engine) Run(ctx context.Context) (models.Dataset, *Report, error) {
	if e.source == nil {
		return models.Dataset{}, nil, apperr.Configuration("no document source configured")
	}
	ids, err := e.source.Projects(ctx)
	if err != nil {
		return models.Dataset{}, nil, fmt.Errorf("aggregate: list projects: %w", err)
	}
	if e.limit > 0 && len(ids) > e.limit {
		ids = ids[:e.limit]
	}
	e.logger.Info("aggregate: projects listed", slog.String("source", e.source.Name()), slog.Int("count", len(ids)))
	ds, report := e.Aggregate(ctx, ids)
	return ds, report, nil
}

type fetched struct {
	project models.Project
	outcome Outcome
}

// Aggregate fetches, validates and collects ids. A failing project is
// recorded in the report and never stops the run. When two identifiers
// declare the same slug the later one in input order is kept.
func (e *Engine) Aggregate(ctx context.Context, ids []string) (models.Dataset, *Report) {
	report := &Report{
		RunID:     uuid.NewString(),
		Source:    e.source.Name(),
		StartedAt: e.now().UTC(),
	}

	results := make([]fetched, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			results[i] = e.process(gctx, id)
			return nil
		})
	}
	_ = g.Wait()

	bySlug := make(map[string]int, len(results))
	for i := range results {
		r := &results[i]
		if r.outcome.Status != StatusAccepted {
			continue
		}
		if prev, ok := bySlug[r.project.Slug]; ok {
			results[prev].outcome.Status = StatusReplaced
			results[prev].outcome.Message = "slug " + r.project.Slug + " redeclared by " + r.outcome.ProjectID
			e.logger.Warn("aggregate: duplicate slug",
				slog.String("slug", r.project.Slug),
				slog.String("dropped", results[prev].outcome.ProjectID),
				slog.String("kept", r.outcome.ProjectID),
			)
		}
		bySlug[r.project.Slug] = i
	}

	projects := make([]models.Project, 0, len(bySlug))
	report.Outcomes = make([]Outcome, len(results))
	for i, r := range results {
		report.Outcomes[i] = r.outcome
		if r.outcome.Status == StatusAccepted {
			projects = append(projects, r.project)
		}
	}
	SortByPriority(projects)

	report.FinishedAt = e.now().UTC()
	return models.Dataset{GeneratedAt: report.FinishedAt, Projects: projects}, report
}

// SortByPriority orders projects by ascending priority, keeping the
// existing order among equal priorities.
func SortByPriority(projects []models.Project) {
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].PortfolioPriority < projects[j].PortfolioPriority
	})
}

func (e *Engine) process(ctx context.Context, id string) (out fetched) {
	start := time.Now()
	out.outcome.ProjectID = id
	defer func() { out.outcome.Duration = time.Since(start) }()
	log := e.logger.With(slog.String("project", id))

	fctx, cancel := context.WithTimeout(ctx, e.timeout)
	doc, err := e.source.Fetch(fctx, id)
	cancel()
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		out.outcome.Status = StatusSkippedMissing
		log.Info("aggregate: no document")
		return out
	case err != nil:
		out.outcome.Status = StatusSkippedError
		out.outcome.Message = err.Error()
		log.Warn("aggregate: fetch failed", slog.String("error", err.Error()))
		return out
	}
	out.outcome.Source = doc.Source

	p, err := schema.Decode(doc.Content)
	if err != nil {
		out.outcome.Status = StatusSkippedInvalid
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			out.outcome.Errors = verr.Fields
			for _, fe := range verr.Fields {
				log.Warn("aggregate: invalid frontmatter", slog.String("field", fe.Field), slog.String("message", fe.Message))
			}
		} else {
			out.outcome.Message = err.Error()
			log.Warn("aggregate: invalid document", slog.String("error", err.Error()))
		}
		return out
	}
	out.outcome.Slug = p.Slug

	if !p.PortfolioEnabled {
		out.outcome.Status = StatusSkippedDisabled
		log.Info("aggregate: disabled")
		return out
	}

	p.RepoName = doc.RepoName
	p.RepoURL = doc.RepoURL
	p.Provenance = doc.Provenance
	if p.GitHubTopics == nil {
		p.GitHubTopics = []string{}
	}
	out.project = p
	out.outcome.Status = StatusAccepted
	log.Info("aggregate: accepted", slog.String("slug", p.Slug), slog.Int("priority", p.PortfolioPriority))
	return out
}
