// Package catalog serves read-only views of the published dataset to the
// HTTP API and the MCP server.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/starford/showcase/internal/aggregate"
	"github.com/starford/showcase/internal/apperr"
	"github.com/starford/showcase/internal/models"
	"github.com/starford/showcase/internal/ordering"
	"github.com/starford/showcase/internal/query"
	"github.com/starford/showcase/internal/storage"
)

// Searcher finds project slugs matching a free-text query, best first.
type Searcher interface {
	SearchSlugs(ctx context.Context, q string, limit int) ([]string, error)
}

// CategoryCount is one entry of the category listing.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Catalog is an immutable snapshot of the dataset with the ordering
// override already applied.
type Catalog struct {
	dataset  models.Dataset
	override models.OrderingOverride
	bySlug   map[string]int
	searcher Searcher
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithSearcher delegates Search to s.
func WithSearcher(s Searcher) Option {
	return func(c *Catalog) { c.searcher = s }
}

// New builds a snapshot from ds and o. ds is copied.
func New(ds models.Dataset, o models.OrderingOverride, opts ...Option) *Catalog {
	applied := ordering.Apply(ds, o)
	if applied.Projects == nil {
		applied.Projects = []models.Project{}
	}
	c := &Catalog{
		dataset:  applied,
		override: o,
		bySlug:   make(map[string]int, len(applied.Projects)),
	}
	for i, p := range applied.Projects {
		c.bySlug[p.Slug] = i
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load reads the published dataset and override from store. A missing
// dataset yields an empty catalog; a missing override changes nothing.
func Load(store storage.Provider, datasetPath, orderPath string, opts ...Option) (*Catalog, error) {
	ds, err := aggregate.ReadDataset(store, datasetPath)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	o, err := ordering.Load(store, orderPath)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return New(ds, o, opts...), nil
}

// GeneratedAt is the dataset's generation time.
func (c *Catalog) GeneratedAt() time.Time { return c.dataset.GeneratedAt }

// Override returns the ordering override in effect.
func (c *Catalog) Override() models.OrderingOverride { return c.override }

// Dataset returns a copy of the snapshot in display order.
func (c *Catalog) Dataset() models.Dataset { return c.dataset.Clone() }

// Len is the number of projects.
func (c *Catalog) Len() int { return len(c.dataset.Projects) }

// Project returns the record with slug.
func (c *Catalog) Project(slug string) (models.Project, error) {
	i, ok := c.bySlug[slug]
	if !ok {
		return models.Project{}, fmt.Errorf("project %q: %w", slug, apperr.ErrNotFound)
	}
	return c.dataset.Projects[i].Clone(), nil
}

// View filters by category and sorts by mode. The records are copies.
func (c *Catalog) View(category string, mode query.SortMode) []models.Project {
	out := query.Sort(query.Filter(c.dataset.Projects, category), mode, c.override.Order)
	for i := range out {
		out[i] = out[i].Clone()
	}
	return out
}

// Featured returns featured projects in display order.
func (c *Catalog) Featured() []models.Project {
	var out []models.Project
	for _, p := range c.dataset.Projects {
		if p.PortfolioFeatured {
			out = append(out, p.Clone())
		}
	}
	return out
}

// Categories counts projects per category, in canonical category order,
// omitting empty categories.
func (c *Catalog) Categories() []CategoryCount {
	counts := make(map[string]int)
	for _, p := range c.dataset.Projects {
		counts[p.Category]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for _, cat := range models.Categories {
		if n := counts[cat]; n > 0 {
			out = append(out, CategoryCount{Category: cat, Count: n})
		}
	}
	return out
}

// Search finds projects matching q. With a Searcher configured the
// ranking is delegated; otherwise a case-insensitive substring match over
// text fields is used in display order.
func (c *Catalog) Search(ctx context.Context, q string, limit int) ([]models.Project, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []models.Project{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	if c.searcher != nil {
		slugs, err := c.searcher.SearchSlugs(ctx, q, limit)
		if err != nil {
			return nil, fmt.Errorf("catalog: search: %w", err)
		}
		out := make([]models.Project, 0, len(slugs))
		for _, s := range slugs {
			if i, ok := c.bySlug[s]; ok {
				out = append(out, c.dataset.Projects[i].Clone())
			}
		}
		return out, nil
	}

	needle := strings.ToLower(q)
	out := []models.Project{}
	for _, p := range c.dataset.Projects {
		if matches(p, needle) {
			out = append(out, p.Clone())
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func matches(p models.Project, needle string) bool {
	fields := []string{p.Slug, p.Title, p.Tagline, p.Problem, p.Solution, p.BodyMarkdown}
	fields = append(fields, p.TechStack...)
	fields = append(fields, p.Tags...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// Holder publishes the current snapshot to concurrent readers and lets a
// re-sync swap it atomically.
type Holder struct {
	p atomic.Pointer[Catalog]
}

// NewHolder creates a holder serving c.
func NewHolder(c *Catalog) *Holder {
	h := &Holder{}
	h.p.Store(c)
	return h
}

// Current returns the snapshot in effect.
func (h *Holder) Current() *Catalog { return h.p.Load() }

// Swap replaces the snapshot.
func (h *Holder) Swap(c *Catalog) { h.p.Store(c) }
