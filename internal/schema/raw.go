// Package schema defines the frontmatter accepted in project documents and
// reduces every historical variant of it to the canonical models.Project.
package schema

import (
	"math"
	"strconv"
	"time"

	"github.com/starford/showcase/internal/models"
)

// RawFrontmatter is the union of every field name ever used in a project
// header, canonical and legacy. Scalars are pointers and lists are nil when
// the key is absent, so absence and emptiness stay distinguishable.
//
// The json tags name the field path reported in validation errors.
type RawFrontmatter struct {
	// Control flags.
	PortfolioEnabled      *bool   `json:"portfolio_enabled"`
	PortfolioPriority     *int    `json:"portfolio_priority"`
	PortfolioFeatured     *bool   `json:"portfolio_featured"`
	PortfolioLastReviewed *string `json:"portfolio_last_reviewed"`

	// Card display.
	Title     *string  `json:"title"`
	Tagline   *string  `json:"tagline"`
	Slug      *string  `json:"slug"`
	Category  *string  `json:"category"`
	TechStack []string `json:"tech_stack"`
	Thumbnail *string  `json:"thumbnail"`
	Status    *string  `json:"status"`

	// Detail page.
	Problem        *string  `json:"problem"`
	Solution       *string  `json:"solution"`
	KeyFeatures    []string `json:"key_features"`
	Metrics        []string `json:"metrics"`
	TargetAudience *string  `json:"target_audience"`

	// Links.
	DemoURL      *string `json:"demo_url"`
	LiveURL      *string `json:"live_url"`
	CaseStudyURL *string `json:"case_study_url"`
	DemoVideoURL *string `json:"demo_video_url"`

	// Extras.
	HeroImages    []string `json:"hero_images"`
	Tags          []string `json:"tags"`
	DateCompleted *string  `json:"date_completed"`

	// Legacy aliases.
	ThumbnailURL  *string  `json:"thumbnail_url"`
	Complexity    *string  `json:"complexity"`
	ProblemSolved *string  `json:"problem_solved"`
	KeyOutcomes   []string `json:"key_outcomes"`
	HeroImageURLs []string `json:"hero_image_urls"`
}

// FromMap extracts a RawFrontmatter from a decoded YAML header. Values of
// the wrong type are reported per field and left unset; unknown keys are
// ignored.
func FromMap(m map[string]any) (RawFrontmatter, []FieldError) {
	var (
		raw  RawFrontmatter
		errs []FieldError
	)
	x := extractor{m: m, errs: &errs}

	raw.PortfolioEnabled = x.boolean("portfolio_enabled")
	raw.PortfolioPriority = x.integer("portfolio_priority")
	raw.PortfolioFeatured = x.boolean("portfolio_featured")
	raw.PortfolioLastReviewed = x.str("portfolio_last_reviewed")

	raw.Title = x.str("title")
	raw.Tagline = x.str("tagline")
	raw.Slug = x.str("slug")
	raw.Category = x.str("category")
	raw.TechStack = x.list("tech_stack")
	raw.Thumbnail = x.str("thumbnail")
	raw.Status = x.str("status")

	raw.Problem = x.str("problem")
	raw.Solution = x.str("solution")
	raw.KeyFeatures = x.list("key_features")
	raw.Metrics = x.list("metrics")
	raw.TargetAudience = x.str("target_audience")

	raw.DemoURL = x.str("demo_url")
	raw.LiveURL = x.str("live_url")
	raw.CaseStudyURL = x.str("case_study_url")
	raw.DemoVideoURL = x.str("demo_video_url")

	raw.HeroImages = x.list("hero_images")
	raw.Tags = x.list("tags")
	raw.DateCompleted = x.str("date_completed")

	raw.ThumbnailURL = x.str("thumbnail_url")
	raw.Complexity = x.str("complexity")
	raw.ProblemSolved = x.str("problem_solved")
	raw.KeyOutcomes = x.list("key_outcomes")
	raw.HeroImageURLs = x.list("hero_image_urls")

	return raw, errs
}

// FromProject returns the canonical-only frontmatter that describes p.
func FromProject(p models.Project) RawFrontmatter {
	return RawFrontmatter{
		PortfolioEnabled:      ptr(p.PortfolioEnabled),
		PortfolioPriority:     ptr(p.PortfolioPriority),
		PortfolioFeatured:     ptr(p.PortfolioFeatured),
		PortfolioLastReviewed: optional(p.LastReviewed),
		Title:                 ptr(p.Title),
		Tagline:               ptr(p.Tagline),
		Slug:                  ptr(p.Slug),
		Category:              ptr(p.Category),
		TechStack:             cloneList(p.TechStack),
		Thumbnail:             ptr(p.Thumbnail),
		Status:                ptr(p.Status),
		Problem:               ptr(p.Problem),
		Solution:              ptr(p.Solution),
		KeyFeatures:           cloneList(p.KeyFeatures),
		Metrics:               cloneList(p.Metrics),
		TargetAudience:        optional(p.TargetAudience),
		DemoURL:               ptr(p.DemoURL),
		LiveURL:               ptr(p.LiveURL),
		CaseStudyURL:          optional(p.CaseStudyURL),
		DemoVideoURL:          optional(p.DemoVideoURL),
		HeroImages:            cloneList(p.HeroImages),
		Tags:                  cloneList(p.Tags),
		DateCompleted:         optional(p.DateCompleted),
	}
}

type extractor struct {
	m    map[string]any
	errs *[]FieldError
}

func (x extractor) fail(field, msg string) {
	*x.errs = append(*x.errs, FieldError{Field: field, Message: msg})
}

func (x extractor) lookup(key string) (any, bool) {
	v, ok := x.m[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (x extractor) boolean(key string) *bool {
	v, ok := x.lookup(key)
	if !ok {
		return nil
	}
	b, ok := v.(bool)
	if !ok {
		x.fail(key, "must be a boolean")
		return nil
	}
	return &b
}

func (x extractor) integer(key string) *int {
	v, ok := x.lookup(key)
	if !ok {
		return nil
	}
	switch n := v.(type) {
	case int:
		return &n
	case int64:
		i := int(n)
		return &i
	case uint64:
		if n <= math.MaxInt32 {
			i := int(n)
			return &i
		}
	case float64:
		if n == math.Trunc(n) && math.Abs(n) <= math.MaxInt32 {
			i := int(n)
			return &i
		}
	}
	x.fail(key, "must be an integer")
	return nil
}

func (x extractor) str(key string) *string {
	v, ok := x.lookup(key)
	if !ok {
		return nil
	}
	s, ok := scalarString(v)
	if !ok {
		x.fail(key, "must be a string")
		return nil
	}
	return &s
}

func (x extractor) list(key string) []string {
	v, ok := x.lookup(key)
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		x.fail(key, "must be a list")
		return nil
	}
	out := make([]string, 0, len(items))
	valid := true
	for i, item := range items {
		s, ok := scalarString(item)
		if !ok {
			x.fail(key+"."+strconv.Itoa(i), "must be a string")
			valid = false
			continue
		}
		out = append(out, s)
	}
	if !valid {
		return nil
	}
	return out
}

// scalarString accepts strings and YAML timestamps. Dates such as
// 2024-05-01 decode as time.Time and are kept in their written form.
func scalarString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case time.Time:
		if s.Hour() == 0 && s.Minute() == 0 && s.Second() == 0 && s.Nanosecond() == 0 {
			return s.Format(time.DateOnly), true
		}
		return s.Format(time.RFC3339), true
	default:
		return "", false
	}
}

func ptr[T any](v T) *T { return &v }

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func cloneList(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
