package schema

import (
	"errors"
	"net/url"
	"regexp"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/showcase/internal/models"
)

// Field limits.
const (
	MinPriority = 1
	MaxPriority = 10

	maxTitle       = 100
	maxTagline     = 300
	maxNarrative   = 2000
	maxTechStack   = 20
	maxKeyFeatures = 10
	maxMetrics     = 6
	maxHeroImages  = 10
	maxTags        = 10
)

// Legacy complexity values.
const (
	ComplexityMVP        = "MVP"
	ComplexityProduction = "Production"
	ComplexityEnterprise = "Enterprise"
)

var (
	slugRe       = regexp.MustCompile(`^[a-z0-9-]+$`)
	httpURLRe    = regexp.MustCompile(`^https?://`)
	complexities = []string{ComplexityMVP, ComplexityProduction, ComplexityEnterprise}

	complexityToStatus = map[string]string{
		ComplexityEnterprise: models.StatusProduction,
		ComplexityMVP:        models.StatusMVP,
		ComplexityProduction: models.StatusProduction,
	}
)

// MigrateComplexity maps a legacy complexity value to a canonical status.
func MigrateComplexity(v string) (string, bool) {
	s, ok := complexityToStatus[v]
	return s, ok
}

// Normalize validates raw and reduces it to a canonical project. Every
// violation is collected; the returned error is a *ValidationError.
// Provenance and body fields are left empty.
func Normalize(raw RawFrontmatter) (models.Project, error) {
	if errs := Validate(raw); len(errs) > 0 {
		return models.Project{}, &ValidationError{Fields: errs}
	}
	return canonical(raw), nil
}

// Validate reports every constraint raw violates, sorted by field path.
func Validate(raw RawFrontmatter) []FieldError {
	err := validation.ValidateStruct(&raw,
		validation.Field(&raw.PortfolioEnabled, validation.NotNil),
		validation.Field(&raw.PortfolioPriority, validation.NotNil, priorityRange),

		validation.Field(&raw.Title, validation.Required, validation.RuneLength(1, maxTitle)),
		validation.Field(&raw.Tagline, validation.Required, validation.RuneLength(1, maxTagline)),
		validation.Field(&raw.Slug, validation.Required, validation.Match(slugRe).Error("must contain only lowercase letters, digits and hyphens")),
		validation.Field(&raw.Category, validation.Required, validation.In(anySlice(models.Categories)...)),
		validation.Field(&raw.TechStack, validation.Required, validation.Length(1, maxTechStack)),
		validation.Field(&raw.Thumbnail, urlOrPath),
		validation.Field(&raw.Status, validation.In(anySlice(models.Statuses)...)),

		validation.Field(&raw.Problem, validation.RuneLength(0, maxNarrative)),
		validation.Field(&raw.Solution, validation.RuneLength(0, maxNarrative)),
		validation.Field(&raw.KeyFeatures, validation.Length(0, maxKeyFeatures)),
		validation.Field(&raw.Metrics, validation.Length(0, maxMetrics)),

		validation.Field(&raw.DemoURL, absoluteURL),
		validation.Field(&raw.LiveURL, absoluteURL),
		validation.Field(&raw.DemoVideoURL, urlOrPath),

		validation.Field(&raw.HeroImages, validation.Length(0, maxHeroImages), validation.Each(urlOrPath)),
		validation.Field(&raw.Tags, validation.Length(0, maxTags)),

		validation.Field(&raw.ThumbnailURL, urlOrPath),
		validation.Field(&raw.Complexity, validation.In(anySlice(complexities)...)),
		validation.Field(&raw.ProblemSolved, validation.RuneLength(0, maxNarrative)),
		validation.Field(&raw.KeyOutcomes, validation.Length(0, maxKeyFeatures)),
		validation.Field(&raw.HeroImageURLs, validation.Each(urlOrPath)),
	)
	if err == nil {
		return nil
	}

	var out []FieldError
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		flatten("", verrs, &out)
	} else {
		out = append(out, FieldError{Field: "frontmatter", Message: err.Error()})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// canonical applies the alias precedence to a validated raw header:
// canonical value if non-empty, else the legacy alias, else the default.
// Each field is resolved on its own.
func canonical(raw RawFrontmatter) models.Project {
	return models.Project{
		PortfolioEnabled:  *raw.PortfolioEnabled,
		PortfolioPriority: *raw.PortfolioPriority,
		PortfolioFeatured: raw.PortfolioFeatured != nil && *raw.PortfolioFeatured,
		LastReviewed:      value(raw.PortfolioLastReviewed),

		Title:     *raw.Title,
		Tagline:   *raw.Tagline,
		Slug:      *raw.Slug,
		Category:  *raw.Category,
		TechStack: cloneList(raw.TechStack),
		Thumbnail: first(raw.Thumbnail, raw.ThumbnailURL),
		Status:    status(raw.Status, raw.Complexity),

		Problem:        first(raw.Problem, raw.ProblemSolved),
		Solution:       value(raw.Solution),
		KeyFeatures:    firstList(raw.KeyFeatures, raw.KeyOutcomes),
		Metrics:        cloneList(raw.Metrics),
		TargetAudience: value(raw.TargetAudience),

		DemoURL:      value(raw.DemoURL),
		LiveURL:      value(raw.LiveURL),
		DemoVideoURL: value(raw.DemoVideoURL),
		CaseStudyURL: value(raw.CaseStudyURL),

		HeroImages:    firstList(raw.HeroImages, raw.HeroImageURLs),
		Tags:          cloneList(raw.Tags),
		DateCompleted: value(raw.DateCompleted),

		Provenance: models.Provenance{GitHubTopics: []string{}},
	}
}

func status(current, legacy *string) string {
	if s := value(current); s != "" {
		return s
	}
	if migrated, ok := MigrateComplexity(value(legacy)); ok {
		return migrated
	}
	return models.StatusProduction
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func first(candidates ...*string) string {
	for _, c := range candidates {
		if s := value(c); s != "" {
			return s
		}
	}
	return ""
}

func firstList(candidates ...[]string) []string {
	for _, c := range candidates {
		if len(c) > 0 {
			return cloneList(c)
		}
	}
	return []string{}
}

var priorityRange = validation.By(func(v any) error {
	p, ok := v.(*int)
	if !ok || p == nil {
		return nil
	}
	if *p < MinPriority || *p > MaxPriority {
		return errors.New("must be between 1 and 10")
	}
	return nil
})

// urlOrPath accepts an empty string, a root-relative path, or an http(s) URL.
var urlOrPath = validation.By(func(v any) error {
	s, ok := stringOf(v)
	if !ok || s == "" {
		return nil
	}
	if strings.HasPrefix(s, "/") || httpURLRe.MatchString(s) {
		return nil
	}
	return errors.New("must be a URL, a local path starting with /, or empty")
})

// absoluteURL accepts an empty string or a URL with scheme and host.
var absoluteURL = validation.By(func(v any) error {
	s, ok := stringOf(v)
	if !ok || s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("must be an absolute URL or empty")
	}
	return nil
})

func stringOf(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case *string:
		if s == nil {
			return "", false
		}
		return *s, true
	}
	return "", false
}

func anySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func flatten(prefix string, errs validation.Errors, out *[]FieldError) {
	for key, err := range errs {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		var nested validation.Errors
		if errors.As(err, &nested) {
			flatten(path, nested, out)
			continue
		}
		*out = append(*out, FieldError{Field: path, Message: err.Error()})
	}
}
