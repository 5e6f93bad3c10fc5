// Package models defines the domain types for the showcase dataset.
package models

import "time"

// Categories a project can be filed under.
const (
	CategoryAIAutomation   = "AI Automation"
	CategoryTemplates      = "Templates"
	CategoryTools          = "Tools"
	CategoryDeveloperTools = "Developer Tools"
	CategoryClientWork     = "Client Work"
	CategoryGames          = "Games"
	CategoryMarketing      = "Marketing"
	CategoryCreative       = "Creative"

	// CategoryAll is the filter value that matches every category.
	CategoryAll = "all"
)

// Categories lists every accepted category in display order.
var Categories = []string{
	CategoryAIAutomation,
	CategoryTemplates,
	CategoryTools,
	CategoryDeveloperTools,
	CategoryClientWork,
	CategoryGames,
	CategoryMarketing,
	CategoryCreative,
}

// Project lifecycle states.
const (
	StatusProduction = "Production"
	StatusMVP        = "MVP"
	StatusDemo       = "Demo"
	StatusArchived   = "Archived"
)

// Statuses lists every accepted status.
var Statuses = []string{StatusProduction, StatusMVP, StatusDemo, StatusArchived}

// Project is one canonical record of the published dataset.
type Project struct {
	Slug     string `json:"slug"`
	RepoName string `json:"repo_name"`
	RepoURL  string `json:"repo_url"`

	Title     string   `json:"title"`
	Tagline   string   `json:"tagline"`
	Category  string   `json:"category"`
	TechStack []string `json:"tech_stack"`
	Thumbnail string   `json:"thumbnail"`
	Status    string   `json:"status"`

	Problem        string   `json:"problem"`
	Solution       string   `json:"solution"`
	KeyFeatures    []string `json:"key_features"`
	Metrics        []string `json:"metrics"`
	TargetAudience string   `json:"target_audience,omitempty"`
	BodyMarkdown   string   `json:"body_markdown"`

	DemoURL      string `json:"demo_url"`
	LiveURL      string `json:"live_url"`
	DemoVideoURL string `json:"demo_video_url,omitempty"`
	CaseStudyURL string `json:"case_study_url,omitempty"`

	HeroImages    []string `json:"hero_images"`
	Tags          []string `json:"tags"`
	DateCompleted string   `json:"date_completed,omitempty"`
	LastReviewed  string   `json:"portfolio_last_reviewed,omitempty"`

	PortfolioEnabled  bool `json:"portfolio_enabled"`
	PortfolioPriority int  `json:"portfolio_priority"`
	PortfolioFeatured bool `json:"portfolio_featured"`

	Provenance
}

// Provenance carries metadata attached from the originating source rather
// than authored in the document.
type Provenance struct {
	GitHubStars       int      `json:"github_stars"`
	GitHubForks       int      `json:"github_forks"`
	GitHubLanguage    string   `json:"github_language"`
	GitHubUpdatedAt   string   `json:"github_updated_at"`
	GitHubDescription string   `json:"github_description"`
	GitHubTopics      []string `json:"github_topics"`
}

// Clone returns a deep copy of p.
func (p Project) Clone() Project {
	c := p
	c.TechStack = cloneStrings(p.TechStack)
	c.KeyFeatures = cloneStrings(p.KeyFeatures)
	c.Metrics = cloneStrings(p.Metrics)
	c.HeroImages = cloneStrings(p.HeroImages)
	c.Tags = cloneStrings(p.Tags)
	c.GitHubTopics = cloneStrings(p.GitHubTopics)
	return c
}

// Dataset is the snapshot produced by one aggregation run.
type Dataset struct {
	GeneratedAt time.Time `json:"generated_at"`
	Projects    []Project `json:"projects"`
}

// Clone returns a deep copy of d.
func (d Dataset) Clone() Dataset {
	out := Dataset{GeneratedAt: d.GeneratedAt, Projects: make([]Project, len(d.Projects))}
	for i, p := range d.Projects {
		out.Projects[i] = p.Clone()
	}
	return out
}

// OrderingOverride is the hand-maintained display order and featured list.
type OrderingOverride struct {
	Order    []string `json:"order"`
	Featured []string `json:"featured"`
}

// IsZero reports whether the override changes nothing.
func (o OrderingOverride) IsZero() bool {
	return len(o.Order) == 0 && len(o.Featured) == 0
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
