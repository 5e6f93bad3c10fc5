// Package draft proposes a starter document for repositories that do not
// publish one yet, inferring what it can from repository metadata.
package draft

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/starford/showcase/internal/models"
	"github.com/starford/showcase/internal/schema"
	"github.com/starford/showcase/internal/source"
)

// Placeholders written where nothing could be inferred.
const (
	PlaceholderTagline  = "Add a compelling one-line description"
	PlaceholderProblem  = "Describe the pain point this project solves."
	PlaceholderSolution = "Describe how this project solves the problem."
	PlaceholderTech     = "Add tech"
)

const (
	maxTitle     = 100
	maxTagline   = 300
	maxTechStack = 6
	maxTags      = 5
	defaultPrio  = 5
)

var (
	nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

	titleCaser = cases.Title(language.English)

	acronyms = strings.NewReplacer("Ai ", "AI ", "Api ", "API ", "Saas ", "SaaS ")

	// topicTech maps repository topics to tech stack entries, in the
	// order they are appended.
	topicTech = []struct{ topic, tech string }{
		{"nextjs", "Next.js"},
		{"react", "React"},
		{"typescript", "TypeScript"},
		{"tailwindcss", "Tailwind CSS"},
		{"supabase", "Supabase"},
		{"prisma", "Prisma"},
		{"openai", "OpenAI API"},
		{"fastapi", "FastAPI"},
		{"python", "Python"},
		{"nodejs", "Node.js"},
	}
)

// Suggestion is what could be inferred about a repository.
type Suggestion struct {
	Slug      string
	Title     string
	Category  string
	Priority  int
	Status    string
	TechStack []string
}

// Infer derives a suggestion from repository metadata as of now.
func Infer(repo source.Repo, now time.Time) Suggestion {
	return Suggestion{
		Slug:      Slug(repo.Name),
		Title:     Title(repo.Name),
		Category:  Category(repo),
		Priority:  Priority(repo, now),
		Status:    Status(repo, now),
		TechStack: TechStack(repo),
	}
}

// Slug lowercases name and collapses every run of other characters to a
// single hyphen.
func Slug(name string) string {
	s := strings.Trim(nonSlugRe.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if s == "" {
		return "project"
	}
	return s
}

// Title turns a repository name into a display title.
func Title(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '-' || r == '_' })
	t := titleCaser.String(strings.Join(words, " "))
	t = strings.TrimSuffix(acronyms.Replace(t+" "), " ")
	if t == "" {
		t = name
	}
	return truncate(t, maxTitle)
}

// Category guesses a category from the name, description and topics.
func Category(repo source.Repo) string {
	text := strings.ToLower(repo.Name + " " + repo.Description + " " + strings.Join(repo.Topics, " "))
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }) {
		words[w] = true
	}

	switch {
	case words["ai"] || words["gpt"] || words["llm"] || strings.Contains(text, "chatbot"):
		return models.CategoryAIAutomation
	case containsAny(text, "starter", "template", "boilerplate"):
		return models.CategoryTemplates
	case containsAny(text, "client", "agency", "freelance"):
		return models.CategoryClientWork
	}
	return models.CategoryTools
}

// Priority starts mid-range and moves up for well-described, tagged,
// recently updated repositories and down for stale ones.
func Priority(repo source.Repo, now time.Time) int {
	p := defaultPrio
	if len(repo.Description) > 50 {
		p--
	}
	if len(repo.Topics) >= 3 {
		p--
	}
	if updated, err := time.Parse(time.RFC3339, repo.UpdatedAt); err == nil {
		months := now.Sub(updated).Hours() / 24 / 30
		if months < 3 {
			p--
		}
		if months > 12 {
			p++
		}
	}
	return min(max(p, schema.MinPriority), schema.MaxPriority)
}

// Status infers a lifecycle state from the name and last update.
func Status(repo source.Repo, now time.Time) string {
	name := strings.ToLower(repo.Name)
	if containsAny(name, "starter", "template") {
		return models.StatusProduction
	}
	if updated, err := time.Parse(time.RFC3339, repo.UpdatedAt); err == nil && now.Sub(updated) > 180*24*time.Hour {
		return models.StatusArchived
	}
	if containsAny(name, "mvp", "demo") {
		return models.StatusMVP
	}
	return models.StatusProduction
}

// TechStack lists the primary language then technologies named by
// topics. Short stacks get a placeholder entry to fill in.
func TechStack(repo source.Repo) []string {
	var stack []string
	if repo.Language != "" {
		stack = append(stack, repo.Language)
	}
	topics := make(map[string]bool, len(repo.Topics))
	for _, t := range repo.Topics {
		topics[strings.ToLower(t)] = true
	}
	for _, m := range topicTech {
		if topics[m.topic] && !contains(stack, m.tech) {
			stack = append(stack, m.tech)
		}
	}
	if len(stack) < 3 {
		stack = append(stack, PlaceholderTech)
	}
	if len(stack) > maxTechStack {
		stack = stack[:maxTechStack]
	}
	return stack
}

// header is the rendered document header, in output order.
type header struct {
	PortfolioEnabled  bool `yaml:"portfolio_enabled"`
	PortfolioPriority int  `yaml:"portfolio_priority"`
	PortfolioFeatured bool `yaml:"portfolio_featured"`

	Title     string   `yaml:"title"`
	Tagline   string   `yaml:"tagline"`
	Slug      string   `yaml:"slug"`
	Category  string   `yaml:"category"`
	TechStack []string `yaml:"tech_stack"`
	Thumbnail string   `yaml:"thumbnail"`
	Status    string   `yaml:"status"`

	Problem     string   `yaml:"problem"`
	Solution    string   `yaml:"solution"`
	KeyFeatures []string `yaml:"key_features"`
	Metrics     []string `yaml:"metrics"`

	DemoURL string `yaml:"demo_url"`
	LiveURL string `yaml:"live_url"`

	HeroImages    []string `yaml:"hero_images"`
	Tags          []string `yaml:"tags"`
	DateCompleted string   `yaml:"date_completed,omitempty"`
}

var sections = map[string]string{
	"portfolio_enabled": "=== CONTROL FLAGS ===",
	"title":             "=== CARD DISPLAY ===",
	"problem":           "=== DETAIL PAGE ===",
	"demo_url":          "=== LINKS ===",
	"hero_images":       "=== OPTIONAL ===",
}

const body = `<!-- Add 2-3 paragraphs describing this project. -->
<!-- Focus on the business value and what makes it notable. -->
`

// Render produces a complete document for repo. The result always
// decodes cleanly.
func Render(repo source.Repo, now time.Time) ([]byte, error) {
	s := Infer(repo, now)

	tagline := repo.Description
	if strings.TrimSpace(tagline) == "" {
		tagline = PlaceholderTagline
	}
	solution := PlaceholderSolution
	if len(repo.Description) > 20 {
		solution = repo.Description
	}

	// A homepage that looks like a demo is a demo link, otherwise the
	// live site. Only absolute URLs are kept.
	var demoURL, liveURL string
	if isAbsoluteURL(repo.Homepage) {
		if strings.Contains(repo.Homepage, "demo") {
			demoURL = repo.Homepage
		} else {
			liveURL = repo.Homepage
		}
	}

	tags := []string{}
	for _, t := range repo.Topics {
		if len(tags) == maxTags {
			break
		}
		tags = append(tags, t)
	}

	var completed string
	if created, err := time.Parse(time.RFC3339, repo.CreatedAt); err == nil {
		completed = created.UTC().Format("2006-01")
	}

	h := header{
		PortfolioEnabled:  true,
		PortfolioPriority: s.Priority,
		PortfolioFeatured: s.Priority <= 3,
		Title:             s.Title,
		Tagline:           truncate(tagline, maxTagline),
		Slug:              s.Slug,
		Category:          s.Category,
		TechStack:         s.TechStack,
		Status:            s.Status,
		Problem:           PlaceholderProblem,
		Solution:          truncate(solution, 2000),
		KeyFeatures:       []string{},
		Metrics:           []string{},
		DemoURL:           demoURL,
		LiveURL:           liveURL,
		HeroImages:        []string{},
		Tags:              tags,
		DateCompleted:     completed,
	}

	var node yaml.Node
	if err := node.Encode(h); err != nil {
		return nil, fmt.Errorf("draft: encode %s: %w", repo.Name, err)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if c, ok := sections[node.Content[i].Value]; ok {
			node.Content[i].HeadComment = c
		}
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("draft: encode %s: %w", repo.Name, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("draft: encode %s: %w", repo.Name, err)
	}
	buf.WriteString("---\n\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
