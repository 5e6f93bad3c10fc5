// Package query filters and sorts published projects for display.
// Every function returns a new slice and leaves its input untouched.
package query

import (
	"fmt"
	"sort"
	"time"

	"github.com/starford/showcase/internal/models"
	"github.com/starford/showcase/internal/ordering"
)

// SortMode selects a display order.
type SortMode string

const (
	SortPriority SortMode = "priority"
	SortRecent   SortMode = "recent"
	SortPopular  SortMode = "popular"
)

// SortModes lists the accepted modes.
var SortModes = []SortMode{SortPriority, SortRecent, SortPopular}

// ParseSortMode parses s; the empty string selects priority.
func ParseSortMode(s string) (SortMode, error) {
	if s == "" {
		return SortPriority, nil
	}
	for _, m := range SortModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("query: unknown sort mode %q", s)
}

// ValidCategory reports whether c is a known category or "all".
func ValidCategory(c string) bool {
	if c == "" || c == models.CategoryAll {
		return true
	}
	for _, k := range models.Categories {
		if k == c {
			return true
		}
	}
	return false
}

// Filter returns the projects in category, preserving order. "all" and
// the empty string match everything.
func Filter(projects []models.Project, category string) []models.Project {
	out := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		if category == "" || category == models.CategoryAll || p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Sort returns projects ordered by mode. Priority mode honours order, the
// override's explicit slug list, when it is non-empty. Ties keep their
// input order.
func Sort(projects []models.Project, mode SortMode, order []string) []models.Project {
	out := make([]models.Project, len(projects))
	copy(out, projects)

	var less func(a, b models.Project) bool
	switch mode {
	case SortRecent:
		less = newerFirst
	case SortPopular:
		less = func(a, b models.Project) bool { return a.GitHubStars > b.GitHubStars }
	default:
		less = ordering.Less(order)
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// newerFirst compares github_updated_at descending. Parsable timestamps
// sort before unparsable ones, which compare as strings among themselves.
func newerFirst(a, b models.Project) bool {
	ta, errA := time.Parse(time.RFC3339, a.GitHubUpdatedAt)
	tb, errB := time.Parse(time.RFC3339, b.GitHubUpdatedAt)
	switch {
	case errA == nil && errB == nil:
		return ta.After(tb)
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a.GitHubUpdatedAt > b.GitHubUpdatedAt
}
