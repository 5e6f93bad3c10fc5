package api

import (
	"time"

	"github.com/starford/showcase/internal/catalog"
	"github.com/starford/showcase/internal/index"
	"github.com/starford/showcase/internal/models"
)

// ProjectListResponse wraps a filtered, sorted project listing.
type ProjectListResponse struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Category    string           `json:"category"`
	Sort        string           `json:"sort"`
	Total       int              `json:"total"`
	Projects    []models.Project `json:"projects"`
}

// CategoryListResponse wraps per-category counts.
type CategoryListResponse struct {
	Categories []catalog.CategoryCount `json:"categories"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Query    string           `json:"query"`
	Projects []models.Project `json:"projects"`
}

// RunListResponse wraps recorded sync runs.
type RunListResponse struct {
	Runs []index.RunRow `json:"runs"`
}
