package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/showcase/internal/apperr"
	"github.com/starford/showcase/internal/catalog"
	"github.com/starford/showcase/internal/index"
	"github.com/starford/showcase/internal/models"
	"github.com/starford/showcase/internal/query"
)

const maxLimit = 100

// RunLister lists recorded sync runs.
type RunLister interface {
	Runs(limit int) ([]index.RunRow, error)
}

// Handler holds API route handlers.
type Handler struct {
	catalogs *catalog.Holder
	runs     RunLister
}

// NewHandler creates a new Handler. runs may be nil when no index is
// configured.
func NewHandler(catalogs *catalog.Holder, runs RunLister) *Handler {
	return &Handler{catalogs: catalogs, runs: runs}
}

func limitParam(r *http.Request, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > maxLimit {
		return maxLimit
	}
	return n
}

// ListProjects handles GET /api/projects?category=&sort=.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := q.Get("category")
	if category == "" {
		category = models.CategoryAll
	}
	if !query.ValidCategory(category) {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown category"))
		return
	}
	mode, err := query.ParseSortMode(q.Get("sort"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("sort must be one of priority, recent, popular"))
		return
	}

	c := h.catalogs.Current()
	items := c.View(category, mode)
	writeJSON(w, http.StatusOK, ProjectListResponse{
		GeneratedAt: c.GeneratedAt(),
		Category:    category,
		Sort:        string(mode),
		Total:       len(items),
		Projects:    items,
	})
}

// GetProject handles GET /api/projects/{slug}.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalogs.Current().Project(chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("get project failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Featured handles GET /api/featured.
func (h *Handler) Featured(w http.ResponseWriter, _ *http.Request) {
	items := h.catalogs.Current().Featured()
	if items == nil {
		items = []models.Project{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": items})
}

// Categories handles GET /api/categories.
func (h *Handler) Categories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, CategoryListResponse{Categories: h.catalogs.Current().Categories()})
}

// Dataset handles GET /api/dataset, the whole published snapshot.
func (h *Handler) Dataset(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.catalogs.Current().Dataset())
}

// Search handles GET /api/search?q=&limit=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	items, err := h.catalogs.Current().Search(r.Context(), q, limitParam(r, 20))
	if err != nil {
		slog.Error("search failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Query: q, Projects: items})
}

// Runs handles GET /api/runs?limit=.
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		writeJSON(w, http.StatusOK, RunListResponse{Runs: []index.RunRow{}})
		return
	}
	runs, err := h.runs.Runs(limitParam(r, 20))
	if err != nil {
		slog.Error("list runs failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, RunListResponse{Runs: runs})
}
