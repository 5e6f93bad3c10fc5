package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/showcase/internal/catalog"
)

// RouterConfig carries the optional parts of the API.
type RouterConfig struct {
	AuthEnabled bool
	Token       string
	// Runs lists sync history; nil serves an empty list.
	Runs RunLister
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events http.Handler
	// ImagesDir, if set, is served under /assets/{slug}/{filename}.
	ImagesDir string
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(catalogs *catalog.Holder, cfg RouterConfig) chi.Router {
	h := NewHandler(catalogs, cfg.Runs)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(cfg.AuthEnabled, cfg.Token))

	r.Get("/projects", h.ListProjects)
	r.Get("/projects/{slug}", h.GetProject)
	r.Get("/featured", h.Featured)
	r.Get("/categories", h.Categories)
	r.Get("/dataset", h.Dataset)
	r.Get("/search", h.Search)
	r.Get("/runs", h.Runs)

	if cfg.ImagesDir != "" {
		r.Get("/assets/{slug}/{filename}", NewAssetHandler(cfg.ImagesDir).ServeFile)
	}
	if cfg.Events != nil {
		r.Get("/events", cfg.Events.ServeHTTP)
	}
	return r
}
