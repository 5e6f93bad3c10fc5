package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// AssetHandler serves project images downloaded under a local directory,
// laid out as <root>/<slug>/<file>.
type AssetHandler struct {
	root string
}

// NewAssetHandler creates a handler rooted at the images directory.
func NewAssetHandler(root string) *AssetHandler {
	return &AssetHandler{root: root}
}

// safeName validates that both segments are plain names and returns the
// absolute file path under root.
func (h *AssetHandler) safeName(slug, name string) (string, error) {
	for _, part := range []string{slug, name} {
		if part == "" {
			return "", fmt.Errorf("slug and filename are required")
		}
		cleaned := filepath.Clean(part)
		if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
			return "", fmt.Errorf("invalid path segment: %s", part)
		}
	}
	root, err := filepath.Abs(h.root)
	if err != nil {
		return "", err
	}
	abs := filepath.Join(root, slug, name)
	if !strings.HasPrefix(abs, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes images directory")
	}
	return abs, nil
}

// ServeFile handles GET /api/assets/{slug}/{filename}.
func (h *AssetHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	abs, err := h.safeName(chi.URLParam(r, "slug"), chi.URLParam(r, "filename"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	info, statErr := os.Stat(abs)
	if statErr != nil || info.IsDir() {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	http.ServeFile(w, r, abs)
}
