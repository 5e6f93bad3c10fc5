// Package source adapts the places project documents live (a GitHub
// account, local draft and override directories) to one interface the
// sync engine can aggregate over.
package source

import (
	"context"

	"github.com/starford/showcase/internal/models"
)

// Source yields project documents by identifier.
type Source interface {
	// Name identifies the source in logs and reports.
	Name() string
	// Projects lists every identifier the source can currently serve.
	Projects(ctx context.Context) ([]string, error)
	// Fetch returns the document for id, or an error wrapping
	// apperr.ErrNotFound when the project has no document.
	Fetch(ctx context.Context, id string) (*Document, error)
}

// AssetLister lists the files stored in a directory of a project.
type AssetLister interface {
	ListAssets(ctx context.Context, id, dir string) ([]Asset, error)
}

// Document is one fetched project document plus the metadata the source
// knows about its project.
type Document struct {
	ProjectID  string
	Source     string
	Content    []byte
	RepoName   string
	RepoURL    string
	Provenance models.Provenance
}

// Asset is a file inside a project directory.
type Asset struct {
	Name string `json:"name"`
	Path string `json:"path"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// RepoURL is the public web address of an owner's repository.
func RepoURL(owner, repo string) string {
	return "https://github.com/" + owner + "/" + repo
}
