package index

import (
	"context"

	"github.com/starford/showcase/internal/models"
)

// ProjectIndex defines the index operations used by commands and the
// catalog. Consumers depend on this interface rather than *DB.
type ProjectIndex interface {
	ReplaceProjects(ds models.Dataset) error
	Checksums() (map[string]string, error)
	Search(q string, limit int) ([]SearchResult, error)
	SearchSlugs(ctx context.Context, q string, limit int) ([]string, error)
	RecordRun(r RunRow) error
	Runs(limit int) ([]RunRow, error)
	Close() error
}

// Verify *DB satisfies ProjectIndex at compile time.
var _ ProjectIndex = (*DB)(nil)
