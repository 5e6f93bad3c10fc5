package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/showcase/internal/apperr"
)

// Layered combines sources. An identifier served by several sources is
// fetched from the last registered one that has it; documents are never
// merged field by field.
type Layered struct {
	sources []Source
}

// NewLayered registers sources lowest precedence first.
func NewLayered(sources ...Source) *Layered {
	return &Layered{sources: sources}
}

func (l *Layered) Name() string {
	names := make([]string, len(l.sources))
	for i, s := range l.sources {
		names[i] = s.Name()
	}
	return "layered(" + strings.Join(names, ",") + ")"
}

// Projects returns the union of identifiers in first-seen order.
func (l *Layered) Projects(ctx context.Context) ([]string, error) {
	var ids []string
	seen := make(map[string]bool)
	for _, s := range l.sources {
		list, err := s.Projects(ctx)
		if err != nil {
			return nil, fmt.Errorf("source %s: list: %w", s.Name(), err)
		}
		for _, id := range list {
			if seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Fetch tries sources from highest precedence down and returns the first
// document found. Errors other than not-found stop the search.
func (l *Layered) Fetch(ctx context.Context, id string) (*Document, error) {
	for i := len(l.sources) - 1; i >= 0; i-- {
		doc, err := l.sources[i].Fetch(ctx, id)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("source %s: %s: %w", l.Name(), id, apperr.ErrNotFound)
}
