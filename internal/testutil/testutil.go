// Package testutil provides shared test helpers: temporary storage roots,
// databases, in-memory sources and document builders.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/showcase/internal/apperr"
	"github.com/starford/showcase/internal/index"
	"github.com/starford/showcase/internal/models"
	"github.com/starford/showcase/internal/source"
	"github.com/starford/showcase/internal/storage"
)

// TestDB creates a temporary SQLite database that is closed on cleanup.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "showcase-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a temporary storage root seeded with files.
func TestStore(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	for p, c := range files {
		if err := store.Write(p, []byte(c)); err != nil {
			t.Fatal(err)
		}
	}
	return dir, store
}

// Doc renders a minimal valid document for slug with the given priority.
// Extra lines are appended to the header verbatim.
func Doc(slug string, priority int, extra ...string) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("portfolio_enabled: true\n")
	fmt.Fprintf(&b, "portfolio_priority: %d\n", priority)
	fmt.Fprintf(&b, "title: %q\n", "Project "+slug)
	fmt.Fprintf(&b, "tagline: %q\n", "Tagline for "+slug)
	fmt.Fprintf(&b, "slug: %s\n", slug)
	b.WriteString("category: Tools\n")
	b.WriteString("tech_stack: [Go]\n")
	for _, line := range extra {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("---\n\nBody of " + slug + ".\n")
	return b.String()
}

// Source is an in-memory source.Source. Documents, errors and delays are
// keyed by project identifier; identifiers without a document are
// reported as not found.
type Source struct {
	Docs       map[string]string
	Errs       map[string]error
	Delays     map[string]time.Duration
	Provenance map[string]models.Provenance

	mu       sync.Mutex
	inFlight int
	maxSeen  int
	calls    []string
}

func (s *Source) Name() string { return "memory" }

// Projects returns every identifier with a document or error, sorted.
func (s *Source) Projects(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	for id := range s.Docs {
		seen[id] = true
	}
	for id := range s.Errs {
		seen[id] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Source) Fetch(ctx context.Context, id string) (*source.Document, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxSeen {
		s.maxSeen = s.inFlight
	}
	s.calls = append(s.calls, id)
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if d, ok := s.Delays[id]; ok {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, &apperr.TransportError{Op: "fetch " + id, Err: ctx.Err()}
		}
	}
	if err, ok := s.Errs[id]; ok {
		return nil, err
	}
	doc, ok := s.Docs[id]
	if !ok {
		return nil, fmt.Errorf("memory: %s: %w", id, apperr.ErrNotFound)
	}
	prov := s.Provenance[id]
	if prov.GitHubTopics == nil {
		prov.GitHubTopics = []string{}
	}
	return &source.Document{
		ProjectID:  id,
		Source:     s.Name(),
		Content:    []byte(doc),
		RepoName:   id,
		RepoURL:    source.RepoURL("octo", id),
		Provenance: prov,
	}, nil
}

// MaxInFlight returns the highest number of concurrent fetches observed.
func (s *Source) MaxInFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxSeen
}

// Calls returns the identifiers fetched so far.
func (s *Source) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}
