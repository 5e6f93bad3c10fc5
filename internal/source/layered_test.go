package source

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/showcase/internal/apperr"
)

func TestLayered_LastRegisteredWins(t *testing.T) {
	store := newStore(t, map[string]string{
		"files/PORTFOLIO-a.md":  "files a",
		"files/PORTFOLIO-b.md":  "files b",
		"drafts/PORTFOLIO-b.md": "drafts b",
		"drafts/PORTFOLIO-c.md": "drafts c",
	})
	l := NewLayered(NewDir("files", store, "files"), NewDir("drafts", store, "drafts"))

	ids, err := l.Projects(context.Background())
	if err != nil {
		t.Fatalf("Projects: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, ids); diff != "" {
		t.Errorf("ids (-want +got):\n%s", diff)
	}

	want := map[string]string{"a": "files a", "b": "drafts b", "c": "drafts c"}
	for id, content := range want {
		doc, err := l.Fetch(context.Background(), id)
		if err != nil {
			t.Fatalf("Fetch %s: %v", id, err)
		}
		if string(doc.Content) != content {
			t.Errorf("Fetch %s = %q, want %q", id, doc.Content, content)
		}
	}

	if _, err := l.Fetch(context.Background(), "zzz"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
