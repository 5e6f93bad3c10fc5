package ordering

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/showcase/internal/models"
	"github.com/starford/showcase/internal/testutil"
)

func dataset(ps ...models.Project) models.Dataset {
	return models.Dataset{Projects: ps}
}

func proj(slug string, priority int, featured bool) models.Project {
	return models.Project{Slug: slug, PortfolioPriority: priority, PortfolioFeatured: featured}
}

func slugs(ds models.Dataset) []string {
	out := make([]string, len(ds.Projects))
	for i, p := range ds.Projects {
		out[i] = p.Slug
	}
	return out
}

func TestApply_OrderBeatsPriority(t *testing.T) {
	ds := dataset(proj("b", 1, false), proj("a", 2, false))
	got := Apply(ds, models.OrderingOverride{Order: []string{"a"}, Featured: []string{}})
	if diff := cmp.Diff([]string{"a", "b"}, slugs(got)); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
}

func TestApply_RemainderByPriority(t *testing.T) {
	ds := dataset(proj("p3", 3, false), proj("p1", 1, false), proj("x", 9, false), proj("y", 8, false))
	got := Apply(ds, models.OrderingOverride{Order: []string{"x", "missing", "y"}})
	if diff := cmp.Diff([]string{"x", "y", "p1", "p3"}, slugs(got)); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
}

func TestApply_FeaturedUnion(t *testing.T) {
	ds := dataset(proj("own", 1, true), proj("listed", 2, false), proj("plain", 3, false))
	got := Apply(ds, models.OrderingOverride{Featured: []string{"listed"}})
	want := map[string]bool{"own": true, "listed": true, "plain": false}
	for _, p := range got.Projects {
		if p.PortfolioFeatured != want[p.Slug] {
			t.Errorf("%s featured = %v, want %v", p.Slug, p.PortfolioFeatured, want[p.Slug])
		}
	}
}

func TestApply_ZeroOverrideIsNoop(t *testing.T) {
	ds := dataset(proj("a", 1, true), proj("b", 1, false), proj("c", 2, false))
	got := Apply(ds, models.OrderingOverride{})
	if diff := cmp.Diff(ds, got); diff != "" {
		t.Errorf("zero override changed dataset (-want +got):\n%s", diff)
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	ds := dataset(proj("b", 1, false), proj("a", 2, false))
	_ = Apply(ds, models.OrderingOverride{Order: []string{"a"}, Featured: []string{"b"}})
	if ds.Projects[0].Slug != "b" || ds.Projects[0].PortfolioFeatured {
		t.Errorf("input mutated: %+v", ds.Projects)
	}
}

func TestParse_AcceptsComments(t *testing.T) {
	o, err := Parse([]byte(`{
		// hand-picked
		"order": ["a", "b",],
		"featured": ["a"],
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := models.OrderingOverride{Order: []string{"a", "b"}, Featured: []string{"a"}}
	if diff := cmp.Diff(want, o); diff != "" {
		t.Errorf("override (-want +got):\n%s", diff)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte(`{"order": "a"}`)); err == nil {
		t.Error("expected error for non-list order")
	}
	if _, err := Parse([]byte(`{`)); err == nil {
		t.Error("expected error for truncated input")
	}
}

func TestLoad(t *testing.T) {
	_, store := testutil.TestStore(t, map[string]string{
		"content/portfolio-order.json": `{"order": ["z"], "featured": []}`,
	})
	o, err := Load(store, "content/portfolio-order.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff([]string{"z"}, o.Order); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}

	o, err = Load(store, "content/missing.json")
	if err != nil || !o.IsZero() {
		t.Errorf("missing file = %+v, %v", o, err)
	}
}
