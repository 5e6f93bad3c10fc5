// Package ordering applies the hand-maintained display order and featured
// list to a dataset.
package ordering

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/tailscale/hujson"

	"github.com/starford/showcase/internal/models"
	"github.com/starford/showcase/internal/storage"
)

// Parse decodes an override file. Comments and trailing commas are
// accepted.
func Parse(data []byte) (models.OrderingOverride, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return models.OrderingOverride{}, fmt.Errorf("ordering: invalid JSONC: %w", err)
	}
	var o models.OrderingOverride
	if err := json.Unmarshal(standardized, &o); err != nil {
		return models.OrderingOverride{}, fmt.Errorf("ordering: invalid JSON: %w", err)
	}
	return o, nil
}

// Load reads the override at path. A missing file is a zero override.
func Load(store storage.Provider, path string) (models.OrderingOverride, error) {
	if path == "" {
		return models.OrderingOverride{}, nil
	}
	data, err := store.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.OrderingOverride{}, nil
	}
	if err != nil {
		return models.OrderingOverride{}, fmt.Errorf("ordering: %w", err)
	}
	o, err := Parse(data)
	if err != nil {
		return models.OrderingOverride{}, fmt.Errorf("%w (%s)", err, path)
	}
	return o, nil
}

// IsFeatured reports whether p is featured under o: either its own flag
// is set or o lists its slug.
func IsFeatured(p models.Project, o models.OrderingOverride) bool {
	if p.PortfolioFeatured {
		return true
	}
	for _, s := range o.Featured {
		if s == p.Slug {
			return true
		}
	}
	return false
}

// Apply returns a copy of ds with featured flags merged from o and records
// reordered: slugs listed in o.Order first, in list order, then the rest
// by ascending priority. Slugs in o that match no record are ignored.
func Apply(ds models.Dataset, o models.OrderingOverride) models.Dataset {
	out := ds.Clone()
	for i := range out.Projects {
		out.Projects[i].PortfolioFeatured = IsFeatured(out.Projects[i], o)
	}
	less := Less(o.Order)
	sort.SliceStable(out.Projects, func(i, j int) bool {
		return less(out.Projects[i], out.Projects[j])
	})
	return out
}

// Less returns the display-order comparator for order. With an empty
// order it compares priorities only.
func Less(order []string) func(a, b models.Project) bool {
	pos := make(map[string]int, len(order))
	for i, s := range order {
		if _, dup := pos[s]; !dup {
			pos[s] = i
		}
	}
	return func(a, b models.Project) bool {
		ai, aok := pos[a.Slug]
		bi, bok := pos[b.Slug]
		switch {
		case aok && bok:
			return ai < bi
		case aok:
			return true
		case bok:
			return false
		}
		return a.PortfolioPriority < b.PortfolioPriority
	}
}
