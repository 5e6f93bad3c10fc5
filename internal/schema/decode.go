package schema

import (
	"sort"
	"strings"

	"github.com/starford/showcase/internal/models"
	"github.com/starford/showcase/internal/parser"
)

// Decode parses a whole document (header and body) into a canonical
// project. Any failure, including a missing or malformed header, is
// reported as a *ValidationError.
func Decode(data []byte) (models.Project, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return models.Project{}, &ValidationError{Fields: []FieldError{{Field: "frontmatter", Message: err.Error()}}}
	}

	raw, typeErrs := FromMap(res.Frontmatter)
	errs := mergeErrors(typeErrs, Validate(raw))
	if len(errs) > 0 {
		return models.Project{}, &ValidationError{Fields: errs}
	}

	p := canonical(raw)
	p.BodyMarkdown = res.Body
	return p, nil
}

// mergeErrors keeps type errors and drops constraint errors reported for
// the same field, which would only repeat that the value is unusable.
func mergeErrors(typeErrs, constraintErrs []FieldError) []FieldError {
	if len(typeErrs) == 0 {
		return constraintErrs
	}
	bad := make(map[string]struct{}, len(typeErrs))
	for _, e := range typeErrs {
		bad[rootField(e.Field)] = struct{}{}
	}
	out := append([]FieldError(nil), typeErrs...)
	for _, e := range constraintErrs {
		if _, ok := bad[rootField(e.Field)]; ok {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

func rootField(path string) string {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return path
}
