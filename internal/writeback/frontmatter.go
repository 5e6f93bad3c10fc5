// Package writeback edits project documents in place in their source
// repositories.
package writeback

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/showcase/internal/models"
	"github.com/starford/showcase/internal/schema"
)

// Update lists the header fields to overwrite in one repository's
// document. Nil fields are left as they are.
type Update struct {
	Repo     string  `yaml:"repo"`
	Enabled  *bool   `yaml:"portfolio_enabled"`
	Priority *int    `yaml:"portfolio_priority"`
	Category *string `yaml:"category"`
}

// Validate checks the update against the document schema.
func (u Update) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Repo, validation.Required),
		validation.Field(&u.Priority, validation.NilOrNotEmpty, validation.Min(schema.MinPriority), validation.Max(schema.MaxPriority)),
		validation.Field(&u.Category, validation.NilOrNotEmpty, validation.In(categories()...)),
	)
}

// IsEmpty reports whether the update changes nothing.
func (u Update) IsEmpty() bool {
	return u.Enabled == nil && u.Priority == nil && u.Category == nil
}

// String renders the fields being set, for reports.
func (u Update) String() string {
	var parts []string
	if u.Enabled != nil {
		parts = append(parts, "portfolio_enabled="+strconv.FormatBool(*u.Enabled))
	}
	if u.Priority != nil {
		parts = append(parts, "portfolio_priority="+strconv.Itoa(*u.Priority))
	}
	if u.Category != nil {
		parts = append(parts, "category="+*u.Category)
	}
	return strings.Join(parts, " ")
}

type updateFile struct {
	Updates []Update `yaml:"updates"`
}

// ParseUpdates decodes an update list:
//
//	updates:
//	  - repo: invoice-bot
//	    portfolio_enabled: false
//	  - repo: marble
//	    category: Creative
func ParseUpdates(data []byte) ([]Update, error) {
	var f updateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("writeback: parse updates: %w", err)
	}
	for i, u := range f.Updates {
		if err := u.Validate(); err != nil {
			return nil, fmt.Errorf("writeback: update %d (%s): %w", i, u.Repo, err)
		}
	}
	return f.Updates, nil
}

// UpdateFrontmatter rewrites the lines of the header that set a field
// named in u. Only keys already present are changed; the body is never
// touched. It reports whether the content changed.
func UpdateFrontmatter(content []byte, u Update) ([]byte, bool) {
	lines := bytes.Split(content, []byte("\n"))

	start := -1
	for i, line := range lines {
		t := strings.TrimSpace(strings.TrimPrefix(string(line), "\uFEFF"))
		if t == "" {
			continue
		}
		if t == "---" {
			start = i
		}
		break
	}
	if start < 0 {
		return content, false
	}

	changed := false
	for i := start + 1; i < len(lines); i++ {
		line := string(lines[i])
		if strings.TrimSpace(line) == "---" {
			break
		}
		cr := ""
		if strings.HasSuffix(line, "\r") {
			cr = "\r"
		}

		var repl string
		switch {
		case u.Enabled != nil && strings.HasPrefix(line, "portfolio_enabled:"):
			repl = "portfolio_enabled: " + strconv.FormatBool(*u.Enabled)
		case u.Priority != nil && strings.HasPrefix(line, "portfolio_priority:"):
			repl = "portfolio_priority: " + strconv.Itoa(*u.Priority)
		case u.Category != nil && strings.HasPrefix(line, "category:"):
			repl = "category: " + strconv.Quote(*u.Category)
		default:
			continue
		}
		repl += cr
		if repl != line {
			lines[i] = []byte(repl)
			changed = true
		}
	}
	if !changed {
		return content, false
	}
	return bytes.Join(lines, []byte("\n")), true
}

func categories() []any {
	out := make([]any, len(models.Categories))
	for i, c := range models.Categories {
		out[i] = c
	}
	return out
}
