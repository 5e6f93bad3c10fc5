package aggregate

import (
	"fmt"
	"io"
	"time"

	"github.com/starford/showcase/internal/schema"
)

// Status is the fate of one project identifier in a run.
type Status string

const (
	StatusAccepted        Status = "accepted"
	StatusSkippedMissing  Status = "skipped_missing"
	StatusSkippedInvalid  Status = "skipped_invalid"
	StatusSkippedDisabled Status = "skipped_disabled"
	StatusSkippedError    Status = "skipped_error"
	// StatusReplaced marks an accepted record displaced by a later
	// identifier declaring the same slug.
	StatusReplaced Status = "replaced"
)

// Outcome records what happened to one project identifier.
type Outcome struct {
	ProjectID string              `json:"project_id"`
	Status    Status              `json:"status"`
	Slug      string              `json:"slug,omitempty"`
	Source    string              `json:"source,omitempty"`
	Message   string              `json:"message,omitempty"`
	Errors    []schema.FieldError `json:"errors,omitempty"`
	Duration  time.Duration       `json:"duration"`
}

// Report is the outcome log of one run, in input order.
type Report struct {
	RunID      string    `json:"run_id"`
	Source     string    `json:"source"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Summary counts outcomes per status.
type Summary struct {
	Total    int `json:"total"`
	Accepted int `json:"accepted"`
	Disabled int `json:"skipped_disabled"`
	Invalid  int `json:"skipped_invalid"`
	Errored  int `json:"skipped_error"`
	Missing  int `json:"skipped_missing"`
	Replaced int `json:"replaced"`
}

// Summary tallies the report.
func (r *Report) Summary() Summary {
	s := Summary{Total: len(r.Outcomes)}
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusAccepted:
			s.Accepted++
		case StatusSkippedDisabled:
			s.Disabled++
		case StatusSkippedInvalid:
			s.Invalid++
		case StatusSkippedError:
			s.Errored++
		case StatusSkippedMissing:
			s.Missing++
		case StatusReplaced:
			s.Replaced++
		}
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("accepted: %d, skipped-disabled: %d, skipped-invalid: %d, skipped-error: %d, skipped-missing: %d, replaced: %d",
		s.Accepted, s.Disabled, s.Invalid, s.Errored, s.Missing, s.Replaced)
}

var statusLabels = map[Status]string{
	StatusAccepted:        "added",
	StatusSkippedMissing:  "skipped (no document)",
	StatusSkippedInvalid:  "skipped (invalid frontmatter)",
	StatusSkippedDisabled: "skipped (disabled)",
	StatusSkippedError:    "skipped (error)",
	StatusReplaced:        "replaced (duplicate slug)",
}

// WriteSummary prints one line per project, every field violation of
// invalid documents, and the final counts.
func (r *Report) WriteSummary(w io.Writer) error {
	for _, o := range r.Outcomes {
		line := fmt.Sprintf("  %s: %s", o.ProjectID, statusLabels[o.Status])
		if o.Message != "" {
			line += ": " + o.Message
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		for _, fe := range o.Errors {
			if _, err := fmt.Fprintf(w, "     - %s\n", fe); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "\nrun %s: %d projects (%s)\n", r.RunID, r.Summary().Accepted, r.Summary())
	return err
}
