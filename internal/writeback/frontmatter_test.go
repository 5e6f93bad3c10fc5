package writeback

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/showcase/internal/schema"
)

const doc = `---
portfolio_enabled: true
portfolio_priority: 4
title: Invoice Bot
slug: invoice-bot
category: Tools
tagline: Invoices in one click
tech_stack: [Go]
---

category: this line is body text
portfolio_enabled: true
`

func ptr[T any](v T) *T { return &v }

func TestUpdateFrontmatter(t *testing.T) {
	got, changed := UpdateFrontmatter([]byte(doc), Update{
		Enabled:  ptr(false),
		Priority: ptr(1),
		Category: ptr("AI Automation"),
	})
	if !changed {
		t.Fatal("expected a change")
	}
	want := strings.NewReplacer(
		"portfolio_enabled: true\nportfolio_priority: 4", "portfolio_enabled: false\nportfolio_priority: 1",
		"category: Tools", `category: "AI Automation"`,
	).Replace(doc)
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	p, err := schema.Decode(got)
	if err != nil {
		t.Fatalf("rewritten document no longer decodes: %v", err)
	}
	if p.PortfolioEnabled || p.PortfolioPriority != 1 || p.Category != "AI Automation" {
		t.Errorf("unexpected decoded record: %+v", p)
	}
}

func TestUpdateFrontmatter_NoChange(t *testing.T) {
	cases := map[string]Update{
		"same value":    {Enabled: ptr(true)},
		"empty":         {},
		"same priority": {Priority: ptr(4)},
	}
	for name, u := range cases {
		t.Run(name, func(t *testing.T) {
			got, changed := UpdateFrontmatter([]byte(doc), u)
			if changed || string(got) != doc {
				t.Errorf("content changed: %q", got)
			}
		})
	}
}

func TestUpdateFrontmatter_AbsentKeyNotAdded(t *testing.T) {
	in := "---\ntitle: X\n---\nbody\n"
	got, changed := UpdateFrontmatter([]byte(in), Update{Enabled: ptr(false)})
	if changed || string(got) != in {
		t.Errorf("absent key should not be added: %q", got)
	}
}

func TestUpdateFrontmatter_NoHeader(t *testing.T) {
	in := "# Title\n\nportfolio_enabled: true\n"
	if _, changed := UpdateFrontmatter([]byte(in), Update{Enabled: ptr(false)}); changed {
		t.Error("document without header must not change")
	}
}

func TestUpdateFrontmatter_CRLF(t *testing.T) {
	in := "---\r\nportfolio_enabled: true\r\n---\r\nbody\r\n"
	got, changed := UpdateFrontmatter([]byte(in), Update{Enabled: ptr(false)})
	if !changed {
		t.Fatal("expected a change")
	}
	if want := "---\r\nportfolio_enabled: false\r\n---\r\nbody\r\n"; string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseUpdates(t *testing.T) {
	data := []byte(`
updates:
  - repo: ai-portfolio
    portfolio_enabled: false
  - repo: marble
    category: Creative
    portfolio_priority: 2
`)
	got, err := ParseUpdates(data)
	if err != nil {
		t.Fatalf("ParseUpdates: %v", err)
	}
	want := []Update{
		{Repo: "ai-portfolio", Enabled: ptr(false)},
		{Repo: "marble", Category: ptr("Creative"), Priority: ptr(2)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseUpdates_Invalid(t *testing.T) {
	cases := map[string]string{
		"missing repo":   "updates:\n  - portfolio_enabled: false\n",
		"bad category":   "updates:\n  - repo: x\n    category: Robots\n",
		"bad priority":   "updates:\n  - repo: x\n    portfolio_priority: 11\n",
		"malformed yaml": "updates: [\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseUpdates([]byte(data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
