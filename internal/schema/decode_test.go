package schema

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const fullDoc = `---
portfolio_enabled: true
portfolio_priority: 1
portfolio_featured: true
title: "Invoice Bot"
tagline: "Turns email into invoices"
slug: invoice-bot
category: AI Automation
tech_stack: [Go, OpenAI]
thumbnail: /portfolio/invoice-bot/thumb.png
complexity: Enterprise
problem_solved: "Manual invoicing"
solution: "An agent"
key_outcomes:
  - "Saves 10h/week"
date_completed: 2024-05-01
---

# Invoice Bot

Details here.
`

func TestDecode_FullDocument(t *testing.T) {
	p, err := Decode([]byte(fullDoc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Slug != "invoice-bot" || p.Category != "AI Automation" {
		t.Errorf("unexpected identity: %+v", p)
	}
	if p.Status != "Production" || p.Problem != "Manual invoicing" {
		t.Errorf("legacy migration failed: status=%q problem=%q", p.Status, p.Problem)
	}
	if diff := cmp.Diff([]string{"Go", "OpenAI"}, p.TechStack); diff != "" {
		t.Errorf("tech_stack (-want +got):\n%s", diff)
	}
	if p.DateCompleted != "2024-05-01" {
		t.Errorf("date_completed = %q, want written form", p.DateCompleted)
	}
	if p.BodyMarkdown != "# Invoice Bot\n\nDetails here." {
		t.Errorf("body = %q", p.BodyMarkdown)
	}
	if !p.PortfolioFeatured {
		t.Error("portfolio_featured should be true")
	}
}

func TestDecode_NoFrontmatter(t *testing.T) {
	_, err := Decode([]byte("# Just a readme\n"))
	var verr *ValidationError
	if !errors.As(err, &verr) || !verr.Has("frontmatter") {
		t.Fatalf("expected frontmatter violation, got %v", err)
	}
}

func TestDecode_TypeErrorsSuppressDuplicateConstraints(t *testing.T) {
	doc := "---\nportfolio_enabled: true\nportfolio_priority: high\ntitle: X\ntagline: Y\nslug: x\ncategory: Tools\ntech_stack: [Go]\n---\n"
	_, err := Decode([]byte(doc))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	want := []FieldError{{Field: "portfolio_priority", Message: "must be an integer"}}
	if diff := cmp.Diff(want, verr.Fields); diff != "" {
		t.Errorf("fields (-want +got):\n%s", diff)
	}
}

func TestDecode_ReportsTypeAndConstraintErrorsTogether(t *testing.T) {
	doc := "---\nportfolio_enabled: maybe\nportfolio_priority: 2\ntagline: Y\nslug: Bad Slug\ncategory: Tools\ntech_stack: [Go]\n---\n"
	_, err := Decode([]byte(doc))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	for _, f := range []string{"portfolio_enabled", "slug", "title"} {
		if !verr.Has(f) {
			t.Errorf("missing %s in %v", f, verr.Fields)
		}
	}
}
