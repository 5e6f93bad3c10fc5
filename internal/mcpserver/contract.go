package mcpserver

// FrontmatterContract describes the header every project document must
// carry. LLM clients read it before drafting or editing a document.
const FrontmatterContract = `# Showcase Frontmatter Contract

Each repository publishes itself by committing a ` + "`" + `PORTFOLIO.md` + "`" + ` file at its
root. Locally, documents are named ` + "`" + `PORTFOLIO-<identifier>.md` + "`" + `.

## Structure

` + "```" + `markdown
---
portfolio_enabled: true          # REQUIRED - false hides the project
portfolio_priority: 3            # REQUIRED - integer 1..10, 1 shows first
portfolio_featured: false        # OPTIONAL

title: Invoice Bot               # REQUIRED - at most 100 characters
tagline: Invoices in one click   # REQUIRED - at most 300 characters
slug: invoice-bot                # REQUIRED - lowercase letters, digits, hyphens
category: AI Automation          # REQUIRED - see categories below
tech_stack:                      # REQUIRED - 1..20 entries
  - Go
  - SQLite
status: Production               # OPTIONAL - Production (default), MVP, Demo, Archived
thumbnail: /portfolio/invoice-bot/thumb.png

problem: What was broken          # OPTIONAL - at most 2000 characters
solution: What was built          # OPTIONAL - at most 2000 characters
key_features:                     # OPTIONAL - at most 10 entries
  - Parses PDFs
metrics:                          # OPTIONAL - at most 6 entries
  - 40 hours saved per month

demo_url: https://demo.example.com   # OPTIONAL - absolute URL
live_url: https://example.com        # OPTIONAL - absolute URL
hero_images:                         # OPTIONAL - at most 10 entries
  - /portfolio/invoice-bot/1.png
tags:                                # OPTIONAL - at most 10 entries
  - automation
date_completed: 2024-05
---

Free-form Markdown body shown on the project page.
` + "```" + `

## Categories

AI Automation, Templates, Tools, Developer Tools, Client Work, Games,
Marketing, Creative.

## Rules

1. **The header comes first.** The ` + "`" + `---` + "`" + ` fences must open the file.
2. **Image fields** (` + "`" + `thumbnail` + "`" + `, ` + "`" + `hero_images` + "`" + `) take an http(s) URL or a
   root-relative path starting with ` + "`" + `/` + "`" + `.
3. **Link fields** (` + "`" + `demo_url` + "`" + `, ` + "`" + `live_url` + "`" + `) take an absolute URL or stay empty.
4. **Slugs are unique.** When two documents share a slug only the later one is published.
5. **Every violation is reported at once**, so fix them all before re-running a sync.

## Legacy fields

Older documents may still use these names. They are read when the
current field is absent or empty:

| Legacy            | Current        |
|-------------------|----------------|
| ` + "`" + `complexity` + "`" + `      | ` + "`" + `status` + "`" + ` (Enterprise becomes Production) |
| ` + "`" + `problem_solved` + "`" + `  | ` + "`" + `problem` + "`" + `      |
| ` + "`" + `key_outcomes` + "`" + `    | ` + "`" + `key_features` + "`" + ` |
| ` + "`" + `thumbnail_url` + "`" + `   | ` + "`" + `thumbnail` + "`" + `    |
| ` + "`" + `hero_image_urls` + "`" + ` | ` + "`" + `hero_images` + "`" + `  |
`
