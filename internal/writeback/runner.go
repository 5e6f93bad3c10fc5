package writeback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/showcase/internal/apperr"
	"github.com/starford/showcase/internal/source"
)

// DefaultDelay is the pause between consecutive writes.
const DefaultDelay = 500 * time.Millisecond

// Commit messages.
const (
	DefaultMessage = "chore: update portfolio settings"
	AddMessage     = "Add PORTFOLIO.md for portfolio site"
	ReplaceMessage = "Update PORTFOLIO.md"
)

// Files reads and replaces repository files.
type Files interface {
	GetFile(ctx context.Context, repo, path string) (*source.File, error)
	PutFile(ctx context.Context, repo, path string, content []byte, sha, message string) error
}

// Item outcomes.
const (
	ItemUpdated   = "updated"
	ItemUnchanged = "unchanged"
	ItemMissing   = "missing"
	ItemFailed    = "failed"
)

// ItemResult records what happened to one update.
type ItemResult struct {
	Repo    string
	Status  string
	Message string
}

// Result summarises a batch.
type Result struct {
	DryRun  bool
	Items   []ItemResult
	Updated int
	Skipped int
	Failed  int
}

// WriteSummary prints one line per item and a totals line.
func (r *Result) WriteSummary(w io.Writer) error {
	for _, it := range r.Items {
		line := fmt.Sprintf("  %s: %s", it.Repo, it.Status)
		if it.Message != "" {
			line += " (" + it.Message + ")"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	suffix := ""
	if r.DryRun {
		suffix = " (dry run)"
	}
	_, err := fmt.Fprintf(w, "complete: %d updated, %d skipped, %d failed%s\n", r.Updated, r.Skipped, r.Failed, suffix)
	return err
}

// Runner applies header updates to remote documents one at a time.
type Runner struct {
	files   Files
	path    string
	delay   time.Duration
	message string
	logger  *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithDelay overrides DefaultDelay.
func WithDelay(d time.Duration) Option {
	return func(r *Runner) { r.delay = d }
}

// WithMessage overrides DefaultMessage.
func WithMessage(msg string) Option {
	return func(r *Runner) { r.message = msg }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a runner editing the document at path in each repo.
func NewRunner(files Files, path string, opts ...Option) *Runner {
	r := &Runner{
		files:   files,
		path:    path,
		delay:   DefaultDelay,
		message: DefaultMessage,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run applies updates in order. Per-repository failures are recorded and
// never stop the batch; only context cancellation does. With dryRun no
// file is written.
func (r *Runner) Run(ctx context.Context, updates []Update, dryRun bool) (*Result, error) {
	res := &Result{DryRun: dryRun}
	wrote := false

	for _, u := range updates {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		item := r.apply(ctx, u, dryRun, &wrote)
		switch item.Status {
		case ItemUpdated:
			res.Updated++
		case ItemFailed:
			res.Failed++
		default:
			res.Skipped++
		}
		res.Items = append(res.Items, item)
	}
	return res, nil
}

func (r *Runner) apply(ctx context.Context, u Update, dryRun bool, wrote *bool) ItemResult {
	log := r.logger.With(slog.String("repo", u.Repo))

	file, err := r.files.GetFile(ctx, u.Repo, r.path)
	if errors.Is(err, apperr.ErrNotFound) {
		log.Info("writeback: no document")
		return ItemResult{Repo: u.Repo, Status: ItemMissing}
	}
	if err != nil {
		log.Warn("writeback: read failed", slog.String("error", err.Error()))
		return ItemResult{Repo: u.Repo, Status: ItemFailed, Message: err.Error()}
	}

	updated, changed := UpdateFrontmatter(file.Content, u)
	if !changed {
		return ItemResult{Repo: u.Repo, Status: ItemUnchanged}
	}
	if dryRun {
		return ItemResult{Repo: u.Repo, Status: ItemUpdated, Message: "would set " + u.String()}
	}

	if err := r.pause(ctx, wrote); err != nil {
		return ItemResult{Repo: u.Repo, Status: ItemFailed, Message: err.Error()}
	}
	if err := r.files.PutFile(ctx, u.Repo, r.path, updated, file.SHA, r.message); err != nil {
		log.Warn("writeback: write failed", slog.String("error", err.Error()))
		return ItemResult{Repo: u.Repo, Status: ItemFailed, Message: err.Error()}
	}
	log.Info("writeback: updated", slog.String("set", u.String()))
	return ItemResult{Repo: u.Repo, Status: ItemUpdated, Message: "set " + u.String()}
}

// Document is a whole file to publish to a repository.
type Document struct {
	Repo    string
	Content []byte
}

// Publish creates or replaces the document in each repository. As with
// Run, failures are per item.
func (r *Runner) Publish(ctx context.Context, docs []Document, dryRun bool) (*Result, error) {
	res := &Result{DryRun: dryRun}
	wrote := false

	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		item := r.publish(ctx, d, dryRun, &wrote)
		if item.Status == ItemUpdated {
			res.Updated++
		} else {
			res.Failed++
		}
		res.Items = append(res.Items, item)
	}
	return res, nil
}

func (r *Runner) publish(ctx context.Context, d Document, dryRun bool, wrote *bool) ItemResult {
	log := r.logger.With(slog.String("repo", d.Repo))

	sha, message := "", AddMessage
	existing, err := r.files.GetFile(ctx, d.Repo, r.path)
	switch {
	case err == nil:
		sha, message = existing.SHA, ReplaceMessage
	case !errors.Is(err, apperr.ErrNotFound):
		log.Warn("writeback: read failed", slog.String("error", err.Error()))
		return ItemResult{Repo: d.Repo, Status: ItemFailed, Message: err.Error()}
	}

	if dryRun {
		return ItemResult{Repo: d.Repo, Status: ItemUpdated, Message: "would " + strings.ToLower(message)}
	}
	if err := r.pause(ctx, wrote); err != nil {
		return ItemResult{Repo: d.Repo, Status: ItemFailed, Message: err.Error()}
	}
	if err := r.files.PutFile(ctx, d.Repo, r.path, d.Content, sha, message); err != nil {
		log.Warn("writeback: push failed", slog.String("error", err.Error()))
		return ItemResult{Repo: d.Repo, Status: ItemFailed, Message: err.Error()}
	}
	log.Info("writeback: pushed", slog.Bool("replaced", sha != ""))
	return ItemResult{Repo: d.Repo, Status: ItemUpdated, Message: strings.ToLower(message)}
}

// pause waits out the inter-write delay unless this is the first write.
func (r *Runner) pause(ctx context.Context, wrote *bool) error {
	if *wrote && r.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.delay):
		}
	}
	*wrote = true
	return nil
}
