package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/starford/showcase/internal/catalog"
	"github.com/starford/showcase/internal/draft"
	"github.com/starford/showcase/internal/images"
	"github.com/starford/showcase/internal/index"
	"github.com/starford/showcase/internal/mcpserver"
	"github.com/starford/showcase/internal/source"
	"github.com/starford/showcase/internal/storage"
	"github.com/starford/showcase/internal/writeback"
)

// SyncParams controls a one-shot aggregation.
type SyncParams struct {
	// Limit caps how many projects are considered; zero means all.
	Limit  int
	DryRun bool
}

// Sync aggregates every repository of the configured owner and publishes
// the dataset.
func Sync(ctx context.Context, params SyncParams, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	gh, err := app.github(true)
	if err != nil {
		return err
	}
	return app.runSync(ctx, gh, params)
}

// SyncLocal aggregates the local document directories and publishes the
// dataset. Drafts take precedence over files with the same identifier.
func SyncLocal(ctx context.Context, params SyncParams, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	store, err := app.rootStore()
	if err != nil {
		return err
	}
	return app.runSync(ctx, app.localSource(store), params)
}

func (a *application) runSync(ctx context.Context, src source.Source, params SyncParams) error {
	store, err := a.rootStore()
	if err != nil {
		return err
	}

	var db *index.DB
	if !params.DryRun {
		db, err = index.Open(a.config.SQLite.Path)
		if err != nil {
			return fmt.Errorf("init index: %w", err)
		}
		defer db.Close()
	}

	fmt.Fprintf(a.out, "syncing from %s\n", src.Name())
	ds, report, err := a.syncTo(ctx, src, store, db, params.Limit, params.DryRun)
	if err != nil {
		return err
	}
	if err := report.WriteSummary(a.out); err != nil {
		return err
	}
	if params.DryRun {
		_, err = fmt.Fprintf(a.out, "dry run: %d projects not written\n", len(ds.Projects))
		return err
	}
	_, err = fmt.Fprintf(a.out, "wrote %d projects to %s\n", len(ds.Projects), a.config.Output.Dataset)
	return err
}

// ServeMCP exposes the published catalog to MCP clients over stdio.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	store, err := app.rootStore()
	if err != nil {
		return err
	}

	var db *index.DB
	if _, statErr := os.Stat(app.config.SQLite.Path); statErr == nil {
		db, err = index.Open(app.config.SQLite.Path)
		if err != nil {
			return fmt.Errorf("init index: %w", err)
		}
		defer db.Close()
	}

	cat, err := app.loadCatalog(store, db)
	if err != nil {
		return err
	}
	app.logger.Info("mcp: serving", slog.Int("projects", cat.Len()))

	srv := mcpserver.New(catalog.NewHolder(cat), app.version)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ServeStdio() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}

// DraftsParams controls draft generation.
type DraftsParams struct {
	// Filter keeps repositories whose name contains it.
	Filter string
	Limit  int
	// Write stores each draft in the drafts directory.
	Write bool
	// Push commits each draft to its repository.
	Push   bool
	DryRun bool
}

// Drafts lists repositories without a document and suggests one for
// each.
func Drafts(ctx context.Context, params DraftsParams, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	gh, err := app.github(true)
	if err != nil {
		return err
	}

	candidates, err := draft.NewFinder(gh, app.now, app.logger).Missing(ctx, params.Filter, params.Limit)
	if err != nil {
		return err
	}
	if err := draft.WriteTable(app.out, candidates); err != nil {
		return err
	}
	if len(candidates) == 0 || (!params.Write && !params.Push) {
		return nil
	}

	var store *storage.FS
	if params.Write {
		if store, err = app.rootStore(); err != nil {
			return err
		}
	}

	docs := make([]writeback.Document, 0, len(candidates))
	for _, c := range candidates {
		content, err := draft.Render(c.Repo, app.now())
		if err != nil {
			return err
		}
		docs = append(docs, writeback.Document{Repo: c.Repo.Name, Content: content})

		if params.Write {
			if err := app.writeDraft(store, c.Repo.Name, content, params.DryRun); err != nil {
				return err
			}
		}
	}

	if !params.Push {
		return nil
	}
	runner := writeback.NewRunner(gh, app.config.GitHub.DocumentPath,
		writeback.WithDelay(app.config.Sync.WriteDelay),
		writeback.WithLogger(app.logger))
	res, err := runner.Publish(ctx, docs, params.DryRun)
	if res != nil {
		if werr := res.WriteSummary(app.out); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}

// writeDraft stores content unless a draft for name already exists.
func (a *application) writeDraft(store *storage.FS, name string, content []byte, dryRun bool) error {
	path := a.config.Local.DraftsDir + "/" + source.FileName(a.config.Local.Prefix, name)
	exists, err := store.Exists(path)
	if err != nil {
		return err
	}
	switch {
	case exists:
		_, err = fmt.Fprintf(a.out, "  %s: exists, kept\n", path)
	case dryRun:
		_, err = fmt.Fprintf(a.out, "  %s: would write\n", path)
	default:
		if err := store.Write(path, content); err != nil {
			return fmt.Errorf("write draft: %w", err)
		}
		_, err = fmt.Fprintf(a.out, "  %s: written\n", path)
	}
	return err
}

// UpdateParams controls a frontmatter writeback.
type UpdateParams struct {
	// File is a YAML list of updates.
	File   string
	DryRun bool
}

// Update edits header fields of remote documents in place.
func Update(ctx context.Context, params UpdateParams, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(params.File)
	if err != nil {
		return fmt.Errorf("read updates: %w", err)
	}
	updates, err := writeback.ParseUpdates(data)
	if err != nil {
		return err
	}
	gh, err := app.github(true)
	if err != nil {
		return err
	}

	runner := writeback.NewRunner(gh, app.config.GitHub.DocumentPath,
		writeback.WithDelay(app.config.Sync.WriteDelay),
		writeback.WithLogger(app.logger))
	res, err := runner.Run(ctx, updates, params.DryRun)
	if res != nil {
		if werr := res.WriteSummary(app.out); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}

// ImagesParams controls screenshot discovery.
type ImagesParams struct {
	// Download copies each image into the images directory.
	Download bool
}

// Images lists the screenshots each published project keeps in its
// repository, optionally downloading them.
func Images(ctx context.Context, params ImagesParams, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	gh, err := app.github(false)
	if err != nil {
		return err
	}
	store, err := app.rootStore()
	if err != nil {
		return err
	}
	cat, err := app.loadCatalog(store, nil)
	if err != nil {
		return err
	}

	var (
		fetcher *images.Fetcher
		dest    *storage.FS
	)
	if params.Download {
		dir := app.imagesDir()
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create images dir: %w", err)
		}
		if dest, err = storage.NewFS(dir); err != nil {
			return err
		}
		fetcher = images.NewFetcher(gh.Client())
	}

	var found, saved int
	for _, p := range cat.Dataset().Projects {
		repo := p.RepoName
		if repo == "" {
			continue
		}
		assets, err := source.FindImages(ctx, gh, repo)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			app.logger.Warn("images: list failed", slog.String("repo", repo), slog.String("error", err.Error()))
			continue
		}
		if len(assets) == 0 {
			continue
		}

		fmt.Fprintf(app.out, "%s (%d)\n", p.Slug, len(assets))
		for _, a := range assets {
			found++
			line := fmt.Sprintf("  %s  %s", a.Path, humanize.Bytes(uint64(a.Size)))
			if fetcher != nil {
				line += "  " + app.downloadImage(ctx, fetcher, dest, p.Slug, a, &saved)
			}
			fmt.Fprintln(app.out, line)
		}
	}

	if params.Download {
		_, err = fmt.Fprintf(app.out, "found %d images, saved %d\n", found, saved)
	} else {
		_, err = fmt.Fprintf(app.out, "found %d images\n", found)
	}
	return err
}

func (a *application) downloadImage(ctx context.Context, f *images.Fetcher, dest storage.Provider, slug string, asset source.Asset, saved *int) string {
	img, err := f.Fetch(ctx, asset.URL, asset.Name)
	if err != nil {
		a.logger.Warn("images: fetch failed", slog.String("url", asset.URL), slog.String("error", err.Error()))
		return "failed"
	}
	public, err := images.Save(dest, slug, img)
	if errors.Is(err, images.ErrExists) {
		return "exists"
	}
	if err != nil {
		a.logger.Warn("images: save failed", slog.String("file", img.Filename), slog.String("error", err.Error()))
		return "failed"
	}
	*saved++
	return "-> " + public
}
