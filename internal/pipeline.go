package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/starford/showcase/internal/aggregate"
	"github.com/starford/showcase/internal/apperr"
	"github.com/starford/showcase/internal/catalog"
	"github.com/starford/showcase/internal/checksum"
	"github.com/starford/showcase/internal/index"
	"github.com/starford/showcase/internal/models"
	"github.com/starford/showcase/internal/source"
	"github.com/starford/showcase/internal/storage"
)

type application struct {
	config  *Config
	out     io.Writer
	logOut  io.Writer
	now     func() time.Time
	version string
	logger  *slog.Logger
}

func newApplication(opts []Option) (*application, error) {
	app := &application{
		out:     os.Stdout,
		logOut:  os.Stderr,
		now:     time.Now,
		version: "dev",
	}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	app.logger = slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(app.logger)
	return app, nil
}

// rootStore opens the local root, creating it if needed.
func (a *application) rootStore() (*storage.FS, error) {
	root := a.config.Local.Root
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create root dir: %w", err)
	}
	store, err := storage.NewFS(root)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	return store, nil
}

// imagesDir resolves the images directory against the local root.
func (a *application) imagesDir() string {
	dir := a.config.Output.ImagesDir
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(a.config.Local.Root, dir)
}

// github builds the remote source. requireToken makes a missing token a
// configuration error.
func (a *application) github(requireToken bool) (*source.GitHub, error) {
	cfg := a.config.GitHub
	if requireToken && cfg.Token == "" {
		return nil, apperr.Configuration("GITHUB_TOKEN is required")
	}
	return source.NewGitHub(source.GitHubConfig{
		APIBase:      cfg.APIBase,
		Owner:        cfg.Owner,
		Token:        cfg.Token,
		DocumentPath: cfg.DocumentPath,
		MaxPages:     cfg.MaxPages,
		MaxRetries:   cfg.MaxRetries,
		Logger:       a.logger,
	})
}

// localSource layers the drafts directory over the files directory.
func (a *application) localSource(store storage.Provider) source.Source {
	cfg := a.config.Local
	opts := []source.DirOption{
		source.WithPrefix(cfg.Prefix),
		source.WithOwner(a.config.GitHub.Owner),
		source.WithDirLogger(a.logger),
	}
	return source.NewLayered(
		source.NewDir("files", store, cfg.FilesDir, opts...),
		source.NewDir("drafts", store, cfg.DraftsDir, opts...),
	)
}

func (a *application) engine(src source.Source, limit int) *aggregate.Engine {
	return aggregate.New(src,
		aggregate.WithConcurrency(a.config.Sync.Concurrency),
		aggregate.WithFetchTimeout(a.config.Sync.FetchTimeout),
		aggregate.WithLimit(limit),
		aggregate.WithClock(a.now),
		aggregate.WithLogger(a.logger),
	)
}

// syncTo aggregates src and, unless dryRun, publishes the dataset to
// store and mirrors it into db. db may be nil.
func (a *application) syncTo(ctx context.Context, src source.Source, store storage.Provider, db *index.DB, limit int, dryRun bool) (models.Dataset, *aggregate.Report, error) {
	ds, report, err := a.engine(src, limit).Run(ctx)
	if err != nil {
		return models.Dataset{}, nil, err
	}
	summary := report.Summary()
	a.logger.Info("sync: finished",
		slog.String("run_id", report.RunID),
		slog.String("source", report.Source),
		slog.Int("total", summary.Total),
		slog.Int("accepted", summary.Accepted),
		slog.Bool("dry_run", dryRun))
	if dryRun {
		return ds, report, nil
	}

	data, err := aggregate.Marshal(ds)
	if err != nil {
		return models.Dataset{}, nil, err
	}
	if err := store.Write(a.config.Output.Dataset, data); err != nil {
		return models.Dataset{}, nil, fmt.Errorf("publish dataset: %w", err)
	}
	a.logger.Info("sync: dataset published",
		slog.String("path", a.config.Output.Dataset),
		slog.String("checksum", checksum.Short(data)))

	if db != nil {
		prev, err := db.Checksums()
		if err != nil {
			return models.Dataset{}, nil, fmt.Errorf("read index: %w", err)
		}
		a.logger.Info("sync: index refreshed",
			slog.Int("changed", changedProjects(prev, ds)),
			slog.Int("previous", len(prev)))
		if err := db.ReplaceProjects(ds); err != nil {
			return models.Dataset{}, nil, fmt.Errorf("index dataset: %w", err)
		}
		if err := db.RecordRun(runRow(report, checksum.Sum(data))); err != nil {
			return models.Dataset{}, nil, fmt.Errorf("record run: %w", err)
		}
	}
	return ds, report, nil
}

// loadCatalog reads the published dataset and override. db, when set,
// backs search.
func (a *application) loadCatalog(store storage.Provider, db *index.DB) (*catalog.Catalog, error) {
	var opts []catalog.Option
	if db != nil {
		opts = append(opts, catalog.WithSearcher(db))
	}
	return catalog.Load(store, a.config.Output.Dataset, a.config.Output.Order, opts...)
}

// changedProjects counts projects that are new or differ from the
// previously indexed record.
func changedProjects(prev map[string]string, ds models.Dataset) int {
	n := 0
	for _, p := range ds.Projects {
		record, err := json.Marshal(p)
		if err != nil || prev[p.Slug] != checksum.Sum(record) {
			n++
		}
	}
	return n
}

func runRow(r *aggregate.Report, datasetChecksum string) index.RunRow {
	s := r.Summary()
	return index.RunRow{
		RunID:           r.RunID,
		Source:          r.Source,
		StartedAt:       r.StartedAt,
		FinishedAt:      r.FinishedAt,
		Total:           s.Total,
		Accepted:        s.Accepted,
		Disabled:        s.Disabled,
		Invalid:         s.Invalid,
		Errored:         s.Errored,
		Missing:         s.Missing,
		Replaced:        s.Replaced,
		DatasetChecksum: datasetChecksum,
	}
}
