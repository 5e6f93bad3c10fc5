// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/showcase/internal/api"
	"github.com/starford/showcase/internal/catalog"
	"github.com/starford/showcase/internal/index"
	"github.com/starford/showcase/internal/sse"
	"github.com/starford/showcase/internal/storage"
	"github.com/starford/showcase/internal/watch"
)

// ServeParams controls the HTTP server.
type ServeParams struct {
	// Watch re-aggregates the local directories whenever a document or
	// the ordering override changes.
	Watch bool
}

// Serve starts the read API with the given options and blocks until ctx
// is cancelled or a shutdown signal arrives.
func Serve(ctx context.Context, params ServeParams, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("root", cfg.Local.Root),
		slog.String("dataset", cfg.Output.Dataset),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()),
		slog.Bool("watch", params.Watch))

	store, err := app.rootStore()
	if err != nil {
		return err
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	cat, err := app.loadCatalog(store, db)
	if err != nil {
		return err
	}
	if err := db.ReplaceProjects(cat.Dataset()); err != nil {
		logger.Warn("initial index failed", slog.String("error", err.Error()))
	}
	holder := catalog.NewHolder(cat)

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	apiRouter := api.NewRouter(holder, api.RouterConfig{
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
		Runs:        db,
		Events:      broker,
		ImagesDir:   app.imagesDir(),
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.Int("projects", cat.Len()))

	g, gCtx := errgroup.WithContext(ctx)

	if params.Watch {
		wcfg, err := app.watchConfig(store, db, holder, broker)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return watch.Watch(gCtx, wcfg)
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// watchConfig watches both document directories and the ordering
// override. Each burst of changes re-aggregates the local documents,
// republishes, and swaps the served catalog.
func (a *application) watchConfig(store *storage.FS, db *index.DB, holder *catalog.Holder, broker *sse.Broker) (watch.Config, error) {
	cfg := a.config
	files, err := store.Abs(cfg.Local.FilesDir)
	if err != nil {
		return watch.Config{}, fmt.Errorf("watch: %w", err)
	}
	drafts, err := store.Abs(cfg.Local.DraftsDir)
	if err != nil {
		return watch.Config{}, fmt.Errorf("watch: %w", err)
	}
	order, err := store.Abs(cfg.Output.Order)
	if err != nil {
		return watch.Config{}, fmt.Errorf("watch: %w", err)
	}

	docDirs := map[string]bool{files: true, drafts: true}
	match := func(path string) bool {
		if path == order {
			return true
		}
		return docDirs[filepath.Dir(path)] && strings.HasSuffix(strings.ToLower(path), ".md")
	}

	src := a.localSource(store)
	resync := func(ctx context.Context) error {
		_, report, err := a.syncTo(ctx, src, store, db, 0, false)
		if err != nil {
			return err
		}
		cat, err := a.loadCatalog(store, db)
		if err != nil {
			return err
		}
		holder.Swap(cat)
		broker.PublishDatasetUpdated(report.Summary())
		return nil
	}

	return watch.Config{
		Dirs:     []string{files, drafts, filepath.Dir(order)},
		Match:    match,
		Debounce: cfg.Sync.WatchDebounce,
		Resync:   resync,
		OnEvent: func(kind, path string) {
			rel, err := filepath.Rel(store.Root(), path)
			if err != nil {
				rel = path
			}
			broker.PublishDocumentEvent(kind, filepath.ToSlash(rel))
		},
		Logger: a.logger,
	}, nil
}
