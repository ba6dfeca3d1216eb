// Package internal wires configuration, storage, history and the catalog
// into the til commands.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/til/internal/api"
	"github.com/starford/til/internal/history"
	"github.com/starford/til/internal/index"
	"github.com/starford/til/internal/mcpserver"
	"github.com/starford/til/internal/noteservice"
	"github.com/starford/til/internal/sse"
	"github.com/starford/til/internal/storage"
)

// Version is reported by the MCP server.
var Version = "dev"

const shutdownTimeout = 10 * time.Second

func newApplication(opts []Option) (*application, error) {
	app := &application{out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := app.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if app.logger == nil {
		// stdout carries the printed index and MCP traffic, so logs go to stderr.
		app.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
	}
	slog.SetDefault(app.logger)
	return app, nil
}

// open builds the note service over the configured tree and catalog. The
// returned close func releases the database.
func (a *application) open(out io.Writer) (*noteservice.Service, func(), error) {
	cfg := a.config

	a.logger.Info("Configuration loaded",
		slog.String("notes_root", cfg.Notes.Root),
		slog.String("repo_path", cfg.Repo.RepoPath(cfg.Notes.Root)),
		slog.String("ref", cfg.Repo.Ref),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("readme_path", a.readmePath()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := storage.NewFS(cfg.Notes.Root)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init index: %w", err)
	}

	svc := noteservice.NewService(store, db, noteservice.Options{
		NotesRoot:  cfg.Notes.Root,
		RepoPath:   cfg.Repo.RepoPath(cfg.Notes.Root),
		Ref:        cfg.Repo.Ref,
		BaseURL:    cfg.Repo.BaseURL,
		ReadmePath: a.readmePath(),
		Prune:      a.prune,
		Output:     out,
	}, a.logger)

	return svc, func() { _ = db.Close() }, nil
}

// readmePath resolves a relative README path against the notes root.
func (a *application) readmePath() string {
	p := a.config.Readme.Path
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.config.Notes.Root, p)
}

// Run executes the pipeline once: extract history, build the catalog and
// either rewrite the README or print its index fragment.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	svc, closeDB, err := app.open(app.out)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := svc.Update(ctx, app.rewrite); err != nil {
		app.logger.Error("pipeline failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// Serve runs the pipeline with a README rewrite and then serves the
// catalog over HTTP until ctx is cancelled or a signal arrives. With watch
// enabled every change to the tree or the repository triggers a rebuild.
func Serve(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger

	svc, closeDB, err := app.open(io.Discard)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := svc.Update(ctx, true); err != nil {
		return fmt.Errorf("initial build: %w", err)
	}

	broker := sse.NewBroker(cfg.Watch.Debounce, logger)
	defer broker.Close()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", api.Health)
	r.Get("/health/ready", api.Health)

	r.Mount("/api", api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if app.watch {
		worktree, err := history.Worktree(cfg.Repo.RepoPath(cfg.Notes.Root))
		if err != nil {
			return err
		}
		gitDir := filepath.Join(worktree, ".git")
		g.Go(func() error {
			return index.Watch(gCtx, cfg.Notes.Root, gitDir, cfg.Watch.Debounce, logger, func(ctx context.Context) {
				if err := svc.Update(ctx, true); err != nil {
					logger.Error("rebuild failed", slog.String("error", err.Error()))
					return
				}
				n, err := svc.Count(ctx)
				if err != nil {
					logger.Error("count after rebuild failed", slog.String("error", err.Error()))
					return
				}
				broker.PublishRebuilt(n)
			})
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

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

		// Closing the broker ends open SSE streams so Shutdown does not wait on them.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group's context so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// ServeMCP builds the catalog (without touching the README) and serves
// the MCP tools on stdin/stdout.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	svc, closeDB, err := app.open(io.Discard)
	if err != nil {
		return err
	}
	defer closeDB()

	if _, err := svc.Refresh(ctx); err != nil {
		return fmt.Errorf("initial build: %w", err)
	}

	app.logger.Info("Starting MCP server on stdio")
	return mcpserver.New(svc, Version).ServeStdio()
}

// Search prints "key\ttitle" for every hit in the existing catalog. It
// does not rebuild.
func Search(ctx context.Context, query string, limit int, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	svc, closeDB, err := app.open(io.Discard)
	if err != nil {
		return err
	}
	defer closeDB()

	results, err := svc.Search(ctx, query, limit)
	if err != nil {
		return err
	}
	for _, r := range results {
		if _, err := fmt.Fprintf(app.out, "%s\t%s\n", r.Path, r.Title); err != nil {
			return err
		}
	}
	return nil
}

// requestLogger logs each request through slog instead of chi's text logger.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
