// Package internal provides the main application initialization and runtime logic.
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
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/propdoc/internal/api"
	"github.com/starford/propdoc/internal/docgen"
	"github.com/starford/propdoc/internal/mcpserver"
	"github.com/starford/propdoc/internal/preview"
	"github.com/starford/propdoc/internal/source"
	"github.com/starford/propdoc/internal/sse"
	"github.com/starford/propdoc/internal/storage"
)

// ErrOutdated is returned by Check when the document on disk differs from a
// fresh render.
var ErrOutdated = errors.New("document is out of date")

type session struct {
	cfg    *Config
	logger *slog.Logger
	src    source.Source
	gen    *docgen.Generator
	stdout io.Writer
}

func newSession(opts []Option) (*application, *session, error) {
	app := &application{stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	// Structured JSON logger on stderr; stdout is reserved for documents
	// and the MCP stdio transport.
	logger := slog.New(slog.NewJSONHandler(app.stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Debug("Configuration loaded",
		slog.String("source_kind", cfg.Source.Kind),
		slog.String("source_path", cfg.Source.Path),
		slog.String("output_dir", cfg.Output.Dir),
		slog.String("output_file", cfg.Output.File),
		slog.String("log_level", cfg.App.LogLevel.String()))

	header, err := readOptional(cfg.Output.HeaderPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	footer, err := readOptional(cfg.Output.FooterPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read footer: %w", err)
	}

	store, err := storage.NewFS(cfg.Output.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	src, err := source.Open(cfg.Source.Kind, cfg.Source.Path, cfg.Source.Root)
	if err != nil {
		return nil, nil, fmt.Errorf("init source: %w", err)
	}

	gen := docgen.New(src, store, docgen.Options{
		Render:        cfg.Render.Renderer(),
		Layout:        cfg.Render.Layout(),
		OutlineFormat: cfg.Render.OutlineFormat,
		StrictNames:   cfg.Render.StrictNames,
		Header:        header,
		Footer:        footer,
		OutputPath:    cfg.Output.File,
	}, logger)

	return app, &session{cfg: cfg, logger: logger, src: src, gen: gen, stdout: app.stdout}, nil
}

func readOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Generate writes the document once, or keeps regenerating it on source
// changes when WithWatch(true) is set.
func Generate(ctx context.Context, opts ...Option) error {
	app, rt, err := newSession(opts)
	if err != nil {
		return err
	}
	defer rt.src.Close()

	if _, err := rt.gen.Generate(ctx); err != nil {
		if !app.watch {
			return err
		}
		rt.logger.Error("generation failed", slog.String("error", err.Error()))
	}
	if !app.watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return source.Watch(ctx, rt.src.Path(), rt.logger, func() {
		if _, err := rt.gen.Generate(ctx); err != nil {
			rt.logger.Error("regeneration failed", slog.String("error", err.Error()))
		}
	})
}

// Check prints a unified diff between the document on disk and a fresh
// render, and returns ErrOutdated when they differ.
func Check(ctx context.Context, opts ...Option) error {
	_, rt, err := newSession(opts)
	if err != nil {
		return err
	}
	defer rt.src.Close()

	diff, err := rt.gen.Check(ctx)
	if err != nil {
		return err
	}
	if diff == "" {
		rt.logger.Info("document is up to date", slog.String("path", rt.cfg.Output.File))
		return nil
	}
	_, _ = io.WriteString(rt.stdout, diff)
	return ErrOutdated
}

// Preview renders the document and prints it styled for the terminal.
func Preview(ctx context.Context, width int, opts ...Option) error {
	_, rt, err := newSession(opts)
	if err != nil {
		return err
	}
	defer rt.src.Close()

	res, err := rt.gen.Render(ctx)
	if err != nil {
		return err
	}
	pr := preview.New(width)
	pr.Style = preview.StyleFor(rt.stdout)
	out, err := pr.Render(res.Document)
	if err != nil {
		return err
	}
	_, err = io.WriteString(rt.stdout, out)
	return err
}

// Import copies a YAML property tree into the configured SQLite source.
func Import(ctx context.Context, from string, opts ...Option) error {
	_, rt, err := newSession(opts)
	if err != nil {
		return err
	}
	defer rt.src.Close()

	db, ok := rt.src.(*source.SQLite)
	if !ok {
		return fmt.Errorf("import requires a %q source, got %q", source.KindSQLite, rt.cfg.Source.Kind)
	}
	root, err := source.NewYAMLFile(from).Load(ctx)
	if err != nil {
		return err
	}
	if err := db.Import(ctx, root); err != nil {
		return err
	}
	rt.logger.Info("properties imported",
		slog.String("from", from),
		slog.String("root", root.Label),
		slog.Int("properties", root.Count()))
	return nil
}

// ServeMCP exposes the generator as MCP tools over stdio.
func ServeMCP(_ context.Context, opts ...Option) error {
	_, rt, err := newSession(opts)
	if err != nil {
		return err
	}
	defer rt.src.Close()

	return mcpserver.New(rt.gen).ServeStdio()
}

// Serve starts the HTTP API and blocks until a shutdown signal arrives or
// ctx is cancelled.
func Serve(ctx context.Context, opts ...Option) error {
	_, rt, err := newSession(opts)
	if err != nil {
		return err
	}
	defer rt.src.Close()
	cfg, logger := rt.cfg, rt.logger

	broker := sse.NewBroker()
	defer broker.Close()

	apiRouter := api.NewRouter(rt.gen, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
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

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Re-render on source changes and announce the result to SSE clients.
	g.Go(func() error {
		publish := func() {
			res, err := rt.gen.Render(gCtx)
			if err != nil {
				logger.Error("render failed", slog.String("error", err.Error()))
				broker.PublishRender("", 0, err)
				return
			}
			broker.PublishRender(res.Checksum, res.Tree.Count(), nil)
		}
		publish()
		if err := source.Watch(gCtx, rt.src.Path(), logger, publish); err != nil {
			logger.Warn("source watch stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server")
		broker.Close()

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
