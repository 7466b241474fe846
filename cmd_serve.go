package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"todolist/internal/api"
	"todolist/internal/handlers"
	"todolist/internal/logging"
	"todolist/web"
)

const shutdownTimeout = 10 * time.Second

// serveCmd runs the web UI
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web UI",
	Long: `Serves the htmx web UI on the configured port. The list is kept in the
configured backend; the page loads it on first visit.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// serveStoreCmd exposes the backend as the document-store API
var serveStoreCmd = &cobra.Command{
	Use:   "serve-store",
	Short: "Serve the configured backend as a JSON document store",
	Long: `Serves GET/POST /v1/todos and PATCH/DELETE /v1/todos/{id} on the
store port. Other todolist instances reach it with backend = "http".`,
	Args: cobra.NoArgs,
	RunE: runServeStore,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	holder, closeStore, err := openHolder(ctx, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	tmpl, err := web.ParseTemplates()
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}

	h := handlers.New(holder, tmpl, logger)

	r := newRouter()
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))
	h.Routes(r)

	return listenAndServe(ctx, ":"+cfg.Port, r)
}

func runServeStore(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer backend.Close()

	r := newRouter()
	api.New(backend, logger).Routes(r)

	return listenAndServe(ctx, ":"+cfg.StorePort, r)
}

func newRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	return r
}

// listenAndServe runs the server until ctx is done, then shuts it down.
func listenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", zap.String("addr", "http://localhost"+addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
