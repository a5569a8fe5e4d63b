// main is the entry point of the catalog API.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file
//  2. Initialise the logger
//  3. Connect to (and set up) the SQLite database
//  4. Build the router: request-id, request-validation and
//     response-validation middleware, then the CRUD routes
//  5. Start the HTTP server in a separate goroutine
//  6. Block the main goroutine until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, then exit
//
// RUNNING THE SERVER:
//
//	go run ./cmd/catalog-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/catalog-api
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/arjun-verma/catalog-api/internal/config"
	"github.com/arjun-verma/catalog-api/internal/http/handlers/category"
	"github.com/arjun-verma/catalog-api/internal/http/handlers/product"
	"github.com/arjun-verma/catalog-api/internal/http/handlers/user"
	"github.com/arjun-verma/catalog-api/internal/http/middleware"
	"github.com/arjun-verma/catalog-api/internal/storage/sqlite"
)

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	// MustLoad reads the YAML config and fatals if anything is wrong.
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	// slog is Go's structured logger (stdlib since Go 1.21).
	log := setupLogger(cfg.Env)

	log.Info("starting catalog-api",
		slog.String("env", cfg.Env),
		slog.Bool("validate_references", cfg.ValidateReferences),
	)

	// ── 3. Initialise Storage (Database) ──────────────────────────────────
	// The handlers only ever see the storage.Storage interface, so
	// swapping databases later only touches this line.
	store, err := sqlite.New(cfg)
	if err != nil {
		log.Error("failed to initialise storage",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("storage initialised",
		slog.String("path", cfg.StoragePath))

	// ── 4. Build the Router ───────────────────────────────────────────────
	// Middleware order is load-bearing: request validation must finish
	// (or short-circuit) before a handler runs, and response validation
	// must see the final handler output before it reaches the network.
	router := chi.NewRouter()
	router.Use(middleware.RequestID(log))
	router.Use(middleware.RequestValidation(log))
	router.Use(middleware.ResponseValidation(log))

	// The handler functions are FACTORIES: called once here, they close
	// over the storage dependency and return the per-request handler.
	router.Route("/api", func(r chi.Router) {
		r.Post("/users", user.New(store))
		r.Get("/users", user.GetList(store))
		r.Get("/users/{id}", user.GetByID(store))
		r.Put("/users/{id}", user.Update(store))
		r.Delete("/users/{id}", user.Delete(store))

		r.Post("/categories", category.New(store))
		r.Get("/categories", category.GetList(store))
		r.Get("/categories/{id}", category.GetByID(store))
		r.Put("/categories/{id}", category.Update(store))
		r.Delete("/categories/{id}", category.Delete(store))

		r.Post("/products", product.New(store, cfg.ValidateReferences))
		r.Get("/products", product.GetList(store))
		r.Get("/products/{id}", product.GetByID(store))
		r.Put("/products/{id}", product.Update(store))
		r.Delete("/products/{id}", product.Delete(store))
	})

	// ── 5. Create the HTTP Server ─────────────────────────────────────────
	server := &http.Server{
		Addr:    cfg.HTTPServer.Addr,
		Handler: router,

		// Timeouts guard against slow-client attacks.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ── 6. Start Server in a Goroutine ────────────────────────────────────
	// ListenAndServe blocks; running it here would keep the graceful-
	// shutdown code below from ever executing.
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		// http.ErrServerClosed is the expected result of Shutdown().
		if err := server.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			log.Error("server encountered an error",
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// ── 7. Wait for Shutdown Signal ───────────────────────────────────────
	// Buffered so we don't miss the signal if main is briefly busy.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	// Give in-flight requests 5 seconds to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := store.Close(); err != nil {
		log.Error("failed to close storage",
			slog.String("error", err.Error()))
	}

	log.Info("server stopped gracefully")
}

// setupLogger returns a *slog.Logger configured for the given
// environment: human-readable text at DEBUG in dev, JSON for log
// aggregators in staging and prod.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default: // "dev" and anything unrecognised
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	}
}
