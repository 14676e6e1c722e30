package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"draws-api/internal/config"
	"draws-api/internal/container"
	"draws-api/internal/handler"
	"draws-api/internal/middleware"
	"draws-api/pkg/logger"
)

// Resources holds all resources that need cleanup
type Resources struct {
	container *container.Container
	server    *http.Server
	log       *logger.Logger
	mu        sync.Mutex
	closed    bool
}

// Cleanup gracefully closes all resources
func (r *Resources) Cleanup(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error

	r.log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first to stop accepting new requests
	if r.server != nil {
		r.log.Info("Shutting down HTTP server...")
		if err := r.server.Shutdown(ctx); err != nil {
			r.log.Error("Failed to shutdown HTTP server")
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		} else {
			r.log.Info("HTTP server shutdown complete")
		}
	}

	if r.container != nil {
		if err := r.container.Close(); err != nil {
			errs = append(errs, fmt.Errorf("container close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup completed with %d errors: %v", len(errs), errs)
	}

	r.log.Info("Graceful shutdown completed successfully")
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info(fmt.Sprintf("Starting draws-api server on port %s (env=%s, log_level=%s)",
		cfg.Port, cfg.Environment, cfg.LogLevel))

	ctx := context.Background()
	c, err := container.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to create container: " + err.Error())
	}

	router := setupRouter(c)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	resources := &Resources{
		container: c,
		server:    server,
		log:       log,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := resources.Cleanup(cleanupCtx); err != nil {
			log.Error("Cleanup completed with errors: " + err.Error())
		}
	}()

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Server starting on port " + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server error occurred: " + err.Error())
			serverErrChan <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info("Received shutdown signal: " + sig.String())
	case err := <-serverErrChan:
		log.Error("Server failed, initiating shutdown: " + err.Error())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := resources.Cleanup(shutdownCtx); err != nil {
		log.Error("Graceful shutdown completed with errors: " + err.Error())
		os.Exit(1)
	}

	log.Info("Application shutdown complete")
}

// setupRouter configures and returns the HTTP router
func setupRouter(c *container.Container) *chi.Mux {
	cfg := c.Config
	log := c.Logger

	r := chi.NewRouter()

	corsConfig := &middleware.CORSConfig{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "If-None-Match"},
		ExposedHeaders:   []string{"Content-Length", "ETag"},
		AllowCredentials: true,
		MaxAge:           86400,
	}

	r.Use(middleware.CORS(corsConfig, log))
	r.Use(middleware.RequestID(log))
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Compress(5))
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	healthHandler := handler.NewHealthHandler(c.DB, c.RedisClient)
	drawHandler := handler.NewDrawHandler(c.Draws, c.Selection)

	r.Get("/health", healthHandler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/draws", func(r chi.Router) {
			// Public read endpoints
			r.Get("/major/current", drawHandler.GetCurrentMajor)
			r.Get("/{drawID}", drawHandler.GetDraw)
			r.Get("/{drawID}/status", drawHandler.GetStatus)
			r.Get("/{drawID}/winners", drawHandler.WinnerHistory)

			// Entry grants come from trusted purchase and benefit processors
			r.Post("/{drawID}/entries", drawHandler.GrantEntries)

			// Operator endpoints require a valid operator token
			r.Group(func(r chi.Router) {
				r.Use(middleware.OperatorAuth(cfg.OperatorJWTSecret, log))

				r.Post("/major", drawHandler.CreateMajorDraw)
				r.Post("/mini", drawHandler.CreateMiniDraw)
				r.Patch("/{drawID}", drawHandler.UpdateDraw)
				r.Post("/{drawID}/winner", drawHandler.SelectWinner)
				r.Post("/{drawID}/cancel", drawHandler.CancelDraw)
				r.Get("/{drawID}/participants", drawHandler.ExportParticipants)
				r.Get("/{drawID}/participants/{participantID}", drawHandler.GetParticipation)
				r.Get("/{drawID}/participations", drawHandler.ListParticipations)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.OperatorAuth(cfg.OperatorJWTSecret, log))
			r.Post("/winners/{winnerID}/notified", drawHandler.MarkWinnerNotified)
		})
	})

	return r
}
