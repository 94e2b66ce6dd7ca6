// Package api serves the benchmark site's HTTP interface.
package api

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weird-bench/site/pkg/api/handlers"
	"github.com/weird-bench/site/pkg/ingest"
	"github.com/weird-bench/site/pkg/store"
)

// Server bundles the Fiber app with its backing store and optional
// drop-directory watcher.
type Server struct {
	config  Config
	app     *fiber.App
	store   *store.Store
	watcher *ingest.Watcher
}

// NewServer creates the server, opening the database and wiring all routes.
func NewServer(cfg Config) (*Server, error) {
	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:   "weird-bench-site",
		BodyLimit: cfg.MaxUploadMB * 1024 * 1024,
	})

	s := &Server{config: cfg, app: app, store: st}
	processor := ingest.NewProcessor(st)

	if cfg.IngestDir != "" {
		s.watcher = ingest.NewWatcher(processor, cfg.IngestDir)
	}

	h := handlers.New(st, processor)
	RegisterRoutes(app, h)
	return s, nil
}

// RegisterRoutes attaches every API route to the app. Split out so handler
// tests can run against a bare Fiber app.
func RegisterRoutes(app *fiber.App, h *handlers.Handlers) {
	api := app.Group("/api")
	api.Post("/upload", h.Upload)
	api.Get("/hardware", h.ListHardware)
	api.Get("/hardware-detail", h.HardwareDetail)
	api.Get("/hardware-processed-data", h.HardwareProcessedData)
	api.Get("/health", h.Health)
	api.Get("/stats", h.Stats)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

// Start starts the watcher (if configured) and the HTTP listener. Blocks
// until the listener stops.
func (s *Server) Start() error {
	if s.watcher != nil {
		if err := s.watcher.Start(); err != nil {
			return fmt.Errorf("starting ingest watcher: %w", err)
		}
	}
	addr := fmt.Sprintf(":%d", s.config.Port)
	log.Printf("[Server] Listening on %s", addr)
	return s.app.Listen(addr)
}

// Shutdown stops the listener, the watcher and closes the database.
func (s *Server) Shutdown() error {
	if s.watcher != nil {
		s.watcher.Stop()
	}
	if err := s.app.Shutdown(); err != nil {
		return err
	}
	return s.store.Close()
}
