package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/weird-bench/site/pkg/api"
)

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	port := flag.Int("port", 0, "Server port (default: 8080)")
	dbPath := flag.String("db", "", "Database path (default: ./data/weirdbench.db)")
	ingestDir := flag.String("ingest-dir", "", "Directory watched for dropped result files")
	devMode := flag.Bool("dev", false, "Run in development mode")
	flag.Parse()

	cfg := api.LoadConfigFromEnv()

	// Flags override environment
	if *port > 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}
	if *ingestDir != "" {
		cfg.IngestDir = *ingestDir
	}
	if *devMode {
		cfg.DevMode = true
	}

	if cfg.DatabasePath != "" {
		if dir := filepath.Dir(cfg.DatabasePath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				log.Fatalf("Failed to create data directory: %v", err)
			}
		}
	}

	server, err := api.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("Shutting down...")
		if err := server.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
		os.Exit(0)
	}()

	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
