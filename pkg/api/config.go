package api

import (
	"os"
	"strconv"
)

// Config holds server configuration
type Config struct {
	Port         int
	DatabasePath string
	IngestDir    string
	DevMode      bool
	MaxUploadMB  int
}

// LoadConfigFromEnv loads configuration from environment variables
func LoadConfigFromEnv() Config {
	cfg := Config{
		Port:         8080,
		DatabasePath: "./data/weirdbench.db",
		IngestDir:    "",
		MaxUploadMB:  32,
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Port = port
		}
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("INGEST_DIR"); v != "" {
		cfg.IngestDir = v
	}
	if v := os.Getenv("DEV_MODE"); v == "true" || v == "1" {
		cfg.DevMode = true
	}
	if v := os.Getenv("MAX_UPLOAD_MB"); v != "" {
		if mb, err := strconv.Atoi(v); err == nil && mb > 0 {
			cfg.MaxUploadMB = mb
		}
	}
	return cfg
}
