package config

import (
	"log/slog"

	"github.com/joho/godotenv"
)

// envFiles are tried in order. godotenv never overrides variables already
// present in the process environment.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads environment variables from .env/.env.local files so that
// ${VAR} references in the configuration can be satisfied locally.
func loadEnvFiles() {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err == nil {
			slog.Debug("Loaded environment variables", "file", f)
		}
	}
}
