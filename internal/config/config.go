// Package config loads runtime configuration from environment
// variables.  A .env file, if present, is loaded by main before any of
// these readers run.
package config

import (
	"log"
	"os"
)

// Config holds the core settings every deployment must provide.
// Optional subsystems (Redis cache, rate limiting) have their own
// loaders with defaults and may be absent entirely.
type Config struct {
	Env    string // application environment ("dev", "prod")
	Port   string // HTTP port to listen on
	DBUser string
	DBPass string // empty allowed for local development
	DBHost string
	DBPort string
	DBName string
}

// Load reads the required environment variables.  Missing values are a
// deployment error and abort startup.
func Load() Config {
	return Config{
		Env:    must("APP_ENV"),
		Port:   must("APP_PORT"),
		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),
	}
}

func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
