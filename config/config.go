// Package config loads process settings from a .env file and the environment.
// Command-line flags in cmd/server take precedence over what is loaded here.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds server settings.
type Config struct {
	Port           int
	DBPath         string
	AllowedOrigins []string
	EpisodeTTL     time.Duration
	ReaperInterval time.Duration
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Config {
	return Config{
		Port:           8080,
		DBPath:         "foodtruck.db",
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		EpisodeTTL:     30 * time.Minute,
		ReaperInterval: time.Minute,
	}
}

// Load reads the given .env files (".env" when none are given) and overlays
// PORT, DB_PATH, ALLOWED_ORIGINS, EPISODE_TTL and REAPER_INTERVAL on the
// defaults. A missing .env file is not an error. A non-positive EPISODE_TTL
// disables the reaper; REAPER_INTERVAL must be positive.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("loading %s: %w", f, err)
			}
			log.Printf("No %s file found, using system environment variables", f)
		}
	}

	cfg := Defaults()
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("PORT: %w", err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}
	if v := os.Getenv("EPISODE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("EPISODE_TTL: %w", err)
		}
		cfg.EpisodeTTL = d
	}
	if v := os.Getenv("REAPER_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("REAPER_INTERVAL: %w", err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("REAPER_INTERVAL: must be positive, got %v", d)
		}
		cfg.ReaperInterval = d
	}
	return cfg, nil
}
