/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the food-truck MDP engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env and environment variables
  2. Parse command-line flags (override the environment)
  3. Initialize SQLite store
  4. Create API handler and warm the environment cache
  5. Start the cursor reaper
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -env     .env file to load (default: .env)
  -port    HTTP server port (default: PORT or 8080)
  -db      SQLite database path (default: DB_PATH or foodtruck.db)
           Use ":memory:" for in-memory database
  -preset  Preset to store on startup when the database is empty

ENVIRONMENT:
  PORT, DB_PATH, ALLOWED_ORIGINS, EPISODE_TTL, REAPER_INTERVAL
  See config/config.go.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the reaper
  4. Close database connection

EXAMPLES:
  ./server -db=":memory:" -preset=default
  ./server -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - api/reaper.go: Idle episode eviction
  - config/config.go: Settings
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/foodtruck-engine/api"
	"github.com/warp/foodtruck-engine/config"
	"github.com/warp/foodtruck-engine/store/sqlite"
)

func main() {
	envFile := flag.String("env", ".env", "dotenv file to load")
	port := flag.Int("port", 0, "HTTP server port (overrides PORT)")
	dbPath := flag.String("db", "", "SQLite database path (overrides DB_PATH)")
	preset := flag.String("preset", "", "Preset to store when no environment exists")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	handler := api.NewHandler(store)
	if err := handler.LoadEnvironments(context.Background()); err != nil {
		log.Printf("Warning: Failed to load environments: %v", err)
	}
	if *preset != "" {
		if err := handler.SeedPreset(context.Background(), *preset); err != nil {
			log.Fatalf("Failed to load preset %q: %v", *preset, err)
		}
	}

	reaper := api.NewCursorReaper(handler)
	reaper.TTL = cfg.EpisodeTTL
	reaper.CheckInterval = cfg.ReaperInterval
	reaper.Start()
	defer reaper.Stop()

	router := api.NewRouter(handler, cfg.AllowedOrigins...)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%d", cfg.Port)
		log.Printf("API available at http://localhost:%d/api", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
