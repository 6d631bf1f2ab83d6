/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the POS ledger server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env and configuration
  2. Open the SQLite snapshot database
  3. Restore the ledger store from its snapshots
  4. Build the polish service (if OPENAI_API_KEY is set)
  5. Configure HTTP router and start with graceful shutdown

COMMAND-LINE FLAGS (override the environment):
  -env     Path of the .env file (default: .env)
  -port    HTTP server port (default: APP_PORT)
  -db      SQLite database path (default: DB_PATH)
           Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  ./server -db="./data/pos.db"
  ./server -db=":memory:" -port=3000

SEE ALSO:
  - config/config.go: Environment keys and defaults
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Snapshot persistence
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

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/warp/pos-ledger/api"
	"github.com/warp/pos-ledger/config"
	"github.com/warp/pos-ledger/ledger"
	"github.com/warp/pos-ledger/polish"
	"github.com/warp/pos-ledger/store/sqlite"
)

func main() {
	envFile := flag.String("env", ".env", "Path of the .env file")
	port := flag.String("port", "", "HTTP server port")
	dbPath := flag.String("db", "", "SQLite database path")
	flag.Parse()

	_ = godotenv.Load(*envFile)
	cfg := config.Load(*envFile)
	if *port != "" {
		cfg.App.Port = *port
	}
	if *dbPath != "" {
		cfg.DB.Path = *dbPath
	}

	// Initialize persistence
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	store := ledger.NewStore(db, cfg.Defaults())
	if err := store.Load(context.Background()); err != nil {
		log.Fatalf("Failed to restore ledger: %v", err)
	}

	// Initialize handler
	handler := api.NewHandler(ledger.NewLedger(store), newPolishService(cfg.Polish))
	handler.Snapshots = db

	router := api.NewRouter(handler, cfg.CORS.AllowedOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Polish.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%s", cfg.App.Port)
		log.Printf("API available at http://localhost:%s/api", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func newPolishService(cfg config.PolishConfig) *polish.Service {
	if !cfg.Enabled() {
		log.Printf("OPENAI_API_KEY not set; description polish disabled")
		return nil
	}

	backend := polish.NewOpenAI(cfg.APIKey, cfg.Model)
	svc := &polish.Service{Polisher: backend, Advisor: backend, Timeout: cfg.Timeout}
	if cfg.RatePerSecond > 0 {
		svc.Limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), max(cfg.Burst, 1))
	}
	return svc
}
