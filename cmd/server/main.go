/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the brokerage back-office core server.
  Handles configuration, dependency wiring, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (optional), parse command-line flags
  2. Initialize SQLite store
  3. Build sequence generator and issuance service
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port     HTTP server port (default: 8080, env PORT)
  -db       SQLite database path (default: brokerage.db, env DATABASE_PATH)
            Use ":memory:" for an in-memory database
  -catalog  Product catalog JSON path (default: built-in table, env CATALOG_PATH)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/brokerage.db"

  # Run with in-memory database and a custom product catalog
  ./server -db=":memory:" -catalog=./catalog.json

SEE ALSO:
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/meibl/brokerage-engine/api"
	"github.com/meibl/brokerage-engine/factory"
	"github.com/meibl/brokerage-engine/issuance"
	"github.com/meibl/brokerage-engine/sequence"
	"github.com/meibl/brokerage-engine/store/sqlite"
)

func main() {
	// .env is optional; flags override it.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DATABASE_PATH", "brokerage.db"), "SQLite database path")
	catalogPath := flag.String("catalog", envStr("CATALOG_PATH", ""), "Product catalog JSON path (empty for built-in)")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalw("failed to initialize database", "path", *dbPath, "error", err)
	}
	defer store.Close()

	// Product catalog
	catalog := factory.DefaultCatalog()
	if *catalogPath != "" {
		data, err := os.ReadFile(*catalogPath)
		if err != nil {
			log.Fatalw("failed to read catalog", "path", *catalogPath, "error", err)
		}
		catalog, err = factory.ParseCatalog(string(data))
		if err != nil {
			log.Fatalw("failed to parse catalog", "path", *catalogPath, "error", err)
		}
	}

	// Wire the core
	generator := sequence.NewGenerator(store, sequence.WithLogger(log))
	service := issuance.NewService(generator, store, catalog, issuance.WithLogger(log))
	handler := api.NewHandler(service, generator, store, catalog)
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
