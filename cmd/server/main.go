// Package main provides the tokenizer server: a JSON HTTP API over the
// tokenization service, a websocket event feed, and Prometheus metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	collectionstub "github.com/artfilabs/tokenizer/internal/collection/stub"
	currencystub "github.com/artfilabs/tokenizer/internal/currency/stub"
	"github.com/artfilabs/tokenizer/internal/observability"
	"github.com/artfilabs/tokenizer/internal/storage"
	chstore "github.com/artfilabs/tokenizer/internal/storage/clickhouse"
	"github.com/artfilabs/tokenizer/internal/storage/memory"
	"github.com/artfilabs/tokenizer/internal/storage/migrations"
	pgstore "github.com/artfilabs/tokenizer/internal/storage/postgres"
	"github.com/artfilabs/tokenizer/internal/tokenization"
)

// allStores holds all storage implementations.
type allStores struct {
	descriptorStore storage.DescriptorStore
	ledgerStore     storage.LedgerStore
	registryStore   storage.RegistryStore
	eventStore      storage.EventStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "API HTTP address")
	metricsAddr := flag.String("metrics-addr", envOr("METRICS_ADDR", ":9090"), "Prometheus metrics HTTP address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL and ClickHouse")
	migrate := flag.Bool("migrate", true, "Apply schema migrations on startup")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Create stores
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory, *migrate, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// The websocket hub observes every successful event append.
	hub := newEventHub(logger)
	go hub.run(ctx)
	events := &broadcastEventStore{inner: stores.eventStore, hub: hub}

	// Collection and currency systems run in-process; see the stub
	// packages for the capability model.
	collections := collectionstub.NewService()
	currencies := currencystub.NewService()

	svc := tokenization.New(tokenization.Options{
		RegistryStore:   stores.registryStore,
		LedgerStore:     stores.ledgerStore,
		DescriptorStore: stores.descriptorStore,
		EventStore:      events,
		Collections:     collections,
		Currencies:      currencies,
	})

	api := newAPIServer(svc, collections, currencies, hub, logger)

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Metrics endpoint on its own listener
	go startMetricsServer(*metricsAddr, api, logger)

	err = runAPIServer(ctx, *listenAddr, api, logger)
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates all required stores.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory, migrate bool, logger *log.Logger) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			descriptorStore: memory.NewDescriptorStore(),
			ledgerStore:     memory.NewLedgerStore(),
			registryStore:   memory.NewRegistryStore(),
			eventStore:      memory.NewEventStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// ClickHouse
	chConn, err := chstore.NewConn(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}

	if migrate {
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			chConn.Close()
			pool.Close()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		if err := migrations.RunClickhouseMigrations(ctx, chConn); err != nil {
			chConn.Close()
			pool.Close()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		logger.Println("Schema migrations applied")
	}

	stores := &allStores{
		// PostgreSQL stores (registry state)
		descriptorStore: pgstore.NewDescriptorStore(pool),
		ledgerStore:     pgstore.NewLedgerStore(pool),
		registryStore:   pgstore.NewRegistryStore(pool),

		// ClickHouse store (append-only event history)
		eventStore: chstore.NewEventStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// runAPIServer serves the JSON API until the context is cancelled.
func runAPIServer(ctx context.Context, addr string, api *apiServer, logger *log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("API server shutdown error: %v", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// startMetricsServer serves /health, /metrics and /status.
func startMetricsServer(addr string, api *apiServer, logger *log.Logger) {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("/status", api.handleStatus)

	logger.Printf("Starting metrics server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Printf("Metrics server error: %v", err)
	}
}

// envOr returns the environment value or a fallback.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
