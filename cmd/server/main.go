package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adlens/ads-audit/internal/api"
	"github.com/adlens/ads-audit/internal/audit"
	"github.com/adlens/ads-audit/internal/config"
	"github.com/adlens/ads-audit/internal/gads"
	"github.com/adlens/ads-audit/internal/pkg/httpretry"
	"github.com/adlens/ads-audit/internal/storage"
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from stale processes occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

// buildFetcher wires the record source: CSV exports when csv_dir is set,
// the live API otherwise, with an optional Redis cache in front. The cache
// is returned separately so the API can invalidate it; nil when disabled.
func buildFetcher(cfg *config.Config) (gads.Fetcher, *gads.CachedFetcher) {
	var fetcher gads.Fetcher
	if cfg.Audit.CSVDir != "" {
		fetcher = gads.NewCSVSource(cfg.Audit.CSVDir)
		log.Printf("Record source: CSV exports from %s", cfg.Audit.CSVDir)
	} else {
		retry := httpretry.NewRetryClient(
			&http.Client{Timeout: cfg.GoogleAds.Timeout()},
			cfg.GoogleAds.MaxRetries,
		)
		fetcher = gads.NewClient(
			cfg.GoogleAds.BaseURL,
			cfg.GoogleAds.DeveloperToken,
			cfg.GoogleAds.CustomerIDDigits(),
			retry,
		)
		log.Printf("Record source: Google Ads API at %s", cfg.GoogleAds.BaseURL)
	}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Printf("Redis unavailable (%v), record cache disabled", err)
		} else {
			cached := gads.NewCachedFetcher(fetcher, rdb, cfg.GoogleAds.CustomerID, cfg.Audit.CacheTTL())
			log.Printf("Record cache enabled via Redis at %s (TTL %s)", cfg.Redis.Addr, cfg.Audit.CacheTTL())
			return cached, cached
		}
	}
	return fetcher, nil
}

func main() {
	log.Println("Starting ads-audit server...")

	// Load configuration
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	// Pre-flight check: verify the target port is available
	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	log.Printf("Pre-flight check passed: port %d is available", port)

	// Initialize report archive
	store, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	log.Printf("Report archive initialized (type: %s)", cfg.Storage.Type)

	// Initialize audit service
	fetcher, recordCache := buildFetcher(cfg)
	auditService, err := audit.NewService(fetcher, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize audit service: %v", err)
	}

	handlers := api.NewHandlers(auditService, store, cfg)
	if recordCache != nil {
		handlers.SetRecordCache(recordCache)
	}

	// Optional Postgres report store
	if cfg.Database.Enabled && cfg.Database.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		db, err := storage.Open(ctx, cfg.Database.URL)
		cancel()
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		reportStore := storage.NewReportStore(db)
		if err := reportStore.Init(context.Background()); err != nil {
			log.Fatalf("Failed to initialize report tables: %v", err)
		}
		handlers.SetReportStore(reportStore)
		log.Println("Postgres report store enabled")
	}

	router := api.SetupRoutes(handlers)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // audit runs are synchronous
	}

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Println("All services initialized — server is ready")

	<-done
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
