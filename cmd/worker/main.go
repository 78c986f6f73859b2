package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adlens/ads-audit/internal/audit"
	"github.com/adlens/ads-audit/internal/config"
	"github.com/adlens/ads-audit/internal/gads"
	"github.com/adlens/ads-audit/internal/pkg/distlock"
	"github.com/adlens/ads-audit/internal/pkg/httpretry"
	"github.com/adlens/ads-audit/internal/storage"
)

// runLockTTL bounds how long a crashed worker can block its replicas. Live
// runs extend the lock, so it may be shorter than the run timeout.
const runLockTTL = 5 * time.Minute

// buildFetcher wires the record source the same way the server does. rdb
// may be nil when Redis is disabled or unreachable.
func buildFetcher(cfg *config.Config, rdb *redis.Client) gads.Fetcher {
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

	if rdb != nil {
		fetcher = gads.NewCachedFetcher(fetcher, rdb, cfg.GoogleAds.CustomerID, cfg.Audit.CacheTTL())
		log.Printf("Record cache enabled via Redis at %s (TTL %s)", cfg.Redis.Addr, cfg.Audit.CacheTTL())
	}
	return fetcher
}

// connectRedis returns a verified client, or nil when disabled/unreachable.
func connectRedis(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Printf("Redis unavailable (%v), continuing without it", err)
		rdb.Close()
		return nil
	}
	return rdb
}

func main() {
	log.Println("Starting ads-audit worker...")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	rdb := connectRedis(cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	auditService, err := audit.NewService(buildFetcher(cfg, rdb), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize audit service: %v", err)
	}

	// Optional Postgres report store
	var db *sql.DB
	var reportStore *storage.ReportStore
	if cfg.Database.Enabled && cfg.Database.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		db, err = storage.Open(ctx, cfg.Database.URL)
		cancel()
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		reportStore = storage.NewReportStore(db)
		if err := reportStore.Init(context.Background()); err != nil {
			log.Fatalf("Failed to initialize report tables: %v", err)
		}
		log.Println("Postgres report store enabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runOnce := func() {
		runCtx, runCancel := context.WithTimeout(ctx, 10*time.Minute)
		defer runCancel()

		// One replica runs the audit per interval
		lock := distlock.NewRunLock(rdb, db, cfg.GoogleAds.CustomerID, runLockTTL)
		acquired, err := lock.Acquire(runCtx)
		if err != nil {
			log.Printf("Run lock error: %v", err)
			return
		}
		if !acquired {
			log.Println("Another worker holds the run lock, skipping this interval")
			return
		}
		defer lock.Release(runCtx)

		// Keep the lock alive while the run is in flight
		heartbeatCtx, stopHeartbeat := context.WithCancel(runCtx)
		defer stopHeartbeat()
		go func() {
			ticker := time.NewTicker(runLockTTL / 3)
			defer ticker.Stop()
			for {
				select {
				case <-heartbeatCtx.Done():
					return
				case <-ticker.C:
					if err := lock.Extend(heartbeatCtx, runLockTTL); err != nil {
						log.Printf("Run lock extend failed: %v", err)
					}
				}
			}
		}()

		report, err := auditService.Run(runCtx)
		if err != nil {
			log.Printf("Audit run failed: %v", err)
			return
		}
		if err := store.SaveReport(runCtx, report); err != nil {
			log.Printf("Archiving report %s failed: %v", report.ID, err)
		}
		if reportStore != nil {
			if err := reportStore.Save(runCtx, report); err != nil {
				log.Printf("Persisting report %s failed: %v", report.ID, err)
			}
		}
		if failed := report.FailedSections(); len(failed) > 0 {
			log.Printf("Audit %s completed with failed sections: %v", report.ID, failed)
		} else {
			log.Printf("Audit %s completed", report.ID)
		}
	}

	// First run immediately, then on the configured interval
	go func() {
		runOnce()

		ticker := time.NewTicker(cfg.Audit.Interval())
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runOnce()
			}
		}
	}()

	log.Printf("Worker running (interval %s)...", cfg.Audit.Interval())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down worker...")
	cancel()

	// Give any in-flight run time to finish archiving
	time.Sleep(2 * time.Second)

	log.Println("Worker stopped")
}
