// Package main runs the scheduled scraper daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/pharmawatch/eofscraper/internal/clock/system"
	"github.com/pharmawatch/eofscraper/internal/config"
	collyfetcher "github.com/pharmawatch/eofscraper/internal/fetcher/colly"
	"github.com/pharmawatch/eofscraper/internal/logging"
	"github.com/pharmawatch/eofscraper/internal/metrics"
	"github.com/pharmawatch/eofscraper/internal/sched"
	"github.com/pharmawatch/eofscraper/internal/scraper"
	"github.com/pharmawatch/eofscraper/internal/store"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	db, err := store.Open(ctx, store.Config{
		Driver:       cfg.DB.Driver,
		DSN:          cfg.DB.DSN,
		MaxOpenConns: cfg.DB.MaxOpenConns,
		MaxIdleConns: cfg.DB.MaxIdleConns,
	})
	if err != nil {
		logger.Fatal("open store failed", zap.Error(err))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Warn("close store failed", zap.Error(closeErr))
		}
	}()

	fetcher := scraper.NewRetryingFetcher(
		collyfetcher.New(collyfetcher.Config{
			UserAgent: cfg.Scraper.UserAgent,
			Timeout:   cfg.HTTPTimeout(),
		}),
		cfg.RetryPolicy(),
		logger.Named("fetcher"),
	)
	clock := system.New()
	walker := scraper.NewWalker(db, fetcher, clock, logger.Named("walker"), scraper.WalkerConfig{
		BaseURL:       cfg.Scraper.BaseURL,
		PageDelay:     cfg.PageDelay(),
		MaxExtraPages: cfg.Scraper.MaxExtraPages,
	})
	runner := scraper.NewRunner(db, walker, clock, logger.Named("runner"), cfg.Categories())

	scheduler := sched.New(runner, cfg.ScrapeInterval(), cfg.Schedule.RunOnStart, logger.Named("sched"))
	logger.Info("scraper daemon starting",
		zap.String("base_url", cfg.Scraper.BaseURL),
		zap.Duration("interval", cfg.ScrapeInterval()),
		zap.String("db_driver", cfg.DB.Driver),
	)
	scheduler.Run(ctx)
	logger.Info("scraper daemon stopped")
}
