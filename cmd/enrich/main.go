package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"namo/internal/cache"
	"namo/internal/config"
	"namo/internal/db"
	"namo/internal/enrichment"
	"namo/internal/logging"
	"namo/internal/repository"
)

func main() {
	all := flag.Bool("all", false, "process every name that still needs info instead of only the best ranked one")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		logger.Error("database init", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, cached names may be stale until they expire", "addr", cfg.RedisAddr, "error", err)
	}

	updater := enrichment.NewUpdater(
		repository.NewNameRepository(gormDB),
		enrichment.NewWiktionaryFetcher(cfg.EnrichmentBaseURL, cfg.EnrichmentTimeout),
		logger,
		enrichment.WithCache(cacheClient),
	)

	res, err := updater.Run(ctx, *all)
	logger.Info("enrichment finished",
		"candidates", res.Candidates,
		"updated", res.Updated,
		"empty", res.Empty,
		"failed", res.Failed,
	)
	if err != nil {
		logger.Error("enrichment aborted", "error", err)
		os.Exit(1)
	}
}
