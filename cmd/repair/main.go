package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/intentscan/bridge-indexer/internal/config"
	"github.com/intentscan/bridge-indexer/internal/logger"
	"github.com/intentscan/bridge-indexer/internal/repair"
	"github.com/intentscan/bridge-indexer/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	dryRun     = flag.Bool("dry-run", false, "Report changes without writing them")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadRepairConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx := context.Background()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "repair",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting token repair", zap.Bool("dry_run", *dryRun))

	// Connect to database
	db, err := store.Open(cfg.Database.DSN())
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}
	dataStore := store.NewPGStore(db)

	result, err := repair.Run(ctx, dataStore, repair.Config{
		Workers: cfg.Workers,
		DryRun:  *dryRun,
	})
	if err != nil {
		logger.FatalCtx(ctx, "Repair pass failed", zap.Error(err))
	}

	logger.InfoCtx(ctx, "Repair pass complete",
		zap.Int("scanned", result.Scanned),
		zap.Int("drifted", len(result.Changes)),
		zap.Int("applied", result.Applied),
	)
}
