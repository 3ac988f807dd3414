package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/intentscan/bridge-indexer/internal/adapter"
	"github.com/intentscan/bridge-indexer/internal/config"
	"github.com/intentscan/bridge-indexer/internal/explorer"
	"github.com/intentscan/bridge-indexer/internal/ingest"
	"github.com/intentscan/bridge-indexer/internal/logger"
	"github.com/intentscan/bridge-indexer/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	once       = flag.Bool("once", false, "Run a single ingestion pass and exit")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadCollectorConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "collector",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting collector")

	// Connect to database
	db, err := store.Open(cfg.Database.DSN())
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}
	if err := store.Migrate(db); err != nil {
		logger.FatalCtx(ctx, "Failed to migrate database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database")

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Initialize explorer client
	httpClient := adapter.NewHTTPClient(cfg.Explorer.HTTPTimeout)
	explorerClient := explorer.NewClient(httpClient, explorer.Config{
		BaseURL:         cfg.Explorer.BaseURL,
		APIKey:          cfg.Explorer.APIKey,
		StartDate:       cfg.Explorer.StartDate,
		RequestInterval: cfg.Explorer.RequestInterval,
	})

	// Initialize ingestor
	ingestor := ingest.New(dataStore, explorerClient, ingest.Config{
		PageSize: cfg.Explorer.PageSize,
		MaxPages: cfg.Scheduler.MaxPages,
	})

	if *once {
		result, err := ingestor.Run(ctx)
		if err != nil {
			logger.FatalCtx(ctx, "Ingestion run failed", zap.Error(err), zap.String("run_id", result.RunID))
		}
		logger.InfoCtx(ctx, "Ingestion run complete",
			zap.String("run_id", result.RunID),
			zap.Int64("inserted", result.Inserted),
		)
		return
	}

	runner := ingest.NewRunner(ingestor, cfg.Scheduler.Interval)
	logger.InfoCtx(ctx, "Initialized ingestion runner",
		zap.Duration("interval", cfg.Scheduler.Interval),
		zap.Int("page_size", cfg.Explorer.PageSize),
	)

	go runner.Start(ctx)

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))

	// Cancel context to stop the runner and wait for the loop to exit
	cancel()
	runner.Wait()

	logger.Info("Collector stopped")
}
