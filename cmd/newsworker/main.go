package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"tradeshift/config"
	"tradeshift/internal/adapters/logger"
	"tradeshift/internal/adapters/sqlite"
	"tradeshift/internal/worker/news"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.New(cfg.LogLevel).WithComponent("news")
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer repo.Close()

	// 4. Initialize Worker
	worker, err := news.New(news.Config{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
		GroupID: cfg.KafkaGroupID,
	}, repo, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize news worker")
		log.Fatalf("FATAL: Failed to initialize news worker: %v", err)
	}

	// 5. Consume until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := worker.Run(ctx); err != nil {
		appLogger.Error(context.Background(), err, "News worker exited with error")
		log.Fatalf("FATAL: News worker exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
