package main

import (
	"context"
	"errors"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"tradeshift/config"
	"tradeshift/internal/adapters/httpapi"
	"tradeshift/internal/adapters/logger"
	"tradeshift/internal/adapters/sqlite"
	"tradeshift/internal/adapters/wsserver"
	"tradeshift/internal/ports"
	"tradeshift/internal/replay"
	"tradeshift/internal/session"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.New(cfg.LogLevel)
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
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()
	appLogger.Info(context.Background(), "Database repository initialized")

	// 4. Initialize Replay Source
	// A missing or unreadable dataset is not fatal: sessions fall back to
	// synthetic random-walk bars so the simulator stays usable.
	var source ports.ReplaySource
	dataset, err := replay.LoadDataset(cfg.DatasetFile, cfg.Symbol, appLogger.WithComponent("replay"))
	if err != nil {
		appLogger.Warn(context.Background(), "Dataset unavailable, serving synthetic bars", map[string]interface{}{
			"path": cfg.DatasetFile, "error": err.Error(),
		})
		source = replay.NewSyntheticSource(cfg.Symbol)
	} else {
		appLogger.Info(context.Background(), "Replay dataset loaded", map[string]interface{}{
			"path": cfg.DatasetFile, "rows": dataset.Rows(),
		})
		source = dataset
	}

	// 5. Initialize Websocket Session Server
	wsServer, err := wsserver.New(session.Config{
		Symbol:        cfg.Symbol,
		TicksPerBar:   cfg.TicksPerBar,
		TicksPerBatch: cfg.TicksPerBatch,
		BatchInterval: cfg.BatchInterval,
		CommandPoll:   cfg.CommandPoll,
		MinSpeed:      cfg.MinSpeed,
	}, appLogger, source, repo)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize websocket server")
		log.Fatalf("FATAL: Failed to initialize websocket server: %v", err)
	}

	// 6. Build HTTP Surface
	router := httpapi.NewRouter(&httpapi.Config{
		Catalog:    httpapi.NewCatalogHandler(repo, repo, appLogger),
		Simulation: wsServer.HandleSimulation,
	})

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: router,
	}

	// 7. Run until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		appLogger.Info(context.Background(), "Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLogger.Error(context.Background(), err, "HTTP server shutdown failed")
		}
	}()

	appLogger.Info(context.Background(), "Server listening", map[string]interface{}{"addr": cfg.ServerAddr})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appLogger.Error(context.Background(), err, "Server exited with error")
		log.Fatalf("FATAL: Server exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
