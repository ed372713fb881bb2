package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"tradeshift/config"
	"tradeshift/internal/adapters/binanceclient"
	"tradeshift/internal/adapters/logger"
	"tradeshift/internal/utils"
)

func main() {
	symbolFlag := flag.String("symbol", "ETHUSDT", "symbol to download")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Market Data Client (Binance Adapter)
	client, err := binanceclient.New(binanceclient.Config{
		APIKey:     cfg.APIKey,
		SecretKey:  cfg.SecretKey,
		UseTestnet: cfg.IsTestnet,
		Logger:     appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Binance client")
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}

	symbol := *symbolFlag
	end := time.Now()
	start := end.AddDate(0, -cfg.FetchMonths, 0)

	appLogger.Info(context.Background(), "Fetching bars", map[string]interface{}{
		"symbol": symbol, "interval": cfg.FetchInterval,
		"start": start.Format("2006-01-02"), "end": end.Format("2006-01-02"),
	})
	bars, err := client.KlineRange(context.Background(), symbol, cfg.FetchInterval, start, end)
	if err != nil {
		appLogger.Error(context.Background(), err, "Error fetching bars")
		log.Fatalf("Error fetching bars: %v", err)
	}
	appLogger.Info(context.Background(), "Fetched bars", map[string]interface{}{"count": len(bars)})

	// Named so cmd/ingest can derive the symbol back from the file.
	filename := filepath.Join(cfg.DataDir, fmt.Sprintf("%s_1min.csv", symbol))
	if err := utils.WriteBarsToCSV(bars, filename); err != nil {
		appLogger.Error(context.Background(), err, "Error writing CSV")
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(context.Background(), "Saved dataset", map[string]interface{}{"filename": filename})
}
