package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"tradeshift/config"
	"tradeshift/internal/adapters/logger"
	"tradeshift/internal/adapters/sqlite"
	"tradeshift/internal/domain"
	"tradeshift/internal/replay"
)

// Dataset files carry the symbol in their name, either SYMBOL_1min.csv or
// SYMBOL_2024.csv. Underscores inside the symbol become spaces, so
// NIFTY_50_1min.csv catalogs as "NIFTY 50".
var fileNameRe = regexp.MustCompile(`^(.+?)_(1min|[0-9]{4})\.csv$`)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.New(cfg.LogLevel).WithComponent("ingest")
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

	// 4. Scan the data directory and catalog every recognizable dataset
	entries, err := os.ReadDir(cfg.DataDir)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to read data directory", map[string]interface{}{"dir": cfg.DataDir})
		log.Fatalf("FATAL: Failed to read data directory: %v", err)
	}

	ctx := context.Background()
	cataloged := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := fileNameRe.FindStringSubmatch(entry.Name())
		if m == nil {
			appLogger.Debug(ctx, "Skipping unrecognized file", map[string]interface{}{"file": entry.Name()})
			continue
		}
		symbol := strings.ReplaceAll(m[1], "_", " ")
		path := filepath.Join(cfg.DataDir, entry.Name())

		dataset, err := replay.LoadDataset(path, symbol, appLogger)
		if err != nil {
			appLogger.Warn(ctx, "Failed to load dataset, skipping", map[string]interface{}{
				"file": entry.Name(), "error": err.Error(),
			})
			continue
		}
		if dataset.Rows() == 0 {
			appLogger.Warn(ctx, "Dataset has no usable rows, skipping", map[string]interface{}{"file": entry.Name()})
			continue
		}

		start, end := dataset.Bounds()
		inst := &domain.Instrument{
			Symbol:    symbol,
			Interval:  "1min",
			FilePath:  path,
			StartDate: start,
			EndDate:   end,
			RowCount:  dataset.Rows(),
		}
		if err := repo.Upsert(ctx, inst); err != nil {
			appLogger.Error(ctx, err, "Failed to catalog instrument", map[string]interface{}{"symbol": symbol})
			continue
		}

		appLogger.Info(ctx, "Cataloged instrument", map[string]interface{}{
			"symbol": symbol, "rows": dataset.Rows(),
			"start": start.Format("2006-01-02"), "end": end.Format("2006-01-02"),
		})
		cataloged++
	}

	appLogger.Info(ctx, "Ingest finished", map[string]interface{}{"cataloged": cataloged})
}
