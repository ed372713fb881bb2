package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tradeshift/internal/adapters/logger" // Import the logger package for LogLevel
)

// Config holds all application configuration.
type Config struct {
	// Server
	ServerAddr string

	// Simulation
	Symbol        string
	DataDir       string
	DatasetFile   string // Primary replay dataset; fallback to synthetic bars when missing
	TicksPerBar   int
	TicksPerBatch int
	BatchInterval time.Duration
	CommandPoll   time.Duration
	MinSpeed      float64

	// Database
	DBPath string

	// Logging
	LogLevel logger.LogLevel

	// News worker (Kafka)
	KafkaBrokers string
	KafkaTopic   string
	KafkaGroupID string

	// Market data download (cmd/fetchdata)
	APIKey        string
	SecretKey     string
	IsTestnet     bool
	FetchInterval string
	FetchMonths   int
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string // Collect validation errors

	// Server
	cfg.ServerAddr = getEnv("SERVER_ADDR", ":8000")

	// Simulation
	cfg.Symbol = getEnv("SYMBOL", "NIFTY 50")
	if cfg.Symbol == "" {
		errs = append(errs, "SYMBOL must be set")
	}
	cfg.DataDir = getEnv("DATA_DIR", "./data")
	cfg.DatasetFile = getEnv("DATASET_FILE", "./data/NIFTY_50_1min.csv")

	cfg.TicksPerBar = getEnvAsInt("TICKS_PER_BAR", 60)
	if cfg.TicksPerBar < 2 {
		errs = append(errs, "TICKS_PER_BAR must be at least 2")
	}
	cfg.TicksPerBatch = getEnvAsInt("TICKS_PER_BATCH", 10)
	if cfg.TicksPerBatch <= 0 {
		errs = append(errs, "TICKS_PER_BATCH must be positive")
	}

	batchIntervalMs := getEnvAsInt("BATCH_INTERVAL_MS", 100)
	if batchIntervalMs <= 0 {
		errs = append(errs, "BATCH_INTERVAL_MS must be positive")
	}
	cfg.BatchInterval = time.Duration(batchIntervalMs) * time.Millisecond

	commandPollMs := getEnvAsInt("COMMAND_POLL_MS", 10)
	if commandPollMs <= 0 {
		errs = append(errs, "COMMAND_POLL_MS must be positive")
	}
	cfg.CommandPoll = time.Duration(commandPollMs) * time.Millisecond

	// The poll must stay well under the batch interval or pending commands
	// would starve behind the pacing delay.
	if commandPollMs*2 > batchIntervalMs {
		errs = append(errs, "COMMAND_POLL_MS must be well below BATCH_INTERVAL_MS")
	}

	cfg.MinSpeed = getEnvAsFloat("MIN_SPEED", 0.1)
	if cfg.MinSpeed <= 0 {
		errs = append(errs, "MIN_SPEED must be positive")
	}

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/tradeshift.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Logging
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))

	// News worker
	cfg.KafkaBrokers = getEnv("KAFKA_BROKERS", "localhost:9092")
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", "news_scraper_queue")
	cfg.KafkaGroupID = getEnv("KAFKA_GROUP_ID", "news-worker")

	// Market data download
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", true)
	cfg.FetchInterval = getEnv("FETCH_INTERVAL", "1m")
	cfg.FetchMonths = getEnvAsInt("FETCH_MONTHS", 3)
	if cfg.FetchMonths <= 0 {
		errs = append(errs, "FETCH_MONTHS must be positive")
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
