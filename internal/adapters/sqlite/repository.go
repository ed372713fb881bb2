package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tradeshift/internal/domain"
	"tradeshift/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements ports.TradeRepository, ports.InstrumentRepository and
// ports.NewsRepository on a single SQLite database.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository opens (or creates) the database, verifies the connection and
// bootstraps the schema.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/tradeshift.db" // Default path
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// WAL mode: the trade store takes appends from concurrent sessions.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, ports.ErrDBConnection)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// SQLite serializes writers; keeping a single connection avoids busy errors.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	cfg.Logger.Info(context.Background(), "SQLite database ready", map[string]interface{}{"path": dbPath})
	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS trade_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		direction TEXT NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL NOT NULL,
		quantity REAL NOT NULL,
		pnl REAL NOT NULL,
		entry_time TIMESTAMP NOT NULL,
		exit_time TIMESTAMP NOT NULL,
		holding_duration_seconds REAL NOT NULL,
		trade_sequence INTEGER NOT NULL,
		time_since_last_trade_seconds REAL NOT NULL,
		exit_reason TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS instruments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		interval TEXT NOT NULL,
		file_path TEXT NOT NULL,
		start_date TIMESTAMP NOT NULL,
		end_date TIMESTAMP NOT NULL,
		rows_count INTEGER NOT NULL,
		UNIQUE (symbol, interval)
	);

	CREATE TABLE IF NOT EXISTS news_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		headline TEXT NOT NULL,
		sentiment_score REAL NOT NULL,
		url TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_trade_logs_session ON trade_logs (session_id, trade_sequence);
	CREATE INDEX IF NOT EXISTS idx_trade_logs_symbol ON trade_logs (symbol, exit_time);
	CREATE INDEX IF NOT EXISTS idx_instruments_symbol ON instruments (symbol);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// --- TradeRepository Implementation ---

// CreateTrade appends one closed-trade record and returns its assigned ID.
func (r *Repository) CreateTrade(ctx context.Context, trade *domain.TradeRecord) (int64, error) {
	const query = `
	INSERT INTO trade_logs (session_id, symbol, direction, entry_price, exit_price, quantity,
	                        pnl, entry_time, exit_time, holding_duration_seconds, trade_sequence,
	                        time_since_last_trade_seconds, exit_reason)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		trade.SessionID, trade.Symbol, string(trade.Direction), trade.EntryPrice, trade.ExitPrice,
		trade.Quantity, trade.PNL, trade.EntryTime, trade.ExitTime, trade.HoldingDurationSeconds,
		trade.TradeSequence, trade.TimeSinceLastTradeSeconds, string(trade.ExitReason))
	if err != nil {
		return 0, fmt.Errorf("failed to insert trade for session %s: %w", trade.SessionID, ports.ErrQueryFailed)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for trade (session %s): %w", trade.SessionID, err)
	}
	trade.ID = id
	r.logger.Debug(ctx, "Trade recorded", map[string]interface{}{
		"tradeID": id, "session": trade.SessionID, "sequence": trade.TradeSequence,
	})
	return id, nil
}

// FindBySession retrieves all trades recorded by a session, in sequence order.
func (r *Repository) FindBySession(ctx context.Context, sessionID string) ([]*domain.TradeRecord, error) {
	const query = `
	SELECT id, session_id, symbol, direction, entry_price, exit_price, quantity, pnl,
	       entry_time, exit_time, holding_duration_seconds, trade_sequence,
	       time_since_last_trade_seconds, exit_reason
	FROM trade_logs
	WHERE session_id = ?
	ORDER BY trade_sequence ASC`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades for session %s: %w", sessionID, ports.ErrQueryFailed)
	}
	defer rows.Close()

	trades := make([]*domain.TradeRecord, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade row: %w", err)
		}
		trades = append(trades, trade)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return trades, nil
}

// CountBySymbol counts the trades recorded for a symbol across all sessions.
func (r *Repository) CountBySymbol(ctx context.Context, symbol string) (int, error) {
	const query = `SELECT COUNT(*) FROM trade_logs WHERE symbol = ?`

	var count int
	if err := r.db.QueryRowContext(ctx, query, symbol).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count trades for symbol %s: %w", symbol, ports.ErrQueryFailed)
	}
	return count, nil
}

func scanTrade(rows *sql.Rows) (*domain.TradeRecord, error) {
	var t domain.TradeRecord
	var direction, exitReason string
	err := rows.Scan(&t.ID, &t.SessionID, &t.Symbol, &direction, &t.EntryPrice, &t.ExitPrice,
		&t.Quantity, &t.PNL, &t.EntryTime, &t.ExitTime, &t.HoldingDurationSeconds,
		&t.TradeSequence, &t.TimeSinceLastTradeSeconds, &exitReason)
	if err != nil {
		return nil, err
	}
	t.Direction = domain.PositionState(direction)
	t.ExitReason = domain.ExitReason(exitReason)
	return &t, nil
}

// --- InstrumentRepository Implementation ---

// Upsert inserts the catalog entry or replaces an existing entry for the
// same symbol and interval.
func (r *Repository) Upsert(ctx context.Context, inst *domain.Instrument) error {
	const query = `
	INSERT INTO instruments (symbol, interval, file_path, start_date, end_date, rows_count)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (symbol, interval) DO UPDATE SET
		file_path = excluded.file_path,
		start_date = excluded.start_date,
		end_date = excluded.end_date,
		rows_count = excluded.rows_count`

	if _, err := r.db.ExecContext(ctx, query,
		inst.Symbol, inst.Interval, inst.FilePath, inst.StartDate, inst.EndDate, inst.RowCount); err != nil {
		return fmt.Errorf("failed to upsert instrument %s: %w", inst.Symbol, ports.ErrUpdateFailed)
	}
	r.logger.Debug(ctx, "Instrument cataloged", map[string]interface{}{
		"symbol": inst.Symbol, "rows": inst.RowCount,
	})
	return nil
}

// FindBySymbol retrieves the catalog entry for a symbol.
// Returns nil, nil if the symbol is not cataloged.
func (r *Repository) FindBySymbol(ctx context.Context, symbol string) (*domain.Instrument, error) {
	const query = `
	SELECT id, symbol, interval, file_path, start_date, end_date, rows_count
	FROM instruments
	WHERE symbol = ?`

	var inst domain.Instrument
	err := r.db.QueryRowContext(ctx, query, symbol).Scan(
		&inst.ID, &inst.Symbol, &inst.Interval, &inst.FilePath,
		&inst.StartDate, &inst.EndDate, &inst.RowCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not an error, just not cataloged
		}
		return nil, fmt.Errorf("failed to query instrument %s: %w", symbol, ports.ErrQueryFailed)
	}
	return &inst, nil
}

// List retrieves all catalog entries ordered by symbol.
func (r *Repository) List(ctx context.Context) ([]*domain.Instrument, error) {
	const query = `
	SELECT id, symbol, interval, file_path, start_date, end_date, rows_count
	FROM instruments
	ORDER BY symbol ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query instruments: %w", ports.ErrQueryFailed)
	}
	defer rows.Close()

	instruments := make([]*domain.Instrument, 0)
	for rows.Next() {
		var inst domain.Instrument
		if err := rows.Scan(&inst.ID, &inst.Symbol, &inst.Interval, &inst.FilePath,
			&inst.StartDate, &inst.EndDate, &inst.RowCount); err != nil {
			return nil, fmt.Errorf("failed to scan instrument row: %w", err)
		}
		instruments = append(instruments, &inst)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating instrument rows: %w", err)
	}
	return instruments, nil
}

// --- NewsRepository Implementation ---

// CreateNewsEvent saves a scored headline and returns its assigned ID.
func (r *Repository) CreateNewsEvent(ctx context.Context, event *domain.NewsEvent) (int64, error) {
	const query = `
	INSERT INTO news_events (headline, sentiment_score, url, created_at)
	VALUES (?, ?, ?, ?)`

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx, query, event.Headline, event.SentimentScore, event.URL, createdAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert news event: %w", ports.ErrQueryFailed)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for news event: %w", err)
	}
	event.ID = id
	return id, nil
}
