package ports

import (
	"context"

	"tradeshift/internal/domain"
)

// TradeRepository defines the interface for the durable trade store. The
// engine only appends; the read methods serve the HTTP surface.
type TradeRepository interface {
	// CreateTrade saves a new closed-trade record and returns its assigned ID.
	CreateTrade(ctx context.Context, trade *domain.TradeRecord) (int64, error)
	// FindBySession retrieves all trades recorded by a session, in sequence order.
	FindBySession(ctx context.Context, sessionID string) ([]*domain.TradeRecord, error)
	// CountBySymbol counts the trades recorded for a symbol across all sessions.
	CountBySymbol(ctx context.Context, symbol string) (int, error)
}

// InstrumentRepository defines the interface for the instrument/metadata
// catalog mapping symbols to their dataset files.
type InstrumentRepository interface {
	// Upsert inserts the catalog entry or replaces an existing entry for the
	// same symbol and interval.
	Upsert(ctx context.Context, inst *domain.Instrument) error
	// FindBySymbol retrieves the catalog entry for a symbol.
	// Returns nil, nil if the symbol is not cataloged.
	FindBySymbol(ctx context.Context, symbol string) (*domain.Instrument, error)
	// List retrieves all catalog entries ordered by symbol.
	List(ctx context.Context) ([]*domain.Instrument, error)
}

// NewsRepository defines the interface for storing scored news headlines.
type NewsRepository interface {
	// CreateNewsEvent saves a scored headline and returns its assigned ID.
	CreateNewsEvent(ctx context.Context, event *domain.NewsEvent) (int64, error)
}
