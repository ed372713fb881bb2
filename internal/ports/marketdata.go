package ports

import (
	"context"
	"time"

	"tradeshift/internal/domain"
)

// MarketDataClient fetches historical bars from an external market data
// provider. Used by the dataset acquisition tooling, never by the engine.
type MarketDataClient interface {
	// KlineRange fetches all bars for a symbol/interval between start and end,
	// paging through the provider's response limit as needed.
	KlineRange(ctx context.Context, symbol, interval string, start, end time.Time) ([]domain.Bar, error)
}
