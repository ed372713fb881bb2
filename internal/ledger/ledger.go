package ledger

import (
	"context"
	"fmt"
	"time"

	"tradeshift/internal/domain"
	"tradeshift/internal/ports"
)

// Ledger owns the single simulated position of one streaming session and the
// session's realized-PnL bookkeeping. It is exclusively owned by the
// session's goroutine, so no internal locking is needed.
//
// The close-side behavior is deliberately asymmetric: closing a Long records
// a trade in the store, while a Sell with no Long open enters a Short and
// records nothing. See DESIGN.md for the rationale.
type Ledger struct {
	symbol    string
	sessionID string
	trades    ports.TradeRepository
	logger    ports.Logger
	now       func() time.Time

	position      domain.Position
	tradeSeq      int
	lastCloseTime time.Time
}

// Config holds the dependencies of a session ledger.
type Config struct {
	Symbol    string
	SessionID string
	Trades    ports.TradeRepository
	Logger    ports.Logger
	Now       func() time.Time // Injectable clock; defaults to time.Now
}

// New creates a ledger starting Flat.
func New(cfg Config) (*Ledger, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for ledger")
	}
	if cfg.Trades == nil {
		return nil, fmt.Errorf("trade repository is required for ledger")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Ledger{
		symbol:    cfg.Symbol,
		sessionID: cfg.SessionID,
		trades:    cfg.Trades,
		logger:    cfg.Logger,
		now:       now,
		position:  domain.Position{State: domain.Flat},
	}, nil
}

// Position returns a copy of the current position.
func (l *Ledger) Position() domain.Position {
	return l.position
}

// Buy enters a Long position at the given price, overwriting any existing
// state. An open Short is discarded without being realized: this mirrors the
// reference order manager and is kept as documented behavior rather than
// silently corrected.
func (l *Ledger) Buy(ctx context.Context, price, quantity float64) {
	prev := l.position.State
	l.position = domain.Position{
		State:      domain.Long,
		EntryPrice: price,
		Quantity:   quantity,
		EntryTime:  l.now(),
	}
	l.logger.Info(ctx, "Long position opened", map[string]interface{}{
		"session":   l.sessionID,
		"symbol":    l.symbol,
		"price":     price,
		"quantity":  quantity,
		"prevState": string(prev),
	})
}

// Sell closes an open Long, realizing its PnL and appending a trade record to
// the store; in any other state it enters a Short and returns 0.
//
// A trade store write failure is logged but does not roll back the realized
// PnL already computed: the store is fire-and-forget from the ledger's point
// of view.
func (l *Ledger) Sell(ctx context.Context, price, quantity float64) float64 {
	now := l.now()

	if l.position.State != domain.Long {
		prev := l.position.State
		l.position = domain.Position{
			State:      domain.Short,
			EntryPrice: price,
			Quantity:   quantity,
			EntryTime:  now,
		}
		l.logger.Info(ctx, "Short position opened", map[string]interface{}{
			"session":   l.sessionID,
			"symbol":    l.symbol,
			"price":     price,
			"quantity":  quantity,
			"prevState": string(prev),
		})
		return 0.0
	}

	pnl := (price - l.position.EntryPrice) * l.position.Quantity

	timeSinceLast := 0.0
	if !l.lastCloseTime.IsZero() {
		timeSinceLast = now.Sub(l.lastCloseTime).Seconds()
	}
	l.tradeSeq++

	record := &domain.TradeRecord{
		SessionID:                 l.sessionID,
		Symbol:                    l.symbol,
		Direction:                 domain.Long,
		EntryPrice:                l.position.EntryPrice,
		ExitPrice:                 price,
		Quantity:                  l.position.Quantity,
		PNL:                       pnl,
		EntryTime:                 l.position.EntryTime,
		ExitTime:                  now,
		HoldingDurationSeconds:    now.Sub(l.position.EntryTime).Seconds(),
		TradeSequence:             l.tradeSeq,
		TimeSinceLastTradeSeconds: timeSinceLast,
		ExitReason:                domain.ExitReasonManual,
	}

	l.position = domain.Position{State: domain.Flat}
	l.lastCloseTime = now

	if _, err := l.trades.CreateTrade(ctx, record); err != nil {
		l.logger.Error(ctx, err, "Failed to persist trade record", map[string]interface{}{
			"session":  l.sessionID,
			"symbol":   l.symbol,
			"sequence": record.TradeSequence,
		})
	}

	l.logger.Info(ctx, "Long position closed", map[string]interface{}{
		"session":  l.sessionID,
		"symbol":   l.symbol,
		"price":    price,
		"pnl":      pnl,
		"sequence": record.TradeSequence,
	})
	return pnl
}

// MarkToMarket returns the unrealized PnL of the open position at the given
// price, or 0 when Flat. Pure and side-effect free, callable at any rate.
func (l *Ledger) MarkToMarket(price float64) float64 {
	if !l.position.IsOpen() {
		return 0.0
	}
	return (price - l.position.EntryPrice) * l.position.Quantity * l.position.Direction()
}
