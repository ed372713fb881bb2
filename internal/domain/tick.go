package domain

import "time"

// TickPoint is one synthesized intra-bar price point as emitted to the
// client, annotated with the session's unrealized PnL at that price.
// TickPoints are ephemeral: created and consumed within one streaming cycle,
// never persisted individually.
type TickPoint struct {
	Price     float64
	Timestamp time.Time
	Symbol    string
	PnL       float64
}
