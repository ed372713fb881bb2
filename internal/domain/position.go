package domain

import "time"

// PositionState identifies which side (if any) of the market the session's
// single simulated position is on.
type PositionState string

const (
	Flat  PositionState = "FLAT"
	Long  PositionState = "LONG"
	Short PositionState = "SHORT"
)

// Position is the single simulated position held by one streaming session.
// It is owned exclusively by the session's ledger and mutated only through
// the ledger's open/close operations. Quantity and entry price are
// overwritten, not accumulated, on every open.
type Position struct {
	State      PositionState
	EntryPrice float64
	Quantity   float64
	EntryTime  time.Time
}

// IsOpen reports whether the position is currently Long or Short.
func (p *Position) IsOpen() bool {
	return p.State != Flat
}

// Direction returns +1 for Long, -1 for Short and 0 when Flat, the sign
// applied to price differences when computing PnL.
func (p *Position) Direction() float64 {
	switch p.State {
	case Long:
		return 1
	case Short:
		return -1
	default:
		return 0
	}
}
