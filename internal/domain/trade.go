package domain

import "time"

// ExitReason indicates why a position was closed.
type ExitReason string

const (
	ExitReasonManual ExitReason = "MANUAL"
)

// TradeRecord represents one completed round trip, written to the trade
// store when a position is closed. Immutable after creation.
type TradeRecord struct {
	ID                        int64         // Assigned by the store on insert
	SessionID                 string        // ULID of the streaming session that produced the trade
	Symbol                    string        // Instrument symbol
	Direction                 PositionState // Long or Short
	EntryPrice                float64
	ExitPrice                 float64
	Quantity                  float64
	PNL                       float64
	EntryTime                 time.Time
	ExitTime                  time.Time
	HoldingDurationSeconds    float64 // ExitTime - EntryTime
	TradeSequence             int     // 1-based, monotonic per session
	TimeSinceLastTradeSeconds float64 // Gap since the previous close this session (0 for the first)
	ExitReason                ExitReason
}
