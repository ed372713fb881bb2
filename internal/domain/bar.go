package domain

import "time"

// Bar represents a single OHLC record of a fixed time interval from a
// historical dataset.
//
// The engine does not validate the low <= open,close <= high relationship;
// malformed bars pass through unchanged and tick synthesis clamps against
// whatever bounds the bar carries.
type Bar struct {
	Timestamp time.Time // Start time of the interval
	Symbol    string    // Instrument symbol (e.g., "NIFTY 50")
	Interval  string    // Bar interval (e.g., "1m")
	Open      float64   // Opening price
	High      float64   // Highest price
	Low       float64   // Lowest price
	Close     float64   // Closing price
	Volume    float64   // Traded volume (0 when the dataset has no volume column)
}

// TickTime derives the timestamp of the i-th synthesized tick within the bar:
// the bar timestamp advanced by the tick's sequence index in seconds.
func (b Bar) TickTime(seq int) time.Time {
	return b.Timestamp.Add(time.Duration(seq) * time.Second)
}
