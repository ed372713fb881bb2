package domain

import "time"

// Instrument is one catalog entry describing a replayable dataset: which
// symbol it covers, where its file lives and what date range it spans.
type Instrument struct {
	ID        int64
	Symbol    string
	Interval  string
	FilePath  string
	StartDate time.Time
	EndDate   time.Time
	RowCount  int
}
