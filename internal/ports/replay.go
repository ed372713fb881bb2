package ports

import (
	"time"

	"tradeshift/internal/domain"
)

// BarIterator walks one replay window in dataset row order. Next wraps back
// to the first row of the window on exhaustion, so replay never terminates
// on its own.
type BarIterator interface {
	// Next returns the next bar, wrapping to the start of the window when the
	// window is exhausted.
	Next() domain.Bar
	// Len returns the number of rows in the window.
	Len() int
}

// ReplaySource produces bar iterators over a historical dataset or a
// synthetic fallback stream.
type ReplaySource interface {
	// Seek returns an iterator over the bars whose date component matches the
	// given date exactly. A nil date selects the earliest date present.
	// Returns ErrNoDataForDate when no rows match.
	Seek(date *time.Time) (BarIterator, error)
	// Historical reports whether the source is backed by a real dataset, as
	// opposed to the synthetic fallback generator.
	Historical() bool
}
