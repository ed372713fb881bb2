package replay

import (
	"math/rand"
	"time"

	"tradeshift/internal/domain"
	"tradeshift/internal/ports"
)

const (
	syntheticBasePrice = 21500.0
	syntheticRange     = 10.0
)

// SyntheticSource is the fallback replay source used when no historical
// dataset is available. It yields an endless stream of random-walk bars
// around a fixed base price so demo sessions keep streaming uninterrupted.
// Nothing is persisted.
type SyntheticSource struct {
	symbol string
	seed   int64
}

// NewSyntheticSource creates a fallback source for the given symbol.
func NewSyntheticSource(symbol string) *SyntheticSource {
	return &SyntheticSource{symbol: symbol, seed: time.Now().UnixNano()}
}

// Historical reports that the source is not backed by a real dataset.
func (s *SyntheticSource) Historical() bool { return false }

// Seek ignores the requested date: the synthetic stream has no calendar.
func (s *SyntheticSource) Seek(date *time.Time) (ports.BarIterator, error) {
	return &syntheticIterator{
		symbol: s.symbol,
		rng:    rand.New(rand.NewSource(s.seed)),
		last:   syntheticBasePrice,
		next:   time.Now().UTC().Truncate(time.Minute),
	}, nil
}

// syntheticIterator generates one-minute bars whose open continues the
// previous close, drifting randomly inside a fixed band.
type syntheticIterator struct {
	symbol string
	rng    *rand.Rand
	last   float64
	next   time.Time
}

func (it *syntheticIterator) Next() domain.Bar {
	open := it.last
	close := open + (it.rng.Float64()-0.5)*syntheticRange

	high := open
	if close > high {
		high = close
	}
	low := open
	if close < low {
		low = close
	}
	// Wick a little beyond the body so synthesized ticks have room to move.
	high += it.rng.Float64() * syntheticRange / 2
	low -= it.rng.Float64() * syntheticRange / 2

	bar := domain.Bar{
		Timestamp: it.next,
		Symbol:    it.symbol,
		Interval:  "1m",
		Open:      round2(open),
		High:      round2(high),
		Low:       round2(low),
		Close:     round2(close),
	}
	it.last = close
	it.next = it.next.Add(time.Minute)
	return bar
}

// Len reports a nominal window size; the synthetic stream never exhausts.
func (it *syntheticIterator) Len() int { return 1 }

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
