package simulation

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Synthesizer generates plausible intra-bar tick prices using a scaled
// Brownian bridge: a random walk constrained to start at the bar's open and
// end at its close, clamped to the bar's high/low range.
type Synthesizer struct {
	newRng func() *rand.Rand
}

// New creates a Synthesizer that draws a fresh random source per Generate
// call.
func New() *Synthesizer {
	return &Synthesizer{
		newRng: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// NewWithSeed creates a deterministic Synthesizer. Successive Generate calls
// continue the same seeded stream, so a fixed seed reproduces a fixed
// sequence of paths.
func NewWithSeed(seed int64) *Synthesizer {
	rng := rand.New(rand.NewSource(seed))
	return &Synthesizer{
		newRng: func() *rand.Rand { return rng },
	}
}

// Generate produces tickCount prices forming a bounded, endpoint-exact path
// from open to close.
//
// Guarantees: the result has exactly tickCount elements, the first element
// equals open, the last equals close, and every element lies in [low, high].
// Prices are rounded to 2 decimal places.
func (s *Synthesizer) Generate(open, high, low, close float64, tickCount int) ([]float64, error) {
	if tickCount < 2 {
		return nil, fmt.Errorf("tickCount must be at least 2, got %d", tickCount)
	}

	rng := s.newRng()

	// Wiener path: cumulative sum of standard normal increments, pinned to
	// zero displacement at the first step.
	w := make([]float64, tickCount)
	sum := 0.0
	for i := 1; i < tickCount; i++ {
		sum += rng.NormFloat64()
		w[i] = sum
	}

	// Bridge correction: subtract the linear share of the walk's net drift
	// mismatch so the path lands on close.
	steps := float64(tickCount - 1)
	drift := w[tickCount-1] - (close - open)
	ticks := make([]float64, tickCount)
	for i := 0; i < tickCount; i++ {
		b := open + w[i] - (float64(i)/steps)*drift
		// Clamp into the bar's range.
		if b > high {
			b = high
		}
		if b < low {
			b = low
		}
		ticks[i] = b
	}

	// Endpoints are exact by construction but clamping may have perturbed
	// them when open or close sit outside [low, high]; force exactness.
	ticks[0] = open
	ticks[tickCount-1] = close

	for i, v := range ticks {
		ticks[i] = math.Round(v*100) / 100
	}
	return ticks, nil
}
