package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		headline string
		check    func(t *testing.T, score float64)
	}{
		{
			name:     "positive headline",
			headline: "Markets rally as earnings beat expectations",
			check: func(t *testing.T, s float64) {
				assert.Greater(t, s, 0.0)
			},
		},
		{
			name:     "negative headline",
			headline: "Stocks plunge amid recession fears",
			check: func(t *testing.T, s float64) {
				assert.Less(t, s, 0.0)
			},
		},
		{
			name:     "neutral headline",
			headline: "Central bank holds policy meeting on Thursday",
			check: func(t *testing.T, s float64) {
				assert.Equal(t, 0.0, s)
			},
		},
		{
			name:     "negation flips polarity",
			headline: "Index not weak despite global jitters",
			check: func(t *testing.T, s float64) {
				assert.Greater(t, s, 0.0)
			},
		},
		{
			name:     "bounded in unit interval",
			headline: "rally surge soar gains boom bullish optimism record",
			check: func(t *testing.T, s float64) {
				assert.LessOrEqual(t, s, 1.0)
				assert.Greater(t, s, 0.9)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Score(tt.headline))
		})
	}
}

func TestScore_CaseAndPunctuationInsensitive(t *testing.T) {
	a := Score("Markets RALLY on strong earnings!")
	b := Score("markets rally on strong earnings")
	assert.Equal(t, a, b)
}
