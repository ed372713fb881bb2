package sentiment

import (
	"math"
	"strings"
	"unicode"
)

// Valence lexicon for market headlines. Weights roughly follow the usual
// polarity-lexicon scale of -4..4.
var lexicon = map[string]float64{
	"rally":     1.9,
	"rallies":   1.9,
	"surge":     1.8,
	"surges":    1.8,
	"soar":      2.0,
	"soars":     2.0,
	"gain":      1.6,
	"gains":     1.6,
	"jump":      1.4,
	"jumps":     1.4,
	"strong":    1.4,
	"record":    1.2,
	"beat":      1.5,
	"beats":     1.5,
	"profit":    1.7,
	"profits":   1.7,
	"growth":    1.5,
	"bullish":   2.1,
	"optimism":  1.7,
	"recovery":  1.3,
	"boom":      1.8,
	"positive":  1.6,
	"upbeat":    1.5,
	"crash":     -2.5,
	"crashes":   -2.5,
	"plunge":    -2.2,
	"plunges":   -2.2,
	"fall":      -1.4,
	"falls":     -1.4,
	"drop":      -1.5,
	"drops":     -1.5,
	"slump":     -1.9,
	"slumps":    -1.9,
	"tumble":    -1.9,
	"tumbles":   -1.9,
	"decline":   -1.4,
	"declines":  -1.4,
	"loss":      -1.7,
	"losses":    -1.7,
	"weak":      -1.3,
	"miss":      -1.4,
	"misses":    -1.4,
	"fear":      -1.8,
	"fears":     -1.8,
	"bearish":   -2.1,
	"selloff":   -2.0,
	"crisis":    -2.3,
	"recession": -2.2,
	"negative":  -1.6,
	"panic":     -2.4,
}

// Words that flip and dampen the valence of the token that follows them.
var negators = map[string]bool{
	"not":     true,
	"no":      true,
	"never":   true,
	"without": true,
	"ends":    true,
}

const negationFactor = -0.74

// Score returns a compound sentiment score in [-1, 1] for a headline:
// the sum of token valences normalized with the standard alpha=15 curve.
// Zero means neutral or no lexicon hits.
func Score(text string) float64 {
	tokens := tokenize(text)

	sum := 0.0
	for i, tok := range tokens {
		v, ok := lexicon[tok]
		if !ok {
			continue
		}
		if i > 0 && negators[tokens[i-1]] {
			v *= negationFactor
		}
		sum += v
	}
	if sum == 0 {
		return 0
	}

	compound := sum / math.Sqrt(sum*sum+15)
	return math.Round(compound*10000) / 10000
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
