package domain

import "time"

// NewsEvent is a scraped headline with its sentiment score, produced by the
// news worker and persisted for later correlation with market moves.
type NewsEvent struct {
	ID             int64
	Headline       string
	SentimentScore float64 // Compound score in [-1, 1]
	URL            string
	CreatedAt      time.Time
}
