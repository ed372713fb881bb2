package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Replay Errors
	ErrDataUnavailable = errors.New("historical dataset is unavailable")
	ErrNoDataForDate   = errors.New("no dataset rows for the requested date")
	ErrEndOfStream     = errors.New("end of replay stream")

	// Streaming Errors
	ErrMalformedCommand = errors.New("malformed inbound command")
	ErrConnectionClosed = errors.New("client connection closed")

	// Market Data Errors
	ErrExchangeUnavailable = errors.New("market data API is unavailable")
	ErrRateLimited         = errors.New("API rate limit exceeded")

	// Database Specific Errors
	ErrDuplicateEntry = errors.New("database record already exists")
	ErrDBConnection   = errors.New("database connection error")
	ErrQueryFailed    = errors.New("database query failed")
	ErrUpdateFailed   = errors.New("database update failed")
)
