package ports

import (
	"context"

	"tradeshift/internal/domain"
)

// StreamConn is the session controller's view of one client connection.
// Commands are produced by the transport's read pump. Implementations must
// tolerate sends from both the session goroutine and the transport itself
// (boundary validation errors are reported on the same connection).
type StreamConn interface {
	// Commands returns the channel of validated inbound commands. The channel
	// is closed when the client disconnects.
	Commands() <-chan domain.Command
	// SendBatch emits one ordered batch of tick points to the client.
	// Returns ErrConnectionClosed (possibly wrapped) once the client is gone.
	SendBatch(ctx context.Context, ticks []domain.TickPoint) error
	// SendError emits a human-readable error message to the client.
	SendError(ctx context.Context, msg string) error
}
