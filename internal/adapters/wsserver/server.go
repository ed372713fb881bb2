package wsserver

import (
	"context"
	"errors"
	"net/http"

	"tradeshift/internal/id"
	"tradeshift/internal/ledger"
	"tradeshift/internal/ports"
	"tradeshift/internal/session"
	"tradeshift/internal/simulation"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	maxMessageSize = 1024

	// Inbound command rate limit per connection. Commands beyond the burst
	// are dropped with a warning rather than disconnecting the client.
	commandRate  = 20
	commandBurst = 40
)

// Server upgrades websocket connections and runs one session controller per
// client. The replay source and trade store are shared, dependency-injected
// handles; every session gets its own ledger and cursor.
type Server struct {
	cfg    session.Config
	logger ports.Logger
	source ports.ReplaySource
	trades ports.TradeRepository

	upgrader websocket.Upgrader
}

// New creates a websocket session server.
func New(cfg session.Config, logger ports.Logger, source ports.ReplaySource, trades ports.TradeRepository) (*Server, error) {
	if logger == nil || source == nil || trades == nil {
		return nil, errors.New("missing required dependencies for websocket server")
	}
	return &Server{
		cfg:    cfg,
		logger: logger,
		source: source,
		trades: trades,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The simulator is an open demo surface; cross-origin browser
			// clients are expected.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}, nil
}

// HandleSimulation is the HTTP handler for GET /ws/simulation.
func (s *Server) HandleSimulation(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn(r.Context(), "Websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}

	sessionID := id.New()
	conn := newWSConn(ws)
	defer conn.close()

	s.logger.Info(r.Context(), "Client connected", map[string]interface{}{
		"session": sessionID, "remote": ws.RemoteAddr().String(),
	})

	led, err := ledger.New(ledger.Config{
		Symbol:    s.cfg.Symbol,
		SessionID: sessionID,
		Trades:    s.trades,
		Logger:    s.logger,
	})
	if err != nil {
		s.logger.Error(r.Context(), err, "Failed to create session ledger", map[string]interface{}{"session": sessionID})
		return
	}

	ctrl, err := session.New(s.cfg, sessionID, s.logger, s.source, led, simulation.New(), conn)
	if err != nil {
		s.logger.Error(r.Context(), err, "Failed to create session controller", map[string]interface{}{"session": sessionID})
		return
	}

	// Disconnection of the client is the only cancellation signal: the read
	// pump closes the command channel on read error, and the controller
	// returns shortly after.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go s.readPump(ctx, sessionID, conn)

	_ = ctrl.Run(ctx)
}

// readPump reads inbound messages, validates them at the boundary and feeds
// the session's command channel. A read error means the client is gone and
// closes the channel.
func (s *Server) readPump(ctx context.Context, sessionID string, conn *wsConn) {
	defer close(conn.cmds)

	conn.conn.SetReadLimit(maxMessageSize)
	limiter := rate.NewLimiter(rate.Limit(commandRate), commandBurst)

	for {
		_, raw, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn(ctx, "Websocket read failed", map[string]interface{}{
					"session": sessionID, "error": err.Error(),
				})
			}
			return
		}

		if !limiter.Allow() {
			s.logger.Warn(ctx, "Dropping command over rate limit", map[string]interface{}{"session": sessionID})
			continue
		}

		cmd, err := parseCommand(raw)
		if err != nil {
			// Malformed commands change no state; tell the client and move on.
			s.logger.Warn(ctx, "Ignoring malformed command", map[string]interface{}{
				"session": sessionID, "error": err.Error(),
			})
			_ = conn.SendError(ctx, err.Error())
			continue
		}

		select {
		case conn.cmds <- cmd:
		case <-ctx.Done():
			return
		}
	}
}
