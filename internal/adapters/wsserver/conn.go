package wsserver

import (
	"context"
	"sync"
	"time"

	"tradeshift/internal/domain"
	"tradeshift/internal/ports"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// Outbound wire format: every message is a typed envelope.
type envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type wireTick struct {
	Price     float64 `json:"price"`
	Timestamp string  `json:"timestamp"`
	Symbol    string  `json:"symbol"`
	PnL       float64 `json:"pnl"`
}

type wireError struct {
	Message string `json:"message"`
}

// wsConn adapts one gorilla websocket connection to ports.StreamConn.
// Writes are serialized with a mutex: the session goroutine emits batches
// while the read pump may emit validation errors.
type wsConn struct {
	conn *websocket.Conn
	cmds chan domain.Command

	writeMu sync.Mutex
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{
		conn: conn,
		cmds: make(chan domain.Command, 16),
	}
}

func (c *wsConn) Commands() <-chan domain.Command { return c.cmds }

func (c *wsConn) SendBatch(ctx context.Context, ticks []domain.TickPoint) error {
	payload := make([]wireTick, 0, len(ticks))
	for _, t := range ticks {
		payload = append(payload, wireTick{
			Price:     t.Price,
			Timestamp: t.Timestamp.UTC().Format(time.RFC3339),
			Symbol:    t.Symbol,
			PnL:       t.PnL,
		})
	}
	return c.write(envelope{Type: "BATCH", Data: payload})
}

func (c *wsConn) SendError(ctx context.Context, msg string) error {
	return c.write(envelope{Type: "ERROR", Data: wireError{Message: msg}})
}

func (c *wsConn) write(msg envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteJSON(msg); err != nil {
		return ports.ErrConnectionClosed
	}
	return nil
}

func (c *wsConn) close() error { return c.conn.Close() }
