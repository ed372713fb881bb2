package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"tradeshift/internal/domain"
	"tradeshift/internal/ledger"
	"tradeshift/internal/ports"
	"tradeshift/internal/simulation"
)

// Defaults for the emission cadence. The command poll is kept an order of
// magnitude below the batch interval so a pending command is never starved
// by the pacing delay.
const (
	DefaultTicksPerBar   = 60
	DefaultTicksPerBatch = 10
	DefaultBatchInterval = 100 * time.Millisecond
	DefaultCommandPoll   = 10 * time.Millisecond
	DefaultMinSpeed      = 0.1
)

// Config holds the tunable parameters of a streaming session.
type Config struct {
	Symbol        string
	TicksPerBar   int
	TicksPerBatch int
	BatchInterval time.Duration
	CommandPoll   time.Duration
	MinSpeed      float64
}

func (c *Config) applyDefaults() {
	if c.TicksPerBar <= 0 {
		c.TicksPerBar = DefaultTicksPerBar
	}
	if c.TicksPerBatch <= 0 {
		c.TicksPerBatch = DefaultTicksPerBatch
	}
	if c.BatchInterval <= 0 {
		c.BatchInterval = DefaultBatchInterval
	}
	if c.CommandPoll <= 0 {
		c.CommandPoll = DefaultCommandPoll
	}
	if c.MinSpeed <= 0 {
		c.MinSpeed = DefaultMinSpeed
	}
}

// Controller orchestrates one streaming session: it interleaves inbound
// command handling with timed bar replay, tick synthesis and batch emission.
// All state is owned by the single goroutine running Run; nothing here is
// shared across connections except the read-only replay source and the
// trade store behind the ledger.
type Controller struct {
	cfg    Config
	id     string
	logger ports.Logger
	source ports.ReplaySource
	ledger *ledger.Ledger
	synth  *simulation.Synthesizer
	conn   ports.StreamConn

	running       bool
	speed         float64
	lastTickPrice float64
	cursor        ports.BarIterator
}

// New creates a session controller with explicitly injected collaborators.
func New(cfg Config, sessionID string, logger ports.Logger, source ports.ReplaySource,
	led *ledger.Ledger, synth *simulation.Synthesizer, conn ports.StreamConn) (*Controller, error) {

	if logger == nil || source == nil || led == nil || synth == nil || conn == nil {
		return nil, fmt.Errorf("missing required dependencies for session controller")
	}
	cfg.applyDefaults()
	return &Controller{
		cfg:    cfg,
		id:     sessionID,
		logger: logger,
		source: source,
		ledger: led,
		synth:  synth,
		conn:   conn,
		speed:  1.0,
	}, nil
}

// Run drives the session until the client disconnects or the context is
// canceled. Unexpected per-cycle errors are logged and end the session; they
// are never retried. Session state is discarded on return; open positions
// are not persisted.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info(ctx, "Session started", map[string]interface{}{
		"session": c.id, "symbol": c.cfg.Symbol, "historical": c.source.Historical(),
	})
	defer c.logger.Info(ctx, "Session ended", map[string]interface{}{"session": c.id})

	for {
		if err := c.pollCommand(ctx); err != nil {
			return c.finish(ctx, err)
		}

		if !c.running {
			select {
			case <-ctx.Done():
				return c.finish(ctx, ctx.Err())
			case <-time.After(c.cfg.BatchInterval):
			}
			continue
		}

		if err := c.streamBar(ctx); err != nil {
			return c.finish(ctx, err)
		}
	}
}

// finish normalizes terminal errors: disconnects and cancellations are the
// expected way for a session to end.
func (c *Controller) finish(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ports.ErrConnectionClosed):
		c.logger.Info(ctx, "Client disconnected", map[string]interface{}{"session": c.id})
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil
	default:
		c.logger.Error(ctx, err, "Session terminated by error", map[string]interface{}{"session": c.id})
		return err
	}
}

// pollCommand waits at most the configured poll interval for one inbound
// command and dispatches it. Commands are therefore only ever applied
// between batch emissions, never mid-batch.
func (c *Controller) pollCommand(ctx context.Context) error {
	timer := time.NewTimer(c.cfg.CommandPoll)
	defer timer.Stop()

	select {
	case cmd, ok := <-c.conn.Commands():
		if !ok {
			return ports.ErrConnectionClosed
		}
		c.dispatch(ctx, cmd)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Controller) dispatch(ctx context.Context, cmd domain.Command) {
	switch cmd.Type {
	case domain.CmdStart:
		c.handleStart(ctx, cmd)
	case domain.CmdBuy:
		// Executed at the last emitted tick price regardless of whether the
		// stream is running.
		c.ledger.Buy(ctx, c.lastTickPrice, cmd.Quantity)
	case domain.CmdSell:
		c.ledger.Sell(ctx, c.lastTickPrice, cmd.Quantity)
	case domain.CmdStop:
		c.running = false
		c.logger.Info(ctx, "Streaming paused", map[string]interface{}{"session": c.id})
	default:
		c.logger.Warn(ctx, "Ignoring unknown command", map[string]interface{}{
			"session": c.id, "command": string(cmd.Type),
		})
	}
}

func (c *Controller) handleStart(ctx context.Context, cmd domain.Command) {
	cursor, err := c.source.Seek(cmd.Date)
	if err != nil {
		// Seek failures are surfaced to the client; the running state stays
		// exactly as it was.
		c.logger.Warn(ctx, "Replay seek failed", map[string]interface{}{
			"session": c.id, "error": err.Error(),
		})
		if sendErr := c.conn.SendError(ctx, err.Error()); sendErr != nil {
			c.logger.Error(ctx, sendErr, "Failed to send error message", map[string]interface{}{"session": c.id})
		}
		return
	}

	c.cursor = cursor
	c.speed = cmd.Speed
	if c.speed <= 0 {
		c.speed = 1.0
	}
	c.running = true
	c.logger.Info(ctx, "Streaming started", map[string]interface{}{
		"session": c.id, "speed": c.speed, "windowRows": cursor.Len(),
	})
}

// streamBar replays one bar: synthesizes its tick path and emits it in fixed
// size batches, marking the position to market on every tick. The pacing
// delay between batches is the sole throttle converting replay speed into
// wall-clock time.
func (c *Controller) streamBar(ctx context.Context) error {
	bar := c.cursor.Next()

	ticks, err := c.synth.Generate(bar.Open, bar.High, bar.Low, bar.Close, c.cfg.TicksPerBar)
	if err != nil {
		return fmt.Errorf("tick synthesis failed: %w", err)
	}

	for start := 0; start < len(ticks); start += c.cfg.TicksPerBatch {
		if !c.running {
			// A stop arrived between batches: abandon the rest of the bar.
			return nil
		}

		end := start + c.cfg.TicksPerBatch
		if end > len(ticks) {
			end = len(ticks)
		}

		points := make([]domain.TickPoint, 0, end-start)
		for i, price := range ticks[start:end] {
			c.lastTickPrice = price
			points = append(points, domain.TickPoint{
				Price:     price,
				Timestamp: bar.TickTime(start + i),
				Symbol:    c.cfg.Symbol,
				PnL:       c.ledger.MarkToMarket(price),
			})
		}

		if err := c.conn.SendBatch(ctx, points); err != nil {
			return fmt.Errorf("batch emission failed: %w", err)
		}

		delay := time.Duration(float64(c.cfg.BatchInterval) / math.Max(c.speed, c.cfg.MinSpeed))
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		// Observe pending commands between batches so they are serviced
		// promptly even while a bar is mid-flight.
		if err := c.pollCommand(ctx); err != nil {
			return err
		}
	}
	return nil
}
