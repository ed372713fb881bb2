package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"tradeshift/internal/domain"
	"tradeshift/internal/ledger"
	"tradeshift/internal/ports"
	"tradeshift/internal/simulation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// mockTradeRepo records trades in memory, safe for cross-goroutine assertions.
type mockTradeRepo struct {
	mu     sync.Mutex
	trades []*domain.TradeRecord
}

func (m *mockTradeRepo) CreateTrade(ctx context.Context, trade *domain.TradeRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = append(m.trades, trade)
	return int64(len(m.trades)), nil
}

func (m *mockTradeRepo) FindBySession(ctx context.Context, sessionID string) ([]*domain.TradeRecord, error) {
	return nil, nil
}

func (m *mockTradeRepo) CountBySymbol(ctx context.Context, symbol string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.trades), nil
}

// fakeConn implements ports.StreamConn with generously buffered channels so
// the controller never blocks on the test harness.
type fakeConn struct {
	cmds    chan domain.Command
	batches chan []domain.TickPoint
	errs    chan string
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		cmds:    make(chan domain.Command, 16),
		batches: make(chan []domain.TickPoint, 4096),
		errs:    make(chan string, 16),
	}
}

func (f *fakeConn) Commands() <-chan domain.Command { return f.cmds }

func (f *fakeConn) SendBatch(ctx context.Context, ticks []domain.TickPoint) error {
	f.batches <- ticks
	return nil
}

func (f *fakeConn) SendError(ctx context.Context, msg string) error {
	f.errs <- msg
	return nil
}

// fakeSource serves a fixed window and fails dated seeks on demand.
type fakeSource struct {
	bars      []domain.Bar
	failDates bool
}

func (s *fakeSource) Historical() bool { return true }

func (s *fakeSource) Seek(date *time.Time) (ports.BarIterator, error) {
	if date != nil && s.failDates {
		return nil, ports.ErrNoDataForDate
	}
	return &fakeIterator{bars: s.bars}, nil
}

type fakeIterator struct {
	bars []domain.Bar
	idx  int
}

func (it *fakeIterator) Next() domain.Bar {
	bar := it.bars[it.idx]
	it.idx = (it.idx + 1) % len(it.bars)
	return bar
}

func (it *fakeIterator) Len() int { return len(it.bars) }

func testBars() []domain.Bar {
	base := time.Date(2024, 1, 15, 9, 15, 0, 0, time.UTC)
	return []domain.Bar{
		{Timestamp: base, Symbol: "TEST", Open: 100, High: 105, Low: 95, Close: 102},
		{Timestamp: base.Add(time.Minute), Symbol: "TEST", Open: 102, High: 107, Low: 101, Close: 106},
	}
}

func startController(t *testing.T, source ports.ReplaySource, conn *fakeConn) (*mockTradeRepo, func()) {
	t.Helper()

	repo := &mockTradeRepo{}
	led, err := ledger.New(ledger.Config{
		Symbol:    "TEST",
		SessionID: "01SESSIONTEST",
		Trades:    repo,
		Logger:    &mockLogger{},
	})
	require.NoError(t, err)

	ctrl, err := New(Config{
		Symbol:        "TEST",
		TicksPerBar:   6,
		TicksPerBatch: 3,
		BatchInterval: 10 * time.Millisecond,
		CommandPoll:   2 * time.Millisecond,
	}, "01SESSIONTEST", &mockLogger{}, source, led, simulation.NewWithSeed(1), conn)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ctrl.Run(ctx)
	}()

	return repo, func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("controller did not stop after context cancellation")
		}
	}
}

func waitBatch(t *testing.T, conn *fakeConn, timeout time.Duration) []domain.TickPoint {
	t.Helper()
	select {
	case batch := <-conn.batches:
		return batch
	case <-time.After(timeout):
		t.Fatal("timed out waiting for a batch")
		return nil
	}
}

func TestController_StartStreamsBatches(t *testing.T) {
	conn := newFakeConn()
	_, stop := startController(t, &fakeSource{bars: testBars()}, conn)
	defer stop()

	conn.cmds <- domain.Command{Type: domain.CmdStart, Speed: 1.0}

	batch := waitBatch(t, conn, 2*time.Second)
	require.Len(t, batch, 3)
	assert.Equal(t, 100.0, batch[0].Price, "first tick of the first bar is its open")
	assert.Equal(t, "TEST", batch[0].Symbol)
	assert.Equal(t, 0.0, batch[0].PnL, "flat position marks to zero")

	// Tick timestamps advance by one second per sequence index.
	assert.Equal(t, batch[0].Timestamp.Add(time.Second), batch[1].Timestamp)

	second := waitBatch(t, conn, 2*time.Second)
	require.Len(t, second, 3)
	assert.Equal(t, 102.0, second[len(second)-1].Price, "last tick of the bar is its close")
}

func TestController_SeekFailureEmitsSingleError(t *testing.T) {
	conn := newFakeConn()
	_, stop := startController(t, &fakeSource{bars: testBars(), failDates: true}, conn)
	defer stop()

	day := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	conn.cmds <- domain.Command{Type: domain.CmdStart, Date: &day, Speed: 1.0}

	select {
	case msg := <-conn.errs:
		assert.Contains(t, msg, "no dataset rows")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the error message")
	}

	// Still idle: no batches and no second error.
	select {
	case <-conn.batches:
		t.Fatal("controller must not start streaming after a failed seek")
	case msg := <-conn.errs:
		t.Fatalf("unexpected extra error message: %s", msg)
	case <-time.After(100 * time.Millisecond):
	}

	// A valid start afterwards streams normally.
	conn.cmds <- domain.Command{Type: domain.CmdStart, Speed: 1.0}
	waitBatch(t, conn, 2*time.Second)
}

func TestController_BuySellRoundTripRecordsTrade(t *testing.T) {
	conn := newFakeConn()
	repo, stop := startController(t, &fakeSource{bars: testBars()}, conn)
	defer stop()

	conn.cmds <- domain.Command{Type: domain.CmdStart, Speed: 1.0}
	waitBatch(t, conn, 2*time.Second)

	conn.cmds <- domain.Command{Type: domain.CmdBuy, Quantity: 2}
	waitBatch(t, conn, 2*time.Second)
	conn.cmds <- domain.Command{Type: domain.CmdSell, Quantity: 2}

	require.Eventually(t, func() bool {
		n, _ := repo.CountBySymbol(context.Background(), "TEST")
		return n == 1
	}, 2*time.Second, 10*time.Millisecond, "long close must append exactly one trade")

	repo.mu.Lock()
	trade := repo.trades[0]
	repo.mu.Unlock()
	assert.Equal(t, domain.Long, trade.Direction)
	assert.Equal(t, 1, trade.TradeSequence)
	assert.Equal(t, 2.0, trade.Quantity)
}

func TestController_StopHaltsEmission(t *testing.T) {
	conn := newFakeConn()
	_, stop := startController(t, &fakeSource{bars: testBars()}, conn)
	defer stop()

	conn.cmds <- domain.Command{Type: domain.CmdStart, Speed: 1.0}
	waitBatch(t, conn, 2*time.Second)

	conn.cmds <- domain.Command{Type: domain.CmdStop}

	// Drain anything emitted before the stop took effect, then expect silence.
	deadline := time.After(500 * time.Millisecond)
drain:
	for {
		select {
		case <-conn.batches:
		case <-deadline:
			break drain
		}
	}
	select {
	case <-conn.batches:
		t.Fatal("batch emitted after stop settled")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestController_DisconnectEndsSession(t *testing.T) {
	conn := newFakeConn()
	_, stop := startController(t, &fakeSource{bars: testBars()}, conn)
	defer stop()

	conn.cmds <- domain.Command{Type: domain.CmdStart, Speed: 1.0}
	waitBatch(t, conn, 2*time.Second)

	close(conn.cmds)

	// The controller observes the closed command channel within one poll and
	// stops emitting shortly after.
	time.Sleep(300 * time.Millisecond)
	for len(conn.batches) > 0 {
		<-conn.batches
	}
	select {
	case <-conn.batches:
		t.Fatal("batch emitted after disconnect")
	case <-time.After(200 * time.Millisecond):
	}
}
