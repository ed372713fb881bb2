package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tradeshift/internal/domain"

	"github.com/gin-gonic/gin"
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

type mockInstrumentRepo struct {
	instruments map[string]*domain.Instrument
}

func (m *mockInstrumentRepo) Upsert(ctx context.Context, inst *domain.Instrument) error {
	m.instruments[inst.Symbol] = inst
	return nil
}

func (m *mockInstrumentRepo) FindBySymbol(ctx context.Context, symbol string) (*domain.Instrument, error) {
	return m.instruments[symbol], nil
}

func (m *mockInstrumentRepo) List(ctx context.Context) ([]*domain.Instrument, error) {
	out := make([]*domain.Instrument, 0, len(m.instruments))
	for _, inst := range m.instruments {
		out = append(out, inst)
	}
	return out, nil
}

type mockTradeRepo struct {
	trades []*domain.TradeRecord
}

func (m *mockTradeRepo) CreateTrade(ctx context.Context, trade *domain.TradeRecord) (int64, error) {
	m.trades = append(m.trades, trade)
	return int64(len(m.trades)), nil
}

func (m *mockTradeRepo) FindBySession(ctx context.Context, sessionID string) ([]*domain.TradeRecord, error) {
	var out []*domain.TradeRecord
	for _, trade := range m.trades {
		if trade.SessionID == sessionID {
			out = append(out, trade)
		}
	}
	return out, nil
}

func (m *mockTradeRepo) CountBySymbol(ctx context.Context, symbol string) (int, error) {
	return len(m.trades), nil
}

func setupRouter(t *testing.T) (*gin.Engine, *mockInstrumentRepo, *mockTradeRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	instruments := &mockInstrumentRepo{instruments: map[string]*domain.Instrument{}}
	trades := &mockTradeRepo{}
	handler := NewCatalogHandler(instruments, trades, &mockLogger{})
	return NewRouter(&Config{Catalog: handler}), instruments, trades
}

func writeDatasetFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bars.csv")
	csv := `date,open,high,low,close,volume
2024-01-15 09:15:00,100,105,95,102,1200
2024-01-15 09:16:00,102,106,101,104,900
2024-01-15 09:17:00,104,104.5,99,100,1500
`
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))
	return path
}

func TestGetInstrument_NotFound(t *testing.T) {
	router, _, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/instruments/UNKNOWN", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Instrument not found")
}

func TestListInstruments(t *testing.T) {
	router, instruments, _ := setupRouter(t)
	instruments.instruments["NIFTY_50"] = &domain.Instrument{
		Symbol:    "NIFTY_50",
		Interval:  "1m",
		FilePath:  "/nowhere.csv",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		RowCount:  1000,
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/instruments", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got []instrumentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "NIFTY_50", got[0].Symbol)
	assert.Equal(t, 1000, got[0].RowsCount)
}

func TestGetInstrumentData_Paginated(t *testing.T) {
	router, instruments, _ := setupRouter(t)
	instruments.instruments["NIFTY_50"] = &domain.Instrument{
		Symbol:   "NIFTY_50",
		Interval: "1m",
		FilePath: writeDatasetFile(t),
		RowCount: 3,
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/data/NIFTY_50?limit=2&offset=1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got []barResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, 102.0, got[0].Open)
	assert.Equal(t, 104.0, got[1].Open)
}

func TestGetInstrumentData_UnknownSymbol(t *testing.T) {
	router, _, _ := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/data/NOPE", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListTrades_BySession(t *testing.T) {
	router, _, trades := setupRouter(t)
	trades.trades = []*domain.TradeRecord{
		{SessionID: "01A", Symbol: "NIFTY 50", Direction: domain.Long, PNL: 100, TradeSequence: 1, ExitReason: domain.ExitReasonManual},
		{SessionID: "01B", Symbol: "NIFTY 50", Direction: domain.Long, PNL: -20, TradeSequence: 1, ExitReason: domain.ExitReasonManual},
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/trades?session=01A", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got []tradeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, 100.0, got[0].PnL)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/trades", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
