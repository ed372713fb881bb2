package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"tradeshift/internal/ports"
	"tradeshift/internal/replay"

	"github.com/gin-gonic/gin"
)

const defaultDataLimit = 1000

// CatalogHandler serves the instrument catalog and raw dataset rows. It is
// read-only plumbing around the repositories; the streaming engine never
// goes through these routes.
type CatalogHandler struct {
	instruments ports.InstrumentRepository
	trades      ports.TradeRepository
	logger      ports.Logger
}

// NewCatalogHandler creates the handler with injected repositories.
func NewCatalogHandler(instruments ports.InstrumentRepository, trades ports.TradeRepository, logger ports.Logger) *CatalogHandler {
	return &CatalogHandler{instruments: instruments, trades: trades, logger: logger}
}

type instrumentResponse struct {
	Symbol    string `json:"symbol"`
	Interval  string `json:"interval"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	RowsCount int    `json:"rows_count"`
}

type barResponse struct {
	Timestamp string  `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

type tradeResponse struct {
	SessionID     string  `json:"session_id"`
	Symbol        string  `json:"symbol"`
	Direction     string  `json:"direction"`
	EntryPrice    float64 `json:"entry_price"`
	ExitPrice     float64 `json:"exit_price"`
	Quantity      float64 `json:"quantity"`
	PnL           float64 `json:"pnl"`
	EntryTime     string  `json:"entry_time"`
	ExitTime      string  `json:"exit_time"`
	TradeSequence int     `json:"trade_sequence"`
	ExitReason    string  `json:"exit_reason"`
}

// ListInstruments handles GET /api/instruments.
func (h *CatalogHandler) ListInstruments(c *gin.Context) {
	instruments, err := h.instruments.List(c.Request.Context())
	if err != nil {
		h.logger.Error(c.Request.Context(), err, "Failed to list instruments")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "catalog unavailable"})
		return
	}

	out := make([]instrumentResponse, 0, len(instruments))
	for _, inst := range instruments {
		out = append(out, instrumentResponse{
			Symbol:    inst.Symbol,
			Interval:  inst.Interval,
			StartDate: inst.StartDate.UTC().Format(time.RFC3339),
			EndDate:   inst.EndDate.UTC().Format(time.RFC3339),
			RowsCount: inst.RowCount,
		})
	}
	c.JSON(http.StatusOK, out)
}

// GetInstrument handles GET /api/instruments/:symbol.
func (h *CatalogHandler) GetInstrument(c *gin.Context) {
	symbol := c.Param("symbol")

	inst, err := h.instruments.FindBySymbol(c.Request.Context(), symbol)
	if err != nil {
		h.logger.Error(c.Request.Context(), err, "Failed to look up instrument", map[string]interface{}{"symbol": symbol})
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "catalog unavailable"})
		return
	}
	if inst == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Instrument not found"})
		return
	}

	c.JSON(http.StatusOK, instrumentResponse{
		Symbol:    inst.Symbol,
		Interval:  inst.Interval,
		StartDate: inst.StartDate.UTC().Format(time.RFC3339),
		EndDate:   inst.EndDate.UTC().Format(time.RFC3339),
		RowsCount: inst.RowCount,
	})
}

// GetInstrumentData handles GET /api/data/:symbol?limit=&offset=, serving raw
// dataset rows for a cataloged instrument.
func (h *CatalogHandler) GetInstrumentData(c *gin.Context) {
	symbol := c.Param("symbol")

	inst, err := h.instruments.FindBySymbol(c.Request.Context(), symbol)
	if err != nil {
		h.logger.Error(c.Request.Context(), err, "Failed to look up instrument", map[string]interface{}{"symbol": symbol})
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "catalog unavailable"})
		return
	}
	if inst == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Instrument not found"})
		return
	}

	limit := queryInt(c, "limit", defaultDataLimit)
	offset := queryInt(c, "offset", 0)

	ds, err := replay.LoadDataset(inst.FilePath, inst.Symbol, h.logger)
	if err != nil {
		h.logger.Error(c.Request.Context(), err, "Failed to load dataset for instrument", map[string]interface{}{
			"symbol": symbol, "path": inst.FilePath,
		})
		c.JSON(http.StatusNotFound, gin.H{"detail": "Dataset file unavailable"})
		return
	}

	bars := ds.Slice(offset, limit)
	out := make([]barResponse, 0, len(bars))
	for _, bar := range bars {
		out = append(out, barResponse{
			Timestamp: bar.Timestamp.UTC().Format(time.RFC3339),
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			Volume:    bar.Volume,
		})
	}
	c.JSON(http.StatusOK, out)
}

// ListTrades handles GET /api/trades?session=.
func (h *CatalogHandler) ListTrades(c *gin.Context) {
	sessionID := c.Query("session")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "session query parameter is required"})
		return
	}

	trades, err := h.trades.FindBySession(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.Error(c.Request.Context(), err, "Failed to list trades", map[string]interface{}{"session": sessionID})
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "trade store unavailable"})
		return
	}

	out := make([]tradeResponse, 0, len(trades))
	for _, trade := range trades {
		out = append(out, tradeResponse{
			SessionID:     trade.SessionID,
			Symbol:        trade.Symbol,
			Direction:     string(trade.Direction),
			EntryPrice:    trade.EntryPrice,
			ExitPrice:     trade.ExitPrice,
			Quantity:      trade.Quantity,
			PnL:           trade.PNL,
			EntryTime:     trade.EntryTime.UTC().Format(time.RFC3339),
			ExitTime:      trade.ExitTime.UTC().Format(time.RFC3339),
			TradeSequence: trade.TradeSequence,
			ExitReason:    string(trade.ExitReason),
		})
	}
	c.JSON(http.StatusOK, out)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
