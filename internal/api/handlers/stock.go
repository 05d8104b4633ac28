package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/edgewatch/eventstudy/internal/marketdata"
	"github.com/edgewatch/eventstudy/pkg/logger"
)

// StockHandler serves stored market data.
// ⭐ SSOT: stock data API handlers live in this struct only
type StockHandler struct {
	priceRepo    *marketdata.PriceRepository
	earningsRepo *marketdata.EarningsRepository
	logger       *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(priceRepo *marketdata.PriceRepository, earningsRepo *marketdata.EarningsRepository, log *logger.Logger) *StockHandler {
	return &StockHandler{
		priceRepo:    priceRepo,
		earningsRepo: earningsRepo,
		logger:       log,
	}
}

// PricePointResponse is one adjusted close for API output.
type PricePointResponse struct {
	Date     string  `json:"date"`
	AdjClose float64 `json:"adj_close"`
}

// GetPrices returns stored adjusted closes for a symbol.
// GET /api/stocks/{symbol}/prices?days=365
func (h *StockHandler) GetPrices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	symbol := mux.Vars(r)["symbol"]
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	days := 365
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		if d, err := strconv.Atoi(daysStr); err == nil && d > 0 {
			days = d
		}
	}

	to := time.Now()
	from := to.AddDate(0, 0, -days)

	series, err := h.priceRepo.GetBySymbolAndRange(ctx, symbol, from, to)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to get prices")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve prices")
		return
	}

	result := make([]PricePointResponse, len(series))
	for i, p := range series {
		result[i] = PricePointResponse{
			Date:     p.Date.Format("2006-01-02"),
			AdjClose: p.AdjClose,
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"count":  len(result),
		"prices": result,
	})
}

// GetEarnings returns stored announcement records for a symbol.
// GET /api/stocks/{symbol}/earnings?days=1095
func (h *StockHandler) GetEarnings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	symbol := mux.Vars(r)["symbol"]
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	days := 1095
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		if d, err := strconv.Atoi(daysStr); err == nil && d > 0 {
			days = d
		}
	}

	to := time.Now()
	from := to.AddDate(0, 0, -days)

	records, err := h.earningsRepo.GetBySymbolAndRange(ctx, symbol, from, to)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to get earnings")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve earnings")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":   symbol,
		"count":    len(records),
		"earnings": records,
	})
}
