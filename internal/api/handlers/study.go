package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/edgewatch/eventstudy/internal/contracts"
	"github.com/edgewatch/eventstudy/internal/external/edgar"
	"github.com/edgewatch/eventstudy/internal/marketdata"
	"github.com/edgewatch/eventstudy/internal/study"
	"github.com/edgewatch/eventstudy/pkg/config"
	"github.com/edgewatch/eventstudy/pkg/logger"
)

// StudyHandler assembles the inputs for one event study and runs the engine.
// All I/O happens here; the engine only sees plain slices.
// ⭐ SSOT: study request assembly lives in this struct only
type StudyHandler struct {
	collector    *marketdata.Collector
	earningsRepo *marketdata.EarningsRepository
	splitRepo    *marketdata.SplitRepository
	edgarClient  *edgar.Client
	engine       *study.Engine
	config       *config.Config
	logger       *logger.Logger
}

// NewStudyHandler creates a new study handler
func NewStudyHandler(
	collector *marketdata.Collector,
	earningsRepo *marketdata.EarningsRepository,
	splitRepo *marketdata.SplitRepository,
	edgarClient *edgar.Client,
	engine *study.Engine,
	cfg *config.Config,
	log *logger.Logger,
) *StudyHandler {
	return &StudyHandler{
		collector:    collector,
		earningsRepo: earningsRepo,
		splitRepo:    splitRepo,
		edgarClient:  edgarClient,
		engine:       engine,
		config:       cfg,
		logger:       log,
	}
}

// WindowRequest is one event window in day offsets relative to Day0.
type WindowRequest struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// StudyRequest is the POST /api/study body.
type StudyRequest struct {
	Symbol         string          `json:"symbol"`
	Benchmark      string          `json:"benchmark,omitempty"`
	Days           int             `json:"days,omitempty"`
	Windows        []WindowRequest `json:"windows,omitempty"`
	AllowVendorEPS *bool           `json:"allow_vendor_eps,omitempty"`
}

// RunStudy runs a full event study for one symbol.
// POST /api/study
func (h *StudyHandler) RunStudy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req StudyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	benchmark := req.Benchmark
	if benchmark == "" {
		benchmark = h.config.Benchmark
	}
	days := req.Days
	if days <= 0 {
		days = 1095 // three years of history by default
	}

	windows := make([]contracts.CARWindow, 0, len(req.Windows))
	for _, wr := range req.Windows {
		win := contracts.CARWindow{StartOffset: wr.Start, EndOffset: wr.End}
		if err := win.Validate(); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		windows = append(windows, win)
	}
	if len(windows) == 0 {
		windows = []contracts.CARWindow{
			{StartOffset: -1, EndOffset: 1},
			{StartOffset: 0, EndOffset: 5},
		}
	}

	now := time.Now()
	from := now.AddDate(0, 0, -days)

	input, err := h.assembleInput(ctx, req, benchmark, from, now)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", req.Symbol).Error("Study input assembly failed")
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	input.Windows = windows

	report, err := h.engine.RunStudy(ctx, *input)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", req.Symbol).Error("Study failed")
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// assembleInput gathers prices, splits, earnings, and EPS facts for a study.
func (h *StudyHandler) assembleInput(ctx context.Context, req StudyRequest, benchmark string, from, now time.Time) (*study.StudyInput, error) {
	subject, err := h.collector.FetchPrices(ctx, req.Symbol, from, now)
	if err != nil {
		return nil, fmt.Errorf("subject prices: %w", err)
	}
	bench, err := h.collector.FetchPrices(ctx, benchmark, from, now)
	if err != nil {
		return nil, fmt.Errorf("benchmark prices: %w", err)
	}

	records, err := h.earningsRepo.GetBySymbolAndRange(ctx, req.Symbol, from, now)
	if err != nil {
		return nil, fmt.Errorf("stored earnings: %w", err)
	}
	var primary, secondary []contracts.EarningsRecord
	for _, rec := range records {
		if rec.Provenance == contracts.ProvenanceVendor {
			secondary = append(secondary, rec)
		} else {
			primary = append(primary, rec)
		}
	}

	splits, err := h.splitRepo.GetBySymbol(ctx, req.Symbol)
	if err != nil {
		return nil, fmt.Errorf("stored splits: %w", err)
	}

	// Facts may legitimately predate the oldest record by a full relaxed
	// window.
	factFrom := from.AddDate(0, 0, -h.config.Study.FactRelaxedDays)
	structured, err := h.edgarClient.FetchEPSFacts(ctx, req.Symbol, factFrom, now)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", req.Symbol).Warn("Structured facts unavailable")
	}
	ratio, err := h.edgarClient.FetchRatioEPSFacts(ctx, req.Symbol, factFrom, now)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", req.Symbol).Warn("Ratio facts unavailable")
	}

	allowVendor := h.config.Study.AllowVendorEPS
	if req.AllowVendorEPS != nil {
		allowVendor = *req.AllowVendorEPS
	}

	st := h.config.Study
	return &study.StudyInput{
		Symbol:            req.Symbol,
		Benchmark:         benchmark,
		SubjectPrices:     subject,
		BenchmarkPrices:   bench,
		PrimaryEarnings:   primary,
		SecondaryEarnings: secondary,
		Splits:            splits,
		Facts:             study.NormalizeSources{Structured: structured, Ratio: ratio},
		Reconcile: study.ReconcileOptions{
			ToleranceDays: st.ProximityToleranceDays,
			From:          from,
			To:            now,
		},
		Normalize: study.NormalizeOptions{
			AllowVendorEPS: allowVendor,
			ToleranceDays:  st.FactToleranceDays,
			RelaxedDays:    st.FactRelaxedDays,
		},
		Breakpoints: study.BreakpointConfig{
			EPSThreshold: st.EPSThreshold,
			RevThreshold: st.RevThreshold,
		},
		Estimation: study.EstimationConfig{
			Days:   st.EstimationDays,
			MinObs: st.MinEstimationObs,
		},
		Now: now,
	}, nil
}
