package contracts

import (
	"fmt"
	"time"
)

// FallbackReason explains how Day0 was resolved when the announcement date
// did not map cleanly onto a trading session.
type FallbackReason string

const (
	FallbackNone            FallbackReason = "none"
	FallbackSameDaySession  FallbackReason = "same-day-session"
	FallbackClosestFuture   FallbackReason = "closest-future-day"
	FallbackNoFutureSession FallbackReason = "no-future-available"
)

// Day0Resolution maps an announcement onto the trading-day sequence.
// TradingIndex is only meaningful when Resolved is true; it then indexes a
// valid position in the sequence used to derive it.
type Day0Resolution struct {
	TradingIndex   int            `json:"trading_index"`
	Resolved       bool           `json:"resolved"`
	FallbackUsed   bool           `json:"fallback_used"`
	FallbackReason FallbackReason `json:"fallback_reason"`
}

// CARWindow is a pair of trading-day offsets relative to Day0, e.g. [-1, +5].
type CARWindow struct {
	StartOffset int `json:"start_offset"`
	EndOffset   int `json:"end_offset"`
}

// Validate enforces StartOffset < EndOffset.
func (w CARWindow) Validate() error {
	if w.StartOffset >= w.EndOffset {
		return fmt.Errorf("invalid CAR window [%d,%d]: start must be before end", w.StartOffset, w.EndOffset)
	}
	return nil
}

// Days returns the nominal number of daily observations in the window.
func (w CARWindow) Days() int {
	return w.EndOffset - w.StartOffset
}

func (w CARWindow) String() string {
	return fmt.Sprintf("[%+d,%+d]", w.StartOffset, w.EndOffset)
}

// MarketModel holds the OLS estimate used for market-model abnormal returns.
type MarketModel struct {
	Alpha      float64 `json:"alpha"`
	Beta       float64 `json:"beta"`
	N          int     `json:"n"`      // paired estimation observations
	TStat      float64 `json:"t_stat"` // only meaningful when TStatValid
	TStatValid bool    `json:"t_stat_valid"`
	Degraded   bool    `json:"degraded"` // true when estimation fell back to alpha=0, beta=1
}

// CARResult is the outcome of one CAR computation over one window.
type CARResult struct {
	CAR        float64      `json:"car"`
	RetSum     float64      `json:"ret_sum"`
	BenchSum   float64      `json:"bench_sum"`
	WindowDays int          `json:"window_days"` // accumulated daily observations
	Partial    bool         `json:"partial"`     // clamped or short window
	Market     *MarketModel `json:"market_model,omitempty"`
}

// Breakpoint is an earnings event whose normalized YoY move cleared the
// configured significance thresholds. Derived per request, never persisted.
type Breakpoint struct {
	AnnounceDate     time.Time `json:"announce_date"`
	Timing           Timing    `json:"timing"`
	EPS              *float64  `json:"eps"`
	Revenue          *float64  `json:"revenue"`
	EPSYoY           *float64  `json:"eps_yoy"` // nil when not meaningful
	RevYoY           *float64  `json:"rev_yoy"`
	EPSNotMeaningful bool      `json:"eps_not_meaningful"`
	RevNotMeaningful bool      `json:"rev_not_meaningful"`
	EPSSignificant   bool      `json:"eps_significant"`
	RevSignificant   bool      `json:"rev_significant"`
}
