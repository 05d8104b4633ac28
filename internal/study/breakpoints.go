package study

import (
	"sort"
	"time"

	"github.com/edgewatch/eventstudy/internal/contracts"
)

// BreakpointConfig holds the YoY significance thresholds. The right values
// are deployment-specific (5% flags nearly every quarter, 20% only shocks),
// so they are configuration, never constants inside the algorithm.
type BreakpointConfig struct {
	EPSThreshold float64
	RevThreshold float64
}

// DefaultBreakpointConfig returns the moderate deployment thresholds.
func DefaultBreakpointConfig() BreakpointConfig {
	return BreakpointConfig{
		EPSThreshold: 0.15,
		RevThreshold: 0.15,
	}
}

// DetectBreakpoints flags earnings records whose year-over-year EPS or
// revenue move cleared the configured thresholds.
//
// Anchor priority for the comparison: the record one year prior in the same
// calendar month (same fiscal quarter), else the record four positions back,
// else the immediately preceding record. Future-dated records are excluded
// before the anchor search begins. A missing operand or a zero anchor yields
// a nil metric plus a not-meaningful flag, never an error.
func DetectBreakpoints(records []contracts.EarningsRecord, cfg BreakpointConfig, now time.Time) []contracts.Breakpoint {
	today := dateOnly(now)

	timeline := make([]contracts.EarningsRecord, 0, len(records))
	for _, r := range records {
		if !dateOnly(r.Date).After(today) {
			timeline = append(timeline, r)
		}
	}
	sort.Slice(timeline, func(i, j int) bool { return timeline[i].Date.Before(timeline[j].Date) })

	var breakpoints []contracts.Breakpoint
	for i, cur := range timeline {
		anchor, ok := findAnchor(timeline, i)
		if !ok {
			continue
		}

		bp := contracts.Breakpoint{
			AnnounceDate: dateOnly(cur.Date),
			Timing:       cur.Timing,
			EPS:          cur.EPS,
			Revenue:      cur.Revenue,
		}

		bp.EPSYoY, bp.EPSNotMeaningful = relativeChange(cur.EPS, anchor.EPS)
		bp.RevYoY, bp.RevNotMeaningful = relativeChange(cur.Revenue, anchor.Revenue)

		bp.EPSSignificant = bp.EPSYoY != nil && abs(*bp.EPSYoY) >= cfg.EPSThreshold
		bp.RevSignificant = bp.RevYoY != nil && abs(*bp.RevYoY) >= cfg.RevThreshold

		if bp.EPSSignificant || bp.RevSignificant {
			breakpoints = append(breakpoints, bp)
		}
	}
	return breakpoints
}

// findAnchor picks the comparison record for timeline[i].
func findAnchor(timeline []contracts.EarningsRecord, i int) (contracts.EarningsRecord, bool) {
	cur := dateOnly(timeline[i].Date)

	// Same calendar month, exactly one year prior.
	for j := i - 1; j >= 0; j-- {
		d := dateOnly(timeline[j].Date)
		if d.Year() == cur.Year()-1 && d.Month() == cur.Month() {
			return timeline[j], true
		}
	}

	// Four quarters back by position.
	if i >= 4 {
		return timeline[i-4], true
	}

	// Quarter-over-quarter, last resort.
	if i >= 1 {
		return timeline[i-1], true
	}

	return contracts.EarningsRecord{}, false
}

// relativeChange computes cur/anchor - 1. The metric is only meaningful when
// both operands are present and the anchor is non-zero.
func relativeChange(cur, anchor *float64) (*float64, bool) {
	if cur == nil || anchor == nil || *anchor == 0 {
		return nil, true
	}
	v := *cur / *anchor - 1
	return &v, false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
