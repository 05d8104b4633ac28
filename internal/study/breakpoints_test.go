package study

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgewatch/eventstudy/internal/contracts"
)

func TestDetectBreakpoints_SameQuarterAnchorPreferred(t *testing.T) {
	records := []contracts.EarningsRecord{
		rec("2023-03-31", f(1.00), f(100), contracts.TimingAfterClose, contracts.ProvenanceFiling),
		rec("2023-06-30", f(1.10), f(105), contracts.TimingAfterClose, contracts.ProvenanceFiling),
		rec("2023-09-30", f(1.20), f(110), contracts.TimingAfterClose, contracts.ProvenanceFiling),
		rec("2023-12-31", f(1.30), f(115), contracts.TimingAfterClose, contracts.ProvenanceFiling),
		rec("2024-03-31", f(1.50), f(130), contracts.TimingAfterClose, contracts.ProvenanceFiling),
	}

	got := DetectBreakpoints(records, BreakpointConfig{EPSThreshold: 0.20, RevThreshold: 0.20}, d("2024-06-01"))
	require.Len(t, got, 1)

	bp := got[0]
	assert.Equal(t, d("2024-03-31"), bp.AnnounceDate)
	// Anchor must be 2023-03-31 (same-quarter YoY), not the 4-back record.
	require.NotNil(t, bp.EPSYoY)
	assert.InDelta(t, 0.50, *bp.EPSYoY, 1e-9)
	require.NotNil(t, bp.RevYoY)
	assert.InDelta(t, 0.30, *bp.RevYoY, 1e-9)
	assert.True(t, bp.EPSSignificant)
	assert.True(t, bp.RevSignificant)
}

func TestDetectBreakpoints_FourBackFallback(t *testing.T) {
	// Fiscal calendar shifted: no record shares the calendar month one year
	// prior, so the anchor falls back to four positions back.
	records := []contracts.EarningsRecord{
		rec("2023-02-15", f(1.00), nil, contracts.TimingAfterClose, contracts.ProvenanceFiling),
		rec("2023-05-15", f(1.05), nil, contracts.TimingAfterClose, contracts.ProvenanceFiling),
		rec("2023-08-15", f(1.10), nil, contracts.TimingAfterClose, contracts.ProvenanceFiling),
		rec("2023-11-15", f(1.15), nil, contracts.TimingAfterClose, contracts.ProvenanceFiling),
		rec("2024-03-20", f(1.60), nil, contracts.TimingAfterClose, contracts.ProvenanceFiling),
	}

	got := DetectBreakpoints(records, BreakpointConfig{EPSThreshold: 0.15, RevThreshold: 0.15}, d("2024-06-01"))
	require.Len(t, got, 1)
	require.NotNil(t, got[0].EPSYoY)
	assert.InDelta(t, 0.60, *got[0].EPSYoY, 1e-9, "anchor is 2023-02-15 via 4-back rule")
}

func TestDetectBreakpoints_QoQLastResort(t *testing.T) {
	records := []contracts.EarningsRecord{
		rec("2023-11-15", f(1.00), nil, contracts.TimingAfterClose, contracts.ProvenanceFiling),
		rec("2024-02-15", f(1.40), nil, contracts.TimingAfterClose, contracts.ProvenanceFiling),
	}

	got := DetectBreakpoints(records, BreakpointConfig{EPSThreshold: 0.15, RevThreshold: 0.15}, d("2024-06-01"))
	require.Len(t, got, 1)
	require.NotNil(t, got[0].EPSYoY)
	assert.InDelta(t, 0.40, *got[0].EPSYoY, 1e-9)
}

func TestDetectBreakpoints_FutureRecordsExcluded(t *testing.T) {
	records := []contracts.EarningsRecord{
		rec("2024-02-15", f(1.00), nil, contracts.TimingAfterClose, contracts.ProvenanceFiling),
		rec("2024-05-15", f(2.00), nil, contracts.TimingAfterClose, contracts.ProvenanceFiling),
	}

	// "now" before the second record: it must not appear as a breakpoint.
	got := DetectBreakpoints(records, BreakpointConfig{EPSThreshold: 0.05, RevThreshold: 0.05}, d("2024-03-01"))
	assert.Empty(t, got)
}

func TestDetectBreakpoints_NotMeaningfulOperands(t *testing.T) {
	records := []contracts.EarningsRecord{
		rec("2023-03-31", f(0), nil, contracts.TimingAfterClose, contracts.ProvenanceFiling),
		rec("2024-03-31", f(1.50), f(130), contracts.TimingAfterClose, contracts.ProvenanceFiling),
	}

	// Zero anchor EPS and missing revenue anchor: both metrics null, record
	// cannot become a breakpoint regardless of thresholds.
	got := DetectBreakpoints(records, BreakpointConfig{EPSThreshold: 0.01, RevThreshold: 0.01}, d("2024-06-01"))
	assert.Empty(t, got)
}

func TestDetectBreakpoints_BelowThreshold(t *testing.T) {
	records := []contracts.EarningsRecord{
		rec("2023-03-31", f(1.00), f(100), contracts.TimingAfterClose, contracts.ProvenanceFiling),
		rec("2024-03-31", f(1.05), f(103), contracts.TimingAfterClose, contracts.ProvenanceFiling),
	}

	got := DetectBreakpoints(records, BreakpointConfig{EPSThreshold: 0.15, RevThreshold: 0.15}, d("2024-06-01"))
	assert.Empty(t, got)
}
