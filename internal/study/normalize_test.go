package study

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgewatch/eventstudy/internal/contracts"
)

func TestNormalizeEPS_StructuredFactWins(t *testing.T) {
	records := []contracts.EarningsRecord{
		rec("2023-05-01", f(9.99), nil, contracts.TimingAfterClose, contracts.ProvenanceVendor),
	}
	sources := NormalizeSources{
		Structured: []contracts.FactPoint{{Date: d("2023-03-31"), EPS: 1.50}},
		Ratio:      []contracts.FactPoint{{Date: d("2023-03-31"), EPS: 1.40}},
	}

	got := NormalizeEPS(records, nil, sources, NormalizeOptions{AllowVendorEPS: true})
	require.Len(t, got, 1)
	assert.Equal(t, contracts.FactStructured, got[0].Source)
	assert.InDelta(t, 1.50, got[0].EPS, 1e-9)
}

func TestNormalizeEPS_NearestPriorWithinTolerance(t *testing.T) {
	records := []contracts.EarningsRecord{
		rec("2023-05-01", nil, nil, contracts.TimingAfterClose, contracts.ProvenanceVendor),
	}
	sources := NormalizeSources{
		Structured: []contracts.FactPoint{
			{Date: d("2022-12-31"), EPS: 1.00}, // older
			{Date: d("2023-03-31"), EPS: 1.50}, // nearest prior
			{Date: d("2023-06-30"), EPS: 2.00}, // future, ineligible
		},
	}

	got := NormalizeEPS(records, nil, sources, NormalizeOptions{})
	require.Len(t, got, 1)
	assert.InDelta(t, 1.50, got[0].EPS, 1e-9)
}

func TestNormalizeEPS_StaleFactDiscarded(t *testing.T) {
	records := []contracts.EarningsRecord{
		rec("2023-12-01", nil, nil, contracts.TimingAfterClose, contracts.ProvenanceVendor),
	}
	sources := NormalizeSources{
		// 245 days before the earnings date: beyond even the relaxed window.
		Structured: []contracts.FactPoint{{Date: d("2023-03-31"), EPS: 1.50}},
	}

	got := NormalizeEPS(records, nil, sources, NormalizeOptions{})
	assert.Empty(t, got)
}

func TestNormalizeEPS_RelaxedWindow(t *testing.T) {
	records := []contracts.EarningsRecord{
		rec("2023-09-01", nil, nil, contracts.TimingAfterClose, contracts.ProvenanceVendor),
	}
	sources := NormalizeSources{
		// 154 days prior: outside the 120d base window, inside the relaxed one.
		Structured: []contracts.FactPoint{{Date: d("2023-03-31"), EPS: 1.50}},
	}

	got := NormalizeEPS(records, nil, sources, NormalizeOptions{})
	require.Len(t, got, 1)
	assert.InDelta(t, 1.50, got[0].EPS, 1e-9)
}

func TestNormalizeEPS_RatioFallback(t *testing.T) {
	records := []contracts.EarningsRecord{
		rec("2023-05-01", nil, nil, contracts.TimingAfterClose, contracts.ProvenanceVendor),
	}
	sources := NormalizeSources{
		Ratio: []contracts.FactPoint{{Date: d("2023-03-31"), EPS: 1.40}},
	}

	got := NormalizeEPS(records, nil, sources, NormalizeOptions{})
	require.Len(t, got, 1)
	assert.Equal(t, contracts.FactRatio, got[0].Source)
	assert.InDelta(t, 1.40, got[0].EPS, 1e-9)
}

func TestNormalizeEPS_VendorRequiresOptIn(t *testing.T) {
	records := []contracts.EarningsRecord{
		rec("2023-05-01", f(1.23), nil, contracts.TimingAfterClose, contracts.ProvenanceVendor),
	}

	got := NormalizeEPS(records, nil, NormalizeSources{}, NormalizeOptions{})
	assert.Empty(t, got, "vendor EPS must not be used without opt-in")

	got = NormalizeEPS(records, nil, NormalizeSources{}, NormalizeOptions{AllowVendorEPS: true})
	require.Len(t, got, 1)
	assert.Equal(t, contracts.FactVendor, got[0].Source)
	assert.InDelta(t, 1.23, got[0].EPS, 1e-9)
}

func TestNormalizeEPS_PressReleaseIsPreVetted(t *testing.T) {
	records := []contracts.EarningsRecord{
		rec("2023-05-01", f(1.23), nil, contracts.TimingBeforeOpen, contracts.ProvenancePressRelease),
	}

	got := NormalizeEPS(records, nil, NormalizeSources{}, NormalizeOptions{})
	require.Len(t, got, 1)
	assert.InDelta(t, 1.23, got[0].EPS, 1e-9)
}

// A 4:1 split after the earnings date deflates the reported EPS by exactly
// the ratio; a record after the split is untouched.
func TestNormalizeEPS_SplitRoundTrip(t *testing.T) {
	records := []contracts.EarningsRecord{
		rec("2023-05-01", nil, nil, contracts.TimingAfterClose, contracts.ProvenanceVendor),
		rec("2023-11-01", nil, nil, contracts.TimingAfterClose, contracts.ProvenanceVendor),
	}
	sources := NormalizeSources{
		Structured: []contracts.FactPoint{
			{Date: d("2023-05-01"), EPS: 4.00},
			{Date: d("2023-11-01"), EPS: 1.00},
		},
	}
	splits := []contracts.SplitEvent{{Date: d("2023-08-01"), Ratio: 4}}

	got := NormalizeEPS(records, splits, sources, NormalizeOptions{})
	require.Len(t, got, 2)

	assert.InDelta(t, 1.00, got[0].EPS, 1e-9, "pre-split EPS deflated by ratio")
	assert.InDelta(t, 4.0, got[0].Multiplier, 1e-9)
	assert.InDelta(t, 1.00, got[1].EPS, 1e-9, "post-split EPS unchanged")
	assert.InDelta(t, 1.0, got[1].Multiplier, 1e-9)
}

func TestNormalizeEPS_VendorExemptFromSplitAdjustment(t *testing.T) {
	records := []contracts.EarningsRecord{
		rec("2023-05-01", f(2.00), nil, contracts.TimingAfterClose, contracts.ProvenanceVendor),
	}
	splits := []contracts.SplitEvent{{Date: d("2023-08-01"), Ratio: 4}}

	got := NormalizeEPS(records, splits, NormalizeSources{}, NormalizeOptions{AllowVendorEPS: true})
	require.Len(t, got, 1)
	assert.InDelta(t, 2.00, got[0].EPS, 1e-9, "vendor figures are already split-adjusted")
	assert.InDelta(t, 1.0, got[0].Multiplier, 1e-9)
}
