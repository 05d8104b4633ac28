package study

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgewatch/eventstudy/internal/contracts"
)

func TestAlignSeries(t *testing.T) {
	subject := contracts.PriceSeries{
		{Date: d("2023-05-02"), AdjClose: 100},
		{Date: d("2023-05-03"), AdjClose: 101},
		{Date: d("2023-05-04"), AdjClose: 102},
	}
	benchmark := contracts.PriceSeries{
		{Date: d("2023-05-02"), AdjClose: 400},
		// 2023-05-03 missing (benchmark exchange holiday)
		{Date: d("2023-05-04"), AdjClose: 404},
		{Date: d("2023-05-05"), AdjClose: 405},
	}

	got, err := AlignSeries(subject, benchmark)
	require.NoError(t, err)

	require.Equal(t, 2, got.Len())
	assert.Equal(t, []time.Time{d("2023-05-02"), d("2023-05-04")}, got.Dates)
	assert.Equal(t, []float64{100, 102}, got.Subject)
	assert.Equal(t, []float64{400, 404}, got.Benchmark)
}

func TestAlignSeries_RejectsUnsorted(t *testing.T) {
	subject := contracts.PriceSeries{
		{Date: d("2023-05-03"), AdjClose: 101},
		{Date: d("2023-05-02"), AdjClose: 100},
	}
	_, err := AlignSeries(subject, nil)
	assert.Error(t, err)
}

func TestEngine_RunStudy(t *testing.T) {
	// ~1.5 years of synthetic sessions (weekdays only).
	var subject, benchmark contracts.PriceSeries
	day := d("2023-01-02")
	subj, bench := 100.0, 400.0
	for len(subject) < 380 {
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			subject = append(subject, contracts.PricePoint{Date: day, AdjClose: subj})
			benchmark = append(benchmark, contracts.PricePoint{Date: day, AdjClose: bench})
			subj *= 1.0006
			bench *= 1.0004
		}
		day = day.AddDate(0, 0, 1)
	}

	in := StudyInput{
		Symbol:    "ACME",
		Benchmark: "SPY",

		SubjectPrices:   subject,
		BenchmarkPrices: benchmark,

		SecondaryEarnings: []contracts.EarningsRecord{
			rec("2023-04-25", f(1.00), f(100), contracts.TimingAfterClose, contracts.ProvenanceVendor),
			rec("2023-07-25", f(1.05), f(102), contracts.TimingAfterClose, contracts.ProvenanceVendor),
			rec("2023-10-24", f(1.10), f(104), contracts.TimingAfterClose, contracts.ProvenanceVendor),
			rec("2024-01-23", f(1.15), f(106), contracts.TimingAfterClose, contracts.ProvenanceVendor),
			rec("2024-04-23", f(1.80), f(150), contracts.TimingAfterClose, contracts.ProvenanceVendor),
		},
		PrimaryEarnings: []contracts.EarningsRecord{
			// Filing stamped 2 days after the vendor's report date.
			rec("2024-04-25", f(1.80), nil, contracts.TimingAfterClose, contracts.ProvenanceFiling),
		},

		Windows: []contracts.CARWindow{
			{StartOffset: -1, EndOffset: 5},
			{StartOffset: 0, EndOffset: 1},
		},

		Normalize:   NormalizeOptions{AllowVendorEPS: true},
		Breakpoints: BreakpointConfig{EPSThreshold: 0.20, RevThreshold: 0.20},
		Now:         d("2024-06-03"),
	}

	engine := NewEngine(zerolog.Nop())
	report, err := engine.RunStudy(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "ACME", report.Symbol)
	assert.Len(t, report.Earnings, 5, "filing record merged by proximity, no duplicate")
	require.Len(t, report.Breakpoints, 1, "only the blowout quarter is significant")

	bp := report.Breakpoints[0]
	assert.Equal(t, d("2024-04-23"), bp.Breakpoint.AnnounceDate)
	require.True(t, bp.Day0.Resolved)
	require.NotNil(t, bp.Day0Date)
	assert.True(t, bp.Day0Date.After(bp.Breakpoint.AnnounceDate), "after-close reacts next session")

	require.Len(t, bp.Windows, 2)
	for _, w := range bp.Windows {
		assert.False(t, w.Skipped)
		require.NotNil(t, w.Simple)
		assert.Equal(t, w.Simple.RetSum-w.Simple.BenchSum, w.Simple.CAR)
		require.NotNil(t, w.Market)
		require.NotNil(t, w.Market.Market)
	}
}

func TestEngine_RunStudy_SkipsBadWindowsOnly(t *testing.T) {
	var subject, benchmark contracts.PriceSeries
	day := d("2024-01-02")
	for i := 0; i < 120; i++ {
		subject = append(subject, contracts.PricePoint{Date: day, AdjClose: 100 + float64(i)})
		benchmark = append(benchmark, contracts.PricePoint{Date: day, AdjClose: 400 + float64(i)})
		day = day.AddDate(0, 0, 1)
	}

	in := StudyInput{
		Symbol:        "ACME",
		Benchmark:     "SPY",
		SubjectPrices: subject, BenchmarkPrices: benchmark,
		SecondaryEarnings: []contracts.EarningsRecord{
			rec("2024-01-20", f(1.00), nil, contracts.TimingAfterClose, contracts.ProvenanceVendor),
			// Last session: every forward-looking window is unsatisfiable.
			rec("2024-04-30", f(2.00), nil, contracts.TimingAfterClose, contracts.ProvenanceVendor),
		},
		Windows:     []contracts.CARWindow{{StartOffset: 0, EndOffset: 5}},
		Normalize:   NormalizeOptions{AllowVendorEPS: true},
		Breakpoints: BreakpointConfig{EPSThreshold: 0.20, RevThreshold: 0.20},
		Now:         d("2024-05-02"),
	}

	engine := NewEngine(zerolog.Nop())
	report, err := engine.RunStudy(context.Background(), in)
	require.NoError(t, err, "a bad window must never abort the request")

	require.Len(t, report.Breakpoints, 1)
	w := report.Breakpoints[0].Windows[0]
	assert.True(t, w.Skipped)
	assert.Equal(t, ErrWindowUnsatisfiable.Error(), w.Reason)
}

func TestEngine_RunStudy_VendorEPSNeedsOptIn(t *testing.T) {
	var subject, benchmark contracts.PriceSeries
	day := d("2024-01-02")
	for i := 0; i < 120; i++ {
		subject = append(subject, contracts.PricePoint{Date: day, AdjClose: 100 + float64(i)})
		benchmark = append(benchmark, contracts.PricePoint{Date: day, AdjClose: 400 + float64(i)})
		day = day.AddDate(0, 0, 1)
	}

	in := StudyInput{
		Symbol:        "ACME",
		Benchmark:     "SPY",
		SubjectPrices: subject, BenchmarkPrices: benchmark,
		// Vendor figures double quarter over quarter, but no fact source
		// exists and the vendor opt-in is off.
		SecondaryEarnings: []contracts.EarningsRecord{
			rec("2024-01-20", f(1.00), nil, contracts.TimingAfterClose, contracts.ProvenanceVendor),
			rec("2024-04-20", f(2.00), nil, contracts.TimingAfterClose, contracts.ProvenanceVendor),
		},
		Windows:     []contracts.CARWindow{{StartOffset: 0, EndOffset: 1}},
		Normalize:   NormalizeOptions{AllowVendorEPS: false},
		Breakpoints: BreakpointConfig{EPSThreshold: 0.20, RevThreshold: 0.20},
		Now:         d("2024-05-02"),
	}

	engine := NewEngine(zerolog.Nop())
	report, err := engine.RunStudy(context.Background(), in)
	require.NoError(t, err)

	assert.Empty(t, report.Normalized, "nothing normalizable without a fact source or opt-in")
	assert.Empty(t, report.Breakpoints, "raw vendor EPS must not drive detection")
}

func TestEngine_RunStudy_RevenueSignificanceSurvivesEPSGate(t *testing.T) {
	var subject, benchmark contracts.PriceSeries
	day := d("2024-01-02")
	for i := 0; i < 120; i++ {
		subject = append(subject, contracts.PricePoint{Date: day, AdjClose: 100 + float64(i)})
		benchmark = append(benchmark, contracts.PricePoint{Date: day, AdjClose: 400 + float64(i)})
		day = day.AddDate(0, 0, 1)
	}

	in := StudyInput{
		Symbol:        "ACME",
		Benchmark:     "SPY",
		SubjectPrices: subject, BenchmarkPrices: benchmark,
		SecondaryEarnings: []contracts.EarningsRecord{
			rec("2024-01-20", f(1.00), f(100), contracts.TimingAfterClose, contracts.ProvenanceVendor),
			rec("2024-04-20", f(2.00), f(150), contracts.TimingAfterClose, contracts.ProvenanceVendor),
		},
		Windows:     []contracts.CARWindow{{StartOffset: 0, EndOffset: 1}},
		Normalize:   NormalizeOptions{AllowVendorEPS: false},
		Breakpoints: BreakpointConfig{EPSThreshold: 0.20, RevThreshold: 0.20},
		Now:         d("2024-05-02"),
	}

	engine := NewEngine(zerolog.Nop())
	report, err := engine.RunStudy(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, report.Breakpoints, 1, "revenue move alone clears the threshold")
	bp := report.Breakpoints[0].Breakpoint
	assert.Nil(t, bp.EPSYoY)
	assert.True(t, bp.EPSNotMeaningful, "gated EPS is not meaningful, not zero")
	assert.False(t, bp.EPSSignificant)
	assert.True(t, bp.RevSignificant)
	require.NotNil(t, bp.RevYoY)
	assert.InDelta(t, 0.5, *bp.RevYoY, 1e-12)
}
