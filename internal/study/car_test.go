package study

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgewatch/eventstudy/internal/contracts"
)

// syntheticAligned builds n daily sessions with deterministic drift so CAR
// values are finite and reproducible.
func syntheticAligned(n int) contracts.AlignedSeries {
	a := contracts.AlignedSeries{
		Dates:     make([]time.Time, n),
		Subject:   make([]float64, n),
		Benchmark: make([]float64, n),
	}
	start := d("2023-01-02")
	subj, bench := 100.0, 400.0
	for i := 0; i < n; i++ {
		a.Dates[i] = start.AddDate(0, 0, i)
		a.Subject[i] = subj
		a.Benchmark[i] = bench
		// Deterministic wiggle around a mild uptrend.
		subj *= 1.0005 + 0.004*math.Sin(float64(i))
		bench *= 1.0003 + 0.002*math.Sin(float64(i)/2)
	}
	return a
}

func TestComputeCAR_IdentityAndDeterminism(t *testing.T) {
	aligned := syntheticAligned(60)
	window := contracts.CARWindow{StartOffset: -1, EndOffset: 5}

	first, err := ComputeCAR(aligned, 30, window)
	require.NoError(t, err)

	assert.Equal(t, first.RetSum-first.BenchSum, first.CAR, "car == retSum - benchSum must hold exactly")
	assert.Equal(t, window.Days(), first.WindowDays)
	assert.False(t, first.Partial)

	// Bit-identical on repeat.
	second, err := ComputeCAR(aligned, 30, window)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestComputeCAR_ClampsAtSeriesStart(t *testing.T) {
	aligned := syntheticAligned(30)
	window := contracts.CARWindow{StartOffset: -5, EndOffset: 3}

	got, err := ComputeCAR(aligned, 2, window)
	require.NoError(t, err)

	assert.True(t, got.Partial)
	assert.Less(t, got.WindowDays, window.Days(), "clamped window has fewer observations")
	assert.Equal(t, 5, got.WindowDays) // indices 0..5
}

func TestComputeCAR_ClampsAtSeriesEnd(t *testing.T) {
	aligned := syntheticAligned(30)
	window := contracts.CARWindow{StartOffset: -1, EndOffset: 10}

	got, err := ComputeCAR(aligned, 27, window)
	require.NoError(t, err)
	assert.True(t, got.Partial)
	assert.Equal(t, 3, got.WindowDays) // indices 26..29
}

func TestComputeCAR_Unsatisfiable(t *testing.T) {
	aligned := syntheticAligned(30)

	_, err := ComputeCAR(aligned, 29, contracts.CARWindow{StartOffset: 1, EndOffset: 5})
	assert.ErrorIs(t, err, ErrWindowUnsatisfiable)

	_, err = ComputeCAR(aligned, -1, contracts.CARWindow{StartOffset: -1, EndOffset: 5})
	assert.ErrorIs(t, err, ErrWindowUnsatisfiable)

	_, err = ComputeCAR(aligned, 50, contracts.CARWindow{StartOffset: -1, EndOffset: 5})
	assert.ErrorIs(t, err, ErrWindowUnsatisfiable)
}

func TestComputeCAR_InvalidWindow(t *testing.T) {
	aligned := syntheticAligned(30)
	_, err := ComputeCAR(aligned, 10, contracts.CARWindow{StartOffset: 5, EndOffset: 5})
	assert.Error(t, err)
}

func TestComputeMarketModelCAR_FullEstimation(t *testing.T) {
	aligned := syntheticAligned(300)
	window := contracts.CARWindow{StartOffset: -1, EndOffset: 5}

	got, err := ComputeMarketModelCAR(aligned, 260, window, EstimationConfig{})
	require.NoError(t, err)

	require.NotNil(t, got.Market)
	assert.False(t, got.Market.Degraded)
	assert.GreaterOrEqual(t, got.Market.N, DefaultMinEstimationObs)
	assert.False(t, math.IsNaN(got.CAR))
	assert.False(t, math.IsInf(got.CAR, 0))
	assert.True(t, got.Market.TStatValid)
	assert.False(t, math.IsNaN(got.Market.TStat))
	assert.Equal(t, window.Days(), got.WindowDays)
}

func TestComputeMarketModelCAR_DegradesToSimple(t *testing.T) {
	aligned := syntheticAligned(40)
	window := contracts.CARWindow{StartOffset: -1, EndOffset: 3}

	// Day0 early in the series: fewer than the minimum paired observations.
	got, err := ComputeMarketModelCAR(aligned, 10, window, EstimationConfig{})
	require.NoError(t, err)

	simple, err := ComputeCAR(aligned, 10, window)
	require.NoError(t, err)

	require.NotNil(t, got.Market)
	assert.True(t, got.Market.Degraded)
	assert.Equal(t, 0.0, got.Market.Alpha)
	assert.Equal(t, 1.0, got.Market.Beta)
	assert.False(t, got.Market.TStatValid)
	assert.Equal(t, simple.CAR, got.CAR, "degraded result equals the simple CAR")
}

func TestComputeMarketModelCAR_BetaRecoversFactor(t *testing.T) {
	// Subject constructed as an exact 1.5x levered copy of the benchmark in
	// log space: OLS must recover beta ~ 1.5 with near-zero residuals.
	n := 300
	a := contracts.AlignedSeries{
		Dates:     make([]time.Time, n),
		Subject:   make([]float64, n),
		Benchmark: make([]float64, n),
	}
	start := d("2023-01-02")
	bench := 400.0
	subj := 100.0
	for i := 0; i < n; i++ {
		a.Dates[i] = start.AddDate(0, 0, i)
		a.Subject[i] = subj
		a.Benchmark[i] = bench
		r := 0.001 + 0.01*math.Sin(float64(i)/3)
		bench *= math.Exp(r)
		subj *= math.Exp(1.5 * r)
	}

	got, err := ComputeMarketModelCAR(a, 280, contracts.CARWindow{StartOffset: 0, EndOffset: 5}, EstimationConfig{})
	require.NoError(t, err)
	require.NotNil(t, got.Market)
	assert.InDelta(t, 1.5, got.Market.Beta, 1e-6)
	assert.InDelta(t, 0.0, got.Market.Alpha, 1e-6)
	// A perfect fit leaves no abnormal return.
	assert.InDelta(t, 0.0, got.CAR, 1e-6)
}
