package study

import (
	"errors"
	"math"

	"github.com/edgewatch/eventstudy/internal/contracts"
)

// Core error taxonomy. Both conditions are local to one breakpoint/window:
// the caller skips the entry and continues with the others.
var (
	// ErrWindowUnsatisfiable means the requested window has no overlapping
	// trading days even after clamping.
	ErrWindowUnsatisfiable = errors.New("car window unsatisfiable")
	// ErrDay0Unresolved means the announcement could not be mapped onto the
	// trading-day sequence.
	ErrDay0Unresolved = errors.New("day0 unresolved")
)

// Market-model estimation defaults.
const (
	DefaultEstimationDays   = 252
	DefaultMinEstimationObs = 20
)

// EstimationConfig tunes the market-model regression window.
type EstimationConfig struct {
	Days   int // trading days ending at Day0; zero selects the default
	MinObs int // minimum paired observations before degrading to simple CAR
}

func (c EstimationConfig) normalized() EstimationConfig {
	if c.Days <= 0 {
		c.Days = DefaultEstimationDays
	}
	if c.MinObs <= 0 {
		c.MinObs = DefaultMinEstimationObs
	}
	return c
}

// ComputeCAR computes the simple cumulative abnormal return over a window of
// trading-day offsets around day0: the subject's summed daily returns minus
// the benchmark's.
//
// Window bounds that overflow the aligned series are clamped and the result
// is marked partial; a window with no overlap at all fails with
// ErrWindowUnsatisfiable. The computation is deterministic: identical inputs
// produce bit-identical results.
func ComputeCAR(aligned contracts.AlignedSeries, day0 int, window contracts.CARWindow) (contracts.CARResult, error) {
	startIdx, endIdx, partial, err := clampWindow(aligned.Len(), day0, window)
	if err != nil {
		return contracts.CARResult{}, err
	}

	res := contracts.CARResult{Partial: partial}
	for i := startIdx; i < endIdx; i++ {
		res.RetSum += aligned.Subject[i+1]/aligned.Subject[i] - 1
		res.BenchSum += aligned.Benchmark[i+1]/aligned.Benchmark[i] - 1
		res.WindowDays++
	}
	res.CAR = res.RetSum - res.BenchSum

	if res.WindowDays < window.Days() {
		res.Partial = true
	}
	return res, nil
}

// ComputeMarketModelCAR computes CAR against a single-factor market model:
// subject log-returns regressed on benchmark log-returns over an estimation
// window ending at day0, abnormal return per event day measured against the
// fitted alpha/beta, and a t-statistic from the regression's residual
// standard deviation.
//
// With fewer than MinObs paired estimation observations the engine degrades
// gracefully to the simple-CAR result with a neutral model (alpha=0, beta=1)
// rather than failing.
func ComputeMarketModelCAR(aligned contracts.AlignedSeries, day0 int, window contracts.CARWindow, est EstimationConfig) (contracts.CARResult, error) {
	est = est.normalized()

	alpha, beta, residSD, n := estimateMarketModel(aligned, day0, est.Days)
	if n < est.MinObs {
		simple, err := ComputeCAR(aligned, day0, window)
		if err != nil {
			return contracts.CARResult{}, err
		}
		simple.Market = &contracts.MarketModel{Alpha: 0, Beta: 1, N: n, Degraded: true}
		return simple, nil
	}

	startIdx, endIdx, partial, err := clampWindow(aligned.Len(), day0, window)
	if err != nil {
		return contracts.CARResult{}, err
	}

	res := contracts.CARResult{Partial: partial}
	for i := startIdx; i < endIdx; i++ {
		rs := math.Log(aligned.Subject[i+1] / aligned.Subject[i])
		rb := math.Log(aligned.Benchmark[i+1] / aligned.Benchmark[i])
		res.RetSum += rs
		res.BenchSum += rb
		res.CAR += rs - (alpha + beta*rb)
		res.WindowDays++
	}
	if res.WindowDays < window.Days() {
		res.Partial = true
	}

	model := &contracts.MarketModel{Alpha: alpha, Beta: beta, N: n}
	if n > 1 && residSD > 0 {
		model.TStat = res.CAR / (residSD / math.Sqrt(float64(n)))
		model.TStatValid = true
	}
	res.Market = model
	return res, nil
}

// clampWindow maps window offsets to series indices, clamping overflow.
// Returns ErrWindowUnsatisfiable when no overlapping pair of sessions
// survives the clamp.
func clampWindow(n, day0 int, window contracts.CARWindow) (startIdx, endIdx int, partial bool, err error) {
	if err := window.Validate(); err != nil {
		return 0, 0, false, err
	}
	if n < 2 || day0 < 0 || day0 >= n {
		return 0, 0, false, ErrWindowUnsatisfiable
	}

	startIdx = day0 + window.StartOffset
	endIdx = day0 + window.EndOffset
	if startIdx < 0 {
		startIdx = 0
		partial = true
	}
	if endIdx > n-1 {
		endIdx = n - 1
		partial = true
	}
	if startIdx >= endIdx || startIdx > n-1 {
		return 0, 0, false, ErrWindowUnsatisfiable
	}
	return startIdx, endIdx, partial, nil
}

// estimateMarketModel runs OLS of subject log-returns on benchmark
// log-returns over up to estDays return pairs ending at day0. Returns the
// fit plus the residual standard deviation and the number of paired
// observations actually used.
func estimateMarketModel(aligned contracts.AlignedSeries, day0 int, estDays int) (alpha, beta, residSD float64, n int) {
	hi := day0 // last return pair is (day0-1, day0)
	if hi > aligned.Len()-1 {
		hi = aligned.Len() - 1
	}
	lo := hi - estDays
	if lo < 0 {
		lo = 0
	}
	if hi <= lo {
		return 0, 1, 0, 0
	}

	x := make([]float64, 0, hi-lo)
	y := make([]float64, 0, hi-lo)
	for i := lo; i < hi; i++ {
		x = append(x, math.Log(aligned.Benchmark[i+1]/aligned.Benchmark[i]))
		y = append(y, math.Log(aligned.Subject[i+1]/aligned.Subject[i]))
	}
	n = len(x)
	if n < 2 {
		return 0, 1, 0, n
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += x[i]
		sumY += y[i]
	}
	meanX, meanY := sumX/float64(n), sumY/float64(n)

	var sxx, sxy float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		sxx += dx * dx
		sxy += dx * (y[i] - meanY)
	}
	if sxx == 0 {
		return 0, 1, 0, n
	}

	beta = sxy / sxx
	alpha = meanY - beta*meanX

	var sse float64
	for i := 0; i < n; i++ {
		resid := y[i] - (alpha + beta*x[i])
		sse += resid * resid
	}
	if n > 2 {
		residSD = math.Sqrt(sse / float64(n-2))
	}
	return alpha, beta, residSD, n
}
