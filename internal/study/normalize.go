package study

import (
	"time"

	"github.com/edgewatch/eventstudy/internal/contracts"
)

// Fact-selection tolerances. A structured EPS fact is only comparable to an
// announcement if its reporting date is close enough to the earnings date;
// stale facts describe a different quarter.
const (
	DefaultFactToleranceDays = 120
	DefaultFactRelaxedDays   = 180
)

// NormalizeSources carries the date-keyed fact series consulted in priority
// order.
type NormalizeSources struct {
	Structured []contracts.FactPoint // regulator-sourced GAAP-diluted EPS
	Ratio      []contracts.FactPoint // ratio-derived fallback
}

// NormalizeOptions tunes EPS normalization.
type NormalizeOptions struct {
	// AllowVendorEPS opts in to the vendor-reported figure when no fact
	// source matches. Press-release provenance records are pre-vetted and
	// usable without the opt-in.
	AllowVendorEPS bool
	// ToleranceDays / RelaxedDays override the fact-age windows. Zero
	// selects the defaults.
	ToleranceDays int
	RelaxedDays   int
}

func (o NormalizeOptions) windows() (int, int) {
	tol, relaxed := o.ToleranceDays, o.RelaxedDays
	if tol <= 0 {
		tol = DefaultFactToleranceDays
	}
	if relaxed <= 0 {
		relaxed = DefaultFactRelaxedDays
	}
	if relaxed < tol {
		relaxed = tol
	}
	return tol, relaxed
}

// NormalizeEPS restates each earnings record's EPS on a comparable basis:
// GAAP-diluted where a structured fact exists, deflated to current share
// count by every split dated after the announcement.
//
// Selection per record, strict priority: (1) nearest-prior structured fact
// within tolerance, (2) nearest-prior ratio-derived fact under the same rule,
// (3) the vendor-reported figure when opted in or pre-vetted. Records with no
// usable source are omitted from the output.
func NormalizeEPS(records []contracts.EarningsRecord, splits []contracts.SplitEvent, sources NormalizeSources, opts NormalizeOptions) []contracts.NormalizedEPS {
	// The base window and the relaxed window collapse into a single maximum
	// age for nearest-prior search: a fact within the base window is always
	// nearer than one that needs relaxation.
	_, maxAge := opts.windows()

	var out []contracts.NormalizedEPS
	for _, rec := range records {
		day := dateOnly(rec.Date)

		raw, source, ok := selectFact(day, sources.Structured, maxAge, contracts.FactStructured)
		if !ok {
			raw, source, ok = selectFact(day, sources.Ratio, maxAge, contracts.FactRatio)
		}

		multiplier := 1.0
		if !ok {
			if rec.EPS == nil {
				continue
			}
			if !opts.AllowVendorEPS && rec.Provenance != contracts.ProvenancePressRelease {
				continue
			}
			// Vendors publish already-split-adjusted numbers; forcing the
			// multiplier to 1 avoids double adjustment.
			raw, source = *rec.EPS, contracts.FactVendor
		} else {
			multiplier = splitMultiplier(splits, day)
		}

		out = append(out, contracts.NormalizedEPS{
			Date:       day,
			EPS:        raw / multiplier,
			RawEPS:     raw,
			Multiplier: multiplier,
			Source:     source,
		})
	}
	return out
}

// selectFact finds the nearest fact dated on or before day; anything older
// than maxAge days is discarded.
func selectFact(day time.Time, facts []contracts.FactPoint, maxAge int, source contracts.FactSource) (float64, contracts.FactSource, bool) {
	bestDist := -1
	var bestEPS float64
	for _, f := range facts {
		fd := dateOnly(f.Date)
		if fd.After(day) {
			continue
		}
		d := absDays(day, fd)
		if bestDist < 0 || d < bestDist {
			bestDist = d
			bestEPS = f.EPS
		}
	}
	if bestDist < 0 || bestDist > maxAge {
		return 0, source, false
	}
	return bestEPS, source, true
}

// splitMultiplier is the product of the ratios of every split strictly after
// the earnings date. Dividing by it deflates a pre-split per-share figure to
// current-share-count terms.
func splitMultiplier(splits []contracts.SplitEvent, day time.Time) float64 {
	m := 1.0
	for _, s := range splits {
		if s.Ratio > 0 && dateOnly(s.Date).After(day) {
			m *= s.Ratio
		}
	}
	return m
}
