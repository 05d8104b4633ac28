package study

import (
	"sort"
	"time"

	"github.com/edgewatch/eventstudy/internal/contracts"
)

// DefaultProximityToleranceDays bounds how far apart two providers may stamp
// the same earnings event. Report date, filing date and press-release date
// for one quarter routinely differ by several weeks but never by a full
// quarter, so the usable range is roughly 45-75 days.
const DefaultProximityToleranceDays = 60

// ReconcileOptions tunes the merge of two provider timelines.
type ReconcileOptions struct {
	// ToleranceDays is the proximity-match window. Zero selects the default.
	ToleranceDays int
	// From/To bound inserts of primary-only records; zero values disable the
	// corresponding bound. Records merged into an existing date are never
	// range-filtered.
	From time.Time
	To   time.Time
}

func (o ReconcileOptions) tolerance() int {
	if o.ToleranceDays > 0 {
		return o.ToleranceDays
	}
	return DefaultProximityToleranceDays
}

// ReconcileEarnings merges two provider timelines into one sequence with at
// most one record per announcement date, sorted ascending.
//
// The secondary provider supplies the base timeline. Primary records overlay
// exact-date matches field by field: the primary's non-null EPS/revenue and
// known timing win, its nulls are filled from the secondary. Primary records
// with no exact match merge into the nearest unmatched base record within the
// tolerance window (smallest absolute day distance, first candidate wins
// ties); beyond tolerance they insert as new records only inside the
// requested range. Naive exact-date joins silently lose events whose dates
// disagree across providers; the bounded proximity merge is what keeps them.
func ReconcileEarnings(primary, secondary []contracts.EarningsRecord, opts ReconcileOptions) []contracts.EarningsRecord {
	merged := make([]contracts.EarningsRecord, len(secondary))
	copy(merged, secondary)
	for i := range merged {
		merged[i].Date = dateOnly(merged[i].Date)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })

	byDate := make(map[time.Time]int, len(merged))
	for i, r := range merged {
		byDate[r.Date] = i
	}

	prim := make([]contracts.EarningsRecord, len(primary))
	copy(prim, primary)
	for i := range prim {
		prim[i].Date = dateOnly(prim[i].Date)
	}
	sort.Slice(prim, func(i, j int) bool { return prim[i].Date.Before(prim[j].Date) })

	matched := make(map[int]bool, len(merged))

	// Pass 1: exact-date overlays.
	var leftovers []contracts.EarningsRecord
	for _, p := range prim {
		if i, ok := byDate[p.Date]; ok {
			overlayRecord(&merged[i], p)
			matched[i] = true
			continue
		}
		leftovers = append(leftovers, p)
	}

	// Pass 2: bounded proximity merge for primary-only records.
	tolerance := opts.tolerance()
	var inserts []contracts.EarningsRecord
	for _, p := range leftovers {
		best := -1
		bestDist := tolerance + 1
		for i, r := range merged {
			if matched[i] {
				continue
			}
			if d := absDays(p.Date, r.Date); d < bestDist {
				best = i
				bestDist = d
			}
		}
		if best >= 0 {
			overlayRecord(&merged[best], p)
			matched[best] = true
			continue
		}
		if inRange(p.Date, opts.From, opts.To) {
			inserts = append(inserts, p)
		}
	}

	merged = append(merged, inserts...)
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })
	return merged
}

// overlayRecord applies fill-if-null semantics with the primary record
// winning every field it actually carries. The base record's date is kept so
// the merge never reshuffles the existing timeline. Provenance flips only
// when the primary supplied at least one field.
func overlayRecord(base *contracts.EarningsRecord, p contracts.EarningsRecord) {
	contributed := false
	if p.EPS != nil {
		base.EPS = p.EPS
		contributed = true
	}
	if p.Revenue != nil {
		base.Revenue = p.Revenue
		contributed = true
	}
	if p.Timing != contracts.TimingUnknown && p.Timing != "" {
		base.Timing = p.Timing
		contributed = true
	}
	if contributed {
		base.Provenance = p.Provenance
	}
}

func absDays(a, b time.Time) int {
	d := int(a.Sub(b).Hours() / 24)
	if d < 0 {
		return -d
	}
	return d
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(dateOnly(from)) {
		return false
	}
	if !to.IsZero() && t.After(dateOnly(to)) {
		return false
	}
	return true
}
