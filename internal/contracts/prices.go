package contracts

import (
	"fmt"
	"time"
)

// PricePoint is one daily observation of a split/dividend-adjusted close.
// Immutable once fetched.
type PricePoint struct {
	Date     time.Time `json:"date"`
	AdjClose float64   `json:"adj_close"`
}

// PriceSeries is an ordered sequence of PricePoint, strictly increasing by
// date, no duplicate dates.
type PriceSeries []PricePoint

// Validate checks the series ordering invariant.
func (s PriceSeries) Validate() error {
	for i := 1; i < len(s); i++ {
		if !s[i-1].Date.Before(s[i].Date) {
			return fmt.Errorf("price series not strictly increasing at index %d (%s >= %s)",
				i, s[i-1].Date.Format("2006-01-02"), s[i].Date.Format("2006-01-02"))
		}
	}
	return nil
}

// Dates returns one date per trading session, ascending.
func (s PriceSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s))
	for i, p := range s {
		dates[i] = p.Date
	}
	return dates
}

// AlignedSeries holds a subject and benchmark series restricted to their
// common trading dates. Invariant: len(Subject) == len(Benchmark) ==
// len(Dates), and position i refers to the same session in all three.
type AlignedSeries struct {
	Dates     []time.Time `json:"dates"`
	Subject   []float64   `json:"subject"`
	Benchmark []float64   `json:"benchmark"`
}

// Len returns the number of common trading sessions.
func (a AlignedSeries) Len() int {
	return len(a.Dates)
}
