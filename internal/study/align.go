package study

import (
	"fmt"
	"time"

	"github.com/edgewatch/eventstudy/internal/contracts"
)

// AlignSeries restricts a subject and benchmark series to their common date
// set, preserving order. The result satisfies the aligned-pair invariant:
// identical length, position i is the same session in both.
func AlignSeries(subject, benchmark contracts.PriceSeries) (contracts.AlignedSeries, error) {
	if err := subject.Validate(); err != nil {
		return contracts.AlignedSeries{}, fmt.Errorf("subject series: %w", err)
	}
	if err := benchmark.Validate(); err != nil {
		return contracts.AlignedSeries{}, fmt.Errorf("benchmark series: %w", err)
	}

	bench := make(map[time.Time]float64, len(benchmark))
	for _, p := range benchmark {
		bench[dateOnly(p.Date)] = p.AdjClose
	}

	aligned := contracts.AlignedSeries{}
	for _, p := range subject {
		day := dateOnly(p.Date)
		b, ok := bench[day]
		if !ok {
			continue
		}
		aligned.Dates = append(aligned.Dates, day)
		aligned.Subject = append(aligned.Subject, p.AdjClose)
		aligned.Benchmark = append(aligned.Benchmark, b)
	}

	return aligned, nil
}
