package contracts

import (
	"context"
	"time"
)

// PriceProvider fetches adjusted daily closes for a symbol.
type PriceProvider interface {
	FetchDailyPrices(ctx context.Context, symbol string, from, to time.Time) (PriceSeries, error)
}

// SplitProvider fetches forward-split events for a symbol.
type SplitProvider interface {
	FetchSplits(ctx context.Context, symbol string, from, to time.Time) ([]SplitEvent, error)
}

// EarningsProvider fetches announcement records from one upstream source.
// Every provider's output is subject to the same reconciliation rules; the
// core never sees how a record was parsed.
type EarningsProvider interface {
	// Name returns the provenance tag stamped on every record.
	Name() Provenance
	FetchEarnings(ctx context.Context, symbol string, from, to time.Time) ([]EarningsRecord, error)
}

// FactProvider fetches a date-keyed EPS fact series.
type FactProvider interface {
	FetchEPSFacts(ctx context.Context, symbol string, from, to time.Time) ([]FactPoint, error)
}
