package study

import (
	"sort"
	"time"

	"github.com/edgewatch/eventstudy/internal/contracts"
)

// ResolveDay0 maps an announcement date plus timing flag onto an index in an
// ordered trading-day sequence: the first session in which the market could
// react.
//
// The policy biases toward producing an answer instead of discarding the
// event, but every non-exact resolution is reported through FallbackUsed and
// FallbackReason so callers can flag degraded results.
//
// The resolver is pure: "now" is an explicit argument, and all resolution
// metadata travels in the returned value.
func ResolveDay0(announce time.Time, timing contracts.Timing, tradingDates []time.Time, now time.Time) contracts.Day0Resolution {
	unresolved := contracts.Day0Resolution{
		TradingIndex:   -1,
		FallbackReason: contracts.FallbackNone,
	}

	announceDay := dateOnly(announce)

	// Never project forward: a future announcement has no observable Day0.
	if announceDay.After(dateOnly(now)) {
		return unresolved
	}
	if len(tradingDates) == 0 {
		return unresolved
	}

	// First session on or after the announcement date.
	idx := sort.Search(len(tradingDates), func(i int) bool {
		return !dateOnly(tradingDates[i]).Before(announceDay)
	})

	exact := idx < len(tradingDates) && dateOnly(tradingDates[idx]).Equal(announceDay)

	if timing == contracts.TimingBeforeOpen {
		if exact {
			// Same-day session: a before-open announcement trades on the
			// announcement date itself. Not degraded, but tagged so callers
			// can tell this branch from a strictly-future resolution.
			return contracts.Day0Resolution{
				TradingIndex:   idx,
				Resolved:       true,
				FallbackReason: contracts.FallbackSameDaySession,
			}
		}
		// Announcement on a non-trading day: closest future session.
		if idx < len(tradingDates) {
			return contracts.Day0Resolution{
				TradingIndex:   idx,
				Resolved:       true,
				FallbackUsed:   true,
				FallbackReason: contracts.FallbackClosestFuture,
			}
		}
		return lastAvailable(tradingDates)
	}

	// after-close, during-hours, unknown: first session strictly after the
	// announcement date.
	next := idx
	if exact {
		next = idx + 1
	}
	if next < len(tradingDates) {
		return contracts.Day0Resolution{
			TradingIndex:   next,
			Resolved:       true,
			FallbackReason: contracts.FallbackNone,
		}
	}
	return lastAvailable(tradingDates)
}

// lastAvailable resolves to the final loaded session when no future session
// exists. Downstream consumers must treat the result as degraded.
func lastAvailable(tradingDates []time.Time) contracts.Day0Resolution {
	return contracts.Day0Resolution{
		TradingIndex:   len(tradingDates) - 1,
		Resolved:       true,
		FallbackUsed:   true,
		FallbackReason: contracts.FallbackNoFutureSession,
	}
}

// dateOnly truncates a timestamp to its UTC calendar date. Announcement
// timestamps and price dates come from different feeds with different clock
// precision; comparisons only ever happen at day granularity.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
