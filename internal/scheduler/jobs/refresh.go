package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/edgewatch/eventstudy/internal/marketdata"
	"github.com/edgewatch/eventstudy/pkg/config"
	"github.com/edgewatch/eventstudy/pkg/logger"
)

// WatchlistRefreshJob keeps price history and earnings calendars current for
// the configured watchlist, so studies during the day never wait on vendors.
// ⭐ SSOT: the refresh schedule lives in this Job only
type WatchlistRefreshJob struct {
	collector *marketdata.Collector
	config    *config.Config
	logger    *logger.Logger
}

// NewWatchlistRefreshJob creates a new watchlist refresh job
func NewWatchlistRefreshJob(col *marketdata.Collector, cfg *config.Config, log *logger.Logger) *WatchlistRefreshJob {
	return &WatchlistRefreshJob{
		collector: col,
		config:    cfg,
		logger:    log,
	}
}

// Name returns the job name
func (j *WatchlistRefreshJob) Name() string {
	return "watchlist_refresh"
}

// Schedule returns the cron schedule (10 PM ET daily, after the close and
// the evening's 8-K filings)
func (j *WatchlistRefreshJob) Schedule() string {
	return "0 0 22 * * *"
}

// Run refreshes the watchlist plus the benchmark
func (j *WatchlistRefreshJob) Run(ctx context.Context) error {
	if len(j.config.Watchlist) == 0 {
		j.logger.Info("Watchlist empty, nothing to refresh")
		return nil
	}
	symbols := make([]string, 0, len(j.config.Watchlist)+1)
	symbols = append(symbols, j.config.Watchlist...)
	symbols = append(symbols, j.config.Benchmark)

	// A week of overlap absorbs vendor restatements of recent bars.
	to := time.Now()
	from := to.AddDate(0, 0, -7)

	results := j.collector.CollectWatchlist(ctx, symbols, from, to, marketdata.CollectorConfig{Workers: 4})

	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
		}
	}
	if failed == len(results) {
		return fmt.Errorf("all %d symbols failed to refresh", failed)
	}

	j.logger.WithFields(map[string]interface{}{
		"refreshed": len(results) - failed,
		"failed":    failed,
	}).Info("Watchlist refresh finished")
	return nil
}
