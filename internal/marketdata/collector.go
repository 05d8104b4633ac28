package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/edgewatch/eventstudy/internal/contracts"
	"github.com/edgewatch/eventstudy/pkg/logger"
	"github.com/edgewatch/eventstudy/pkg/redis"
)

// priceCacheTTL bounds how stale a served price series can be. Daily bars
// only change once per session.
const priceCacheTTL = 6 * time.Hour

// Collector orchestrates fetching from upstream providers into the store.
// ⭐ SSOT: collection orchestration lives in this package only
type Collector struct {
	prices   contracts.PriceProvider
	splits   contracts.SplitProvider
	earnings []contracts.EarningsProvider

	priceRepo    *PriceRepository
	earningsRepo *EarningsRepository
	splitRepo    *SplitRepository

	cache  *redis.Cache
	logger *logger.Logger
}

// CollectorConfig holds collector tuning.
type CollectorConfig struct {
	Workers int
}

// NewCollector creates a new Collector instance
func NewCollector(
	prices contracts.PriceProvider,
	splits contracts.SplitProvider,
	earnings []contracts.EarningsProvider,
	priceRepo *PriceRepository,
	earningsRepo *EarningsRepository,
	splitRepo *SplitRepository,
	cache *redis.Cache,
	log *logger.Logger,
) *Collector {
	return &Collector{
		prices:       prices,
		splits:       splits,
		earnings:     earnings,
		priceRepo:    priceRepo,
		earningsRepo: earningsRepo,
		splitRepo:    splitRepo,
		cache:        cache,
		logger:       log.WithField("module", "collector"),
	}
}

// CollectResult is the outcome of collecting one symbol.
type CollectResult struct {
	Symbol        string
	PriceCount    int
	EarningsCount int
	SplitCount    int
	Error         error
}

// CollectSymbol fetches and stores prices, splits, and earnings records for
// one symbol.
func (c *Collector) CollectSymbol(ctx context.Context, symbol string, from, to time.Time) CollectResult {
	result := CollectResult{Symbol: symbol}

	series, err := c.FetchPrices(ctx, symbol, from, to)
	if err != nil {
		result.Error = fmt.Errorf("fetch prices: %w", err)
		return result
	}
	if err := c.priceRepo.SaveBatch(ctx, symbol, series); err != nil {
		result.Error = fmt.Errorf("save prices: %w", err)
		return result
	}
	result.PriceCount = len(series)

	splits, err := c.splits.FetchSplits(ctx, symbol, from, to)
	if err != nil {
		result.Error = fmt.Errorf("fetch splits: %w", err)
		return result
	}
	if err := c.splitRepo.SaveBatch(ctx, symbol, splits); err != nil {
		result.Error = fmt.Errorf("save splits: %w", err)
		return result
	}
	result.SplitCount = len(splits)

	for _, provider := range c.earnings {
		records, err := provider.FetchEarnings(ctx, symbol, from, to)
		if err != nil {
			// One dead provider must not block the others.
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"symbol":   symbol,
				"provider": string(provider.Name()),
			}).Warn("Earnings fetch failed")
			continue
		}
		if err := c.earningsRepo.SaveBatch(ctx, symbol, records); err != nil {
			result.Error = fmt.Errorf("save earnings: %w", err)
			return result
		}
		result.EarningsCount += len(records)
	}

	return result
}

// FetchPrices returns the price series for a symbol, serving from the
// response cache when possible.
func (c *Collector) FetchPrices(ctx context.Context, symbol string, from, to time.Time) (contracts.PriceSeries, error) {
	key := fmt.Sprintf("prices:%s:%s:%s", symbol, from.Format("2006-01-02"), to.Format("2006-01-02"))

	var series contracts.PriceSeries
	if hit, err := c.cache.Get(ctx, key, &series); err == nil && hit {
		return series, nil
	}

	series, err := c.prices.FetchDailyPrices(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, series, priceCacheTTL); err != nil {
		c.logger.WithError(err).Warn("Price cache write failed")
	}
	return series, nil
}

// CollectWatchlist collects every symbol concurrently with a bounded worker
// pool.
func (c *Collector) CollectWatchlist(ctx context.Context, symbols []string, from, to time.Time, cfg CollectorConfig) []CollectResult {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol_count": len(symbols),
		"from":         from.Format("2006-01-02"),
		"to":           to.Format("2006-01-02"),
		"workers":      workers,
	}).Info("Starting collection")

	symbolCh := make(chan string, len(symbols))
	resultCh := make(chan CollectResult, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range symbolCh {
				resultCh <- c.CollectSymbol(ctx, symbol, from, to)
			}
		}()
	}

	for _, symbol := range symbols {
		symbolCh <- symbol
	}
	close(symbolCh)

	wg.Wait()
	close(resultCh)

	results := make([]CollectResult, 0, len(symbols))
	failed := 0
	for r := range resultCh {
		if r.Error != nil {
			failed++
			c.logger.WithError(r.Error).WithField("symbol", r.Symbol).Error("Symbol collection failed")
		}
		results = append(results, r)
	}

	c.logger.WithFields(map[string]interface{}{
		"collected": len(results) - failed,
		"failed":    failed,
	}).Info("Collection finished")
	return results
}
