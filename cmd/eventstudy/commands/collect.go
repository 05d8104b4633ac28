package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgewatch/eventstudy/internal/contracts"
	"github.com/edgewatch/eventstudy/internal/marketdata"
	"github.com/edgewatch/eventstudy/pkg/config"
	"github.com/edgewatch/eventstudy/pkg/database"
	"github.com/edgewatch/eventstudy/pkg/logger"
	"github.com/edgewatch/eventstudy/pkg/redis"
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect market data into the store",
	Long: `Fetch prices, splits, and earnings records for one or more symbols
and upsert them into the database.

Example:
  go run ./cmd/eventstudy collect --symbol AAPL
  go run ./cmd/eventstudy collect --symbol AAPL,MSFT --days 1095
  go run ./cmd/eventstudy collect                      (uses WATCHLIST)`,
	RunE: runCollect,
}

var (
	collectSymbols string
	collectDays    int
	collectWorkers int
)

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().StringVar(&collectSymbols, "symbol", "", "comma-separated symbols (default: WATCHLIST)")
	collectCmd.Flags().IntVar(&collectDays, "days", 1095, "days of history to collect")
	collectCmd.Flags().IntVar(&collectWorkers, "workers", 4, "concurrent collection workers")
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	symbols := cfg.Watchlist
	if collectSymbols != "" {
		symbols = nil
		for _, s := range strings.Split(collectSymbols, ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbols = append(symbols, strings.ToUpper(s))
			}
		}
	}
	if len(symbols) == 0 {
		return fmt.Errorf("no symbols: pass --symbol or set WATCHLIST")
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	limiter := redis.NewRateLimiter(redisClient, "eventstudy")
	cache := redis.NewCache(redisClient, "eventstudy")
	clients := newProviderClients(cfg, log, limiter)

	col := marketdata.NewCollector(
		clients.yahoo,
		clients.yahoo,
		[]contracts.EarningsProvider{clients.yahoo, clients.edgar},
		marketdata.NewPriceRepository(db.Pool),
		marketdata.NewEarningsRepository(db.Pool),
		marketdata.NewSplitRepository(db.Pool),
		cache, log,
	)

	to := time.Now()
	from := to.AddDate(0, 0, -collectDays)

	results := col.CollectWatchlist(context.Background(), symbols, from, to,
		marketdata.CollectorConfig{Workers: collectWorkers})

	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
			fmt.Printf("✗ %-6s %v\n", r.Symbol, r.Error)
			continue
		}
		fmt.Printf("✓ %-6s prices=%d earnings=%d splits=%d\n",
			r.Symbol, r.PriceCount, r.EarningsCount, r.SplitCount)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d symbols failed", failed, len(results))
	}
	return nil
}
