package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgewatch/eventstudy/internal/contracts"
	"github.com/edgewatch/eventstudy/internal/study"
	"github.com/edgewatch/eventstudy/pkg/config"
	"github.com/edgewatch/eventstudy/pkg/logger"
	"github.com/edgewatch/eventstudy/pkg/redis"
)

// studyCmd represents the study command
var studyCmd = &cobra.Command{
	Use:   "study",
	Short: "Run an event study for one symbol",
	Long: `Run a full event study against live provider data, without touching
the database: fetch prices and announcement records, reconcile them,
normalize EPS against regulator facts, detect YoY breakpoints, and
compute CAR per event window.

Example:
  go run ./cmd/eventstudy study --symbol AAPL
  go run ./cmd/eventstudy study --symbol AAPL --benchmark QQQ --days 730
  go run ./cmd/eventstudy study --symbol AAPL --window=-1:1 --window=0:5`,
	RunE: runStudy,
}

var (
	studySymbol    string
	studyBenchmark string
	studyDays      int
	studyWindows   []string
	studyJSON      bool
)

func init() {
	rootCmd.AddCommand(studyCmd)

	studyCmd.Flags().StringVar(&studySymbol, "symbol", "", "subject symbol (required)")
	studyCmd.Flags().StringVar(&studyBenchmark, "benchmark", "", "benchmark symbol (default: BENCHMARK)")
	studyCmd.Flags().IntVar(&studyDays, "days", 1095, "days of history")
	studyCmd.Flags().StringArrayVar(&studyWindows, "window", nil, "event window as start:end offsets, repeatable")
	studyCmd.Flags().BoolVar(&studyJSON, "json", false, "emit the raw report as JSON")
	studyCmd.MarkFlagRequired("symbol")
}

func runStudy(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	symbol := strings.ToUpper(studySymbol)
	benchmark := strings.ToUpper(studyBenchmark)
	if benchmark == "" {
		benchmark = cfg.Benchmark
	}

	windows, err := parseWindows(studyWindows)
	if err != nil {
		return err
	}

	// Redis is optional here; without it the local limiter still paces calls.
	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	clients := newProviderClients(cfg, log, redis.NewRateLimiter(redisClient, "eventstudy"))

	ctx := context.Background()
	now := time.Now()
	from := now.AddDate(0, 0, -studyDays)

	subject, err := clients.yahoo.FetchDailyPrices(ctx, symbol, from, now)
	if err != nil {
		return fmt.Errorf("subject prices: %w", err)
	}
	bench, err := clients.yahoo.FetchDailyPrices(ctx, benchmark, from, now)
	if err != nil {
		return fmt.Errorf("benchmark prices: %w", err)
	}
	splits, err := clients.yahoo.FetchSplits(ctx, symbol, from, now)
	if err != nil {
		return fmt.Errorf("splits: %w", err)
	}
	secondary, err := clients.yahoo.FetchEarnings(ctx, symbol, from, now)
	if err != nil {
		return fmt.Errorf("vendor earnings: %w", err)
	}

	// Filing-derived records and facts are best-effort; a study can run on
	// vendor data alone.
	primary, err := clients.edgar.FetchEarnings(ctx, symbol, from, now)
	if err != nil {
		log.WithError(err).Warn("Press-release records unavailable")
	}
	factFrom := from.AddDate(0, 0, -cfg.Study.FactRelaxedDays)
	structured, err := clients.edgar.FetchEPSFacts(ctx, symbol, factFrom, now)
	if err != nil {
		log.WithError(err).Warn("Structured facts unavailable")
	}
	ratio, err := clients.edgar.FetchRatioEPSFacts(ctx, symbol, factFrom, now)
	if err != nil {
		log.WithError(err).Warn("Ratio facts unavailable")
	}

	engine := study.NewEngine(log.Zerolog())
	report, err := engine.RunStudy(ctx, study.StudyInput{
		Symbol:            symbol,
		Benchmark:         benchmark,
		SubjectPrices:     subject,
		BenchmarkPrices:   bench,
		PrimaryEarnings:   primary,
		SecondaryEarnings: secondary,
		Splits:            splits,
		Facts:             study.NormalizeSources{Structured: structured, Ratio: ratio},
		Windows:           windows,
		Reconcile: study.ReconcileOptions{
			ToleranceDays: cfg.Study.ProximityToleranceDays,
			From:          from,
			To:            now,
		},
		Normalize: study.NormalizeOptions{
			AllowVendorEPS: cfg.Study.AllowVendorEPS,
			ToleranceDays:  cfg.Study.FactToleranceDays,
			RelaxedDays:    cfg.Study.FactRelaxedDays,
		},
		Breakpoints: study.BreakpointConfig{
			EPSThreshold: cfg.Study.EPSThreshold,
			RevThreshold: cfg.Study.RevThreshold,
		},
		Estimation: study.EstimationConfig{
			Days:   cfg.Study.EstimationDays,
			MinObs: cfg.Study.MinEstimationObs,
		},
		Now: now,
	})
	if err != nil {
		return fmt.Errorf("run study: %w", err)
	}

	if studyJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(report)
	return nil
}

// parseWindows parses repeated start:end flags, defaulting to [-1,+1] and
// [0,+5].
func parseWindows(raw []string) ([]contracts.CARWindow, error) {
	if len(raw) == 0 {
		return []contracts.CARWindow{
			{StartOffset: -1, EndOffset: 1},
			{StartOffset: 0, EndOffset: 5},
		}, nil
	}

	windows := make([]contracts.CARWindow, 0, len(raw))
	for _, s := range raw {
		parts := strings.SplitN(s, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid window %q: want start:end", s)
		}
		start, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid window start %q: %w", parts[0], err)
		}
		end, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid window end %q: %w", parts[1], err)
		}
		win := contracts.CARWindow{StartOffset: start, EndOffset: end}
		if err := win.Validate(); err != nil {
			return nil, err
		}
		windows = append(windows, win)
	}
	return windows, nil
}

func printReport(report *study.StudyReport) {
	fmt.Printf("=== Event study: %s vs %s ===\n", report.Symbol, report.Benchmark)
	fmt.Printf("Trading days: %d  Earnings records: %d  Breakpoints: %d\n\n",
		report.TradingDays, len(report.Earnings), len(report.Breakpoints))

	for _, bp := range report.Breakpoints {
		b := bp.Breakpoint
		fmt.Printf("Breakpoint %s (%s)\n", b.AnnounceDate.Format("2006-01-02"), b.Timing)
		if b.EPSYoY != nil {
			fmt.Printf("  EPS YoY: %+.1f%%\n", *b.EPSYoY*100)
		}
		if b.RevYoY != nil {
			fmt.Printf("  Revenue YoY: %+.1f%%\n", *b.RevYoY*100)
		}
		if bp.Day0Date != nil {
			fmt.Printf("  Day0: %s (fallback=%s)\n", bp.Day0Date.Format("2006-01-02"), bp.Day0.FallbackReason)
		} else {
			fmt.Println("  Day0: unresolved")
		}
		for _, wr := range bp.Windows {
			if wr.Skipped {
				fmt.Printf("  [%s] skipped: %s\n", wr.Window, wr.Reason)
				continue
			}
			line := fmt.Sprintf("  [%s]", wr.Window)
			if wr.Simple != nil {
				line += fmt.Sprintf(" CAR=%+.4f", wr.Simple.CAR)
				if wr.Simple.Partial {
					line += " (partial)"
				}
			}
			if wr.Market != nil && wr.Market.Market != nil {
				line += fmt.Sprintf("  market CAR=%+.4f beta=%.2f", wr.Market.CAR, wr.Market.Market.Beta)
				if wr.Market.Market.TStatValid {
					line += fmt.Sprintf(" t=%.2f", wr.Market.Market.TStat)
				}
				if wr.Market.Market.Degraded {
					line += " (degraded)"
				}
			}
			fmt.Println(line)
		}
		fmt.Println()
	}
}
