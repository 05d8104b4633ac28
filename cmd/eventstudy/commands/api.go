package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgewatch/eventstudy/internal/api"
	"github.com/edgewatch/eventstudy/internal/api/handlers"
	"github.com/edgewatch/eventstudy/internal/contracts"
	"github.com/edgewatch/eventstudy/internal/marketdata"
	"github.com/edgewatch/eventstudy/internal/scheduler"
	"github.com/edgewatch/eventstudy/internal/scheduler/jobs"
	"github.com/edgewatch/eventstudy/internal/study"
	"github.com/edgewatch/eventstudy/pkg/config"
	"github.com/edgewatch/eventstudy/pkg/database"
	"github.com/edgewatch/eventstudy/pkg/logger"
	"github.com/edgewatch/eventstudy/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Start the REST API server.

Endpoints:
  GET  /health                        - Health check
  GET  /api/stocks/{symbol}/prices    - Stored adjusted closes
  GET  /api/stocks/{symbol}/earnings  - Stored announcement records
  POST /api/study                     - Run an event study

Example:
  go run ./cmd/eventstudy api
  go run ./cmd/eventstudy api --port 8094`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connected to database")

	// 4. Redis (optional; cache and limiter degrade to no-ops when disabled)
	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	limiter := redis.NewRateLimiter(redisClient, "eventstudy")
	cache := redis.NewCache(redisClient, "eventstudy")

	// 5. Provider clients
	clients := newProviderClients(cfg, log, limiter)

	// 6. Repositories
	priceRepo := marketdata.NewPriceRepository(db.Pool)
	earningsRepo := marketdata.NewEarningsRepository(db.Pool)
	splitRepo := marketdata.NewSplitRepository(db.Pool)

	// 7. Collector
	col := marketdata.NewCollector(
		clients.yahoo,
		clients.yahoo,
		[]contracts.EarningsProvider{clients.yahoo, clients.edgar},
		priceRepo, earningsRepo, splitRepo,
		cache, log,
	)

	// 8. Study engine
	engine := study.NewEngine(log.Zerolog())

	// 9. Handlers and router
	stockHandler := handlers.NewStockHandler(priceRepo, earningsRepo, log)
	studyHandler := handlers.NewStudyHandler(col, earningsRepo, splitRepo, clients.edgar, engine, cfg, log)
	router := api.NewRouter(stockHandler, studyHandler, log)

	// 10. Scheduler with the nightly watchlist refresh
	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewWatchlistRefreshJob(col, cfg, log)); err != nil {
		return fmt.Errorf("add refresh job: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	// 11. Serve until signalled
	server := api.New(cfg, log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
