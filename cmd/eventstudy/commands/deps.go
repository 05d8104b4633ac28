package commands

import (
	"time"

	"github.com/edgewatch/eventstudy/internal/external/edgar"
	"github.com/edgewatch/eventstudy/internal/external/yahoo"
	"github.com/edgewatch/eventstudy/pkg/config"
	"github.com/edgewatch/eventstudy/pkg/httputil"
	"github.com/edgewatch/eventstudy/pkg/logger"
	"github.com/edgewatch/eventstudy/pkg/redis"
)

// providerClients bundles the upstream adapters every command needs.
type providerClients struct {
	yahoo *yahoo.Client
	edgar *edgar.Client
}

// newProviderClients wires HTTP clients with per-provider limits. The redis
// limiter coordinates across processes; the local limiter is the floor when
// redis is disabled.
func newProviderClients(cfg *config.Config, log *logger.Logger, limiter *redis.RateLimiter) providerClients {
	yahooHTTP := httputil.New(log).
		WithTimeout(15 * time.Second).
		WithLocalLimit(cfg.Yahoo.RequestsPerSec).
		WithRateLimiter(limiter, redis.YahooRateLimit)

	edgarHTTP := httputil.New(log).
		WithTimeout(30 * time.Second).
		WithUserAgent(cfg.EDGAR.UserAgent).
		WithLocalLimit(cfg.EDGAR.RequestsPerSec).
		WithRateLimiter(limiter, redis.EDGARRateLimit)

	return providerClients{
		yahoo: yahoo.NewClient(cfg, yahooHTTP, log),
		edgar: edgar.NewClient(cfg, edgarHTTP, log),
	}
}
