package middleware

import (
	"context"
	"net/netip"
	"time"

	"github.com/clientmailer/clientmailer/internal/config"
	"github.com/clientmailer/clientmailer/internal/database"
	"github.com/clientmailer/clientmailer/internal/logger"
	"github.com/clientmailer/clientmailer/internal/metrics"
)

// windowCounter counts requests in fixed time windows.
type windowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Middleware holds all HTTP middleware
type Middleware struct {
	limiter windowCounter
	proxies []netip.Prefix
	log     *logger.Logger
	cfg     *config.Config
	metrics *metrics.Metrics
}

// New creates a new Middleware instance. rdb may be nil when rate limiting is disabled.
func New(rdb *database.Redis, log *logger.Logger, cfg *config.Config, m *metrics.Metrics) *Middleware {
	mw := &Middleware{
		log:     log,
		cfg:     cfg,
		metrics: m,
	}
	if rdb != nil {
		mw.limiter = rdb
	}
	for _, cidr := range cfg.Security.RateLimiting.TrustedProxies {
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			log.Warn().Str("cidr", cidr).Err(err).Msg("ignoring invalid trusted proxy")
			continue
		}
		mw.proxies = append(mw.proxies, prefix.Masked())
	}
	return mw
}
