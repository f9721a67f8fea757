package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig holds configuration for a specific rate limit
type RateLimitConfig struct {
	Name   string
	Limit  int
	Window time.Duration
	KeyFn  func(*http.Request) string
}

// RateLimit creates a fixed-window rate limiting middleware backed by Redis.
// Requests pass through when the counter is unavailable.
func (m *Middleware) RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.cfg.Security.RateLimiting.Enabled || m.limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := "ratelimit:" + cfg.Name + ":" + cfg.KeyFn(r)
			count, ttl, err := m.limiter.IncrWindow(r.Context(), key, cfg.Window)
			if err != nil {
				m.log.Error().Err(err).Msg("failed to increment rate limit counter")
				next.ServeHTTP(w, r)
				return
			}
			if ttl < 0 {
				ttl = cfg.Window
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, cfg.Limit-int(count))))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))

			if int(count) > cfg.Limit {
				w.Header().Set("Retry-After", strconv.FormatInt(int64(ttl.Seconds()), 10))
				writeError(w, r, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests. Please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP identifies the caller for rate limiting. X-Forwarded-For is only read when
// the connection comes from a trusted proxy; hops are then walked right to left and the
// first address outside the trusted ranges is the client.
func (m *Middleware) ClientIP(r *http.Request) string {
	remote := remoteHost(r.RemoteAddr)
	if !m.trusted(remote) {
		return remote
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !m.trusted(hop) {
			return hop
		}
	}
	return remote
}

func (m *Middleware) trusted(host string) bool {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range m.proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
