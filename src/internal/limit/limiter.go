// FILE: logbridge/src/internal/limit/limiter.go
package limit

import (
	"net"
	"sync"
	"sync/atomic"

	"logbridge/src/internal/config"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lixenwraith/log"
	"golang.org/x/time/rate"
)

// DefaultMaxTrackedIPs bounds the per-IP limiter cache when unset
const DefaultMaxTrackedIPs = 10000

// Limiter provides per-IP token bucket rate limiting. The least recently
// seen IPs are evicted once MaxTrackedIPs is reached.
type Limiter struct {
	config   config.RateLimitConfig
	limiters *lru.Cache[string, *rate.Limiter]
	mu       sync.Mutex
	logger   *log.Logger

	// Statistics
	totalRequests atomic.Uint64
	totalDenied   atomic.Uint64
	totalInvalid  atomic.Uint64
}

// NewLimiter creates a per-IP limiter. Returns nil when rate limiting is
// disabled; a nil *Limiter allows everything.
func NewLimiter(cfg config.RateLimitConfig, logger *log.Logger) (*Limiter, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	size := int(cfg.MaxTrackedIPs)
	if size <= 0 {
		size = DefaultMaxTrackedIPs
	}

	cache, err := lru.New[string, *rate.Limiter](size)
	if err != nil {
		return nil, err
	}

	l := &Limiter{
		config:   cfg,
		limiters: cache,
		logger:   logger,
	}

	logger.Info("msg", "Rate limiter initialized",
		"component", "limiter",
		"requests_per_second", cfg.RequestsPerSecond,
		"burst_size", cfg.BurstSize,
		"max_tracked_ips", size)

	return l, nil
}

// Allow reports whether a request from remoteAddr may proceed. Addresses
// are "ip:port" or a bare IP; unparseable addresses are denied.
func (l *Limiter) Allow(remoteAddr string) bool {
	if l == nil {
		return true
	}
	l.totalRequests.Add(1)

	ip := ExtractIP(remoteAddr)
	if ip == "" {
		l.totalInvalid.Add(1)
		l.logger.Warn("msg", "Could not parse remote address to IP",
			"component", "limiter",
			"remote_addr", remoteAddr)
		return false
	}

	if !l.limiterFor(ip).Allow() {
		l.totalDenied.Add(1)
		l.logger.Debug("msg", "Rate limit exceeded",
			"component", "limiter",
			"ip", ip)
		return false
	}
	return true
}

func (l *Limiter) limiterFor(ip string) *rate.Limiter {
	// Serialize get-or-create so two first requests share one bucket
	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, ok := l.limiters.Get(ip); ok {
		return limiter
	}
	limiter := rate.NewLimiter(rate.Limit(l.config.RequestsPerSecond), int(l.config.BurstSize))
	l.limiters.Add(ip, limiter)
	return limiter
}

// GetStats returns limiter statistics
func (l *Limiter) GetStats() map[string]any {
	if l == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"enabled":             true,
		"requests_per_second": l.config.RequestsPerSecond,
		"burst_size":          l.config.BurstSize,
		"tracked_ips":         l.limiters.Len(),
		"total_requests":      l.totalRequests.Load(),
		"total_denied":        l.totalDenied.Load(),
		"total_invalid":       l.totalInvalid.Load(),
	}
}

// ExtractIP returns the IP part of an "ip:port" or bare IP address, or ""
// when the address holds no valid IP.
func ExtractIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return ""
	}
	return ip.String()
}
