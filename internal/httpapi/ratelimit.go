package httpapi

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"koperasihub/internal/gate"
)

type RateLimitConfig struct {
	IPPerMinute     int
	IPBurst         int
	TenantPerMinute int
	TenantBurst     int
	// TrustedProxies lists IPs or CIDRs allowed to set X-Forwarded-For.
	TrustedProxies  []string
}

// RateLimiter applies one token bucket per client IP and one per storefront
// subdomain.
type RateLimiter struct {
	ipLimiter     *tokenLimiter
	tenantLimiter *tokenLimiter
	domains       *gate.Domains
	metrics       *Metrics
	proxies       []netip.Prefix
}

// NewRateLimiter builds the limiter. Malformed proxy entries are ignored.
func NewRateLimiter(cfg RateLimitConfig, domains *gate.Domains, metrics *Metrics) *RateLimiter {
	return &RateLimiter{
		ipLimiter:     newTokenLimiter(cfg.IPPerMinute, cfg.IPBurst),
		tenantLimiter: newTokenLimiter(cfg.TenantPerMinute, cfg.TenantBurst),
		domains:       domains,
		metrics:       metrics,
		proxies:       parseProxies(cfg.TrustedProxies),
	}
}

func parseProxies(values []string) []netip.Prefix {
	var out []netip.Prefix
	for _, value := range values {
		value = strings.TrimSpace(value)
		if prefix, err := netip.ParsePrefix(value); err == nil {
			out = append(out, prefix.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(value); err == nil {
			addr = addr.Unmap()
			out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return out
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := l.clientIP(r)
		if ip != "" && !l.ipLimiter.allow(ip) {
			l.reject(w, "ip")
			return
		}

		if tenant := l.tenant(r); tenant != "" && !l.tenantLimiter.allow(tenant) {
			l.reject(w, "tenant")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) tenant(r *http.Request) string {
	if l.domains == nil {
		return ""
	}
	sub := l.domains.Subdomain(r.Host)
	if sub == "www" {
		return ""
	}
	return sub
}

func (l *RateLimiter) reject(w http.ResponseWriter, scope string) {
	if l.metrics != nil {
		l.metrics.RateLimited.WithLabelValues(scope).Inc()
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
}

type tokenLimiter struct {
	mu     sync.Mutex
	rate   float64
	burst  float64
	bucket map[string]*bucket
	now    func() time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

func newTokenLimiter(perMinute, burst int) *tokenLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	if burst <= 0 {
		burst = 20
	}
	return &tokenLimiter{
		rate:   float64(perMinute) / 60.0,
		burst:  float64(burst),
		bucket: make(map[string]*bucket),
		now:    time.Now,
	}
}

func (l *tokenLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.bucket[key]
	if !ok {
		l.bucket[key] = &bucket{tokens: l.burst - 1, last: now}
		return true
	}
	elapsed := now.Sub(b.last).Seconds()
	b.tokens = min(l.burst, b.tokens+elapsed*l.rate)
	b.last = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// clientIP is the peer address unless the peer is a trusted proxy. Then
// X-Forwarded-For is read right to left and the first hop that is not a
// trusted proxy wins, so a client cannot choose its own bucket.
func (l *RateLimiter) clientIP(r *http.Request) string {
	remote := r.RemoteAddr
	if host, _, err := net.SplitHostPort(remote); err == nil {
		remote = host
	}
	if !l.trusted(remote) {
		return remote
	}
	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !l.trusted(hop) {
			return hop
		}
	}
	return remote
}

func (l *RateLimiter) trusted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range l.proxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
