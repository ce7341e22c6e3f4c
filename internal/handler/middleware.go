package handler

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/workbridge/backend/internal/metrics"
)

// SecurityHeaders は共通のセキュリティヘッダーを付与する。API の JSON はキャッシュさせず、
// uploadPrefix 配下のアップロード済みファイルはサンドボックス CSP で配信する
func SecurityHeaders(uploadPrefix string) func(http.Handler) http.Handler {
	uploadPrefix = strings.TrimRight(uploadPrefix, "/") + "/"
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")

			switch {
			case strings.HasPrefix(r.URL.Path, uploadPrefix):
				h.Set("Content-Security-Policy", "default-src 'none'; sandbox")
			default:
				h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
				if strings.HasPrefix(r.URL.Path, "/api/") {
					h.Set("Cache-Control", "no-store")
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimiter provides IP-based rate limiting with a token bucket per client.
// The bucket holds maxPerMinute tokens and refills at maxPerMinute per minute.
type RateLimiter struct {
	limit             rate.Limit
	burst             int
	trustedProxyCount int
	now               func() time.Time
	mu                sync.Mutex
	clients           map[string]*visitor
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter with the given requests-per-minute limit.
// trustedProxies is the number of reverse proxies that append to X-Forwarded-For;
// 0 means the header is ignored.
func NewRateLimiter(maxPerMinute, trustedProxies int) *RateLimiter {
	if maxPerMinute < 1 {
		maxPerMinute = 1
	}
	if trustedProxies < 0 {
		trustedProxies = 0
	}
	rl := &RateLimiter{
		limit:             rate.Limit(float64(maxPerMinute) / 60),
		burst:             maxPerMinute,
		trustedProxyCount: trustedProxies,
		now:               time.Now,
		clients:           make(map[string]*visitor),
	}
	go rl.cleanupLoop()
	return rl
}

// cleanupLoop periodically removes idle entries from the clients map.
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := rl.now().Add(-3 * time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.clients {
			if v.lastSeen.Before(cutoff) {
				delete(rl.clients, ip)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *RateLimiter) limiterFor(ip string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	v, ok := rl.clients[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Middleware returns an http.Handler that enforces rate limits.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := rl.now()
		lim := rl.limiterFor(rl.clientIP(r), now)

		if !lim.AllowN(now, 1) {
			res := lim.ReserveN(now, 1)
			retryAfter := res.DelayFrom(now)
			res.CancelAt(now)
			metrics.RateLimitedTotal.Inc()

			w.Header().Set("Retry-After", retryAfterSeconds(retryAfter))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			if err := json.NewEncoder(w).Encode(map[string]string{
				"error": "rate_limited",
			}); err != nil {
				slog.Error("failed to write rate limit response", "error", err)
			}
			return
		}

		next.ServeHTTP(w, r)
	})
}

func retryAfterSeconds(d time.Duration) string {
	secs := int(d.Seconds()) + 1
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// clientIP extracts the real client IP, reading from the rightmost trusted
// proxy position in X-Forwarded-For to prevent spoofing.
func (rl *RateLimiter) clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" && rl.trustedProxyCount > 0 {
		parts := strings.Split(xff, ",")
		// The rightmost entry added by our infrastructure is at
		// index len(parts) - trustedProxyCount.
		idx := len(parts) - rl.trustedProxyCount
		if idx >= 0 && idx < len(parts) {
			return strings.TrimSpace(parts[idx])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
