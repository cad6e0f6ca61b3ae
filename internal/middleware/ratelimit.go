package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// BlockCounter is told about every rejected request
type BlockCounter interface {
	IncRateLimitBlocked()
}

// RateLimiter is a fixed-window limiter keyed by client IP
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*bucket
	rate      int
	window    time.Duration
	whitelist map[string]struct{}
	counter   BlockCounter
	logger    *slog.Logger
	now       func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	remaining   int
	windowStart time.Time
}

// NewRateLimiter allows rate requests per window from each IP. Whitelisted
// IPs are never limited. counter may be nil. Call Close to stop the
// background eviction of idle clients.
func NewRateLimiter(rate int, window time.Duration, whitelist []string, counter BlockCounter, logger *slog.Logger) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	wl := make(map[string]struct{}, len(whitelist))
	for _, ip := range whitelist {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			wl[ip] = struct{}{}
		}
	}

	rl := &RateLimiter{
		clients:   make(map[string]*bucket),
		rate:      rate,
		window:    window,
		whitelist: wl,
		counter:   counter,
		logger:    logger.With("component", "rate_limiter"),
		now:       time.Now,
		stop:      make(chan struct{}),
	}
	go rl.evictLoop()
	return rl
}

func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) evictLoop() {
	ticker := time.NewTicker(2 * rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evictIdle()
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for ip, b := range rl.clients {
		if now.Sub(b.windowStart) > 2*rl.window {
			delete(rl.clients, ip)
		}
	}
}

func (rl *RateLimiter) IsWhitelisted(ip string) bool {
	_, ok := rl.whitelist[ip]
	return ok
}

// Allow consumes one request from ip's window. When the window is spent it
// reports false and how long until the window resets.
func (rl *RateLimiter) Allow(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.clients[ip]
	if !ok || now.Sub(b.windowStart) >= rl.window {
		rl.clients[ip] = &bucket{remaining: rl.rate - 1, windowStart: now}
		return true, 0
	}
	if b.remaining > 0 {
		b.remaining--
		return true, 0
	}
	return false, b.windowStart.Add(rl.window).Sub(now)
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		if rl.IsWhitelisted(ip) {
			next.ServeHTTP(w, r)
			return
		}

		allowed, retryAfter := rl.Allow(ip)
		if !allowed {
			if rl.counter != nil {
				rl.counter.IncRateLimitBlocked()
			}
			rl.logger.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)

			secs := int(math.Ceil(retryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "too many requests"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// connection's remote address.
func ClientIP(r *http.Request) string {
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		first = strings.TrimSpace(first)
		if host, _, err := net.SplitHostPort(first); err == nil {
			return host
		}
		return first
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

type LimiterStats struct {
	TrackedIPs       int     `json:"tracked_ips"`
	RatePerWindow    int     `json:"rate_per_window"`
	WindowSeconds    float64 `json:"window_seconds"`
	WhitelistEntries int     `json:"whitelist_entries"`
}

func (rl *RateLimiter) Stats() LimiterStats {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return LimiterStats{
		TrackedIPs:       len(rl.clients),
		RatePerWindow:    rl.rate,
		WindowSeconds:    rl.window.Seconds(),
		WhitelistEntries: len(rl.whitelist),
	}
}
