package security

import (
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	redis  redis.Cmdable
	limit  int64
	window time.Duration
}

// NewRateLimiter allows limit requests per client IP and minute.
func NewRateLimiter(redisClient redis.Cmdable, limit int) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		limit:  int64(limit),
		window: time.Minute,
	}
}

// AuthRateLimit throttles credential submissions. Redis errors let the
// request through.
func (r *RateLimiter) AuthRateLimit(e *core.RequestEvent) error {
	ip := clientIP(e)
	key := fmt.Sprintf("ratelimit:auth:%s", ip)
	ctx := e.Request.Context()

	// the window starts with the key's TTL; INCR keeps it
	if err := r.redis.SetNX(ctx, key, 0, r.window).Err(); err != nil {
		slog.Warn("Rate limit check failed", "ip", ip, "error", err)
		return e.Next()
	}
	count, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		slog.Warn("Rate limit check failed", "ip", ip, "error", err)
		return e.Next()
	}
	if count > r.limit {
		slog.Info("Auth rate limit exceeded", "ip", ip, "count", count)
		return apis.NewTooManyRequestsError("Too many attempts. Please try again later.", nil)
	}

	return e.Next()
}

// Anti-bot protection
func (r *RateLimiter) AntiBotMiddleware(e *core.RequestEvent) error {
	if isSuspiciousUserAgent(e.Request.Header.Get("User-Agent")) {
		return apis.NewForbiddenError("Access denied", nil)
	}
	return e.Next()
}

func isSuspiciousUserAgent(ua string) bool {
	ua = strings.ToLower(ua)
	if ua == "" {
		return true
	}
	for _, pattern := range []string{"bot", "crawler", "spider", "scraper"} {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}

func clientIP(e *core.RequestEvent) string {
	host, _, err := net.SplitHostPort(e.Request.RemoteAddr)
	if err != nil {
		return e.Request.RemoteAddr
	}
	return host
}
