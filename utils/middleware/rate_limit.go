package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/vetcaselab/vetcase-api/utils/cache"
	"github.com/vetcaselab/vetcase-api/utils/response"
)

// RateLimitRule is one fixed-window limit: MaxRequests per Window.
type RateLimitRule struct {
	MaxRequests int
	Window      time.Duration
}

type prefixRule struct {
	prefix string
	rule   RateLimitRule
}

// RateLimiter is a fixed-window request counter backed by the shared Redis
// cache. Counters are keyed by client IP and path class; the key TTL equals
// the window, so limiting is approximate across window boundaries, which is
// acceptable here.
type RateLimiter struct {
	redisCache *cache.RedisCache
	defaults   RateLimitRule
	// rules are checked in order; more specific prefixes must come first
	// so that a path always maps to the same counter class.
	rules []prefixRule
}

// NewRateLimiter creates a limiter with the default rule and tighter
// per-prefix overrides for sensitive endpoints.
func NewRateLimiter(redisCache *cache.RedisCache) *RateLimiter {
	return &RateLimiter{
		redisCache: redisCache,
		defaults:   RateLimitRule{MaxRequests: 100, Window: time.Minute},
		rules: []prefixRule{
			{"/api/v1/auth/otp", RateLimitRule{MaxRequests: 5, Window: time.Minute}},
			{"/api/v1/auth", RateLimitRule{MaxRequests: 30, Window: time.Minute}},
			{"/api/v1/payments", RateLimitRule{MaxRequests: 20, Window: time.Minute}},
		},
	}
}

func (rl *RateLimiter) ruleFor(path string) (string, RateLimitRule) {
	for _, pr := range rl.rules {
		if strings.HasPrefix(path, pr.prefix) {
			return pr.prefix, pr.rule
		}
	}
	return "default", rl.defaults
}

// Limit returns the middleware handler.
func (rl *RateLimiter) Limit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		class, rule := rl.ruleFor(c.Path())
		key := fmt.Sprintf("ratelimit:%s:%s", c.IP(), class)
		ctx := c.Context()

		count, err := rl.redisCache.Increment(ctx, key)
		if err != nil {
			// Fail open: never block legitimate traffic because the
			// cache is down
			return c.Next()
		}

		if count == 1 {
			if err := rl.redisCache.Expire(ctx, key, rule.Window); err != nil {
				return c.Next()
			}
		}

		remaining := int64(rule.MaxRequests) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", fmt.Sprintf("%d", rule.MaxRequests))
		c.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(rule.Window).Unix()))

		if count > int64(rule.MaxRequests) {
			ttl, _ := rl.redisCache.TTL(ctx, key)
			retryAfter := int(ttl.Seconds())
			if retryAfter <= 0 {
				retryAfter = int(rule.Window.Seconds())
			}
			c.Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			return response.TooManyRequests(c,
				fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", retryAfter))
		}

		return c.Next()
	}
}
