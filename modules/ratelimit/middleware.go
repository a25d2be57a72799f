package ratelimit

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Config holds the policies applied by the middleware.
type Config struct {
	// IP limits anonymous traffic per client address.
	IP Policy
	// User limits authenticated traffic per user id.
	User Policy
	// Auth limits login, register and refresh attempts per client address.
	Auth Policy
	// KeyPrefix is prepended to every Redis key.
	KeyPrefix string
}

// DefaultConfig returns the storefront policies.
func DefaultConfig() Config {
	return Config{
		IP:        Policy{Requests: 300, Window: time.Minute},
		User:      Policy{Requests: 600, Window: time.Minute},
		Auth:      Policy{Requests: 10, Window: time.Minute},
		KeyPrefix: "ratelimit:",
	}
}

// UserKeyFunc returns the user id of an authenticated request, or "".
type UserKeyFunc func(c *fiber.Ctx) string

// Middleware builds fiber handlers over the limiters. A nil *Middleware
// yields pass-through handlers, so callers need not check whether limiting
// is enabled.
type Middleware struct {
	ip   *SlidingWindowLimiter
	user *SlidingWindowLimiter
	auth *SlidingWindowLimiter
}

// NewMiddleware creates the middleware over client.
func NewMiddleware(client *redis.Client, config Config) *Middleware {
	return &Middleware{
		ip:   NewSlidingWindowLimiter(client, config.IP, config.KeyPrefix+"ip:"),
		user: NewSlidingWindowLimiter(client, config.User, config.KeyPrefix+"user:"),
		auth: NewSlidingWindowLimiter(client, config.Auth, config.KeyPrefix+"auth:"),
	}
}

func passThrough(c *fiber.Ctx) error {
	return c.Next()
}

// IP limits requests by client address.
func (m *Middleware) IP() fiber.Handler {
	if m == nil {
		return passThrough
	}
	return m.byIP(m.ip)
}

// Auth limits credential endpoints by client address.
func (m *Middleware) Auth() fiber.Handler {
	if m == nil {
		return passThrough
	}
	return m.byIP(m.auth)
}

// User limits requests by authenticated user, falling back to the client
// address for anonymous requests.
func (m *Middleware) User(userKey UserKeyFunc) fiber.Handler {
	if m == nil {
		return passThrough
	}
	byIP := m.byIP(m.ip)
	return func(c *fiber.Ctx) error {
		userID := userKey(c)
		if userID == "" {
			return byIP(c)
		}
		return check(c, m.user, userID)
	}
}

func (m *Middleware) byIP(limiter *SlidingWindowLimiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()
		if ip == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "forbidden",
				"message": "unable to determine client IP address",
			})
		}
		return check(c, limiter, ip)
	}
}

// check fails open: a Redis error lets the request through.
func check(c *fiber.Ctx, limiter *SlidingWindowLimiter, key string) error {
	result, err := limiter.Allow(c.Context(), key)
	if err != nil {
		log.Printf("[ratelimit] Check failed for %s: %v", c.Path(), err)
		return c.Next()
	}

	c.Set("X-RateLimit-Limit", strconv.Itoa(limiter.Policy().Requests))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

	if !result.Allowed {
		return tooManyRequests(c, result)
	}
	return c.Next()
}

func tooManyRequests(c *fiber.Ctx, result *Result) error {
	retryAfter := int(result.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	c.Set("Retry-After", strconv.Itoa(retryAfter))

	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"error":   "rate_limited",
		"message": fmt.Sprintf("rate limit exceeded, retry after %d seconds", retryAfter),
	})
}
