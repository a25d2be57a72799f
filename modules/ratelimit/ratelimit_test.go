package ratelimit

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// redisClient returns a client for the local Redis, skipping the test when
// none is reachable.
func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available, skipping integration test")
	}
	return client
}

func testPrefix(t *testing.T) string {
	return "test:ratelimit:" + t.Name() + ":" + time.Now().Format("150405.000000") + ":"
}

func TestSlidingWindowLimiter_Allow(t *testing.T) {
	client := redisClient(t)
	ctx := context.Background()

	limiter := NewSlidingWindowLimiter(client, Policy{Requests: 3, Window: time.Minute}, testPrefix(t))
	t.Cleanup(func() { _ = limiter.Reset(ctx, "k") })

	for i := 0; i < 3; i++ {
		result, err := limiter.Allow(ctx, "k")
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		if !result.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if result.Remaining != 3-i-1 {
			t.Errorf("Remaining = %d, want %d", result.Remaining, 3-i-1)
		}
	}

	result, err := limiter.Allow(ctx, "k")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if result.Allowed {
		t.Error("4th request should be denied")
	}
	if result.RetryAfter <= 0 || result.RetryAfter > time.Minute {
		t.Errorf("RetryAfter = %v, want within the window", result.RetryAfter)
	}

	other, err := limiter.Allow(ctx, "other")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !other.Allowed {
		t.Error("keys must be limited independently")
	}
	_ = limiter.Reset(ctx, "other")
}

func TestSlidingWindowLimiter_WindowSlides(t *testing.T) {
	client := redisClient(t)
	ctx := context.Background()

	limiter := NewSlidingWindowLimiter(client, Policy{Requests: 1, Window: 200 * time.Millisecond}, testPrefix(t))
	t.Cleanup(func() { _ = limiter.Reset(ctx, "k") })

	if r, _ := limiter.Allow(ctx, "k"); r == nil || !r.Allowed {
		t.Fatal("first request should be allowed")
	}
	if r, _ := limiter.Allow(ctx, "k"); r == nil || r.Allowed {
		t.Fatal("second request should be denied")
	}

	time.Sleep(300 * time.Millisecond)

	if r, _ := limiter.Allow(ctx, "k"); r == nil || !r.Allowed {
		t.Error("request after the window should be allowed")
	}
}

func TestMiddleware_UserAndIP(t *testing.T) {
	client := redisClient(t)
	ctx := context.Background()

	prefix := testPrefix(t)
	mw := NewMiddleware(client, Config{
		IP:        Policy{Requests: 1, Window: time.Minute},
		User:      Policy{Requests: 2, Window: time.Minute},
		Auth:      Policy{Requests: 1, Window: time.Minute},
		KeyPrefix: prefix,
	})
	t.Cleanup(func() {
		_ = mw.ip.Reset(ctx, "0.0.0.0")
		_ = mw.user.Reset(ctx, "u1")
	})

	app := fiber.New()
	app.Use(mw.User(func(c *fiber.Ctx) string { return c.Get("X-User") }))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	status := func(user string) int {
		req := httptest.NewRequest("GET", "/", nil)
		if user != "" {
			req.Header.Set("X-User", user)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test() error = %v", err)
		}
		return resp.StatusCode
	}

	if got := status("u1"); got != fiber.StatusOK {
		t.Errorf("user request 1 = %d, want 200", got)
	}
	if got := status("u1"); got != fiber.StatusOK {
		t.Errorf("user request 2 = %d, want 200", got)
	}
	if got := status("u1"); got != fiber.StatusTooManyRequests {
		t.Errorf("user request 3 = %d, want 429", got)
	}

	if got := status(""); got != fiber.StatusOK {
		t.Errorf("anonymous request 1 = %d, want 200", got)
	}
	if got := status(""); got != fiber.StatusTooManyRequests {
		t.Errorf("anonymous request 2 = %d, want 429", got)
	}
}

func TestMiddleware_NilPassesThrough(t *testing.T) {
	var mw *Middleware

	app := fiber.New()
	app.Use(mw.IP(), mw.Auth(), mw.User(func(*fiber.Ctx) string { return "u1" }))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		if err != nil {
			t.Fatalf("app.Test() error = %v", err)
		}
		if resp.StatusCode != fiber.StatusNoContent {
			t.Fatalf("status = %d, want 204", resp.StatusCode)
		}
		if resp.Header.Get("X-RateLimit-Limit") != "" {
			t.Error("disabled middleware must not set rate limit headers")
		}
	}
}

func TestRateLimitModule_Disabled(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		enabled bool
	}{
		{name: "by configuration", addr: "localhost:6379", enabled: false},
		{name: "unreachable redis", addr: "127.0.0.1:1", enabled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModule(tt.addr, tt.enabled)
			if err := m.Start(context.Background()); err != nil {
				t.Fatalf("Start() error = %v", err)
			}
			defer m.Stop(context.Background())

			if m.Middleware() != nil {
				t.Error("Middleware() should be nil when disabled")
			}
			health := m.Health(context.Background())
			if !health.Healthy || health.Message != "disabled" {
				t.Errorf("Health() = %+v, want healthy and disabled", health)
			}
		})
	}
}
