package ratelimit

import (
	"context"
	"log"
	"time"

	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

const pingTimeout = 2 * time.Second

// RateLimitModule owns the Redis client of the limiters. Without Redis the
// module runs disabled and its middleware lets every request through.
type RateLimitModule struct {
	redisAddr  string
	enabled    bool
	config     Config
	client     *redis.Client
	middleware *Middleware
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*RateLimitModule)(nil)
	_ mono.HealthCheckableModule = (*RateLimitModule)(nil)
)

// NewModule creates a rate limiting module with the default policies.
func NewModule(redisAddr string, enabled bool) *RateLimitModule {
	return NewModuleWithConfig(redisAddr, enabled, DefaultConfig())
}

// NewModuleWithConfig creates a rate limiting module with custom policies.
func NewModuleWithConfig(redisAddr string, enabled bool, config Config) *RateLimitModule {
	return &RateLimitModule{
		redisAddr: redisAddr,
		enabled:   enabled,
		config:    config,
	}
}

// Name returns the module name.
func (m *RateLimitModule) Name() string {
	return "rate-limiter"
}

// Start connects to Redis and builds the middleware.
func (m *RateLimitModule) Start(ctx context.Context) error {
	if !m.enabled {
		log.Println("[rate-limiter] Module started (disabled by configuration)")
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: m.redisAddr})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		log.Printf("[rate-limiter] Redis unavailable at %s, rate limiting disabled: %v", m.redisAddr, err)
		return nil
	}

	m.client = client
	m.middleware = NewMiddleware(client, m.config)
	log.Printf("[rate-limiter] Module started (redis: %s)", m.redisAddr)
	return nil
}

// Stop closes the Redis connection.
func (m *RateLimitModule) Stop(_ context.Context) error {
	if m.client != nil {
		if err := m.client.Close(); err != nil {
			log.Printf("[rate-limiter] Error closing Redis connection: %v", err)
		}
	}
	log.Println("[rate-limiter] Module stopped")
	return nil
}

// Middleware returns the middleware, or nil when limiting is disabled.
func (m *RateLimitModule) Middleware() *Middleware {
	return m.middleware
}

// Health reports the Redis connection state.
func (m *RateLimitModule) Health(ctx context.Context) mono.HealthStatus {
	if m.client == nil {
		return mono.HealthStatus{
			Healthy: true,
			Message: "disabled",
		}
	}
	if err := m.client.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: err.Error(),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"redis": m.redisAddr,
		},
	}
}
