package cache

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/gofiber/storage/redis/v3"
)

// Redis-backed tests need a server on localhost:6379.
const testRedisAddr = "localhost:6379"

// checkRedisAvailable skips the test when Redis is unreachable.
// gofiber/storage/redis panics on connection failure, so check first.
func checkRedisAvailable(t *testing.T) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", testRedisAddr, 2*time.Second)
	if err != nil {
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}
	conn.Close()
}

func setupTestCacheService(t *testing.T, prefix string) CacheService {
	t.Helper()
	checkRedisAvailable(t)

	store := redis.New(redis.Config{
		Host: "localhost",
		Port: 6379,
	})
	svc := NewCacheService(store, prefix, 5*time.Minute)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return svc
}

type cachedProduct struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

func TestCacheService_SetGetDelete(t *testing.T) {
	svc := setupTestCacheService(t, "test:setget:")
	ctx := context.Background()

	want := cachedProduct{ID: "p1", Name: "Silk Scarf", Price: "29.99"}
	if err := svc.Set(ctx, "product:p1", want); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got cachedProduct
	found, err := svc.Get(ctx, "product:p1", &got)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found || got != want {
		t.Errorf("Get() = %+v, %v, want %+v, true", got, found, want)
	}

	if err := svc.Delete(ctx, "product:p1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	found, err = svc.Get(ctx, "product:p1", &got)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Get() found a deleted key")
	}
}

func TestCacheService_GetMiss(t *testing.T) {
	svc := setupTestCacheService(t, "test:miss:")

	var got cachedProduct
	found, err := svc.Get(context.Background(), "never-set", &got)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Get() reported a hit for a missing key")
	}
}

func TestCacheService_InvalidateAll(t *testing.T) {
	svc := setupTestCacheService(t, "test:invalidate:")
	other := setupTestCacheService(t, "test:other:")
	ctx := context.Background()

	if err := svc.Set(ctx, "list:all", []string{"a", "b"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := other.Set(ctx, "list:all", []string{"c"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := svc.InvalidateAll(ctx); err != nil {
		t.Fatalf("InvalidateAll() error = %v", err)
	}

	var got []string
	if found, _ := svc.Get(ctx, "list:all", &got); found {
		t.Error("Get() found a key written before InvalidateAll")
	}
	if found, _ := other.Get(ctx, "list:all", &got); !found {
		t.Error("InvalidateAll() affected another prefix")
	}

	if err := svc.Set(ctx, "list:all", []string{"fresh"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if found, _ := svc.Get(ctx, "list:all", &got); !found || got[0] != "fresh" {
		t.Errorf("Get() after refill = %v, %v", got, found)
	}
}

func TestCacheService_SetWithTTL(t *testing.T) {
	svc := setupTestCacheService(t, "test:ttl:")
	ctx := context.Background()

	if err := svc.SetWithTTL(ctx, "short", "v", 1*time.Second); err != nil {
		t.Fatalf("SetWithTTL() error = %v", err)
	}
	time.Sleep(1500 * time.Millisecond)

	var got string
	if found, _ := svc.Get(ctx, "short", &got); found {
		t.Error("Get() found an expired key")
	}
}

func TestParseRedisAddr(t *testing.T) {
	tests := []struct {
		addr     string
		wantHost string
		wantPort int
	}{
		{addr: "localhost:6379", wantHost: "localhost", wantPort: 6379},
		{addr: "redis:6380", wantHost: "redis", wantPort: 6380},
		{addr: ":6381", wantHost: "127.0.0.1", wantPort: 6381},
		{addr: "no-port", wantHost: "127.0.0.1", wantPort: 6379},
		{addr: "host:abc", wantHost: "host", wantPort: 6379},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			host, port := parseRedisAddr(tt.addr)
			if host != tt.wantHost || port != tt.wantPort {
				t.Errorf("parseRedisAddr(%q) = %s, %d, want %s, %d", tt.addr, host, port, tt.wantHost, tt.wantPort)
			}
		})
	}
}

func TestPluginModule_DisabledWithoutRedis(t *testing.T) {
	// nothing listens on port 1
	m := NewPluginModule("127.0.0.1:1", time.Minute)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if m.Port() != nil {
		t.Error("Port() should be nil when Redis is unreachable")
	}

	status := m.Health(context.Background())
	if !status.Healthy || status.Message != "disabled" {
		t.Errorf("Health() = %+v, want healthy and disabled", status)
	}
	if err := m.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
