// GlamUp storefront - a fashion and beauty shop built as a modular monolith.
//
// The application serves the catalog with filtering, per-user carts with
// merge-by-variant, display prices in six currencies backed by a refreshed
// rate table, and an admin panel for products and images.
package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/glamup-shop-verse/modules/api"
	"github.com/example/glamup-shop-verse/modules/auth"
	"github.com/example/glamup-shop-verse/modules/cache"
	"github.com/example/glamup-shop-verse/modules/cart"
	"github.com/example/glamup-shop-verse/modules/catalog"
	"github.com/example/glamup-shop-verse/modules/currency"
	"github.com/example/glamup-shop-verse/modules/media"
	"github.com/example/glamup-shop-verse/modules/ratelimit"
	"github.com/example/glamup-shop-verse/pkg/database"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	fsjetstream "github.com/go-monolith/mono/plugin/fs-jetstream"
	kvjetstream "github.com/go-monolith/mono/plugin/kv-jetstream"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== GlamUp Storefront ===")

	httpPort := getEnvInt("HTTP_PORT", 3000)
	natsPort := getEnvInt("NATS_PORT", 4222)
	storagePath := getEnv("STORAGE_PATH", "/tmp/glamup-storage")
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	baseURL := strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+strconv.Itoa(httpPort)), "/")

	jwtConfig := auth.DefaultJWTConfig()
	jwtConfig.SecretKey = getEnv("JWT_SECRET_KEY", jwtConfig.SecretKey)
	jwtConfig.Issuer = getEnv("JWT_ISSUER", jwtConfig.Issuer)

	ratesConfig := currency.Config{
		SourceURL:       getEnv("RATES_SOURCE_URL", ""),
		RefreshInterval: getEnvDuration("RATES_REFRESH_INTERVAL", time.Hour),
		FetchTimeout:    getEnvDuration("RATES_FETCH_TIMEOUT", 5*time.Second),
		RefreshEnabled:  getEnvBool("RATES_REFRESH_ENABLED", true),
	}

	log.Printf("Configuration:")
	log.Printf("  HTTP Port: %d", httpPort)
	log.Printf("  NATS Port: %d", natsPort)
	log.Printf("  Storage Path: %s", storagePath)
	log.Printf("  Database Driver: %s", getEnv("DB_DRIVER", database.DriverSQLite))
	log.Printf("  Redis Address: %s", redisAddr)
	log.Printf("  Rates Source: %s", valueOr(ratesConfig.SourceURL, "(fallback table only)"))

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
		mono.WithNATSPort(natsPort),
		mono.WithJetStreamStorageDir(storagePath),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Refresh sessions live in a kv bucket whose TTL matches the refresh
	// token lifetime.
	kvPlugin, err := kvjetstream.New(kvjetstream.Config{
		Buckets: []kvjetstream.BucketConfig{
			{
				Name:        auth.SessionsBucket,
				Description: "Refresh token sessions",
				TTL:         jwtConfig.RefreshTokenDuration,
				Storage:     kvjetstream.FileStorage,
			},
		},
	})
	if err != nil {
		log.Fatalf("Failed to create kv plugin: %v", err)
	}
	if err := app.RegisterPlugin(kvPlugin, "kv"); err != nil {
		log.Fatalf("Failed to register kv plugin: %v", err)
	}

	storagePlugin, err := fsjetstream.New(fsjetstream.Config{
		Buckets: media.BucketConfigs(false),
	})
	if err != nil {
		log.Fatalf("Failed to create storage plugin: %v", err)
	}
	if err := app.RegisterPlugin(storagePlugin, "storage"); err != nil {
		log.Fatalf("Failed to register storage plugin: %v", err)
	}

	cachePlugin := cache.NewPluginModule(redisAddr, getEnvDuration("CACHE_TTL", 5*time.Minute))
	if err := app.RegisterPlugin(cachePlugin, "cache"); err != nil {
		log.Fatalf("Failed to register cache plugin: %v", err)
	}

	authModule := auth.NewModule(auth.Config{
		Database:    databaseConfig("AUTH_DB_PATH", "auth.db"),
		JWT:         jwtConfig,
		BcryptCost:  getEnvInt("BCRYPT_COST", auth.DefaultBcryptCost),
		AdminEmails: splitList(getEnv("ADMIN_EMAILS", "")),
	})
	catalogModule := catalog.NewModule(catalog.Config{
		Database: databaseConfig("CATALOG_DB_PATH", "catalog.db"),
		Seed:     getEnvBool("SEED_CATALOG", true),
	})
	cartModule := cart.NewModule(cart.Config{
		Database: databaseConfig("CART_DB_PATH", "cart.db"),
	})
	currencyModule := currency.NewModule(ratesConfig)
	mediaModule := media.NewModule(baseURL, app.Logger())
	rateLimitModule := ratelimit.NewModule(redisAddr, getEnvBool("RATE_LIMIT_ENABLED", true))

	apiModule := api.NewModule(api.Config{Port: httpPort})
	apiModule.SetMediaModule(mediaModule)
	apiModule.SetRateLimitModule(rateLimitModule)
	apiModule.SetCurrencyModule(currencyModule)

	// Order: independent modules first, then dependent modules
	app.Register(authModule)
	app.Register(catalogModule)
	app.Register(currencyModule)
	app.Register(mediaModule)
	app.Register(rateLimitModule)
	app.Register(cartModule) // Depends on catalog
	app.Register(apiModule)  // Depends on auth, catalog, cart, currency

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(httpPort)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

// databaseConfig selects postgres when DB_DRIVER=postgres, otherwise the
// sqlite file named by pathKey.
func databaseConfig(pathKey, defaultPath string) database.Config {
	if getEnv("DB_DRIVER", database.DriverSQLite) == database.DriverPostgres {
		return database.Config{
			Driver: database.DriverPostgres,
			DSN:    getEnv("POSTGRES_DSN", "host=localhost user=postgres dbname=glamup sslmode=disable"),
		}
	}
	return database.SQLite(getEnv(pathKey, defaultPath))
}

func printStartupInfo(port int) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%d):", port)
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  POST   /api/v1/auth/register          - Register a new user")
	log.Println("  POST   /api/v1/auth/login             - Login and get tokens")
	log.Println("  POST   /api/v1/auth/refresh           - Rotate the token pair")
	log.Println("  POST   /api/v1/auth/logout            - Revoke a refresh token")
	log.Println("  GET    /api/v1/products               - Filter and sort products (?currency=EUR)")
	log.Println("  GET    /api/v1/products/featured      - Featured products")
	log.Println("  GET    /api/v1/products/:id           - Product details")
	log.Println("  GET    /api/v1/rates                  - Current exchange rates")
	log.Println("  GET    /api/v1/rates/convert          - Convert an amount")
	log.Println("  GET    /media/:bucket/:key            - Stored images")
	log.Println("  GET    /ws/rates                      - Rate updates (WebSocket)")
	log.Println("  GET    /health                        - Health check")
	log.Println("")
	log.Println("  Protected Endpoints (require Bearer token):")
	log.Println("  GET    /api/v1/profile                - Current user profile")
	log.Println("  PUT    /api/v1/profile                - Update profile")
	log.Println("  POST   /api/v1/profile/image          - Upload profile image")
	log.Println("  GET    /api/v1/cart                   - View cart (?currency=EUR)")
	log.Println("  POST   /api/v1/cart/items             - Add or merge an item")
	log.Println("  PATCH  /api/v1/cart/items/:id         - Set quantity (0 removes)")
	log.Println("  DELETE /api/v1/cart/items/:id         - Remove an item")
	log.Println("  DELETE /api/v1/cart                   - Clear the cart")
	log.Println("")
	log.Println("  Admin Endpoints:")
	log.Println("  POST   /api/v1/admin/products         - Create a product")
	log.Println("  PUT    /api/v1/admin/products/:id     - Update a product")
	log.Println("  DELETE /api/v1/admin/products/:id     - Delete a product")
	log.Println("  POST   /api/v1/admin/products/images  - Upload product images")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
		log.Printf("Warning: invalid integer value for %s: %q, using default %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration parses values like "90s" or "1h".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if result, err := time.ParseDuration(value); err == nil {
			return result
		}
		log.Printf("Warning: invalid duration value for %s: %q, using default %s", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.ParseBool(value); err == nil {
			return result
		}
		log.Printf("Warning: invalid boolean value for %s: %q, using default %t", key, value, defaultValue)
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
