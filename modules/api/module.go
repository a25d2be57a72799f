// Package api serves the storefront over HTTP and streams rate updates over
// a WebSocket.
package api

import (
	"context"
	"fmt"
	"log"

	"github.com/example/glamup-shop-verse/modules/auth"
	"github.com/example/glamup-shop-verse/modules/cart"
	"github.com/example/glamup-shop-verse/modules/catalog"
	"github.com/example/glamup-shop-verse/modules/currency"
	"github.com/example/glamup-shop-verse/modules/media"
	"github.com/example/glamup-shop-verse/modules/ratelimit"
	"github.com/go-monolith/mono"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// defaultBodyLimit leaves room for a multipart request carrying several
// product images.
const defaultBodyLimit = 24 << 20

// Config holds the HTTP server settings.
type Config struct {
	Port      int
	BodyLimit int
}

// APIModule is the HTTP API module.
type APIModule struct {
	config Config
	app    *fiber.App

	authPort    auth.AuthPort
	catalogPort catalog.CatalogPort
	cartPort    cart.CartPort
	ratesPort   currency.RatesPort

	mediaModule     *media.MediaModule
	rateLimitModule *ratelimit.RateLimitModule
	currencyModule  *currency.CurrencyModule
	stream          *RatesStream
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*APIModule)(nil)
	_ mono.DependentModule       = (*APIModule)(nil)
	_ mono.HealthCheckableModule = (*APIModule)(nil)
)

// NewModule creates a new APIModule.
func NewModule(config Config) *APIModule {
	if config.Port == 0 {
		config.Port = 3000
	}
	if config.BodyLimit == 0 {
		config.BodyLimit = defaultBodyLimit
	}
	return &APIModule{config: config}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "catalog", "cart", "currency"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authPort = auth.NewAuthAdapter(container)
	case "catalog":
		m.catalogPort = catalog.NewCatalogAdapter(container)
	case "cart":
		m.cartPort = cart.NewCartAdapter(container)
	case "currency":
		m.ratesPort = currency.NewRatesAdapter(container)
	}
}

// SetMediaModule wires the image storage. It must be registered before the
// API module so its service exists when the server starts.
func (m *APIModule) SetMediaModule(module *media.MediaModule) {
	m.mediaModule = module
}

// SetRateLimitModule wires request throttling. Without it every request is
// let through.
func (m *APIModule) SetRateLimitModule(module *ratelimit.RateLimitModule) {
	m.rateLimitModule = module
}

// SetCurrencyModule wires the rate feed behind /ws/rates.
func (m *APIModule) SetCurrencyModule(module *currency.CurrencyModule) {
	m.currencyModule = module
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.authPort == nil || m.catalogPort == nil || m.cartPort == nil || m.ratesPort == nil {
		return fmt.Errorf("api dependencies not set")
	}

	var store MediaStore
	if m.mediaModule != nil && m.mediaModule.Service() != nil {
		store = m.mediaModule.Service()
	} else {
		log.Println("[api] Media storage not wired, image routes disabled")
	}
	if m.currencyModule != nil {
		m.stream = NewRatesStream(m.currencyModule.Service())
	}

	var limiter *ratelimit.Middleware
	if m.rateLimitModule != nil {
		limiter = m.rateLimitModule.Middleware()
	}

	m.app = newApp(m.config, NewHandlers(m.authPort, m.catalogPort, m.cartPort, m.ratesPort, store), m.authPort, limiter, m.stream)

	go func() {
		if err := m.app.Listen(fmt.Sprintf(":%d", m.config.Port)); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on :%d", m.config.Port)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.ShutdownWithContext(ctx)
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	details := map[string]any{
		"port": m.config.Port,
	}
	if m.stream != nil {
		details["rate_stream_clients"] = m.stream.ConnectionCount()
	}
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: details,
	}
}

// newApp builds the Fiber application with every route. limiter and stream
// may be nil.
func newApp(config Config, h *Handlers, authPort auth.AuthPort, limiter *ratelimit.Middleware, stream *RatesStream) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
		BodyLimit:             config.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"module": "api",
		})
	})

	// Public object URLs
	app.Get("/media/:bucket/:key", h.ServeMedia)

	if stream != nil {
		app.Use("/ws/rates", stream.Upgrade)
		app.Get("/ws/rates", websocket.New(stream.HandleWebSocket))
	}

	v1 := app.Group("/api/v1")

	authRoutes := v1.Group("/auth", limiter.Auth())
	authRoutes.Post("/register", h.Register)
	authRoutes.Post("/login", h.Login)
	authRoutes.Post("/refresh", h.Refresh)
	authRoutes.Post("/logout", h.Logout)

	// Limited per route: a group middleware would also run for the
	// protected routes below, which share the /api/v1 prefix.
	byIP := limiter.IP()
	v1.Get("/products", byIP, h.ListProducts)
	v1.Get("/products/featured", byIP, h.FeaturedProducts)
	v1.Get("/products/:id", byIP, h.GetProduct)
	v1.Get("/rates", byIP, h.GetRates)
	v1.Get("/rates/convert", byIP, h.ConvertAmount)

	protected := v1.Group("", AuthMiddleware(authPort), limiter.User(userKey))
	protected.Get("/profile", h.Profile)
	protected.Put("/profile", h.UpdateProfile)
	protected.Post("/profile/image", h.UploadProfileImage)

	protected.Get("/cart", h.ViewCart)
	protected.Delete("/cart", h.ClearCart)
	protected.Post("/cart/items", h.AddCartItem)
	protected.Patch("/cart/items/:id", h.SetCartItemQuantity)
	protected.Delete("/cart/items/:id", h.RemoveCartItem)

	admin := protected.Group("/admin", AdminRequired())
	admin.Post("/products", h.CreateProduct)
	admin.Post("/products/images", h.UploadProductImages)
	admin.Put("/products/:id", h.UpdateProduct)
	admin.Delete("/products/:id", h.DeleteProduct)

	return app
}
