package api

import (
	"context"
	"io"
	"strings"

	"github.com/example/glamup-shop-verse/domain/apperr"
	cartdomain "github.com/example/glamup-shop-verse/domain/cart"
	catalogdomain "github.com/example/glamup-shop-verse/domain/catalog"
	"github.com/example/glamup-shop-verse/domain/user"
	"github.com/example/glamup-shop-verse/modules/catalog"
	"github.com/example/glamup-shop-verse/modules/currency"
	"github.com/example/glamup-shop-verse/modules/media"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const (
	userToken  = "user-token"
	adminToken = "admin-token"
)

// mockAuthPort is a mock implementation of auth.AuthPort for testing.
type mockAuthPort struct {
	registerFunc      func(ctx context.Context, email, password string, profile user.Profile) (*user.User, error)
	loginFunc         func(ctx context.Context, email, password string) (*user.TokenPair, error)
	getUserFunc       func(ctx context.Context, userID string) (*user.User, error)
	updateProfileFunc func(ctx context.Context, userID string, profile user.Profile) (*user.User, error)
}

func (m *mockAuthPort) Register(ctx context.Context, email, password string, profile user.Profile) (*user.User, error) {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, email, password, profile)
	}
	return nil, nil
}

func (m *mockAuthPort) Login(ctx context.Context, email, password string) (*user.TokenPair, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, email, password)
	}
	return nil, nil
}

func (m *mockAuthPort) Refresh(_ context.Context, _ string) (*user.TokenPair, error) {
	return &user.TokenPair{AccessToken: "new", RefreshToken: "rotated", TokenType: "Bearer"}, nil
}

func (m *mockAuthPort) Logout(_ context.Context, _ string) error {
	return nil
}

// ValidateToken accepts userToken and adminToken.
func (m *mockAuthPort) ValidateToken(_ context.Context, token string) (*user.Claims, error) {
	switch token {
	case userToken:
		return &user.Claims{UserID: "user-1", Email: "shopper@example.com", Role: user.RoleUser}, nil
	case adminToken:
		return &user.Claims{UserID: "admin-1", Email: "admin@example.com", Role: user.RoleAdmin}, nil
	}
	return nil, apperr.Unauthorized("invalid token")
}

func (m *mockAuthPort) GetUser(ctx context.Context, userID string) (*user.User, error) {
	if m.getUserFunc != nil {
		return m.getUserFunc(ctx, userID)
	}
	return &user.User{ID: userID, Email: "shopper@example.com", Role: user.RoleUser}, nil
}

func (m *mockAuthPort) UpdateProfile(ctx context.Context, userID string, profile user.Profile) (*user.User, error) {
	if m.updateProfileFunc != nil {
		return m.updateProfileFunc(ctx, userID, profile)
	}
	u := &user.User{ID: userID}
	profile.Apply(u)
	return u, nil
}

// mockCatalogPort is a mock implementation of catalog.CatalogPort for testing.
type mockCatalogPort struct {
	listFunc   func(ctx context.Context, c catalogdomain.Criteria) ([]catalogdomain.Product, error)
	getFunc    func(ctx context.Context, id string) (*catalogdomain.Product, error)
	createFunc func(ctx context.Context, in catalog.ProductInput) (*catalogdomain.Product, error)
	deleted    []string
}

func (m *mockCatalogPort) ListProducts(ctx context.Context, c catalogdomain.Criteria) ([]catalogdomain.Product, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, c)
	}
	return nil, nil
}

func (m *mockCatalogPort) GetProduct(ctx context.Context, id string) (*catalogdomain.Product, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, catalogdomain.ErrProductNotFound
}

func (m *mockCatalogPort) GetProducts(_ context.Context, _ []string) (map[string]catalogdomain.Product, error) {
	return map[string]catalogdomain.Product{}, nil
}

func (m *mockCatalogPort) CreateProduct(ctx context.Context, in catalog.ProductInput) (*catalogdomain.Product, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, in)
	}
	return &catalogdomain.Product{ID: "p-new", Name: in.Name, Price: in.Price, Category: in.Category}, nil
}

func (m *mockCatalogPort) UpdateProduct(_ context.Context, id string, _ catalog.ProductPatch) (*catalogdomain.Product, error) {
	return &catalogdomain.Product{ID: id}, nil
}

func (m *mockCatalogPort) DeleteProduct(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

// mockCartPort is a mock implementation of cart.CartPort for testing.
type mockCartPort struct {
	viewFunc func(ctx context.Context, userID string) (cartdomain.View, error)
	addFunc  func(ctx context.Context, userID string, item cartdomain.Item) (cartdomain.Row, bool, error)
}

func (m *mockCartPort) View(ctx context.Context, userID string) (cartdomain.View, error) {
	if m.viewFunc != nil {
		return m.viewFunc(ctx, userID)
	}
	return cartdomain.View{}, nil
}

func (m *mockCartPort) Add(ctx context.Context, userID string, item cartdomain.Item) (cartdomain.Row, bool, error) {
	if m.addFunc != nil {
		return m.addFunc(ctx, userID, item)
	}
	return cartdomain.Row{}, false, nil
}

func (m *mockCartPort) SetQuantity(_ context.Context, userID, itemID string, quantity int) (cartdomain.Row, bool, error) {
	if quantity <= 0 {
		return cartdomain.Row{ID: itemID, UserID: userID}, true, nil
	}
	return cartdomain.Row{ID: itemID, UserID: userID, Quantity: quantity}, false, nil
}

func (m *mockCartPort) Remove(_ context.Context, _, _ string) error {
	return nil
}

func (m *mockCartPort) Clear(_ context.Context, _ string) error {
	return nil
}

// mockRatesPort formats amounts at a fixed EUR rate of 0.85.
type mockRatesPort struct{}

var eurRate = decimal.RequireFromString("0.85")

func (m *mockRatesPort) GetRates(_ context.Context) (currency.RatesResponse, error) {
	return currency.RatesResponse{
		Snapshot: currency.Snapshot{Base: "USD", Rates: map[string]decimal.Decimal{"USD": decimal.NewFromInt(1), "EUR": eurRate}},
	}, nil
}

func (m *mockRatesPort) Convert(_ context.Context, amount decimal.Decimal, code string) (currency.Price, error) {
	if code != "EUR" {
		return currency.Price{}, apperr.InvalidCurrency("unsupported currency")
	}
	converted := amount.Mul(eurRate)
	return currency.Price{Amount: converted, Currency: code, Formatted: "€" + converted.StringFixed(2)}, nil
}

func (m *mockRatesPort) FormatPrices(ctx context.Context, amounts []decimal.Decimal, code string) ([]currency.Price, error) {
	prices := make([]currency.Price, 0, len(amounts))
	for _, a := range amounts {
		p, err := m.Convert(ctx, a, code)
		if err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, nil
}

// mockMediaStore keeps objects in memory under "bucket/key".
type mockMediaStore struct {
	objects map[string][]byte
	deleted []string
}

func newMockMediaStore() *mockMediaStore {
	return &mockMediaStore{objects: make(map[string][]byte)}
}

func (m *mockMediaStore) Upload(_ context.Context, bucket, filename, contentType string, data []byte) (*media.Object, error) {
	if len(data) == 0 {
		return nil, media.ErrEmptyUpload
	}
	key := "k" + filename
	m.objects[bucket+"/"+key] = data
	return &media.Object{Bucket: bucket, Key: key, URL: "http://shop.test/media/" + bucket + "/" + key, ContentType: contentType, Size: int64(len(data))}, nil
}

func (m *mockMediaStore) Open(_ context.Context, bucket, key string) (io.ReadCloser, *media.Object, error) {
	data, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, nil, media.ErrObjectNotFound
	}
	return io.NopCloser(strings.NewReader(string(data))), &media.Object{Bucket: bucket, Key: key, ContentType: "image/png", Size: int64(len(data))}, nil
}

func (m *mockMediaStore) Delete(_ context.Context, bucket, key string) error {
	m.deleted = append(m.deleted, bucket+"/"+key)
	delete(m.objects, bucket+"/"+key)
	return nil
}

func (m *mockMediaStore) KeyFromURL(url string) (string, string, bool) {
	rest, ok := strings.CutPrefix(url, "http://shop.test/media/")
	if !ok {
		return "", "", false
	}
	bucket, key, ok := strings.Cut(rest, "/")
	return bucket, key, ok
}

type testDeps struct {
	auth    *mockAuthPort
	catalog *mockCatalogPort
	cart    *mockCartPort
	media   *mockMediaStore
}

func newTestApp(deps testDeps) *fiber.App {
	if deps.auth == nil {
		deps.auth = &mockAuthPort{}
	}
	if deps.catalog == nil {
		deps.catalog = &mockCatalogPort{}
	}
	if deps.cart == nil {
		deps.cart = &mockCartPort{}
	}
	var store MediaStore
	if deps.media != nil {
		store = deps.media
	}
	h := NewHandlers(deps.auth, deps.catalog, deps.cart, &mockRatesPort{}, store)
	return newApp(Config{BodyLimit: defaultBodyLimit}, h, deps.auth, nil, nil)
}
