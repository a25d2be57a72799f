package api

import (
	"context"
	"strconv"
	"strings"

	"github.com/example/glamup-shop-verse/domain/apperr"
	domain "github.com/example/glamup-shop-verse/domain/catalog"
	"github.com/example/glamup-shop-verse/modules/catalog"
	"github.com/example/glamup-shop-verse/modules/currency"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ListProducts returns the products matching the query filters:
// category, min_price, max_price, sizes (comma separated), search,
// featured, sort and currency.
func (h *Handlers) ListProducts(c *fiber.Ctx) error {
	req, err := listRequestFromQuery(c)
	if err != nil {
		return err
	}
	return h.listProducts(c, req)
}

// FeaturedProducts returns the featured products.
func (h *Handlers) FeaturedProducts(c *fiber.Ctx) error {
	return h.listProducts(c, catalog.ListProductsRequest{FeaturedOnly: true})
}

func (h *Handlers) listProducts(c *fiber.Ctx, req catalog.ListProductsRequest) error {
	criteria, err := req.Criteria()
	if err != nil {
		return err
	}

	products, err := h.catalog.ListProducts(c.UserContext(), criteria)
	if err != nil {
		return err
	}

	code := currencyParam(c)
	out, err := h.withDisplayPrices(c.UserContext(), products, code)
	if err != nil {
		return err
	}
	return c.JSON(ProductsResponse{
		Products: out,
		Count:    len(out),
		Currency: code,
	})
}

// GetProduct returns one product.
func (h *Handlers) GetProduct(c *fiber.Ctx) error {
	p, err := h.catalog.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	out, err := h.withDisplayPrices(c.UserContext(), []domain.Product{*p}, currencyParam(c))
	if err != nil {
		return err
	}
	return c.JSON(out[0])
}

// CreateProduct adds a product to the catalog.
func (h *Handlers) CreateProduct(c *fiber.Ctx) error {
	var in catalog.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest("Invalid request body")
	}

	p, err := h.catalog.CreateProduct(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

// UpdateProduct applies a partial update to a product.
func (h *Handlers) UpdateProduct(c *fiber.Ctx) error {
	var patch catalog.ProductPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest("Invalid request body")
	}

	p, err := h.catalog.UpdateProduct(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

// DeleteProduct removes a product and the images it owns.
func (h *Handlers) DeleteProduct(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := c.Params("id")

	p, err := h.catalog.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteProduct(ctx, id); err != nil {
		return err
	}
	for _, url := range p.Images {
		h.deleteOwned(ctx, url)
	}
	return c.JSON(MessageResponse{Message: "product deleted"})
}

// withDisplayPrices attaches the price in code to every product. Without a
// code the products are returned unchanged.
func (h *Handlers) withDisplayPrices(ctx context.Context, products []domain.Product, code string) ([]ProductResponse, error) {
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = ProductResponse{Product: p}
	}
	if code == "" || len(products) == 0 {
		return out, nil
	}

	amounts := make([]decimal.Decimal, len(products))
	for i, p := range products {
		amounts[i] = p.Price
	}
	prices, err := h.displayPrices(ctx, amounts, code)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].DisplayPrice = &prices[i]
	}
	return out, nil
}

func (h *Handlers) displayPrices(ctx context.Context, amounts []decimal.Decimal, code string) ([]currency.Price, error) {
	prices, err := h.rates.FormatPrices(ctx, amounts, code)
	if err != nil {
		return nil, err
	}
	if len(prices) != len(amounts) {
		return nil, apperr.New(apperr.KindInternal, "price formatting returned a short result")
	}
	return prices, nil
}

func listRequestFromQuery(c *fiber.Ctx) (catalog.ListProductsRequest, error) {
	req := catalog.ListProductsRequest{
		Category: strings.TrimSpace(c.Query("category")),
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
	}

	var err error
	if req.MinPrice, err = decimalQuery(c, "min_price"); err != nil {
		return req, err
	}
	if req.MaxPrice, err = decimalQuery(c, "max_price"); err != nil {
		return req, err
	}

	req.Sizes = domain.ParseSizes(c.Query("sizes"))

	if raw := c.Query("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			return req, badRequest("featured must be true or false")
		}
		req.FeaturedOnly = featured
	}
	return req, nil
}

// decimalQuery parses an optional decimal query parameter.
func decimalQuery(c *fiber.Ctx, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, apperr.Validationf("%s must be a number", key)
	}
	return &d, nil
}
