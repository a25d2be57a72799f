package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GetRates returns the current rate table, its source and the last refresh
// warning, if any.
func (h *Handlers) GetRates(c *fiber.Ctx) error {
	resp, err := h.rates.GetRates(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// ConvertAmount converts ?amount= from the canonical currency to ?currency=.
func (h *Handlers) ConvertAmount(c *fiber.Ctx) error {
	if strings.TrimSpace(c.Query("amount")) == "" {
		return badRequest("amount is required")
	}
	amount, err := decimalQuery(c, "amount")
	if err != nil {
		return err
	}
	code := currencyParam(c)
	if code == "" {
		return badRequest("currency is required")
	}

	price, err := h.rates.Convert(c.UserContext(), *amount, code)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"amount":    amount,
		"currency":  price.Currency,
		"converted": price.Amount,
		"formatted": price.Formatted,
	})
}
