package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kwanza-ledger/kwanza_ledger/internal/account"
)

// RegisterAccountRoutes wires account-related endpoints.
func RegisterAccountRoutes(r fiber.Router, h *account.Handler) {
	r.Post("/accounts", h.Create)
	r.Get("/accounts/:accountId", h.Get)
	r.Get("/accounts/:accountId/ledger", h.Ledger)
}
