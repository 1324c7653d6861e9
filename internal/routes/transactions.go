package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kwanza-ledger/kwanza_ledger/internal/transactions"
)

// RegisterTransactionRoutes wires the posting endpoints.
func RegisterTransactionRoutes(r fiber.Router, h *transactions.Handler) {
	r.Post("/deposits", h.Deposit)
	r.Post("/withdrawals", h.Withdraw)
	r.Post("/transfers", h.Transfer)
}
