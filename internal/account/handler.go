package account

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kwanza-ledger/kwanza_ledger/internal/ledger"
)

// Handler exposes account HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds an account HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	UserID      string `json:"user_id"`
	AccountType string `json:"account_type"`
	Currency    string `json:"currency"`
}

type accountResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	AccountType string    `json:"account_type"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type entryResponse struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transaction_id"`
	EntryType     string    `json:"entry_type"`
	Amount        string    `json:"amount"`
	CreatedAt     time.Time `json:"created_at"`
}

// Create opens a new account.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	acct, err := h.service.Create(c.UserContext(), CreateInput{
		UserID:      req.UserID,
		AccountType: req.AccountType,
		Currency:    req.Currency,
	})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toResponse(acct))
}

// Get returns account metadata together with the derived balance.
func (h *Handler) Get(c *fiber.Ctx) error {
	id := c.Params("accountId")
	acct, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "account not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	balance, err := h.service.Balance(c.UserContext(), id)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"id":           acct.ID,
		"user_id":      acct.UserID,
		"account_type": acct.AccountType,
		"currency":     acct.Currency,
		"status":       acct.Status,
		"created_at":   acct.CreatedAt,
		"balance":      balance.Amount.String(),
	})
}

// Ledger lists the account's entries in ascending creation order.
func (h *Handler) Ledger(c *fiber.Ctx) error {
	id := c.Params("accountId")
	entries, err := h.service.Entries(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "account not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	payload := make([]entryResponse, 0, len(entries))
	for _, entry := range entries {
		payload = append(payload, toEntryResponse(entry))
	}
	return c.Status(http.StatusOK).JSON(payload)
}

func toResponse(acct Account) accountResponse {
	return accountResponse{
		ID:          acct.ID,
		UserID:      acct.UserID,
		AccountType: acct.AccountType,
		Currency:    acct.Currency,
		Status:      acct.Status,
		CreatedAt:   acct.CreatedAt,
	}
}

func toEntryResponse(entry ledger.Entry) entryResponse {
	return entryResponse{
		ID:            entry.ID.String(),
		TransactionID: entry.TransactionID.String(),
		EntryType:     string(entry.Type),
		Amount:        entry.Amount.String(),
		CreatedAt:     entry.CreatedAt,
	}
}
