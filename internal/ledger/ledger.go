package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount occurs when a posting is requested for a zero or
	// negative amount. Handlers validate this too; the engine re-asserts it.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrAccountNotFound occurs when a referenced account does not exist or
	// is not ACTIVE. Inactive accounts may not participate in postings.
	ErrAccountNotFound = errors.New("account not found or inactive")

	// ErrInsufficientFunds occurs when the source account's derived balance
	// cannot cover the requested amount.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrCurrencyMismatch occurs when a transfer references accounts held in
	// different currencies.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrSameAccount occurs when a transfer names the same account on both
	// sides. Rejected before any lock is taken.
	ErrSameAccount = errors.New("source and destination accounts must differ")
)

// TransactionType classifies the intent of a posting.
type TransactionType string

const (
	TypeDeposit    TransactionType = "DEPOSIT"
	TypeWithdrawal TransactionType = "WITHDRAWAL"
	TypeTransfer   TransactionType = "TRANSFER"
)

// EntryType marks the direction of a single ledger entry.
type EntryType string

const (
	EntryCredit EntryType = "CREDIT"
	EntryDebit  EntryType = "DEBIT"
)

const (
	// StatusCompleted is the only persisted transaction status. Failed
	// operations abort before anything is written, so no record exists.
	StatusCompleted = "COMPLETED"

	// AccountStatusActive gates ledger participation.
	AccountStatusActive = "ACTIVE"
)

// Transaction is the immutable record of a completed posting. Exactly one of
// the account references is set for deposits and withdrawals; both are set
// for transfers.
type Transaction struct {
	ID                   uuid.UUID
	Type                 TransactionType
	SourceAccountID      uuid.NullUUID
	DestinationAccountID uuid.NullUUID
	Amount               decimal.Decimal
	Currency             string
	Status               string
	Description          *string
	CreatedAt            time.Time
}

// Entry is one leg of a transaction. Entries are append-only; the signed
// amounts (CREDIT positive, DEBIT negative) of a transaction's entries sum
// to zero.
type Entry struct {
	ID            uuid.UUID
	AccountID     uuid.UUID
	TransactionID uuid.UUID
	Type          EntryType
	Amount        decimal.Decimal
	CreatedAt     time.Time
}

// Signed returns the entry amount with CREDIT positive and DEBIT negative.
func (e Entry) Signed() decimal.Decimal {
	if e.Type == EntryDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// Engine executes atomic postings against the account and entry stores. Each
// operation either commits one transaction record together with its entries
// or leaves no durable effect at all. Balances are never stored; they are
// derived by summing entries, inside the same atomic scope as any write that
// depends on them.
type Engine interface {
	Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (Transaction, error)
	Withdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (Transaction, error)
	Transfer(ctx context.Context, sourceID, destinationID uuid.UUID, amount decimal.Decimal, description string) (Transaction, error)
	Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
	Entries(ctx context.Context, accountID uuid.UUID) ([]Entry, error)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func sumEntries(entries []Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Signed())
	}
	return total
}

func now() time.Time {
	return time.Now().UTC()
}
