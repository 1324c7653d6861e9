package account

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds the identity and metadata of a ledger account. The currency
// is fixed at creation; status gates participation in postings.
type Account struct {
	ID          string
	UserID      string
	AccountType string
	Currency    string
	Status      string
	CreatedAt   time.Time
}

// Balance is the derived position of an account at a point in time. It is
// never stored; the ledger recomputes it from the entry log.
type Balance struct {
	AccountID string
	Amount    decimal.Decimal
	AsOf      time.Time
}
