package account

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kwanza-ledger/kwanza_ledger/internal/ledger"
)

// Service exposes account operations backed by the metadata repository and
// the posting engine.
type Service struct {
	repo   Repository
	engine ledger.Engine
}

// NewService builds an account service instance.
func NewService(repo Repository, engine ledger.Engine) *Service {
	return &Service{repo: repo, engine: engine}
}

// CreateInput captures data required to open an account.
type CreateInput struct {
	UserID      string
	AccountType string
	Currency    string
}

// Create opens an ACTIVE account. The currency is immutable afterwards.
func (s *Service) Create(ctx context.Context, input CreateInput) (Account, error) {
	if input.UserID == "" || input.AccountType == "" || input.Currency == "" {
		return Account{}, fmt.Errorf("user id, account type and currency are required")
	}

	acct := Account{
		ID:          uuid.New().String(),
		UserID:      input.UserID,
		AccountType: input.AccountType,
		Currency:    input.Currency,
		Status:      ledger.AccountStatusActive,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, acct); err != nil {
		return Account{}, err
	}
	return acct, nil
}

// Get retrieves account metadata.
func (s *Service) Get(ctx context.Context, id string) (Account, error) {
	return s.repo.Get(ctx, id)
}

// Balance returns the account's derived ledger balance.
func (s *Service) Balance(ctx context.Context, id string) (Balance, error) {
	acct, err := s.repo.Get(ctx, id)
	if err != nil {
		return Balance{}, err
	}
	acctID, err := uuid.Parse(acct.ID)
	if err != nil {
		return Balance{}, err
	}
	amount, err := s.engine.Balance(ctx, acctID)
	if err != nil {
		return Balance{}, err
	}
	return Balance{AccountID: acct.ID, Amount: amount, AsOf: time.Now().UTC()}, nil
}

// Entries lists the account's ledger entries in creation order.
func (s *Service) Entries(ctx context.Context, id string) ([]ledger.Entry, error) {
	acct, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	acctID, err := uuid.Parse(acct.ID)
	if err != nil {
		return nil, err
	}
	return s.engine.Entries(ctx, acctID)
}
