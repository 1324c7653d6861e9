package transactions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kwanza-ledger/kwanza_ledger/internal/ledger"
	"github.com/kwanza-ledger/kwanza_ledger/internal/notification"
)

// ErrInvalidAccountID indicates a request referenced a malformed account id.
var ErrInvalidAccountID = errors.New("invalid account id")

// Service drives the posting engine for the three ledger operations and
// notifies recipients on committed transfers.
type Service struct {
	engine   ledger.Engine
	notifier notification.Notifier
}

// NewService constructs a transaction service.
func NewService(engine ledger.Engine, notifier notification.Notifier) *Service {
	return &Service{engine: engine, notifier: notifier}
}

// DepositInput captures the data needed to credit an account.
type DepositInput struct {
	AccountID   string
	Amount      decimal.Decimal
	Description string
}

// WithdrawInput captures the data needed to debit an account.
type WithdrawInput struct {
	AccountID   string
	Amount      decimal.Decimal
	Description string
}

// TransferInput captures the data needed to move funds between accounts.
type TransferInput struct {
	SourceAccountID      string
	DestinationAccountID string
	Amount               decimal.Decimal
	Description          string
}

// Result describes the committed outcome of a posting.
type Result struct {
	TransactionID string
	Type          ledger.TransactionType
	Amount        decimal.Decimal
	Currency      string
	CompletedAt   time.Time
}

// Deposit credits the account and returns the committed transaction.
func (s *Service) Deposit(ctx context.Context, input DepositInput) (Result, error) {
	accountID, err := parseAccountID(input.AccountID)
	if err != nil {
		return Result{}, err
	}
	txn, err := s.engine.Deposit(ctx, accountID, input.Amount, input.Description)
	if err != nil {
		return Result{}, err
	}
	s.notify(ctx, notification.KindDeposit, input.AccountID, txn)
	return toResult(txn), nil
}

// Withdraw debits the account and returns the committed transaction.
func (s *Service) Withdraw(ctx context.Context, input WithdrawInput) (Result, error) {
	accountID, err := parseAccountID(input.AccountID)
	if err != nil {
		return Result{}, err
	}
	txn, err := s.engine.Withdraw(ctx, accountID, input.Amount, input.Description)
	if err != nil {
		return Result{}, err
	}
	s.notify(ctx, notification.KindWithdrawal, input.AccountID, txn)
	return toResult(txn), nil
}

// Transfer posts a balanced pair of entries between the two accounts.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (Result, error) {
	sourceID, err := parseAccountID(input.SourceAccountID)
	if err != nil {
		return Result{}, err
	}
	destinationID, err := parseAccountID(input.DestinationAccountID)
	if err != nil {
		return Result{}, err
	}
	txn, err := s.engine.Transfer(ctx, sourceID, destinationID, input.Amount, input.Description)
	if err != nil {
		return Result{}, err
	}
	s.notify(ctx, notification.KindTransfer, input.DestinationAccountID, txn)
	return toResult(txn), nil
}

func (s *Service) notify(ctx context.Context, kind, destination string, txn ledger.Transaction) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Send(ctx, notification.Message{
		Kind:        kind,
		Destination: destination,
		Body:        fmt.Sprintf("%s of %s %s completed", txn.Type, txn.Amount, txn.Currency),
	})
}

func parseAccountID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidAccountID, id)
	}
	return parsed, nil
}

func toResult(txn ledger.Transaction) Result {
	return Result{
		TransactionID: txn.ID.String(),
		Type:          txn.Type,
		Amount:        txn.Amount,
		Currency:      txn.Currency,
		CompletedAt:   txn.CreatedAt,
	}
}
