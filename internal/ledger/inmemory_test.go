package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newTestAccount(t *testing.T, e Engine, currency string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	SeedAccount(e, id, currency, AccountStatusActive)
	return id
}

func TestInMemoryEngine_DepositCreatesCreditEntry(t *testing.T) {
	e := NewInMemory()
	ctx := context.Background()
	acct := newTestAccount(t, e, "USD")

	txn, err := e.Deposit(ctx, acct, decimal.NewFromInt(100), "opening deposit")
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if txn.Type != TypeDeposit || txn.Status != StatusCompleted {
		t.Fatalf("unexpected transaction: %+v", txn)
	}
	if txn.SourceAccountID.Valid || !txn.DestinationAccountID.Valid {
		t.Fatalf("deposit must set only the destination account: %+v", txn)
	}
	if txn.Currency != "USD" {
		t.Fatalf("expected account currency USD, got %s", txn.Currency)
	}

	balance, err := e.Balance(ctx, acct)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected balance 100, got %s", balance)
	}

	entries, err := e.Entries(ctx, acct)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one entry, got %d", len(entries))
	}
	if entries[0].Type != EntryCredit || !entries[0].Amount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected CREDIT of 100, got %+v", entries[0])
	}
	if entries[0].TransactionID != txn.ID {
		t.Fatalf("entry must reference its transaction")
	}
}

func TestInMemoryEngine_WithdrawalDebitsUnderBalance(t *testing.T) {
	e := NewInMemory()
	ctx := context.Background()
	acct := newTestAccount(t, e, "USD")
	SeedBalance(e, acct, decimal.NewFromInt(100))

	txn, err := e.Withdraw(ctx, acct, decimal.NewFromInt(40), "atm")
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if txn.Type != TypeWithdrawal || !txn.SourceAccountID.Valid || txn.DestinationAccountID.Valid {
		t.Fatalf("withdrawal must set only the source account: %+v", txn)
	}

	balance, _ := e.Balance(ctx, acct)
	if !balance.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("expected balance 60, got %s", balance)
	}

	entries, _ := e.Entries(ctx, acct)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	last := entries[len(entries)-1]
	if last.Type != EntryDebit || !last.Amount.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected DEBIT of 40, got %+v", last)
	}
	if got := TransactionCount(e); got != 1 {
		t.Fatalf("expected exactly one committed transaction, got %d", got)
	}
}

func TestInMemoryEngine_WithdrawalInsufficientFunds(t *testing.T) {
	e := NewInMemory()
	ctx := context.Background()
	acct := newTestAccount(t, e, "USD")
	SeedBalance(e, acct, decimal.NewFromInt(30))

	if _, err := e.Withdraw(ctx, acct, decimal.NewFromInt(50), ""); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	// Failed withdrawals leave no trace.
	entries, _ := e.Entries(ctx, acct)
	if len(entries) != 1 {
		t.Fatalf("expected the seed entry only, got %d entries", len(entries))
	}
	if got := TransactionCount(e); got != 0 {
		t.Fatalf("failed withdrawal must not record a transaction, got %d", got)
	}
}

func TestInMemoryEngine_WithdrawalOfExactBalance(t *testing.T) {
	e := NewInMemory()
	ctx := context.Background()
	acct := newTestAccount(t, e, "USD")
	SeedBalance(e, acct, decimal.NewFromInt(50))

	if _, err := e.Withdraw(ctx, acct, decimal.NewFromInt(50), ""); err != nil {
		t.Fatalf("withdrawing the full balance must succeed: %v", err)
	}
	balance, _ := e.Balance(ctx, acct)
	if !balance.IsZero() {
		t.Fatalf("expected zero balance, got %s", balance)
	}
}

func TestInMemoryEngine_TransferMovesFunds(t *testing.T) {
	e := NewInMemory()
	ctx := context.Background()
	source := newTestAccount(t, e, "USD")
	destination := newTestAccount(t, e, "USD")
	SeedBalance(e, source, decimal.NewFromInt(50))

	txn, err := e.Transfer(ctx, source, destination, decimal.NewFromInt(30), "rent")
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if txn.Type != TypeTransfer || !txn.SourceAccountID.Valid || !txn.DestinationAccountID.Valid {
		t.Fatalf("transfer must set both accounts: %+v", txn)
	}

	sourceBalance, _ := e.Balance(ctx, source)
	destinationBalance, _ := e.Balance(ctx, destination)
	if !sourceBalance.Equal(decimal.NewFromInt(20)) || !destinationBalance.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected balances 20/30, got %s/%s", sourceBalance, destinationBalance)
	}

	// The posting is balanced: one DEBIT and one CREDIT of equal amount
	// owned by the same transaction, summing to zero when signed.
	sourceEntries, _ := e.Entries(ctx, source)
	destinationEntries, _ := e.Entries(ctx, destination)
	var debit, credit *Entry
	for i := range sourceEntries {
		if sourceEntries[i].TransactionID == txn.ID {
			debit = &sourceEntries[i]
		}
	}
	for i := range destinationEntries {
		if destinationEntries[i].TransactionID == txn.ID {
			credit = &destinationEntries[i]
		}
	}
	if debit == nil || credit == nil {
		t.Fatal("expected one entry per leg of the transfer")
	}
	if debit.Type != EntryDebit || credit.Type != EntryCredit {
		t.Fatalf("expected DEBIT on source and CREDIT on destination, got %s/%s", debit.Type, credit.Type)
	}
	if !debit.Signed().Add(credit.Signed()).IsZero() {
		t.Fatalf("transfer entries must sum to zero, got %s and %s", debit.Signed(), credit.Signed())
	}
}

func TestInMemoryEngine_TransferCurrencyMismatch(t *testing.T) {
	e := NewInMemory()
	ctx := context.Background()
	source := newTestAccount(t, e, "USD")
	destination := newTestAccount(t, e, "EUR")
	SeedBalance(e, source, decimal.NewFromInt(100))

	if _, err := e.Transfer(ctx, source, destination, decimal.NewFromInt(10), ""); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected currency mismatch, got %v", err)
	}
	entries, _ := e.Entries(ctx, destination)
	if len(entries) != 0 {
		t.Fatalf("failed transfer must not produce entries, got %d", len(entries))
	}
}

func TestInMemoryEngine_SelfTransferRejected(t *testing.T) {
	e := NewInMemory()
	acct := newTestAccount(t, e, "USD")

	if _, err := e.Transfer(context.Background(), acct, acct, decimal.NewFromInt(10), ""); !errors.Is(err, ErrSameAccount) {
		t.Fatalf("expected same-account rejection, got %v", err)
	}
}

func TestInMemoryEngine_InvalidAmount(t *testing.T) {
	e := NewInMemory()
	ctx := context.Background()
	acct := newTestAccount(t, e, "USD")
	other := newTestAccount(t, e, "USD")

	if _, err := e.Deposit(ctx, acct, decimal.Zero, ""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount for zero deposit, got %v", err)
	}
	if _, err := e.Withdraw(ctx, acct, decimal.NewFromInt(-5), ""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount for negative withdrawal, got %v", err)
	}
	if _, err := e.Transfer(ctx, acct, other, decimal.Zero, ""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount for zero transfer, got %v", err)
	}
}

func TestInMemoryEngine_InactiveAccountRejected(t *testing.T) {
	e := NewInMemory()
	ctx := context.Background()
	inactive := uuid.New()
	SeedAccount(e, inactive, "USD", "CLOSED")

	if _, err := e.Deposit(ctx, inactive, decimal.NewFromInt(10), ""); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected account not found for inactive account, got %v", err)
	}
	if _, err := e.Deposit(ctx, uuid.New(), decimal.NewFromInt(10), ""); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected account not found for unknown account, got %v", err)
	}
}

func TestInMemoryEngine_ConcurrentWithdrawalsNoOverdraft(t *testing.T) {
	e := NewInMemory()
	ctx := context.Background()
	acct := newTestAccount(t, e, "USD")
	amount := decimal.NewFromInt(100)
	SeedBalance(e, acct, amount)

	const workers = 8
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Withdraw(ctx, acct, amount, "race")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, rejections int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrInsufficientFunds):
			rejections++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || rejections != workers-1 {
		t.Fatalf("expected exactly one success, got %d successes and %d rejections", successes, rejections)
	}

	balance, _ := e.Balance(ctx, acct)
	if !balance.IsZero() {
		t.Fatalf("expected zero balance after the race, got %s", balance)
	}
}

func TestInMemoryEngine_OppositeTransfersConserveFunds(t *testing.T) {
	e := NewInMemory()
	ctx := context.Background()
	a := newTestAccount(t, e, "USD")
	b := newTestAccount(t, e, "USD")
	SeedBalance(e, a, decimal.NewFromInt(1_000))
	SeedBalance(e, b, decimal.NewFromInt(1_000))

	// Transfers in both directions between the same pair; ordered lock
	// acquisition means this completes instead of deadlocking.
	const rounds = 25
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := e.Transfer(ctx, a, b, decimal.NewFromInt(10), ""); err != nil {
				t.Errorf("transfer a->b: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := e.Transfer(ctx, b, a, decimal.NewFromInt(10), ""); err != nil {
				t.Errorf("transfer b->a: %v", err)
			}
		}()
	}
	wg.Wait()

	balanceA, _ := e.Balance(ctx, a)
	balanceB, _ := e.Balance(ctx, b)
	if !balanceA.Add(balanceB).Equal(decimal.NewFromInt(2_000)) {
		t.Fatalf("funds not conserved: %s + %s", balanceA, balanceB)
	}
}
