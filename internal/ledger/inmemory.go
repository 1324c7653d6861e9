package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type memoryAccount struct {
	mu       sync.Mutex
	currency string
	status   string
	entries  []Entry
}

type inMemoryEngine struct {
	mu           sync.RWMutex
	accounts     map[uuid.UUID]*memoryAccount
	transactions map[uuid.UUID]Transaction
}

// NewInMemory creates a concurrency-safe in-memory engine useful for unit
// tests. It enforces the same preconditions as the Postgres engine and takes
// per-account locks in LockOrder order, so lock-discipline bugs surface in
// tests too.
func NewInMemory() Engine {
	return &inMemoryEngine{
		accounts:     make(map[uuid.UUID]*memoryAccount),
		transactions: make(map[uuid.UUID]Transaction),
	}
}

func (e *inMemoryEngine) Deposit(_ context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (Transaction, error) {
	if amount.Sign() <= 0 {
		return Transaction{}, ErrInvalidAmount
	}

	acct, err := e.activeAccount(accountID)
	if err != nil {
		return Transaction{}, err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()

	txn := Transaction{
		ID:                   uuid.New(),
		Type:                 TypeDeposit,
		DestinationAccountID: uuid.NullUUID{UUID: accountID, Valid: true},
		Amount:               amount,
		Currency:             acct.currency,
		Status:               StatusCompleted,
		Description:          optional(description),
		CreatedAt:            now(),
	}
	acct.entries = append(acct.entries, Entry{
		ID:            uuid.New(),
		AccountID:     accountID,
		TransactionID: txn.ID,
		Type:          EntryCredit,
		Amount:        amount,
		CreatedAt:     txn.CreatedAt,
	})
	e.recordTransaction(txn)
	return txn, nil
}

func (e *inMemoryEngine) Withdraw(_ context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (Transaction, error) {
	if amount.Sign() <= 0 {
		return Transaction{}, ErrInvalidAmount
	}

	acct, err := e.activeAccount(accountID)
	if err != nil {
		return Transaction{}, err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()

	if sumEntries(acct.entries).LessThan(amount) {
		return Transaction{}, ErrInsufficientFunds
	}

	txn := Transaction{
		ID:              uuid.New(),
		Type:            TypeWithdrawal,
		SourceAccountID: uuid.NullUUID{UUID: accountID, Valid: true},
		Amount:          amount,
		Currency:        acct.currency,
		Status:          StatusCompleted,
		Description:     optional(description),
		CreatedAt:       now(),
	}
	acct.entries = append(acct.entries, Entry{
		ID:            uuid.New(),
		AccountID:     accountID,
		TransactionID: txn.ID,
		Type:          EntryDebit,
		Amount:        amount,
		CreatedAt:     txn.CreatedAt,
	})
	e.recordTransaction(txn)
	return txn, nil
}

func (e *inMemoryEngine) Transfer(_ context.Context, sourceID, destinationID uuid.UUID, amount decimal.Decimal, description string) (Transaction, error) {
	if sourceID == destinationID {
		return Transaction{}, ErrSameAccount
	}
	if amount.Sign() <= 0 {
		return Transaction{}, ErrInvalidAmount
	}

	source, err := e.activeAccount(sourceID)
	if err != nil {
		return Transaction{}, err
	}
	destination, err := e.activeAccount(destinationID)
	if err != nil {
		return Transaction{}, err
	}

	firstID, _ := LockOrder(sourceID, destinationID)
	first, second := source, destination
	if firstID != sourceID {
		first, second = destination, source
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if source.currency != destination.currency {
		return Transaction{}, ErrCurrencyMismatch
	}
	if sumEntries(source.entries).LessThan(amount) {
		return Transaction{}, ErrInsufficientFunds
	}

	txn := Transaction{
		ID:                   uuid.New(),
		Type:                 TypeTransfer,
		SourceAccountID:      uuid.NullUUID{UUID: sourceID, Valid: true},
		DestinationAccountID: uuid.NullUUID{UUID: destinationID, Valid: true},
		Amount:               amount,
		Currency:             source.currency,
		Status:               StatusCompleted,
		Description:          optional(description),
		CreatedAt:            now(),
	}
	source.entries = append(source.entries, Entry{
		ID:            uuid.New(),
		AccountID:     sourceID,
		TransactionID: txn.ID,
		Type:          EntryDebit,
		Amount:        amount,
		CreatedAt:     txn.CreatedAt,
	})
	destination.entries = append(destination.entries, Entry{
		ID:            uuid.New(),
		AccountID:     destinationID,
		TransactionID: txn.ID,
		Type:          EntryCredit,
		Amount:        amount,
		CreatedAt:     txn.CreatedAt,
	})
	e.recordTransaction(txn)
	return txn, nil
}

func (e *inMemoryEngine) Balance(_ context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	e.mu.RLock()
	acct, ok := e.accounts[accountID]
	e.mu.RUnlock()
	if !ok {
		// No entries means a zero balance, matching SUM over an empty set.
		return decimal.Zero, nil
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	return sumEntries(acct.entries), nil
}

func (e *inMemoryEngine) Entries(_ context.Context, accountID uuid.UUID) ([]Entry, error) {
	e.mu.RLock()
	acct, ok := e.accounts[accountID]
	e.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	entries := make([]Entry, len(acct.entries))
	copy(entries, acct.entries)
	return entries, nil
}

// activeAccount resolves the account without taking its posting lock. Status
// is immutable once seeded in this implementation, so checking it before the
// lock is equivalent to the Postgres status filter.
func (e *inMemoryEngine) activeAccount(id uuid.UUID) (*memoryAccount, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	acct, ok := e.accounts[id]
	if !ok || acct.status != AccountStatusActive {
		return nil, ErrAccountNotFound
	}
	return acct, nil
}

// recordTransaction is called while holding the affected account locks.
// Every operation acquires account locks before the engine lock, so the
// ordering is acyclic.
func (e *inMemoryEngine) recordTransaction(txn Transaction) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transactions[txn.ID] = txn
}
