package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SeedAccount is a test helper that registers an account with the in-memory
// engine. Production accounts are created by the account repository against
// the same database the Postgres engine reads.
func SeedAccount(e Engine, id uuid.UUID, currency, status string) {
	if mem, ok := e.(*inMemoryEngine); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.accounts[id] = &memoryAccount{currency: currency, status: status}
	}
}

// TransactionCount is a test helper reporting how many transactions the
// in-memory engine has committed.
func TransactionCount(e Engine) int {
	mem, ok := e.(*inMemoryEngine)
	if !ok {
		return 0
	}
	mem.mu.RLock()
	defer mem.mu.RUnlock()
	return len(mem.transactions)
}

// SeedBalance is a test helper that gives an in-memory account an opening
// balance by appending a synthetic credit entry, so derived balances still
// agree with the entry log.
func SeedBalance(e Engine, id uuid.UUID, amount decimal.Decimal) {
	mem, ok := e.(*inMemoryEngine)
	if !ok {
		return
	}
	mem.mu.RLock()
	acct, found := mem.accounts[id]
	mem.mu.RUnlock()
	if !found {
		return
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	acct.entries = append(acct.entries, Entry{
		ID:            uuid.New(),
		AccountID:     id,
		TransactionID: uuid.New(),
		Type:          EntryCredit,
		Amount:        amount,
		CreatedAt:     now(),
	})
}
