package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresEngine persists postings in PostgreSQL. Every operation runs inside
// a single database transaction: account rows are locked with FOR UPDATE, the
// balance is derived under that lock, and the transaction record plus its
// entries are written before commit.
type PostgresEngine struct {
	db *pgxpool.Pool
}

// NewPostgresEngine constructs a Postgres-backed posting engine.
func NewPostgresEngine(db *pgxpool.Pool) *PostgresEngine {
	return &PostgresEngine{db: db}
}

type lockedAccount struct {
	id       uuid.UUID
	currency string
}

// Deposit credits an account with the given amount.
func (e *PostgresEngine) Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (Transaction, error) {
	if amount.Sign() <= 0 {
		return Transaction{}, ErrInvalidAmount
	}

	tx, err := e.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, fmt.Errorf("begin deposit: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	acct, err := lockAccount(ctx, tx, accountID)
	if err != nil {
		return Transaction{}, err
	}

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
	if err := insertTransaction(ctx, tx, txn); err != nil {
		return Transaction{}, err
	}
	if err := insertEntry(ctx, tx, Entry{
		ID:            uuid.New(),
		AccountID:     accountID,
		TransactionID: txn.ID,
		Type:          EntryCredit,
		Amount:        amount,
		CreatedAt:     txn.CreatedAt,
	}); err != nil {
		return Transaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, fmt.Errorf("commit deposit: %w", err)
	}
	return txn, nil
}

// Withdraw debits an account. The balance is derived under the row lock so
// two concurrent withdrawals cannot both observe the same pre-balance and
// jointly overdraw the account.
func (e *PostgresEngine) Withdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (Transaction, error) {
	if amount.Sign() <= 0 {
		return Transaction{}, ErrInvalidAmount
	}

	tx, err := e.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, fmt.Errorf("begin withdrawal: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	acct, err := lockAccount(ctx, tx, accountID)
	if err != nil {
		return Transaction{}, err
	}

	balance, err := balanceForAccount(ctx, tx, accountID)
	if err != nil {
		return Transaction{}, err
	}
	if balance.LessThan(amount) {
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
	if err := insertTransaction(ctx, tx, txn); err != nil {
		return Transaction{}, err
	}
	if err := insertEntry(ctx, tx, Entry{
		ID:            uuid.New(),
		AccountID:     accountID,
		TransactionID: txn.ID,
		Type:          EntryDebit,
		Amount:        amount,
		CreatedAt:     txn.CreatedAt,
	}); err != nil {
		return Transaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, fmt.Errorf("commit withdrawal: %w", err)
	}
	return txn, nil
}

// Transfer moves funds between two accounts as one balanced posting: a DEBIT
// on the source and a CREDIT on the destination, owned by a single
// transaction record. Both rows are locked by one statement in ascending id
// order.
func (e *PostgresEngine) Transfer(ctx context.Context, sourceID, destinationID uuid.UUID, amount decimal.Decimal, description string) (Transaction, error) {
	if sourceID == destinationID {
		return Transaction{}, ErrSameAccount
	}
	if amount.Sign() <= 0 {
		return Transaction{}, ErrInvalidAmount
	}

	tx, err := e.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, fmt.Errorf("begin transfer: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	accounts, err := lockAccountPair(ctx, tx, sourceID, destinationID)
	if err != nil {
		return Transaction{}, err
	}
	source, destination := accounts[sourceID], accounts[destinationID]

	if source.currency != destination.currency {
		return Transaction{}, ErrCurrencyMismatch
	}

	balance, err := balanceForAccount(ctx, tx, sourceID)
	if err != nil {
		return Transaction{}, err
	}
	if balance.LessThan(amount) {
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
	if err := insertTransaction(ctx, tx, txn); err != nil {
		return Transaction{}, err
	}
	if err := insertEntry(ctx, tx, Entry{
		ID:            uuid.New(),
		AccountID:     sourceID,
		TransactionID: txn.ID,
		Type:          EntryDebit,
		Amount:        amount,
		CreatedAt:     txn.CreatedAt,
	}); err != nil {
		return Transaction{}, err
	}
	if err := insertEntry(ctx, tx, Entry{
		ID:            uuid.New(),
		AccountID:     destinationID,
		TransactionID: txn.ID,
		Type:          EntryCredit,
		Amount:        amount,
		CreatedAt:     txn.CreatedAt,
	}); err != nil {
		return Transaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, fmt.Errorf("commit transfer: %w", err)
	}
	return txn, nil
}

// Balance returns the summed signed entry amounts for the account. Reads
// outside any posting run against the pool directly.
func (e *PostgresEngine) Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	return balanceForAccount(ctx, e.db, accountID)
}

// Entries lists the account's ledger entries in creation order.
func (e *PostgresEngine) Entries(ctx context.Context, accountID uuid.UUID) ([]Entry, error) {
	const query = `
        SELECT id, account_id, transaction_id, entry_type, amount::text, created_at
        FROM ledger_entries
        WHERE account_id = $1
        ORDER BY created_at ASC`
	rows, err := e.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var amount string
		if err := rows.Scan(&entry.ID, &entry.AccountID, &entry.TransactionID, &entry.Type, &amount, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entry.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse entry amount: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

func lockAccount(ctx context.Context, tx pgx.Tx, id uuid.UUID) (lockedAccount, error) {
	const query = `SELECT id, currency FROM accounts WHERE id = $1 AND status = 'ACTIVE' FOR UPDATE`
	var acct lockedAccount
	if err := tx.QueryRow(ctx, query, id).Scan(&acct.id, &acct.currency); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return lockedAccount{}, ErrAccountNotFound
		}
		return lockedAccount{}, fmt.Errorf("lock account: %w", err)
	}
	return acct, nil
}

// lockAccountPair locks both rows with a single ORDER BY id FOR UPDATE
// statement so concurrent transfers over the same pair acquire locks in the
// same order regardless of direction.
func lockAccountPair(ctx context.Context, tx pgx.Tx, a, b uuid.UUID) (map[uuid.UUID]lockedAccount, error) {
	const query = `
        SELECT id, currency FROM accounts
        WHERE id IN ($1, $2) AND status = 'ACTIVE'
        ORDER BY id
        FOR UPDATE`
	rows, err := tx.Query(ctx, query, a, b)
	if err != nil {
		return nil, fmt.Errorf("lock accounts: %w", err)
	}
	defer rows.Close()

	accounts := make(map[uuid.UUID]lockedAccount, 2)
	for rows.Next() {
		var acct lockedAccount
		if err := rows.Scan(&acct.id, &acct.currency); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts[acct.id] = acct
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lock accounts: %w", err)
	}
	if len(accounts) != 2 {
		return nil, ErrAccountNotFound
	}
	return accounts, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func balanceForAccount(ctx context.Context, q rowQuerier, accountID uuid.UUID) (decimal.Decimal, error) {
	const query = `
        SELECT COALESCE(SUM(CASE WHEN entry_type = 'CREDIT' THEN amount ELSE -amount END), 0)::text
        FROM ledger_entries
        WHERE account_id = $1`
	var balance string
	if err := q.QueryRow(ctx, query, accountID).Scan(&balance); err != nil {
		return decimal.Zero, fmt.Errorf("derive balance: %w", err)
	}
	value, err := decimal.NewFromString(balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse balance: %w", err)
	}
	return value, nil
}

func insertTransaction(ctx context.Context, tx pgx.Tx, txn Transaction) error {
	const query = `
        INSERT INTO transactions (id, type, source_account_id, destination_account_id, amount, currency, status, description, created_at)
        VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9)`
	_, err := tx.Exec(ctx, query,
		txn.ID, txn.Type, txn.SourceAccountID, txn.DestinationAccountID,
		txn.Amount.String(), txn.Currency, txn.Status, txn.Description, txn.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func insertEntry(ctx context.Context, tx pgx.Tx, entry Entry) error {
	const query = `
        INSERT INTO ledger_entries (id, account_id, transaction_id, entry_type, amount, created_at)
        VALUES ($1, $2, $3, $4, $5::numeric, $6)`
	_, err := tx.Exec(ctx, query,
		entry.ID, entry.AccountID, entry.TransactionID, entry.Type, entry.Amount.String(), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}
