package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the requested account does not exist.
var ErrNotFound = errors.New("account not found")

// Repository persists account metadata. The posting engine reads the same
// rows with exclusive locks; this repository never touches ledger entries.
type Repository interface {
	Create(ctx context.Context, acct Account) error
	Get(ctx context.Context, id string) (Account, error)
}

// PostgresRepository stores accounts in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts an account row.
func (r *PostgresRepository) Create(ctx context.Context, acct Account) error {
	id, err := uuid.Parse(acct.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO accounts (id, user_id, account_type, currency, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		id, acct.UserID, acct.AccountType, acct.Currency, acct.Status, acct.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// Get fetches account metadata by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Account, error) {
	acctID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, user_id, account_type, currency, status, created_at
        FROM accounts WHERE id = $1`, acctID)
	var acct Account
	var rowID uuid.UUID
	var createdAt time.Time
	if err := row.Scan(&rowID, &acct.UserID, &acct.AccountType, &acct.Currency, &acct.Status, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, fmt.Errorf("select account: %w", err)
	}
	acct.ID = rowID.String()
	acct.CreatedAt = createdAt.UTC()
	return acct, nil
}
