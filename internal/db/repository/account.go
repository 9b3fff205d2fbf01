// Package repository provides database operations for the metrics scheduler.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reel-tracker/metrics-scheduler-go/internal/db"
	"github.com/reel-tracker/metrics-scheduler-go/internal/db/models"
)

// AccountRepository defines operations for managing tracked accounts.
type AccountRepository interface {
	// UpsertAccount creates a new account or updates an existing one.
	UpsertAccount(ctx context.Context, account *models.Account) error

	// GetAccountByID retrieves a single account by its platform ID.
	GetAccountByID(ctx context.Context, id int64) (*models.Account, error)

	// ListAccounts retrieves all tracked accounts.
	ListAccounts(ctx context.Context) ([]*models.Account, error)
}

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

func (r *accountRepository) UpsertAccount(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, username, profile_url, follower_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username,
		    profile_url = EXCLUDED.profile_url,
		    follower_count = EXCLUDED.follower_count,
		    updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		account.ID,
		account.Username,
		account.ProfileURL,
		account.FollowerCount,
		account.CreatedAt,
		account.UpdatedAt,
	).Scan(&account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		return db.WrapError(err, "upsert account")
	}

	return nil
}

func (r *accountRepository) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `
		SELECT id, username, profile_url, follower_count, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	account := &models.Account{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&account.ID,
		&account.Username,
		&account.ProfileURL,
		&account.FollowerCount,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		return nil, db.WrapError(err, "get account by id")
	}

	return account, nil
}

func (r *accountRepository) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	query := `
		SELECT id, username, profile_url, follower_count, created_at, updated_at
		FROM accounts
		ORDER BY username
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, db.WrapError(err, "list accounts")
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account := &models.Account{}
		err := rows.Scan(
			&account.ID,
			&account.Username,
			&account.ProfileURL,
			&account.FollowerCount,
			&account.CreatedAt,
			&account.UpdatedAt,
		)
		if err != nil {
			return nil, db.WrapError(err, "scan account")
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate accounts")
	}

	return accounts, nil
}
