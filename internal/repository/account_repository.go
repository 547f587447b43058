package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
)

// PostgresAccountRepository implements domain.AccountRepository using PostgreSQL
type PostgresAccountRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresAccountRepository creates a new account repository
func NewPostgresAccountRepository(db *sql.DB, logger *slog.Logger) *PostgresAccountRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAccountRepository{db: db, logger: logger}
}

// List returns all accounts ordered by id
func (r *PostgresAccountRepository) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, mode FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		var (
			a    domain.Account
			mode string
		)
		if err := rows.Scan(&a.ID, &a.Name, &mode); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		a.Mode = domain.AccountMode(mode)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Get retrieves an account by ID
func (r *PostgresAccountRepository) Get(ctx context.Context, id int64) (*domain.Account, error) {
	var (
		a    domain.Account
		mode string
	)
	err := r.db.QueryRowContext(ctx, `SELECT id, name, mode FROM accounts WHERE id = $1`, id).
		Scan(&a.ID, &a.Name, &mode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("account %d not found", id)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	a.Mode = domain.AccountMode(mode)
	return &a, nil
}

// Save inserts an account when its ID is zero, otherwise updates it
func (r *PostgresAccountRepository) Save(ctx context.Context, a *domain.Account) error {
	var err error
	if a.ID == 0 {
		err = r.db.QueryRowContext(ctx,
			`INSERT INTO accounts (name, mode) VALUES ($1, $2) RETURNING id`,
			a.Name, string(a.Mode),
		).Scan(&a.ID)
	} else {
		var id int64
		err = r.db.QueryRowContext(ctx,
			`UPDATE accounts SET name = $1, mode = $2 WHERE id = $3 RETURNING id`,
			a.Name, string(a.Mode), a.ID,
		).Scan(&id)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFoundf("account %d not found", a.ID)
		}
		r.logger.Error("failed to save account",
			slog.String("name", a.Name),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

// Delete removes an account. Tagged records keep their amounts and lose the tag.
func (r *PostgresAccountRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.NotFoundf("account %d not found", id)
	}
	return nil
}
