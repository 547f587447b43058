package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
)

const rentSelect = `
	SELECT r.id, r.tenant_id, COALESCE(t.full_name, ''), COALESCE(t.room_number, ''),
		r.billing_month, r.due_amount, r.paid_amount, r.status, r.account_id,
		COALESCE(a.name, ''), r.transaction_at, r.created_at, r.updated_at
	FROM rent_records r
	LEFT JOIN tenants t ON t.id = r.tenant_id
	LEFT JOIN accounts a ON a.id = r.account_id`

// PostgresRentRepository implements domain.RentRepository using PostgreSQL
type PostgresRentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRentRepository creates a new rent record repository
func NewPostgresRentRepository(db *sql.DB, logger *slog.Logger) *PostgresRentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRentRepository{db: db, logger: logger}
}

func scanRent(s rowScanner) (*domain.RentRecord, error) {
	rec := &domain.RentRecord{}
	var (
		account sql.NullInt64
		txAt    sql.NullTime
		status  string
	)
	err := s.Scan(
		&rec.ID, &rec.TenantID, &rec.TenantName, &rec.RoomNumber,
		&rec.BillingMonth, &rec.DueAmount, &rec.PaidAmount, &status, &account,
		&rec.AccountName, &txAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Status = domain.PaymentStatus(status)
	rec.AccountID = idPtr(account)
	if txAt.Valid {
		at := txAt.Time.UTC()
		rec.TransactionAt = &at
	}
	return rec, nil
}

func (r *PostgresRentRepository) query(ctx context.Context, query string, args ...any) ([]domain.RentRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rent records: %w", err)
	}
	defer rows.Close()

	out := []domain.RentRecord{}
	for rows.Next() {
		rec, err := scanRent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rent record: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// ListDue returns records with an outstanding balance whose billing month is in
// [from, to]. A zero bound is unbounded.
func (r *PostgresRentRepository) ListDue(ctx context.Context, from, to domain.Date) ([]domain.RentRecord, error) {
	return r.query(ctx, rentSelect+`
		WHERE r.paid_amount < r.due_amount
			AND ($1::date IS NULL OR r.billing_month >= $1::date)
			AND ($2::date IS NULL OR r.billing_month <= $2::date)
		ORDER BY r.billing_month DESC, r.id`, from, to)
}

// ListCollected returns records with money collected on a UTC date in [from, to]
func (r *PostgresRentRepository) ListCollected(ctx context.Context, from, to domain.Date) ([]domain.RentRecord, error) {
	return r.query(ctx, rentSelect+`
		WHERE r.paid_amount > 0 AND r.transaction_at IS NOT NULL
			AND ($1::date IS NULL OR (r.transaction_at AT TIME ZONE 'UTC')::date >= $1::date)
			AND ($2::date IS NULL OR (r.transaction_at AT TIME ZONE 'UTC')::date <= $2::date)
		ORDER BY r.transaction_at DESC, r.id`, from, to)
}

// Get retrieves a rent record by ID
func (r *PostgresRentRepository) Get(ctx context.Context, id int64) (*domain.RentRecord, error) {
	rec, err := scanRent(r.db.QueryRowContext(ctx, rentSelect+` WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("rent record %d not found", id)
		}
		return nil, fmt.Errorf("failed to get rent record: %w", err)
	}
	return rec, nil
}

// FindByTenantMonth returns the record of a tenant for a billing month
func (r *PostgresRentRepository) FindByTenantMonth(ctx context.Context, tenantID int64, billingMonth domain.Date) (*domain.RentRecord, error) {
	rec, err := scanRent(r.db.QueryRowContext(ctx,
		rentSelect+` WHERE r.tenant_id = $1 AND r.billing_month = $2`,
		tenantID, billingMonth.FirstOfMonth(),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("no rent record for tenant %d in %s", tenantID, billingMonth.FirstOfMonth())
		}
		return nil, fmt.Errorf("failed to find rent record: %w", err)
	}
	return rec, nil
}

// Create inserts the record, replacing the amounts of an existing record for the
// same tenant and billing month.
func (r *PostgresRentRepository) Create(ctx context.Context, rec *domain.RentRecord) error {
	query := `
		INSERT INTO rent_records (tenant_id, billing_month, due_amount, paid_amount, status, account_id, transaction_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tenant_id, billing_month) DO UPDATE SET
			due_amount = EXCLUDED.due_amount,
			paid_amount = EXCLUDED.paid_amount,
			status = EXCLUDED.status,
			account_id = EXCLUDED.account_id,
			transaction_at = EXCLUDED.transaction_at,
			updated_at = now()
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		rec.TenantID, rec.BillingMonth.FirstOfMonth(), rec.DueAmount, rec.PaidAmount,
		string(rec.Status), nullableID(rec.AccountID), rec.TransactionAt,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to upsert rent record",
			slog.Int64("tenant_id", rec.TenantID),
			slog.String("billing_month", rec.BillingMonth.String()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create rent record: %w", err)
	}
	rec.BillingMonth = rec.BillingMonth.FirstOfMonth()
	return nil
}

// Update applies a proposed mutation and returns the stored record
func (r *PostgresRentRepository) Update(ctx context.Context, id int64, u domain.RentUpdate) (*domain.RentRecord, error) {
	query := `
		WITH r AS (
			UPDATE rent_records SET due_amount = $2, paid_amount = $3, status = $4,
				account_id = $5, transaction_at = $6, updated_at = now()
			WHERE id = $1
			RETURNING *
		)
		SELECT r.id, r.tenant_id, COALESCE(t.full_name, ''), COALESCE(t.room_number, ''),
			r.billing_month, r.due_amount, r.paid_amount, r.status, r.account_id,
			COALESCE(a.name, ''), r.transaction_at, r.created_at, r.updated_at
		FROM r
		LEFT JOIN tenants t ON t.id = r.tenant_id
		LEFT JOIN accounts a ON a.id = r.account_id
	`
	rec, err := scanRent(r.db.QueryRowContext(ctx, query,
		id, u.DueAmount, u.PaidAmount, string(u.Status), nullableID(u.AccountID), u.TransactionAt,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("rent record %d not found", id)
		}
		return nil, fmt.Errorf("failed to update rent record: %w", err)
	}
	return rec, nil
}

// Delete removes a rent record
func (r *PostgresRentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rent_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rent record: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.NotFoundf("rent record %d not found", id)
	}
	return nil
}
