package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// migrations run in order inside one transaction; every statement is idempotent
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		mode       TEXT NOT NULL DEFAULT 'OTHER',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS rooms (
		id           BIGSERIAL PRIMARY KEY,
		room_number  TEXT NOT NULL UNIQUE,
		bed_capacity INTEGER NOT NULL CHECK (bed_capacity >= 1),
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS tenants (
		id                                BIGSERIAL PRIMARY KEY,
		full_name                         TEXT NOT NULL,
		phone_number                      TEXT NOT NULL DEFAULT '',
		room_number                       TEXT NOT NULL DEFAULT '',
		joining_date                      DATE,
		checkout_date                     DATE,
		emergency_contact_number          TEXT NOT NULL DEFAULT '',
		emergency_contact_relationship    TEXT NOT NULL DEFAULT '',
		active                            BOOLEAN NOT NULL DEFAULT TRUE,
		daily_accommodation               BOOLEAN NOT NULL DEFAULT FALSE,
		rent                              NUMERIC(12,2) NOT NULL DEFAULT 0,
		rent_paid_amount                  NUMERIC(12,2) NOT NULL DEFAULT 0,
		rent_due_amount                   NUMERIC(12,2) NOT NULL DEFAULT 0,
		deposit                           NUMERIC(12,2) NOT NULL DEFAULT 0,
		deposit_paid_amount               NUMERIC(12,2) NOT NULL DEFAULT 0,
		payment_status                    TEXT NOT NULL DEFAULT 'DUE',
		joining_collection_account_id     BIGINT REFERENCES accounts(id) ON DELETE SET NULL,
		last_due_generated_for            DATE,
		daily_collection_amount           NUMERIC(12,2) NOT NULL DEFAULT 0,
		daily_collection_account_id       BIGINT REFERENCES accounts(id) ON DELETE SET NULL,
		daily_collection_transaction_date DATE,
		daily_food_option                 TEXT NOT NULL DEFAULT '',
		daily_stay_days                   INTEGER NOT NULL DEFAULT 0,
		created_at                        TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at                        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tenants_active ON tenants (active, daily_accommodation)`,
	`CREATE TABLE IF NOT EXISTS rent_records (
		id             BIGSERIAL PRIMARY KEY,
		tenant_id      BIGINT NOT NULL REFERENCES tenants(id),
		billing_month  DATE NOT NULL,
		due_amount     NUMERIC(12,2) NOT NULL DEFAULT 0,
		paid_amount    NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (paid_amount <= due_amount),
		status         TEXT NOT NULL DEFAULT 'DUE',
		account_id     BIGINT REFERENCES accounts(id) ON DELETE SET NULL,
		transaction_at TIMESTAMPTZ,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (tenant_id, billing_month)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rent_records_transaction_at ON rent_records (transaction_at)`,
	`CREATE TABLE IF NOT EXISTS operators (
		id            BIGSERIAL PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		name          TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'viewer',
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate creates the schema when missing
func Migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range migrations {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	logger.Info("database schema ready", slog.Int("statements", len(migrations)))
	return nil
}
