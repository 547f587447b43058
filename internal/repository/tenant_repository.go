package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
)

const tenantColumns = `id, full_name, phone_number, room_number, joining_date, checkout_date,
	emergency_contact_number, emergency_contact_relationship, active, daily_accommodation,
	rent, rent_paid_amount, rent_due_amount, deposit, deposit_paid_amount, payment_status,
	joining_collection_account_id, last_due_generated_for,
	daily_collection_amount, daily_collection_account_id, daily_collection_transaction_date,
	daily_food_option, daily_stay_days, created_at, updated_at`

// PostgresTenantRepository implements domain.TenantRepository using PostgreSQL.
// Both billing variants share one row; the inactive variant's columns are zeroed.
type PostgresTenantRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresTenantRepository creates a new tenant repository
func NewPostgresTenantRepository(db *sql.DB, logger *slog.Logger) *PostgresTenantRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTenantRepository{db: db, logger: logger}
}

// tenantRow is the flat column layout of the tenants table
type tenantRow struct {
	billingMonthly tenantMonthlyCols
	billingDaily   tenantDailyCols
	daily          bool
}

type tenantMonthlyCols struct {
	rent, rentPaid, rentDue, deposit, depositPaid decimal.Decimal
	status                                        string
	joiningAccount                                sql.NullInt64
	lastDue                                       domain.Date
}

type tenantDailyCols struct {
	amount     decimal.Decimal
	account    sql.NullInt64
	txDate     domain.Date
	foodOption string
	stayDays   int
}

func scanTenant(s rowScanner) (*domain.Tenant, error) {
	t := &domain.Tenant{}
	var row tenantRow
	err := s.Scan(
		&t.ID, &t.FullName, &t.PhoneNumber, &t.RoomNumber, &t.JoiningDate, &t.CheckoutDate,
		&t.EmergencyContactNumber, &t.EmergencyContactRelationship, &t.Active, &row.daily,
		&row.billingMonthly.rent, &row.billingMonthly.rentPaid, &row.billingMonthly.rentDue,
		&row.billingMonthly.deposit, &row.billingMonthly.depositPaid, &row.billingMonthly.status,
		&row.billingMonthly.joiningAccount, &row.billingMonthly.lastDue,
		&row.billingDaily.amount, &row.billingDaily.account, &row.billingDaily.txDate,
		&row.billingDaily.foodOption, &row.billingDaily.stayDays,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if row.daily {
		t.Billing = &domain.DailyBilling{
			CollectionAmount:    row.billingDaily.amount,
			CollectionAccountID: idPtr(row.billingDaily.account),
			TransactionDate:     row.billingDaily.txDate,
			FoodOption:          domain.FoodOption(row.billingDaily.foodOption),
			StayDays:            row.billingDaily.stayDays,
		}
	} else {
		m := row.billingMonthly
		t.Billing = &domain.MonthlyBilling{
			Rent:                       m.rent,
			RentPaidAmount:             m.rentPaid,
			RentDueAmount:              m.rentDue,
			Deposit:                    m.deposit,
			DepositPaidAmount:          m.depositPaid,
			PaymentStatus:              domain.PaymentStatus(m.status),
			JoiningCollectionAccountID: idPtr(m.joiningAccount),
			LastDueGeneratedFor:        m.lastDue,
		}
	}
	return t, nil
}

// tenantArgs flattens the tenant into columns 2..23 of tenantColumns
func tenantArgs(t *domain.Tenant) []any {
	var (
		daily   bool
		monthly domain.MonthlyBilling
		d       domain.DailyBilling
	)
	switch b := t.Billing.(type) {
	case *domain.MonthlyBilling:
		monthly = *b
	case *domain.DailyBilling:
		daily = true
		d = *b
	}
	status := string(monthly.PaymentStatus)
	if daily {
		status = string(domain.StatusOnTime)
	} else if status == "" {
		status = string(domain.StatusDue)
	}
	return []any{
		t.FullName, t.PhoneNumber, t.RoomNumber, t.JoiningDate, t.CheckoutDate,
		t.EmergencyContactNumber, t.EmergencyContactRelationship, t.Active, daily,
		monthly.Rent, monthly.RentPaidAmount, monthly.RentDueAmount, monthly.Deposit, monthly.DepositPaidAmount, status,
		nullableID(monthly.JoiningCollectionAccountID), monthly.LastDueGeneratedFor,
		d.CollectionAmount, nullableID(d.CollectionAccountID), d.TransactionDate, string(d.FoodOption), d.StayDays,
	}
}

func (r *PostgresTenantRepository) list(ctx context.Context, where string) ([]domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants ` + where + ` ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	out := []domain.Tenant{}
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// ListActive returns active monthly tenants, newest first
func (r *PostgresTenantRepository) ListActive(ctx context.Context) ([]domain.Tenant, error) {
	return r.list(ctx, `WHERE active = true AND daily_accommodation = false`)
}

// ListAll returns every tenant including inactive ones
func (r *PostgresTenantRepository) ListAll(ctx context.Context) ([]domain.Tenant, error) {
	return r.list(ctx, ``)
}

// ListDaily returns active daily-accommodation tenants
func (r *PostgresTenantRepository) ListDaily(ctx context.Context) ([]domain.Tenant, error) {
	return r.list(ctx, `WHERE active = true AND daily_accommodation = true`)
}

// Get retrieves a tenant by ID
func (r *PostgresTenantRepository) Get(ctx context.Context, id int64) (*domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	t, err := scanTenant(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("tenant %d not found", id)
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return t, nil
}

// Create inserts a tenant and fills its id and timestamps
func (r *PostgresTenantRepository) Create(ctx context.Context, t *domain.Tenant) error {
	query := `
		INSERT INTO tenants (full_name, phone_number, room_number, joining_date, checkout_date,
			emergency_contact_number, emergency_contact_relationship, active, daily_accommodation,
			rent, rent_paid_amount, rent_due_amount, deposit, deposit_paid_amount, payment_status,
			joining_collection_account_id, last_due_generated_for,
			daily_collection_amount, daily_collection_account_id, daily_collection_transaction_date,
			daily_food_option, daily_stay_days)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, tenantArgs(t)...).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create tenant",
			slog.String("full_name", t.FullName),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

// Update replaces every column of an existing tenant
func (r *PostgresTenantRepository) Update(ctx context.Context, t *domain.Tenant) error {
	query := `
		UPDATE tenants SET full_name = $1, phone_number = $2, room_number = $3, joining_date = $4,
			checkout_date = $5, emergency_contact_number = $6, emergency_contact_relationship = $7,
			active = $8, daily_accommodation = $9, rent = $10, rent_paid_amount = $11,
			rent_due_amount = $12, deposit = $13, deposit_paid_amount = $14, payment_status = $15,
			joining_collection_account_id = $16, last_due_generated_for = $17,
			daily_collection_amount = $18, daily_collection_account_id = $19,
			daily_collection_transaction_date = $20, daily_food_option = $21, daily_stay_days = $22,
			updated_at = now()
		WHERE id = $23
		RETURNING created_at, updated_at
	`
	args := append(tenantArgs(t), t.ID)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFoundf("tenant %d not found", t.ID)
		}
		return fmt.Errorf("failed to update tenant: %w", err)
	}
	return nil
}

// Delete soft-deletes a tenant (sets active=false); rent history keeps its foreign key
func (r *PostgresTenantRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tenants SET active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.NotFoundf("tenant %d not found", id)
	}
	return nil
}

// Checkout deactivates the tenant with the given checkout date
func (r *PostgresTenantRepository) Checkout(ctx context.Context, id int64, on domain.Date) (*domain.Tenant, error) {
	query := `
		UPDATE tenants SET active = false, checkout_date = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + tenantColumns
	t, err := scanTenant(r.db.QueryRowContext(ctx, query, id, on))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("tenant %d not found", id)
		}
		return nil, fmt.Errorf("failed to checkout tenant: %w", err)
	}
	return t, nil
}

// ClearDailyCollection zeroes a daily tenant's collection fields
func (r *PostgresTenantRepository) ClearDailyCollection(ctx context.Context, id int64) (*domain.Tenant, error) {
	query := `
		UPDATE tenants SET daily_collection_amount = 0, daily_collection_account_id = NULL,
			daily_collection_transaction_date = NULL, updated_at = now()
		WHERE id = $1 AND daily_accommodation = true
		RETURNING ` + tenantColumns
	t, err := scanTenant(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("daily tenant %d not found", id)
		}
		return nil, fmt.Errorf("failed to clear daily collection: %w", err)
	}
	return t, nil
}

// ExistsActiveName reports whether another active tenant already uses fullName (case-insensitive)
func (r *PostgresTenantRepository) ExistsActiveName(ctx context.Context, fullName string, excludeID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM tenants WHERE active = true AND lower(full_name) = lower($1) AND id <> $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, fullName, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check tenant name: %w", err)
	}
	return exists, nil
}

// MarkDueGenerated records the cycle date of the last auto-generated due record
func (r *PostgresTenantRepository) MarkDueGenerated(ctx context.Context, id int64, on domain.Date) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tenants SET last_due_generated_for = $2, updated_at = now() WHERE id = $1`,
		id, on,
	)
	if err != nil {
		return fmt.Errorf("failed to mark due generation: %w", err)
	}
	return nil
}
