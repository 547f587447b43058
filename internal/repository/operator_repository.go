package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
)

const operatorColumns = `id::text, email, name, password_hash, role, is_active, created_at`

// PostgresOperatorRepository implements domain.OperatorRepository using PostgreSQL
type PostgresOperatorRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresOperatorRepository creates a new operator repository
func NewPostgresOperatorRepository(db *sql.DB, logger *slog.Logger) *PostgresOperatorRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresOperatorRepository{db: db, logger: logger}
}

func scanOperator(s rowScanner) (*domain.Operator, error) {
	op := &domain.Operator{}
	var role string
	if err := s.Scan(&op.ID, &op.Email, &op.Name, &op.PasswordHash, &role, &op.IsActive, &op.CreatedAt); err != nil {
		return nil, err
	}
	op.Role = domain.Role(role)
	return op, nil
}

// Create creates a new operator
func (r *PostgresOperatorRepository) Create(ctx context.Context, op *domain.Operator) error {
	query := `
		INSERT INTO operators (email, name, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id::text, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		strings.ToLower(op.Email), op.Name, op.PasswordHash, string(op.Role), op.IsActive,
	).Scan(&op.ID, &op.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Conflictf("operator %s already exists", op.Email)
		}
		r.logger.Error("failed to create operator",
			slog.String("email", op.Email),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create operator: %w", err)
	}
	return nil
}

// GetByEmail retrieves an active operator by email
func (r *PostgresOperatorRepository) GetByEmail(ctx context.Context, email string) (*domain.Operator, error) {
	op, err := scanOperator(r.db.QueryRowContext(ctx,
		`SELECT `+operatorColumns+` FROM operators WHERE email = $1 AND is_active = true`,
		strings.ToLower(email),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("operator not found")
		}
		return nil, fmt.Errorf("failed to get operator by email: %w", err)
	}
	return op, nil
}

// GetByID retrieves an operator by ID
func (r *PostgresOperatorRepository) GetByID(ctx context.Context, id string) (*domain.Operator, error) {
	op, err := scanOperator(r.db.QueryRowContext(ctx,
		`SELECT `+operatorColumns+` FROM operators WHERE id::text = $1`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("operator not found")
		}
		r.logger.Error("failed to get operator by id",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to get operator: %w", err)
	}
	return op, nil
}

// UpdatePassword replaces the stored password hash
func (r *PostgresOperatorRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE operators SET password_hash = $1 WHERE id::text = $2`, passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update operator password: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.NotFoundf("operator not found")
	}
	return nil
}
