package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/pgledger/internal/billing"
	"github.com/aryan0dhankhar/pgledger/internal/domain"
	"github.com/aryan0dhankhar/pgledger/internal/history"
)

// TenantService handles tenant onboarding, edits, deletion and checkout
type TenantService struct {
	tenants domain.TenantRepository
	rents   domain.RentRepository
	history history.Store
	clock   domain.Clock
	logger  *slog.Logger
}

// NewTenantService creates a new tenant service
func NewTenantService(
	tenants domain.TenantRepository,
	rents domain.RentRepository,
	hist history.Store,
	clock domain.Clock,
	logger *slog.Logger,
) *TenantService {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &TenantService{tenants: tenants, rents: rents, history: hist, clock: clock, logger: logger}
}

func (s *TenantService) today() domain.Date {
	return domain.DateOf(s.clock.Now())
}

// ListActive returns active monthly tenants
func (s *TenantService) ListActive(ctx context.Context) ([]domain.Tenant, error) {
	return s.tenants.ListActive(ctx)
}

// ListDaily returns active daily-accommodation tenants
func (s *TenantService) ListDaily(ctx context.Context) ([]domain.Tenant, error) {
	return s.tenants.ListDaily(ctx)
}

// ListAll returns active tenants of both models, or with includeInactive every
// tenant ever seen including deleted ones kept in history.
func (s *TenantService) ListAll(ctx context.Context, includeInactive bool) ([]domain.Tenant, error) {
	if includeInactive {
		return s.Universe(ctx)
	}
	all, err := s.tenants.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]domain.Tenant, 0, len(all))
	for _, t := range all {
		if t.Active {
			active = append(active, t)
		}
	}
	return active, nil
}

// Universe is every live tenant plus deleted tenants retained in history
func (s *TenantService) Universe(ctx context.Context) ([]domain.Tenant, error) {
	live, err := s.tenants.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	hist, err := s.history.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenant history: %w", err)
	}
	return history.Merge(live, hist), nil
}

// Get returns one tenant
func (s *TenantService) Get(ctx context.Context, id int64) (*domain.Tenant, error) {
	return s.tenants.Get(ctx, id)
}

func (s *TenantService) validate(ctx context.Context, t domain.Tenant) error {
	if t.FullName == "" {
		return domain.Validationf("full name is required")
	}
	if t.RoomNumber == "" {
		return domain.Validationf("room number is required")
	}
	if !t.Active {
		return nil
	}
	exists, err := s.tenants.ExistsActiveName(ctx, t.FullName, t.ID)
	if err != nil {
		return err
	}
	if exists {
		return domain.Conflictf("an active tenant named %q already exists", t.FullName)
	}
	return nil
}

// Create normalizes and stores a new tenant. Monthly tenants get their joining
// month ledger record.
func (s *TenantService) Create(ctx context.Context, t domain.Tenant) (*domain.Tenant, error) {
	t.ID = 0
	n := billing.NormalizeTenant(t, s.today())
	if err := s.validate(ctx, n); err != nil {
		return nil, err
	}
	if err := s.tenants.Create(ctx, &n); err != nil {
		return nil, err
	}
	s.forget(ctx, n.ID)
	if err := s.syncJoiningLedger(ctx, n); err != nil {
		return nil, err
	}
	s.logger.Info("tenant created",
		slog.Int64("tenant_id", n.ID),
		slog.Bool("daily", n.IsDaily()),
	)
	return &n, nil
}

// Update replaces a tenant's fields. The due-generation cursor is kept from the
// stored tenant when the caller leaves it empty.
func (s *TenantService) Update(ctx context.Context, id int64, t domain.Tenant) (*domain.Tenant, error) {
	existing, err := s.tenants.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	t.ID = id
	n := billing.NormalizeTenant(t, s.today())
	if m, ok := n.Monthly(); ok && m.LastDueGeneratedFor.IsZero() {
		if prev, ok := existing.Monthly(); ok {
			m.LastDueGeneratedFor = prev.LastDueGeneratedFor
		}
	}
	if err := s.validate(ctx, n); err != nil {
		return nil, err
	}
	if err := s.tenants.Update(ctx, &n); err != nil {
		return nil, err
	}
	s.forget(ctx, id)
	if err := s.syncJoiningLedger(ctx, n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Delete soft-deletes a tenant after capturing it in history so past
// collections stay attributed.
func (s *TenantService) Delete(ctx context.Context, id int64) error {
	t, err := s.tenants.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.history.Put(ctx, history.Capture(*t)); err != nil {
		return fmt.Errorf("failed to retain tenant history: %w", err)
	}
	if err := s.tenants.Delete(ctx, id); err != nil {
		s.forget(ctx, id)
		return err
	}
	s.logger.Info("tenant deleted", slog.Int64("tenant_id", id), slog.String("full_name", t.FullName))
	return nil
}

// Checkout deactivates a tenant as of today
func (s *TenantService) Checkout(ctx context.Context, id int64) (*domain.Tenant, error) {
	t, err := s.tenants.Checkout(ctx, id, s.today())
	if err != nil {
		return nil, err
	}
	s.logger.Info("tenant checked out", slog.Int64("tenant_id", id), slog.String("on", t.CheckoutDate.String()))
	return t, nil
}

// ClearDailyCollection removes a daily tenant's collection from the ledger
func (s *TenantService) ClearDailyCollection(ctx context.Context, id int64) (*domain.Tenant, error) {
	t, err := s.tenants.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsDaily() {
		return nil, domain.Validationf("tenant %d is not on daily accommodation", id)
	}
	return s.tenants.ClearDailyCollection(ctx, id)
}

func (s *TenantService) syncJoiningLedger(ctx context.Context, t domain.Tenant) error {
	rec, ok := billing.JoiningLedger(t)
	if !ok {
		return nil
	}
	if rec.PaidAmount.IsPositive() {
		at := t.JoiningDate.Time()
		rec.TransactionAt = &at
	}
	if err := s.rents.Create(ctx, &rec); err != nil {
		return fmt.Errorf("failed to sync joining ledger: %w", err)
	}
	return nil
}

// forget drops a history entry for an id that is live again
func (s *TenantService) forget(ctx context.Context, id int64) {
	if err := s.history.Remove(ctx, id); err != nil {
		s.logger.Warn("failed to remove tenant history entry",
			slog.Int64("tenant_id", id),
			slog.String("error", err.Error()),
		)
	}
}
