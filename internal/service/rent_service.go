package service

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/aryan0dhankhar/pgledger/internal/billing"
	"github.com/aryan0dhankhar/pgledger/internal/domain"
	"github.com/aryan0dhankhar/pgledger/internal/ledger"
	"github.com/aryan0dhankhar/pgledger/internal/observability/metrics"
)

// RentInput creates or replaces the record of a tenant for a billing month
type RentInput struct {
	TenantID        int64           `json:"tenantId"`
	BillingMonth    domain.Date     `json:"billingMonth"`
	DueAmount       decimal.Decimal `json:"dueAmount"`
	PaidAmount      decimal.Decimal `json:"paidAmount"`
	AccountID       *int64          `json:"accountId"`
	TransactionDate domain.Date     `json:"transactionDate"`
}

// RentService handles rent record bookkeeping. Every mutation is computed by
// the billing package and applied through the repository in one call.
type RentService struct {
	rents   domain.RentRepository
	tenants domain.TenantRepository
	clock   domain.Clock
	logger  *slog.Logger
}

// NewRentService creates a new rent service
func NewRentService(
	rents domain.RentRepository,
	tenants domain.TenantRepository,
	clock domain.Clock,
	logger *slog.Logger,
) *RentService {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &RentService{rents: rents, tenants: tenants, clock: clock, logger: logger}
}

// rangeBounds passes an open range to the repository as unbounded
func rangeBounds(r ledger.DateRange) (domain.Date, domain.Date) {
	if r.IsOpen() {
		return domain.Date{}, domain.Date{}
	}
	return r.From, r.To
}

// ListDue returns records with a balance whose billing month is in r
func (s *RentService) ListDue(ctx context.Context, r ledger.DateRange) ([]domain.RentRecord, error) {
	from, to := rangeBounds(r)
	return s.rents.ListDue(ctx, from, to)
}

// ListCollected returns records collected on a date in r
func (s *RentService) ListCollected(ctx context.Context, r ledger.DateRange) ([]domain.RentRecord, error) {
	from, to := rangeBounds(r)
	return s.rents.ListCollected(ctx, from, to)
}

// Upsert creates or replaces the record for (tenant, billing month)
func (s *RentService) Upsert(ctx context.Context, in RentInput) (*domain.RentRecord, error) {
	if in.BillingMonth.IsZero() {
		return nil, domain.Validationf("billing month is required")
	}
	if in.DueAmount.IsNegative() || in.PaidAmount.IsNegative() {
		return nil, domain.Validationf("amounts must not be negative")
	}
	if in.PaidAmount.GreaterThan(in.DueAmount) {
		return nil, domain.Validationf("paid amount %s exceeds due amount %s", in.PaidAmount, in.DueAmount)
	}
	t, err := s.tenants.Get(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}

	rec := &domain.RentRecord{
		TenantID:     t.ID,
		TenantName:   t.FullName,
		RoomNumber:   t.RoomNumber,
		BillingMonth: in.BillingMonth.FirstOfMonth(),
		DueAmount:    in.DueAmount,
		PaidAmount:   in.PaidAmount,
		Status:       billing.RecordStatus(in.DueAmount, in.PaidAmount),
	}
	if in.PaidAmount.IsPositive() {
		rec.AccountID = in.AccountID
		at := s.clock.Now().UTC()
		if !in.TransactionDate.IsZero() {
			at = in.TransactionDate.Time()
		}
		rec.TransactionAt = &at
	}
	if err := s.rents.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Pay applies a FULL or PARTIAL payment. A negative PARTIAL amount is refused
// before anything is written.
func (s *RentService) Pay(ctx context.Context, id int64, p billing.Payment) (*domain.RentRecord, error) {
	if p.Mode == billing.PayPartial && p.Amount.IsNegative() {
		return nil, domain.Validationf("payment amount must not be negative")
	}
	rec, err := s.rents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	update, err := billing.ApplyPayment(*rec, p, s.clock.Now())
	if err != nil {
		return nil, err
	}
	updated, err := s.rents.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}
	mode := p.Mode
	if mode == "" {
		mode = billing.PayFull
	}
	metrics.ObservePayment(string(mode), updated.PaidAmount.Sub(rec.PaidAmount))
	s.logger.Info("payment applied",
		slog.Int64("rent_id", id),
		slog.String("mode", string(mode)),
		slog.String("paid", updated.PaidAmount.String()),
		slog.String("status", string(updated.Status)),
	)
	return updated, nil
}

// Edit applies a manual edit of a record's amounts
func (s *RentService) Edit(ctx context.Context, id int64, e billing.ManualEdit) (*domain.RentRecord, error) {
	rec, err := s.rents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	update, err := billing.NormalizeManualEdit(*rec, e, s.clock.Now())
	if err != nil {
		return nil, err
	}
	return s.rents.Update(ctx, id, update)
}

// DeleteDue writes off a record's outstanding balance. A record with nothing
// paid is removed; the returned record is nil then.
func (s *RentService) DeleteDue(ctx context.Context, id int64) (*domain.RentRecord, error) {
	rec, err := s.rents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	update, keep := billing.WriteOff(*rec)
	if !keep {
		if err := s.rents.Delete(ctx, id); err != nil {
			return nil, err
		}
		s.logger.Info("due record removed", slog.Int64("rent_id", id))
		return nil, nil
	}
	updated, err := s.rents.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}
	s.logger.Info("due balance written off",
		slog.Int64("rent_id", id),
		slog.String("written_off", rec.Balance().String()),
	)
	return updated, nil
}

// DeleteCollection removes a record's collection and re-opens its balance
func (s *RentService) DeleteCollection(ctx context.Context, id int64) (*domain.RentRecord, error) {
	rec, err := s.rents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.rents.Update(ctx, id, billing.ClearCollection(*rec))
}
