package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aryan0dhankhar/pgledger/internal/billing"
	"github.com/aryan0dhankhar/pgledger/internal/domain"
	"github.com/aryan0dhankhar/pgledger/internal/featureflags"
	"github.com/aryan0dhankhar/pgledger/internal/observability/metrics"
)

// Notifier is told when generated records change the ledger
type Notifier interface {
	Touch()
}

// DueGenerator periodically creates the current month's DUE record for every
// active monthly tenant whose billing cycle has arrived
type DueGenerator struct {
	tenants  domain.TenantRepository
	rents    domain.RentRepository
	clock    domain.Clock
	notify   Notifier
	enabled  func() bool
	logger   *slog.Logger
	interval time.Duration
}

// NewDueGenerator creates a new due generation worker. It runs only while the
// auto_due_generation flag is on.
func NewDueGenerator(
	tenants domain.TenantRepository,
	rents domain.RentRepository,
	clock domain.Clock,
	notify Notifier,
	logger *slog.Logger,
	interval time.Duration,
) *DueGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &DueGenerator{
		tenants:  tenants,
		rents:    rents,
		clock:    clock,
		notify:   notify,
		enabled:  func() bool { return featureflags.Enabled(featureflags.AutoDueGeneration) },
		logger:   logger,
		interval: interval,
	}
}

// Start runs one pass immediately, then one per interval until ctx is done
func (w *DueGenerator) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("due generator started", slog.Duration("interval", w.interval))
	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("due generator stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *DueGenerator) tick(ctx context.Context) {
	if !w.enabled() {
		w.logger.Debug("due generation disabled")
		return
	}
	if _, err := w.RunOnce(ctx); err != nil {
		w.logger.Error("due generation failed", slog.String("error", err.Error()))
	}
}

// RunOnce makes one pass over the active tenants and returns how many records it
// created. A failure on one tenant is logged and the pass continues.
func (w *DueGenerator) RunOnce(ctx context.Context) (int, error) {
	tenants, err := w.tenants.ListActive(ctx)
	if err != nil {
		metrics.ObserveDueGenerated("error")
		return 0, err
	}
	today := domain.DateOf(w.clock.Now())

	created := 0
	for _, t := range tenants {
		cycle, ok := billing.DueCycle(t, today)
		if !ok {
			continue
		}
		made, err := w.generate(ctx, t, cycle)
		if err != nil {
			metrics.ObserveDueGenerated("error")
			w.logger.Error("failed to generate due record",
				slog.Int64("tenant_id", t.ID),
				slog.String("cycle", cycle.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		if made {
			created++
		}
	}

	if created > 0 {
		w.logger.Info("due records generated",
			slog.Int("created", created),
			slog.String("billing_month", today.FirstOfMonth().String()),
		)
		if w.notify != nil {
			w.notify.Touch()
		}
	}
	return created, nil
}

// generate creates the month's record unless one exists, then advances the
// tenant's cycle marker
func (w *DueGenerator) generate(ctx context.Context, t domain.Tenant, cycle domain.Date) (bool, error) {
	month := cycle.FirstOfMonth()
	made := false

	_, err := w.rents.FindByTenantMonth(ctx, t.ID, month)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		m, _ := t.Monthly()
		rec := &domain.RentRecord{
			TenantID:     t.ID,
			TenantName:   t.FullName,
			RoomNumber:   t.RoomNumber,
			BillingMonth: month,
			DueAmount:    m.Rent,
			PaidAmount:   decimal.Zero,
			Status:       domain.StatusDue,
		}
		if err := w.rents.Create(ctx, rec); err != nil {
			return false, err
		}
		metrics.ObserveDueGenerated("created")
		made = true
	case err != nil:
		return false, err
	default:
		metrics.ObserveDueGenerated("exists")
	}

	if err := w.tenants.MarkDueGenerated(ctx, t.ID, cycle); err != nil {
		return made, err
	}
	return made, nil
}
