package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/aryan0dhankhar/pgledger/internal/aggregate"
	"github.com/aryan0dhankhar/pgledger/internal/domain"
	"github.com/aryan0dhankhar/pgledger/internal/history"
	"github.com/aryan0dhankhar/pgledger/internal/ledger"
	"github.com/aryan0dhankhar/pgledger/internal/observability/metrics"
	"github.com/aryan0dhankhar/pgledger/internal/observability/tracing"
	"github.com/aryan0dhankhar/pgledger/internal/ordering"
	"github.com/aryan0dhankhar/pgledger/internal/reliability/circuitbreaker"
	"github.com/aryan0dhankhar/pgledger/internal/reliability/retry"
)

// Query is the operator-selected view state: two independent windows, the
// account filter and the active sort.
type Query struct {
	DueRange       ledger.DateRange     `json:"dueRange"`
	CollectedRange ledger.DateRange     `json:"collectedRange"`
	Account        ledger.AccountFilter `json:"account"`
	Sort           ordering.State       `json:"sort"`
}

// DefaultQuery shows the current month for both windows and every account
func DefaultQuery(now time.Time) Query {
	month := ledger.CurrentMonth(now)
	return Query{DueRange: month, CollectedRange: month, Account: ledger.AllAccounts}
}

// Snapshot is everything one refresh derives from
type Snapshot struct {
	Tenants          []domain.Tenant
	History          []domain.Tenant
	DueRecords       []domain.RentRecord
	CollectedRecords []domain.RentRecord
	Rooms            []domain.Room
	Accounts         []domain.Account
}

// SnapshotSource fetches a full snapshot for the given windows
type SnapshotSource interface {
	Fetch(ctx context.Context, due, collected ledger.DateRange) (Snapshot, error)
}

// RepositorySource reads a snapshot from the repositories and the history store
type RepositorySource struct {
	Tenants  domain.TenantRepository
	History  history.Store
	Rents    domain.RentRepository
	Rooms    domain.RoomRepository
	Accounts domain.AccountRepository
}

// Fetch issues one read per collection
func (s RepositorySource) Fetch(ctx context.Context, due, collected ledger.DateRange) (Snapshot, error) {
	var snap Snapshot
	var err error
	if snap.Tenants, err = s.Tenants.ListAll(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.History, err = s.History.List(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("failed to list tenant history: %w", err)
	}
	from, to := rangeBounds(due)
	if snap.DueRecords, err = s.Rents.ListDue(ctx, from, to); err != nil {
		return Snapshot{}, err
	}
	from, to = rangeBounds(collected)
	if snap.CollectedRecords, err = s.Rents.ListCollected(ctx, from, to); err != nil {
		return Snapshot{}, err
	}
	if snap.Rooms, err = s.Rooms.List(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Accounts, err = s.Accounts.List(ctx); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// View is one derived picture of the ledger
type View struct {
	Query            Query                       `json:"query"`
	Dashboard        aggregate.Dashboard         `json:"dashboard"`
	Occupancy        aggregate.Occupancy         `json:"occupancy"`
	Collection       aggregate.CollectionSummary `json:"collection"`
	DueRecords       []domain.RentRecord         `json:"dueRecords"`
	CollectedRecords []domain.RentRecord         `json:"collectedRecords"`
	DailyEntries     []ledger.Entry              `json:"dailyEntries"`
	RefreshedAt      time.Time                   `json:"refreshedAt"`
}

// Derive builds a view from a snapshot. It is pure: the same snapshot and query
// always give the same view apart from RefreshedAt.
func Derive(snap Snapshot, q Query, now time.Time) View {
	accounts := ledger.IndexAccounts(snap.Accounts)
	universe := history.Merge(snap.Tenants, snap.History)

	var monthly, daily []domain.Tenant
	for _, t := range snap.Tenants {
		switch {
		case !t.Active:
		case t.IsDaily():
			daily = append(daily, t)
		default:
			monthly = append(monthly, t)
		}
	}

	due := ledger.DueInRange(snap.DueRecords, q.DueRange)
	collected := ledger.CollectedInRange(snap.CollectedRecords, q.CollectedRange)
	accounts.TagRecords(due)
	accounts.TagRecords(collected)

	entries := ledger.EntriesInRange(ledger.Project(snap.Tenants), q.CollectedRange)
	accounts.TagEntries(entries)

	shownRecords := slices.Clone(ledger.RecordsForAccount(collected, q.Account))
	shownEntries := slices.Clone(ledger.EntriesForAccount(entries, q.Account))

	rooms := slices.Clone(snap.Rooms)
	ordering.SortRooms(rooms)

	v := View{
		Query: q,
		Dashboard: aggregate.Compute(aggregate.Input{
			DueRecords:       due,
			CollectedRecords: collected,
			DailyEntries:     entries,
			ActiveTenants:    monthly,
			DailyTenants:     daily,
			Universe:         universe,
			Rooms:            rooms,
		}),
		Occupancy:        aggregate.ComputeOccupancy(rooms, monthly),
		Collection:       aggregate.Summarize(collected, entries, q.Account, accounts),
		DueRecords:       due,
		CollectedRecords: shownRecords,
		DailyEntries:     shownEntries,
		RefreshedAt:      now,
	}
	ordering.SortRecords(v.DueRecords, q.Sort)
	ordering.SortRecords(v.CollectedRecords, q.Sort)
	ordering.SortEntries(v.DailyEntries, q.Sort)
	return v
}

// LedgerController owns the last derived view. A refresh re-fetches everything
// and replaces the view wholesale; a failed refresh keeps the previous one.
type LedgerController struct {
	source  SnapshotSource
	breaker *circuitbreaker.CircuitBreaker
	retry   *retry.Config
	clock   domain.Clock
	logger  *slog.Logger

	mu      sync.RWMutex
	last    *View
	changed chan struct{}
}

// NewLedgerController creates a controller reading from source
func NewLedgerController(
	source SnapshotSource,
	breaker *circuitbreaker.CircuitBreaker,
	clock domain.Clock,
	logger *slog.Logger,
) *LedgerController {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if breaker == nil {
		breaker = circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second)
	}
	cfg := retry.DefaultConfig()
	cfg.Permanent = isDomainError
	return &LedgerController{
		source:  source,
		breaker: breaker,
		retry:   cfg,
		clock:   clock,
		logger:  logger,
		changed: make(chan struct{}),
	}
}

func isDomainError(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, context.Canceled)
}

// Now is the controller's notion of the current time, used for default ranges
func (c *LedgerController) Now() time.Time {
	return c.clock.Now()
}

// Refresh fetches a fresh snapshot and derives the view for q
func (c *LedgerController) Refresh(ctx context.Context, q Query) (*View, error) {
	ctx, span := tracing.Start(ctx, "ledger.refresh")
	defer span.End()
	span.SetAttributes(
		attribute.String("ledger.account", string(q.Account)),
		attribute.String("ledger.due_from", q.DueRange.From.String()),
		attribute.String("ledger.collected_from", q.CollectedRange.From.String()),
	)

	start := time.Now()
	snap, err := retry.Do(ctx, c.retry, c.logger, "ledger snapshot", func(ctx context.Context) (Snapshot, error) {
		var s Snapshot
		err := c.breaker.Execute(func() error {
			var ferr error
			s, ferr = c.source.Fetch(ctx, q.DueRange, q.CollectedRange)
			return ferr
		}, isDomainError)
		return s, err
	})
	metrics.SetBreakerState(int(c.breaker.GetState()))
	if err != nil {
		metrics.ObserveRefresh("error", time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot fetch failed")
		c.logger.Error("ledger refresh failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to refresh ledger: %w", err)
	}

	v := Derive(snap, q, c.clock.Now())
	metrics.ObserveRefresh("success", time.Since(start))
	metrics.SetOccupancy(v.Occupancy.Beds, v.Occupancy.Occupied)
	metrics.SetActiveTenants(v.Dashboard.ActiveTenants, v.Dashboard.DailyTenants)

	c.mu.Lock()
	c.last = &v
	c.mu.Unlock()

	c.logger.Debug("ledger refreshed",
		slog.Int("due_records", len(v.DueRecords)),
		slog.Int("collected_records", len(v.CollectedRecords)),
		slog.Int("daily_entries", len(v.DailyEntries)),
		slog.Duration("duration", time.Since(start)),
	)
	return &v, nil
}

// Last returns the most recent successful view
func (c *LedgerController) Last() (*View, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last, c.last != nil
}

// Touch tells watchers that stored data changed
func (c *LedgerController) Touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	close(c.changed)
	c.changed = make(chan struct{})
}

// Changed returns a channel closed on the next Touch
func (c *LedgerController) Changed() <-chan struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.changed
}
