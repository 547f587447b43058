package service

import (
	"cmp"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
	"github.com/aryan0dhankhar/pgledger/internal/ledger"
)

// Export row types
const (
	RowRegularRent     = "REGULAR_RENT"
	RowDailyCollection = "DAILY_COLLECTION"
)

var exportHeader = []string{
	"Type", "Transaction Date-Time", "Tenant Name", "Room Number",
	"Billing Month", "Amount", "Account Name", "Account Mode",
}

// ExportRow is one collection line of the report
type ExportRow struct {
	Type          string
	TransactionAt time.Time
	TenantName    string
	RoomNumber    string
	BillingMonth  domain.Date
	Amount        decimal.Decimal
	AccountName   string
	AccountMode   domain.AccountMode
}

func (r ExportRow) cells() []string {
	at := ""
	if !r.TransactionAt.IsZero() {
		at = r.TransactionAt.UTC().Format(time.RFC3339)
	}
	return []string{
		r.Type, at, r.TenantName, r.RoomNumber,
		r.BillingMonth.String(), r.Amount.StringFixed(2), r.AccountName, string(r.AccountMode),
	}
}

// ExportService builds the collection report
type ExportService struct {
	rents    domain.RentRepository
	tenants  domain.TenantRepository
	accounts domain.AccountRepository
	logger   *slog.Logger
}

// NewExportService creates a new export service
func NewExportService(
	rents domain.RentRepository,
	tenants domain.TenantRepository,
	accounts domain.AccountRepository,
	logger *slog.Logger,
) *ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportService{rents: rents, tenants: tenants, accounts: accounts, logger: logger}
}

// Rows lists collected records and daily collections in r for the selected
// account, newest first.
func (s *ExportService) Rows(ctx context.Context, r ledger.DateRange, f ledger.AccountFilter) ([]ExportRow, error) {
	from, to := rangeBounds(r)
	records, err := s.rents.ListCollected(ctx, from, to)
	if err != nil {
		return nil, err
	}
	daily, err := s.tenants.ListDaily(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	accounts := ledger.IndexAccounts(list)

	records = ledger.RecordsForAccount(ledger.CollectedInRange(records, r), f)
	entries := ledger.EntriesForAccount(ledger.EntriesInRange(ledger.Project(daily), r), f)

	rows := make([]ExportRow, 0, len(records)+len(entries))
	for _, rec := range records {
		acc, _ := accounts.Lookup(rec.AccountID)
		row := ExportRow{
			Type:         RowRegularRent,
			TenantName:   rec.TenantName,
			RoomNumber:   rec.RoomNumber,
			BillingMonth: rec.BillingMonth,
			Amount:       rec.PaidAmount,
			AccountName:  acc.Name,
			AccountMode:  acc.Mode,
		}
		if rec.TransactionAt != nil {
			row.TransactionAt = *rec.TransactionAt
		}
		rows = append(rows, row)
	}
	for _, e := range entries {
		acc, _ := accounts.Lookup(e.AccountID)
		rows = append(rows, ExportRow{
			Type:          RowDailyCollection,
			TransactionAt: e.TransactionDate.Time(),
			TenantName:    e.TenantName,
			RoomNumber:    e.RoomNumber,
			BillingMonth:  e.TransactionDate.FirstOfMonth(),
			Amount:        e.Amount,
			AccountName:   acc.Name,
			AccountMode:   acc.Mode,
		})
	}
	slices.SortStableFunc(rows, func(a, b ExportRow) int {
		return cmp.Compare(b.TransactionAt.UnixNano(), a.TransactionAt.UnixNano())
	})
	return rows, nil
}

// Write renders the report as CSV
func (s *ExportService) Write(ctx context.Context, w io.Writer, r ledger.DateRange, f ledger.AccountFilter) (int, error) {
	rows, err := s.Rows(ctx, r, f)
	if err != nil {
		return 0, err
	}
	if err := WriteCSV(w, rows); err != nil {
		return 0, err
	}
	s.logger.Info("collection report exported",
		slog.String("from", r.From.String()),
		slog.String("to", r.To.String()),
		slog.String("account", string(f)),
		slog.Int("rows", len(rows)),
	)
	return len(rows), nil
}

// WriteCSV writes the header and one line per row
func WriteCSV(w io.Writer, rows []ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row.cells()); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename names the report after its window and account selection.
// A missing bound is written as "all".
func ExportFilename(r ledger.DateRange, f ledger.AccountFilter) string {
	from, to := r.From.String(), r.To.String()
	if r.IsOpen() {
		from, to = "all", "all"
	}
	if f.IsAll() {
		return fmt.Sprintf("collections-%s-to-%s-all-accounts.csv", from, to)
	}
	return fmt.Sprintf("collections-%s-to-%s-account-%s.csv", from, to, string(f))
}
