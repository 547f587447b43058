package ledger

import (
	"strconv"
	"strings"
	"time"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
)

// DateRange is a closed interval of calendar dates. A range missing either
// bound is open and lets everything through, undated entries included.
type DateRange struct {
	From domain.Date `json:"from"`
	To   domain.Date `json:"to"`
}

// ParseDateRange reads a from/to pair of ISO dates; empty strings leave the bound open
func ParseDateRange(from, to string) (DateRange, error) {
	f, err := domain.ParseDate(from)
	if err != nil {
		return DateRange{}, err
	}
	t, err := domain.ParseDate(to)
	if err != nil {
		return DateRange{}, err
	}
	return DateRange{From: f, To: t}, nil
}

// IsOpen reports whether the range filters nothing
func (r DateRange) IsOpen() bool {
	return r.From.IsZero() || r.To.IsZero()
}

// Contains is inclusive at both bounds
func (r DateRange) Contains(d domain.Date) bool {
	if r.IsOpen() {
		return true
	}
	if d.IsZero() {
		return false
	}
	return !d.Before(r.From) && !d.After(r.To)
}

// OrDefault returns r, or def when r is open
func (r DateRange) OrDefault(def DateRange) DateRange {
	if r.IsOpen() {
		return def
	}
	return r
}

// MonthByOffset is the calendar month offset months before now's month
func MonthByOffset(now time.Time, offset int) DateRange {
	first := domain.NewDate(now.Year(), now.Month()-time.Month(offset), 1)
	return DateRange{From: first, To: first.EndOfMonth()}
}

// CurrentMonth is the calendar month containing now
func CurrentMonth(now time.Time) DateRange { return MonthByOffset(now, 0) }

// LastMonth is the calendar month before now's month
func LastMonth(now time.Time) DateRange { return MonthByOffset(now, 1) }

// AllAccounts is the account selector that passes every entry
const AllAccounts = "ALL"

// AccountFilter selects entries by account id in canonical string form
type AccountFilter string

// ParseAccountFilter accepts "", "ALL" (any case) or a numeric id; other values
// fail validation.
func ParseAccountFilter(s string) (AccountFilter, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, AllAccounts) {
		return AccountFilter(AllAccounts), nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return "", domain.Validationf("invalid account filter %q", s)
	}
	return AccountFilter(strconv.FormatInt(id, 10)), nil
}

// IsAll reports whether the filter passes everything
func (f AccountFilter) IsAll() bool {
	return f == "" || f == AllAccounts
}

// Matches compares canonical string forms so "007" and 7 agree
func (f AccountFilter) Matches(id *int64) bool {
	if f.IsAll() {
		return true
	}
	return domain.AccountKey(id) == string(f)
}

// AccountID returns the selected id, or nil for ALL
func (f AccountFilter) AccountID() *int64 {
	if f.IsAll() {
		return nil
	}
	id, err := strconv.ParseInt(string(f), 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

// DueInRange keeps records whose billing month falls in r
func DueInRange(records []domain.RentRecord, r DateRange) []domain.RentRecord {
	out := make([]domain.RentRecord, 0, len(records))
	for _, rec := range records {
		if r.Contains(rec.BillingMonth) {
			out = append(out, rec)
		}
	}
	return out
}

// CollectedInRange keeps records whose transaction date falls in r
func CollectedInRange(records []domain.RentRecord, r DateRange) []domain.RentRecord {
	out := make([]domain.RentRecord, 0, len(records))
	for _, rec := range records {
		if r.Contains(rec.TransactionDate()) {
			out = append(out, rec)
		}
	}
	return out
}

// EntriesInRange keeps daily entries whose transaction date falls in r
func EntriesInRange(entries []Entry, r DateRange) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if r.Contains(e.TransactionDate) {
			out = append(out, e)
		}
	}
	return out
}

// RecordsForAccount keeps records tagged with the selected account
func RecordsForAccount(records []domain.RentRecord, f AccountFilter) []domain.RentRecord {
	if f.IsAll() {
		return records
	}
	out := make([]domain.RentRecord, 0, len(records))
	for _, rec := range records {
		if f.Matches(rec.AccountID) {
			out = append(out, rec)
		}
	}
	return out
}

// EntriesForAccount keeps daily entries tagged with the selected account
func EntriesForAccount(entries []Entry, f AccountFilter) []Entry {
	if f.IsAll() {
		return entries
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if f.Matches(e.AccountID) {
			out = append(out, e)
		}
	}
	return out
}

// Range presets accepted by ResolveRange
const (
	PeriodCurrent = "current"
	PeriodLast    = "last"
	PeriodAll     = "all"
)

// ResolveRange picks the window for a request: an explicit from/to wins, then
// the period preset, and with neither the current month.
func ResolveRange(period, from, to string, now time.Time) (DateRange, error) {
	if strings.TrimSpace(from) != "" || strings.TrimSpace(to) != "" {
		return ParseDateRange(from, to)
	}
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "", PeriodCurrent:
		return CurrentMonth(now), nil
	case PeriodLast:
		return LastMonth(now), nil
	case PeriodAll:
		return DateRange{}, nil
	default:
		return DateRange{}, domain.Validationf("unknown period %q", period)
	}
}
