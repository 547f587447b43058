package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
)

func dailyTenant(id int64, amount int64, joining, tx string) domain.Tenant {
	return domain.Tenant{
		ID:          id,
		FullName:    "Daily Guest",
		RoomNumber:  "G2",
		JoiningDate: domain.MustParseDate(joining),
		Active:      true,
		Billing: &domain.DailyBilling{
			CollectionAmount: decimal.NewFromInt(amount),
			TransactionDate:  domain.MustParseDate(tx),
			StayDays:         2,
		},
	}
}

func TestProjectFallsBackToJoiningDate(t *testing.T) {
	entries := Project([]domain.Tenant{dailyTenant(1, 500, "2024-03-05", "")})
	require.Len(t, entries, 1)
	assert.Equal(t, "2024-03-05", entries[0].TransactionDate.String())

	march := DateRange{From: domain.MustParseDate("2024-03-01"), To: domain.MustParseDate("2024-03-31")}
	april := DateRange{From: domain.MustParseDate("2024-04-01"), To: domain.MustParseDate("2024-04-30")}
	assert.Len(t, EntriesInRange(entries, march), 1)
	assert.Empty(t, EntriesInRange(entries, april))
}

func TestProjectSkipsIneligibleTenants(t *testing.T) {
	inactive := dailyTenant(2, 400, "2024-03-01", "")
	inactive.Active = false
	monthly := domain.Tenant{ID: 3, Active: true, Billing: &domain.MonthlyBilling{Rent: decimal.NewFromInt(5000)}}

	entries := Project([]domain.Tenant{
		dailyTenant(1, 0, "2024-03-01", ""),
		inactive,
		monthly,
		dailyTenant(4, 300, "2024-03-01", "2024-03-09"),
	})
	require.Len(t, entries, 1)
	assert.Equal(t, int64(4), entries[0].TenantID)
	assert.Equal(t, "2024-03-09", entries[0].TransactionDate.String())
}

func TestDateRangeInclusiveBounds(t *testing.T) {
	r := DateRange{From: domain.MustParseDate("2024-03-01"), To: domain.MustParseDate("2024-03-31")}

	assert.True(t, r.Contains(domain.MustParseDate("2024-03-01")))
	assert.True(t, r.Contains(domain.MustParseDate("2024-03-31")))
	assert.False(t, r.Contains(domain.MustParseDate("2024-02-29")))
	assert.False(t, r.Contains(domain.MustParseDate("2024-04-01")))
	assert.False(t, r.Contains(domain.Date{}), "undated entries are excluded by an active range")

	assert.True(t, DateRange{}.Contains(domain.Date{}), "open range includes undated entries")
	assert.True(t, DateRange{From: r.From}.IsOpen())
}

func TestMonthRanges(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)

	cur := CurrentMonth(now)
	assert.Equal(t, "2024-03-01", cur.From.String())
	assert.Equal(t, "2024-03-31", cur.To.String())

	last := LastMonth(now)
	assert.Equal(t, "2024-02-01", last.From.String())
	assert.Equal(t, "2024-02-29", last.To.String())

	jan := MonthByOffset(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), 1)
	assert.Equal(t, "2023-12-01", jan.From.String())
	assert.Equal(t, "2023-12-31", jan.To.String())
}

func TestAccountFilter(t *testing.T) {
	seven := int64(7)
	eight := int64(8)

	all, err := ParseAccountFilter("all")
	require.NoError(t, err)
	assert.True(t, all.Matches(nil))
	assert.True(t, all.Matches(&seven))

	f, err := ParseAccountFilter("007")
	require.NoError(t, err)
	assert.True(t, f.Matches(&seven))
	assert.False(t, f.Matches(&eight))
	assert.False(t, f.Matches(nil))
	require.NotNil(t, f.AccountID())
	assert.Equal(t, seven, *f.AccountID())

	_, err = ParseAccountFilter("cash")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRecordFilters(t *testing.T) {
	seven := int64(7)
	at := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	records := []domain.RentRecord{
		{ID: 1, BillingMonth: domain.MustParseDate("2024-03-01"), PaidAmount: decimal.NewFromInt(100), AccountID: &seven, TransactionAt: &at},
		{ID: 2, BillingMonth: domain.MustParseDate("2024-02-01")},
	}
	march := CurrentMonth(at)

	due := DueInRange(records, march)
	require.Len(t, due, 1)
	assert.Equal(t, int64(1), due[0].ID)

	collected := CollectedInRange(records, march)
	require.Len(t, collected, 1)

	f, _ := ParseAccountFilter("7")
	assert.Len(t, RecordsForAccount(records, f), 1)
}

func TestAccountsTagging(t *testing.T) {
	idx := IndexAccounts([]domain.Account{{ID: 1, Name: "HDFC", Mode: domain.AccountBank}})
	one := int64(1)
	two := int64(2)

	entries := []Entry{{AccountID: &one}, {AccountID: &two}, {}}
	idx.TagEntries(entries)
	assert.Equal(t, "HDFC", entries[0].AccountName)
	assert.Empty(t, entries[1].AccountName)
	assert.Empty(t, entries[2].AccountName)
}

func TestResolveRange(t *testing.T) {
	now := time.Date(2024, 3, 18, 12, 0, 0, 0, time.UTC)

	r, err := ResolveRange("", "", "", now)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", r.From.String())
	assert.Equal(t, "2024-03-31", r.To.String())

	r, err = ResolveRange("last", "", "", now)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", r.To.String())

	r, err = ResolveRange("all", "", "", now)
	require.NoError(t, err)
	assert.True(t, r.IsOpen())

	r, err = ResolveRange("last", "2024-01-05", "2024-01-20", now)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05", r.From.String())

	_, err = ResolveRange("fortnight", "", "", now)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
