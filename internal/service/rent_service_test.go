package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/pgledger/internal/billing"
	"github.com/aryan0dhankhar/pgledger/internal/domain"
	"github.com/aryan0dhankhar/pgledger/internal/ledger"
)

func newRentFixture(t *testing.T) (*RentService, *memRents, domain.Tenant) {
	t.Helper()
	tenants := newMemTenants()
	rents := newMemRents()
	tenant := monthly("Asha", "G1", "2024-01-05", 10000, 0)
	require.NoError(t, tenants.Create(context.Background(), &tenant))
	return NewRentService(rents, tenants, clockAt("2024-03-15"), nil), rents, tenant
}

func seedRecord(t *testing.T, svc *RentService, tenantID int64, due, paid int64) *domain.RentRecord {
	t.Helper()
	rec, err := svc.Upsert(context.Background(), RentInput{
		TenantID:     tenantID,
		BillingMonth: domain.MustParseDate("2024-03-20"),
		DueAmount:    dec(due),
		PaidAmount:   dec(paid),
		AccountID:    i64(1),
	})
	require.NoError(t, err)
	return rec
}

func TestUpsertNormalizesMonthAndStatus(t *testing.T) {
	svc, rents, tenant := newRentFixture(t)

	rec := seedRecord(t, svc, tenant.ID, 10000, 4000)
	assert.Equal(t, "2024-03-01", rec.BillingMonth.String())
	assert.Equal(t, domain.StatusPartial, rec.Status)
	require.NotNil(t, rec.TransactionAt)
	assert.Equal(t, "2024-03-15", rec.TransactionDate().String())

	again := seedRecord(t, svc, tenant.ID, 10000, 10000)
	assert.Equal(t, rec.ID, again.ID)
	assert.Len(t, rents.all(), 1)
	assert.Equal(t, domain.StatusOnTime, again.Status)
}

func TestUpsertRejectsInvalidInput(t *testing.T) {
	svc, _, tenant := newRentFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   RentInput
	}{
		{"missing month", RentInput{TenantID: tenant.ID, DueAmount: dec(100)}},
		{"negative due", RentInput{TenantID: tenant.ID, BillingMonth: domain.MustParseDate("2024-03-01"), DueAmount: dec(-1)}},
		{"paid above due", RentInput{TenantID: tenant.ID, BillingMonth: domain.MustParseDate("2024-03-01"), DueAmount: dec(100), PaidAmount: dec(200)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Upsert(ctx, tc.in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	_, err := svc.Upsert(ctx, RentInput{TenantID: 99, BillingMonth: domain.MustParseDate("2024-03-01"), DueAmount: dec(100)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPayPartialClampsToBalance(t *testing.T) {
	svc, _, tenant := newRentFixture(t)
	ctx := context.Background()
	rec := seedRecord(t, svc, tenant.ID, 10000, 4000)

	got, err := svc.Pay(ctx, rec.ID, billing.Payment{Mode: billing.PayPartial, Amount: dec(7000)})
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.Equal(dec(10000)))
	assert.Equal(t, domain.StatusOnTime, got.Status)
	assert.Equal(t, int64(1), *got.AccountID)
}

func TestPayRejectsNegativeAmountBeforeMutation(t *testing.T) {
	svc, rents, tenant := newRentFixture(t)
	rec := seedRecord(t, svc, tenant.ID, 10000, 4000)

	_, err := svc.Pay(context.Background(), rec.ID, billing.Payment{Mode: billing.PayPartial, Amount: dec(-500)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	stored, err := rents.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.True(t, stored.PaidAmount.Equal(dec(4000)))
}

func TestPayFullSwitchesAccount(t *testing.T) {
	svc, _, tenant := newRentFixture(t)
	rec := seedRecord(t, svc, tenant.ID, 10000, 0)

	got, err := svc.Pay(context.Background(), rec.ID, billing.Payment{Mode: billing.PayFull, AccountID: i64(7)})
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.Equal(dec(10000)))
	assert.Equal(t, int64(7), *got.AccountID)
}

func TestPayUnknownRecord(t *testing.T) {
	svc, _, _ := newRentFixture(t)

	_, err := svc.Pay(context.Background(), 404, billing.Payment{Mode: billing.PayFull})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEditOutstandingMode(t *testing.T) {
	svc, _, tenant := newRentFixture(t)
	rec := seedRecord(t, svc, tenant.ID, 10000, 4000)

	got, err := svc.Edit(context.Background(), rec.ID, billing.ManualEdit{
		DueAmount:   dec(2000),
		PaidAmount:  dec(4000),
		Outstanding: true,
		AccountID:   i64(1),
	})
	require.NoError(t, err)
	assert.True(t, got.DueAmount.Equal(dec(6000)))
	assert.Equal(t, domain.StatusPartial, got.Status)
}

func TestDeleteDueWritesOffOrRemoves(t *testing.T) {
	svc, rents, tenant := newRentFixture(t)
	ctx := context.Background()

	rec := seedRecord(t, svc, tenant.ID, 10000, 4000)
	got, err := svc.DeleteDue(ctx, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.DueAmount.Equal(dec(4000)))
	assert.Equal(t, domain.StatusOnTime, got.Status)

	unpaid, err := svc.Upsert(ctx, RentInput{
		TenantID:     tenant.ID,
		BillingMonth: domain.MustParseDate("2024-02-01"),
		DueAmount:    dec(10000),
	})
	require.NoError(t, err)
	got, err = svc.DeleteDue(ctx, unpaid.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	_, err = rents.Get(ctx, unpaid.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteCollectionReopensBalance(t *testing.T) {
	svc, _, tenant := newRentFixture(t)
	rec := seedRecord(t, svc, tenant.ID, 10000, 10000)

	got, err := svc.DeleteCollection(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.IsZero())
	assert.Equal(t, domain.StatusDue, got.Status)
	assert.Nil(t, got.AccountID)
	assert.Nil(t, got.TransactionAt)
}

func TestListDueAndCollectedByRange(t *testing.T) {
	svc, _, tenant := newRentFixture(t)
	ctx := context.Background()
	seedRecord(t, svc, tenant.ID, 10000, 4000)

	march := ledger.CurrentMonth(clockAt("2024-03-15").t)
	due, err := svc.ListDue(ctx, march)
	require.NoError(t, err)
	assert.Len(t, due, 1)

	collected, err := svc.ListCollected(ctx, ledger.LastMonth(clockAt("2024-03-15").t))
	require.NoError(t, err)
	assert.Empty(t, collected)

	collected, err = svc.ListCollected(ctx, ledger.DateRange{})
	require.NoError(t, err)
	assert.Len(t, collected, 1)
}
