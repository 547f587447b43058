package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
	"github.com/aryan0dhankhar/pgledger/internal/history"
)

func newTenantFixture() (*TenantService, *memTenants, *memRents, *history.MemoryStore) {
	tenants := newMemTenants()
	rents := newMemRents()
	hist := history.NewMemoryStore()
	return NewTenantService(tenants, rents, hist, clockAt("2024-03-15"), nil), tenants, rents, hist
}

func TestTenantCreateNormalizesAndSyncsJoiningLedger(t *testing.T) {
	svc, _, rents, _ := newTenantFixture()
	ctx := context.Background()

	in := monthly("  Asha Rao ", "g1", "2024-03-05", 10000, 4000)
	in.Billing.(*domain.MonthlyBilling).Deposit = dec(5000)
	in.Billing.(*domain.MonthlyBilling).DepositPaidAmount = dec(5000)
	in.Billing.(*domain.MonthlyBilling).JoiningCollectionAccountID = i64(3)

	got, err := svc.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", got.FullName)
	assert.Equal(t, "G1", got.RoomNumber)
	m, ok := got.Monthly()
	require.True(t, ok)
	assert.True(t, m.RentDueAmount.Equal(dec(6000)))
	assert.Equal(t, domain.StatusPartial, m.PaymentStatus)

	records := rents.all()
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, got.ID, rec.TenantID)
	assert.Equal(t, "2024-03-01", rec.BillingMonth.String())
	assert.True(t, rec.DueAmount.Equal(dec(15000)))
	assert.True(t, rec.PaidAmount.Equal(dec(9000)))
	assert.Equal(t, domain.StatusPartial, rec.Status)
	require.NotNil(t, rec.TransactionAt)
	assert.Equal(t, "2024-03-05", rec.TransactionDate().String())
}

func TestTenantCreateDailySkipsLedger(t *testing.T) {
	svc, _, rents, _ := newTenantFixture()

	got, err := svc.Create(context.Background(), daily("Ravi", "101", "2024-03-10", 700, nil))
	require.NoError(t, err)
	d, ok := got.Daily()
	require.True(t, ok)
	assert.Equal(t, "2024-03-10", d.TransactionDate.String())
	assert.Empty(t, rents.all())
}

func TestTenantCreateRejectsDuplicateActiveName(t *testing.T) {
	svc, _, _, _ := newTenantFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, monthly("Asha Rao", "G1", "2024-03-01", 8000, 0))
	require.NoError(t, err)

	_, err = svc.Create(ctx, monthly("asha rao", "G2", "2024-03-01", 8000, 0))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestTenantCreateRequiresNameAndRoom(t *testing.T) {
	svc, _, _, _ := newTenantFixture()

	_, err := svc.Create(context.Background(), monthly(" ", "G1", "2024-03-01", 8000, 0))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Create(context.Background(), monthly("Asha", "", "2024-03-01", 8000, 0))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTenantUpdateKeepsDueCursor(t *testing.T) {
	svc, tenants, _, _ := newTenantFixture()
	ctx := context.Background()

	created, err := svc.Create(ctx, monthly("Asha", "G1", "2024-01-05", 8000, 8000))
	require.NoError(t, err)
	require.NoError(t, tenants.MarkDueGenerated(ctx, created.ID, domain.MustParseDate("2024-03-04")))

	edit := monthly("Asha", "G2", "2024-01-05", 9000, 9000)
	got, err := svc.Update(ctx, created.ID, edit)
	require.NoError(t, err)
	m, _ := got.Monthly()
	assert.Equal(t, "2024-03-04", m.LastDueGeneratedFor.String())
	assert.Equal(t, "G2", got.RoomNumber)
}

func TestTenantUpdateUnknown(t *testing.T) {
	svc, _, _, _ := newTenantFixture()

	_, err := svc.Update(context.Background(), 42, monthly("Asha", "G1", "2024-01-05", 8000, 0))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTenantDeleteRetainsHistory(t *testing.T) {
	svc, _, _, hist := newTenantFixture()
	ctx := context.Background()

	created, err := svc.Create(ctx, monthly("Asha", "G1", "2024-01-05", 8000, 8000))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, created.ID))

	retained, err := hist.List(ctx)
	require.NoError(t, err)
	require.Len(t, retained, 1)
	assert.Equal(t, "Asha", retained[0].FullName)
	assert.False(t, retained[0].Active)

	active, err := svc.ListAll(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, active)

	universe, err := svc.ListAll(ctx, true)
	require.NoError(t, err)
	require.Len(t, universe, 1)
	assert.Equal(t, created.ID, universe[0].ID)
}

func TestTenantCheckout(t *testing.T) {
	svc, _, _, _ := newTenantFixture()
	ctx := context.Background()

	created, err := svc.Create(ctx, monthly("Asha", "G1", "2024-01-05", 8000, 8000))
	require.NoError(t, err)

	got, err := svc.Checkout(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, "2024-03-15", got.CheckoutDate.String())
}

func TestClearDailyCollectionOnlyForDailyTenants(t *testing.T) {
	svc, _, _, _ := newTenantFixture()
	ctx := context.Background()

	m, err := svc.Create(ctx, monthly("Asha", "G1", "2024-01-05", 8000, 8000))
	require.NoError(t, err)
	_, err = svc.ClearDailyCollection(ctx, m.ID)
	assert.ErrorIs(t, err, domain.ErrValidation)

	d, err := svc.Create(ctx, daily("Ravi", "101", "2024-03-10", 700, i64(2)))
	require.NoError(t, err)
	got, err := svc.ClearDailyCollection(ctx, d.ID)
	require.NoError(t, err)
	db, _ := got.Daily()
	assert.True(t, db.CollectionAmount.IsZero())
	assert.Nil(t, db.CollectionAccountID)
	assert.True(t, db.TransactionDate.IsZero())
}
