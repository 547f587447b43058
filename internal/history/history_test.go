package history

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
)

func tenant(id int64, name string) domain.Tenant {
	return domain.Tenant{
		ID:         id,
		FullName:   name,
		RoomNumber: "101",
		Active:     true,
		Billing:    &domain.MonthlyBilling{Rent: decimal.NewFromInt(8000)},
	}
}

// fakeHash is an in-memory stand-in for the Redis hash commands
type fakeHash struct {
	data map[string]map[string]string
	err  error
}

func newFakeHash() *fakeHash { return &fakeHash{data: map[string]map[string]string{}} }

func (f *fakeHash) HSet(_ context.Context, key, field, value string) error {
	if f.err != nil {
		return f.err
	}
	if f.data[key] == nil {
		f.data[key] = map[string]string{}
	}
	f.data[key][field] = value
	return nil
}

func (f *fakeHash) HDel(_ context.Context, key string, fields ...string) error {
	if f.err != nil {
		return f.err
	}
	for _, field := range fields {
		delete(f.data[key], field)
	}
	return nil
}

func (f *fakeHash) HGetAll(_ context.Context, key string) (map[string]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]string{}
	for k, v := range f.data[key] {
		out[k] = v
	}
	return out, nil
}

func stores() map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  NewRedisStore(newFakeHash(), "", nil),
	}
}

func TestStorePutIsIdempotent(t *testing.T) {
	for name, store := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Put(ctx, tenant(7, "Meera")))
			require.NoError(t, store.Put(ctx, tenant(7, "Meera Nair")))

			list, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "Meera Nair", list[0].FullName)
			assert.False(t, list[0].Active)
			m, ok := list[0].Monthly()
			require.True(t, ok)
			assert.True(t, m.Rent.Equal(decimal.NewFromInt(8000)))
		})
	}
}

func TestStoreRemove(t *testing.T) {
	for name, store := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Put(ctx, tenant(1, "A")))
			require.NoError(t, store.Put(ctx, tenant(2, "B")))
			require.NoError(t, store.Remove(ctx, 1))
			require.NoError(t, store.Remove(ctx, 99))

			list, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, int64(2), list[0].ID)
		})
	}
}

func TestCaptureDoesNotAliasBilling(t *testing.T) {
	live := tenant(3, "C")
	snap := Capture(live)
	m, _ := snap.Monthly()
	m.Rent = decimal.NewFromInt(1)

	orig, _ := live.Monthly()
	assert.True(t, orig.Rent.Equal(decimal.NewFromInt(8000)))
	assert.True(t, live.Active)
	assert.False(t, snap.Active)
}

func TestMergePrefersLiveTenants(t *testing.T) {
	live := []domain.Tenant{tenant(1, "Live One"), tenant(2, "Live Two")}
	hist := []domain.Tenant{Capture(tenant(2, "Old Two")), Capture(tenant(7, "Deleted Seven"))}

	merged := Merge(live, hist)
	require.Len(t, merged, 3)
	idx := Index(merged)
	assert.Equal(t, "Live Two", idx[2].FullName)
	assert.Equal(t, "Deleted Seven", idx[7].FullName)
	assert.False(t, idx[7].Active)
}

func TestRedisStoreSurfacesErrors(t *testing.T) {
	hash := newFakeHash()
	hash.err = errors.New("connection refused")
	store := NewRedisStore(hash, "k", nil)

	assert.Error(t, store.Put(context.Background(), tenant(1, "A")))
	_, err := store.List(context.Background())
	assert.ErrorContains(t, err, "connection refused")
}

func TestRedisStoreSkipsCorruptSnapshots(t *testing.T) {
	hash := newFakeHash()
	hash.data[DefaultKey] = map[string]string{"5": "{not json"}
	store := NewRedisStore(hash, "", nil)
	require.NoError(t, store.Put(context.Background(), tenant(4, "D")))

	list, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(4), list[0].ID)
}
