package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
)

func TestAccountSaveValidates(t *testing.T) {
	svc := NewAccountService(&memAccounts{}, nil)
	ctx := context.Background()

	_, err := svc.Save(ctx, domain.Account{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Save(ctx, domain.Account{Name: "HDFC", Mode: "cheque"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := svc.Save(ctx, domain.Account{Name: " HDFC ", Mode: "bank"})
	require.NoError(t, err)
	assert.Equal(t, "HDFC", got.Name)
	assert.Equal(t, domain.AccountBank, got.Mode)
}

func TestAccountListCacheInvalidatedOnWrite(t *testing.T) {
	repo := &memAccounts{}
	svc := NewAccountService(repo, nil)
	ctx := context.Background()

	_, err := svc.Save(ctx, domain.Account{Name: "Cash box", Mode: domain.AccountCash})
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	_, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)

	require.NoError(t, svc.Delete(ctx, list[0].ID))
	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 2, repo.calls)

	assert.ErrorIs(t, svc.Delete(ctx, 99), domain.ErrNotFound)
}
