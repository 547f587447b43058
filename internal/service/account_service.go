package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
	"github.com/aryan0dhankhar/pgledger/pkg/cache"
)

const (
	accountsCacheKey = "accounts:all"
	accountsCacheTTL = 5 * time.Minute
)

// AccountService manages the settlement accounts collections are tagged with
type AccountService struct {
	accounts domain.AccountRepository
	cache    *cache.Cache[[]domain.Account]
	logger   *slog.Logger
}

// NewAccountService creates a new account service
func NewAccountService(accounts domain.AccountRepository, logger *slog.Logger) *AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountService{
		accounts: accounts,
		cache:    cache.New[[]domain.Account](),
		logger:   logger,
	}
}

// List returns every account
func (s *AccountService) List(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.cache.GetOrLoad(ctx, accountsCacheKey, accountsCacheTTL, s.accounts.List)
	if err != nil {
		return nil, err
	}
	return slices.Clone(accounts), nil
}

// Get returns one account
func (s *AccountService) Get(ctx context.Context, id int64) (*domain.Account, error) {
	return s.accounts.Get(ctx, id)
}

// Save creates an account when ID is zero, otherwise updates it
func (s *AccountService) Save(ctx context.Context, a domain.Account) (*domain.Account, error) {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return nil, domain.Validationf("account name is required")
	}
	mode, err := domain.ParseAccountMode(string(a.Mode))
	if err != nil {
		return nil, err
	}
	a.Mode = mode
	if err := s.accounts.Save(ctx, &a); err != nil {
		return nil, err
	}
	s.cache.Delete(accountsCacheKey)
	s.logger.Info("account saved", slog.Int64("account_id", a.ID), slog.String("mode", string(a.Mode)))
	return &a, nil
}

// Delete removes an account. Collections tagged with it become untagged.
func (s *AccountService) Delete(ctx context.Context, id int64) error {
	if err := s.accounts.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Delete(accountsCacheKey)
	return nil
}
