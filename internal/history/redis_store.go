package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
)

// DefaultKey is the Redis hash holding deleted tenant snapshots
const DefaultKey = "pgledger:tenant-history"

// HashClient is the subset of the Redis client the store uses
type HashClient interface {
	HSet(ctx context.Context, key, field, value string) error
	HDel(ctx context.Context, key string, fields ...string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// RedisStore keeps snapshots as JSON values of one hash, field = tenant id,
// so history survives server restarts.
type RedisStore struct {
	client HashClient
	key    string
	logger *slog.Logger
}

func NewRedisStore(client HashClient, key string, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{client: client, key: key, logger: logger}
}

func (s *RedisStore) Put(ctx context.Context, t domain.Tenant) error {
	data, err := json.Marshal(Capture(t))
	if err != nil {
		return fmt.Errorf("failed to encode tenant snapshot: %w", err)
	}
	if err := s.client.HSet(ctx, s.key, strconv.FormatInt(t.ID, 10), string(data)); err != nil {
		return fmt.Errorf("failed to store tenant snapshot: %w", err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, id int64) error {
	if err := s.client.HDel(ctx, s.key, strconv.FormatInt(id, 10)); err != nil {
		return fmt.Errorf("failed to remove tenant snapshot: %w", err)
	}
	return nil
}

// List returns snapshots ordered by tenant id. Undecodable values are logged and skipped.
func (s *RedisStore) List(ctx context.Context) ([]domain.Tenant, error) {
	raw, err := s.client.HGetAll(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant history: %w", err)
	}
	out := make([]domain.Tenant, 0, len(raw))
	for field, value := range raw {
		var t domain.Tenant
		if err := json.Unmarshal([]byte(value), &t); err != nil {
			s.logger.Warn("skipping corrupt tenant snapshot", "field", field, "error", err)
			continue
		}
		t.Active = false
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b domain.Tenant) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out, nil
}
