// Package history retains snapshots of deleted tenants so collections recorded
// against them stay attributable after they leave the live tenant list.
package history

import (
	"context"
	"sync"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
)

// Store is an id-keyed soft-delete store. Put replaces any snapshot with the same id.
type Store interface {
	Put(ctx context.Context, tenant domain.Tenant) error
	Remove(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.Tenant, error)
}

// Capture returns the pre-deletion snapshot marked inactive
func Capture(t domain.Tenant) domain.Tenant {
	snap := t.Clone()
	snap.Active = false
	return snap
}

// Merge is the ledger tenant universe: every live tenant plus each historical
// snapshot whose id does not appear in live. Live order is kept, history follows.
func Merge(live, hist []domain.Tenant) []domain.Tenant {
	ids := make(map[int64]struct{}, len(live))
	for _, t := range live {
		ids[t.ID] = struct{}{}
	}
	out := make([]domain.Tenant, 0, len(live)+len(hist))
	out = append(out, live...)
	for _, t := range hist {
		if _, ok := ids[t.ID]; ok {
			continue
		}
		ids[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Index maps tenant ids to tenants
func Index(tenants []domain.Tenant) map[int64]domain.Tenant {
	idx := make(map[int64]domain.Tenant, len(tenants))
	for _, t := range tenants {
		idx[t.ID] = t
	}
	return idx
}

// MemoryStore keeps snapshots in process, in first-capture order
type MemoryStore struct {
	mu    sync.RWMutex
	order []int64
	byID  map[int64]domain.Tenant
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: map[int64]domain.Tenant{}}
}

func (s *MemoryStore) Put(_ context.Context, t domain.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[t.ID]; !ok {
		s.order = append(s.order, t.ID)
	}
	s.byID[t.ID] = Capture(t)
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return nil
	}
	delete(s.byID, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Tenant, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	return out, nil
}
