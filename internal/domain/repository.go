package domain

import (
	"context"
	"time"
)

// TenantRepository is the persistence collaborator for tenants
type TenantRepository interface {
	ListActive(ctx context.Context) ([]Tenant, error)
	ListAll(ctx context.Context) ([]Tenant, error)
	ListDaily(ctx context.Context) ([]Tenant, error)
	Get(ctx context.Context, id int64) (*Tenant, error)
	Create(ctx context.Context, tenant *Tenant) error
	Update(ctx context.Context, tenant *Tenant) error
	Delete(ctx context.Context, id int64) error
	Checkout(ctx context.Context, id int64, on Date) (*Tenant, error)
	ClearDailyCollection(ctx context.Context, id int64) (*Tenant, error)
	ExistsActiveName(ctx context.Context, fullName string, excludeID int64) (bool, error)
	MarkDueGenerated(ctx context.Context, id int64, on Date) error
}

// RentRepository is the persistence collaborator for rent records
type RentRepository interface {
	ListDue(ctx context.Context, from, to Date) ([]RentRecord, error)
	ListCollected(ctx context.Context, from, to Date) ([]RentRecord, error)
	Get(ctx context.Context, id int64) (*RentRecord, error)
	FindByTenantMonth(ctx context.Context, tenantID int64, billingMonth Date) (*RentRecord, error)
	Create(ctx context.Context, record *RentRecord) error
	Update(ctx context.Context, id int64, update RentUpdate) (*RentRecord, error)
	Delete(ctx context.Context, id int64) error
}

// RoomRepository is the persistence collaborator for rooms
type RoomRepository interface {
	List(ctx context.Context) ([]Room, error)
	Save(ctx context.Context, room *Room) error
	Delete(ctx context.Context, id int64) error
}

// AccountRepository is the persistence collaborator for accounts
type AccountRepository interface {
	List(ctx context.Context) ([]Account, error)
	Get(ctx context.Context, id int64) (*Account, error)
	Save(ctx context.Context, account *Account) error
	Delete(ctx context.Context, id int64) error
}

// Clock supplies "now" so range defaults stay deterministic under test
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
