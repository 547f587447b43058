package service

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func i64(v int64) *int64 { return &v }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func clockAt(s string) fixedClock {
	return fixedClock{t: domain.MustParseDate(s).Time().Add(10 * time.Hour)}
}

func monthly(name, room string, joining string, rent, paid int64) domain.Tenant {
	return domain.Tenant{
		FullName:    name,
		RoomNumber:  room,
		JoiningDate: domain.MustParseDate(joining),
		Active:      true,
		Billing:     &domain.MonthlyBilling{Rent: dec(rent), RentPaidAmount: dec(paid)},
	}
}

func daily(name, room string, joining string, amount int64, account *int64) domain.Tenant {
	return domain.Tenant{
		FullName:    name,
		RoomNumber:  room,
		JoiningDate: domain.MustParseDate(joining),
		Active:      true,
		Billing:     &domain.DailyBilling{CollectionAmount: dec(amount), CollectionAccountID: account, StayDays: 1},
	}
}

type memTenants struct {
	mu     sync.Mutex
	byID   map[int64]domain.Tenant
	nextID int64
}

func newMemTenants() *memTenants {
	return &memTenants{byID: map[int64]domain.Tenant{}}
}

func (m *memTenants) filter(keep func(domain.Tenant) bool) []domain.Tenant {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Tenant{}
	for _, t := range m.byID {
		if keep(t) {
			out = append(out, t.Clone())
		}
	}
	slices.SortFunc(out, func(a, b domain.Tenant) int { return int(a.ID - b.ID) })
	return out
}

func (m *memTenants) ListActive(context.Context) ([]domain.Tenant, error) {
	return m.filter(func(t domain.Tenant) bool { return t.Active && !t.IsDaily() }), nil
}

func (m *memTenants) ListAll(context.Context) ([]domain.Tenant, error) {
	return m.filter(func(domain.Tenant) bool { return true }), nil
}

func (m *memTenants) ListDaily(context.Context) ([]domain.Tenant, error) {
	return m.filter(func(t domain.Tenant) bool { return t.Active && t.IsDaily() }), nil
}

func (m *memTenants) Get(_ context.Context, id int64) (*domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok {
		return nil, domain.NotFoundf("tenant %d not found", id)
	}
	cp := t.Clone()
	return &cp, nil
}

func (m *memTenants) Create(_ context.Context, t *domain.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t.ID = m.nextID
	m.byID[t.ID] = t.Clone()
	return nil
}

func (m *memTenants) Update(_ context.Context, t *domain.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[t.ID]; !ok {
		return domain.NotFoundf("tenant %d not found", t.ID)
	}
	m.byID[t.ID] = t.Clone()
	return nil
}

func (m *memTenants) mutate(id int64, fn func(*domain.Tenant)) (*domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok {
		return nil, domain.NotFoundf("tenant %d not found", id)
	}
	t = t.Clone()
	fn(&t)
	m.byID[id] = t
	cp := t.Clone()
	return &cp, nil
}

func (m *memTenants) Delete(_ context.Context, id int64) error {
	_, err := m.mutate(id, func(t *domain.Tenant) { t.Active = false })
	return err
}

func (m *memTenants) Checkout(_ context.Context, id int64, on domain.Date) (*domain.Tenant, error) {
	return m.mutate(id, func(t *domain.Tenant) {
		t.Active = false
		t.CheckoutDate = on
	})
}

func (m *memTenants) ClearDailyCollection(_ context.Context, id int64) (*domain.Tenant, error) {
	return m.mutate(id, func(t *domain.Tenant) {
		if d, ok := t.Daily(); ok {
			d.CollectionAmount = decimal.Zero
			d.CollectionAccountID = nil
			d.TransactionDate = domain.Date{}
		}
	})
}

func (m *memTenants) ExistsActiveName(_ context.Context, name string, excludeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byID {
		if t.Active && t.ID != excludeID && strings.EqualFold(t.FullName, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memTenants) MarkDueGenerated(_ context.Context, id int64, on domain.Date) error {
	_, err := m.mutate(id, func(t *domain.Tenant) {
		if mb, ok := t.Monthly(); ok {
			mb.LastDueGeneratedFor = on
		}
	})
	return err
}

type memRents struct {
	mu     sync.Mutex
	byID   map[int64]domain.RentRecord
	nextID int64
	err    error
}

func newMemRents() *memRents {
	return &memRents{byID: map[int64]domain.RentRecord{}}
}

func inBounds(d, from, to domain.Date) bool {
	if from.IsZero() || to.IsZero() {
		return true
	}
	return !d.Before(from) && !d.After(to)
}

func (m *memRents) list(keep func(domain.RentRecord) bool) ([]domain.RentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []domain.RentRecord{}
	for _, r := range m.byID {
		if keep(r) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b domain.RentRecord) int { return int(a.ID - b.ID) })
	return out, nil
}

func (m *memRents) ListDue(_ context.Context, from, to domain.Date) ([]domain.RentRecord, error) {
	return m.list(func(r domain.RentRecord) bool {
		return r.PaidAmount.LessThan(r.DueAmount) && inBounds(r.BillingMonth, from, to)
	})
}

func (m *memRents) ListCollected(_ context.Context, from, to domain.Date) ([]domain.RentRecord, error) {
	return m.list(func(r domain.RentRecord) bool {
		return r.PaidAmount.IsPositive() && r.TransactionAt != nil && inBounds(r.TransactionDate(), from, to)
	})
}

func (m *memRents) Get(_ context.Context, id int64) (*domain.RentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, domain.NotFoundf("rent record %d not found", id)
	}
	return &r, nil
}

func (m *memRents) FindByTenantMonth(_ context.Context, tenantID int64, month domain.Date) (*domain.RentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.byID {
		if r.TenantID == tenantID && r.BillingMonth.Equal(month.FirstOfMonth()) {
			return &r, nil
		}
	}
	return nil, domain.NotFoundf("no rent record for tenant %d", tenantID)
}

func (m *memRents) Create(_ context.Context, rec *domain.RentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.BillingMonth = rec.BillingMonth.FirstOfMonth()
	for id, r := range m.byID {
		if r.TenantID == rec.TenantID && r.BillingMonth.Equal(rec.BillingMonth) {
			rec.ID = id
			m.byID[id] = *rec
			return nil
		}
	}
	m.nextID++
	rec.ID = m.nextID
	m.byID[rec.ID] = *rec
	return nil
}

func (m *memRents) Update(_ context.Context, id int64, u domain.RentUpdate) (*domain.RentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, domain.NotFoundf("rent record %d not found", id)
	}
	r.DueAmount = u.DueAmount
	r.PaidAmount = u.PaidAmount
	r.Status = u.Status
	r.AccountID = u.AccountID
	r.TransactionAt = u.TransactionAt
	m.byID[id] = r
	return &r, nil
}

func (m *memRents) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.NotFoundf("rent record %d not found", id)
	}
	delete(m.byID, id)
	return nil
}

func (m *memRents) all() []domain.RentRecord {
	out, _ := m.list(func(domain.RentRecord) bool { return true })
	return out
}

type memRooms struct {
	mu     sync.Mutex
	rooms  []domain.Room
	nextID int64
	calls  int
}

func (m *memRooms) List(context.Context) ([]domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return slices.Clone(m.rooms), nil
}

func (m *memRooms) Save(_ context.Context, room *domain.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rooms {
		if r.RoomNumber == room.RoomNumber && r.ID != room.ID {
			return domain.Conflictf("room %s already exists", room.RoomNumber)
		}
		if room.ID != 0 && r.ID == room.ID {
			m.rooms[i] = *room
			return nil
		}
	}
	if room.ID != 0 {
		return domain.NotFoundf("room %d not found", room.ID)
	}
	m.nextID++
	room.ID = m.nextID
	m.rooms = append(m.rooms, *room)
	return nil
}

func (m *memRooms) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rooms {
		if r.ID == id {
			m.rooms = slices.Delete(m.rooms, i, i+1)
			return nil
		}
	}
	return domain.NotFoundf("room %d not found", id)
}

type memAccounts struct {
	mu       sync.Mutex
	accounts []domain.Account
	nextID   int64
	calls    int
}

func (m *memAccounts) List(context.Context) ([]domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return slices.Clone(m.accounts), nil
}

func (m *memAccounts) Get(_ context.Context, id int64) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, domain.NotFoundf("account %d not found", id)
}

func (m *memAccounts) Save(_ context.Context, a *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == 0 {
		m.nextID++
		a.ID = m.nextID
		m.accounts = append(m.accounts, *a)
		return nil
	}
	for i, existing := range m.accounts {
		if existing.ID == a.ID {
			m.accounts[i] = *a
			return nil
		}
	}
	return domain.NotFoundf("account %d not found", a.ID)
}

func (m *memAccounts) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.accounts {
		if a.ID == id {
			m.accounts = slices.Delete(m.accounts, i, i+1)
			return nil
		}
	}
	return domain.NotFoundf("account %d not found", id)
}

type memOperators struct {
	mu   sync.Mutex
	byID map[string]*domain.Operator
}

func newMemOperators() *memOperators {
	return &memOperators{byID: map[string]*domain.Operator{}}
}

func (m *memOperators) Create(_ context.Context, op *domain.Operator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if strings.EqualFold(existing.Email, op.Email) {
			return domain.Conflictf("operator %s already exists", op.Email)
		}
	}
	op.ID = strconv.Itoa(len(m.byID) + 1)
	cp := *op
	m.byID[op.ID] = &cp
	return nil
}

func (m *memOperators) GetByEmail(_ context.Context, email string) (*domain.Operator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range m.byID {
		if strings.EqualFold(op.Email, email) && op.IsActive {
			cp := *op
			return &cp, nil
		}
	}
	return nil, domain.NotFoundf("operator %s not found", email)
}

func (m *memOperators) GetByID(_ context.Context, id string) (*domain.Operator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	op, ok := m.byID[id]
	if !ok {
		return nil, domain.NotFoundf("operator %s not found", id)
	}
	cp := *op
	return &cp, nil
}

func (m *memOperators) UpdatePassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	op, ok := m.byID[id]
	if !ok {
		return domain.NotFoundf("operator %s not found", id)
	}
	op.PasswordHash = hash
	return nil
}

var errStorage = errors.New("connection refused")
