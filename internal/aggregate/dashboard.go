// Package aggregate folds filtered ledger data into dashboard, occupancy and
// collection figures. Every function is a pure function of its arguments.
package aggregate

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/aryan0dhankhar/pgledger/internal/billing"
	"github.com/aryan0dhankhar/pgledger/internal/domain"
	"github.com/aryan0dhankhar/pgledger/internal/ledger"
)

// Input is one refresh worth of filtered data
type Input struct {
	// DueRecords are rent records already narrowed to the due range
	DueRecords []domain.RentRecord
	// CollectedRecords and DailyEntries are narrowed to the collected range
	CollectedRecords []domain.RentRecord
	DailyEntries     []ledger.Entry
	// ActiveTenants are active monthly tenants, DailyTenants active daily ones
	ActiveTenants []domain.Tenant
	DailyTenants  []domain.Tenant
	// Universe resolves tenant ids to names, deleted tenants included
	Universe []domain.Tenant
	Rooms    []domain.Room
}

// TenantCollection attributes collected money to one tenant
type TenantCollection struct {
	TenantID   int64           `json:"tenantId"`
	TenantName string          `json:"tenantName"`
	RoomNumber string          `json:"roomNumber"`
	Active     bool            `json:"active"`
	Amount     decimal.Decimal `json:"amount"`
}

// Dashboard is the summary shown on the operator's landing page
type Dashboard struct {
	TotalRentCollection     decimal.Decimal    `json:"totalRentCollection"`
	TotalDailyCollection    decimal.Decimal    `json:"totalDailyCollection"`
	TotalDueAmount          decimal.Decimal    `json:"totalDueAmount"`
	TotalPendingCollection  decimal.Decimal    `json:"totalPendingCollection"`
	ActiveTenants           int                `json:"activeTenants"`
	DailyTenants            int                `json:"dailyTenants"`
	PaidTenantsThisMonth    int                `json:"paidTenantsThisMonth"`
	DueTenantsThisMonth     int                `json:"dueTenantsThisMonth"`
	PartialTenantsThisMonth int                `json:"partialTenantsThisMonth"`
	DueTenantIDs            []int64            `json:"dueTenantIds"`
	PartialTenantIDs        []int64            `json:"partialTenantIds"`
	PaidTenantIDs           []int64            `json:"paidTenantIds"`
	TotalBeds               int                `json:"totalBeds"`
	OccupiedBeds            int                `json:"occupiedBeds"`
	VacantBeds              int                `json:"vacantBeds"`
	Floors                  []FloorOccupancy   `json:"floors"`
	CollectionsByTenant     []TenantCollection `json:"collectionsByTenant"`
}

// Classification splits the due-range tenants by payment state
type Classification struct {
	Due     []int64
	Partial []int64
	Paid    []int64
}

// Classify derives due, partial and paid tenant ids. Paid is "collected in the
// collected set but not due in the due set", computed literally even when the two
// ranges differ.
func Classify(due, collected []domain.RentRecord) Classification {
	dueSet := map[int64]struct{}{}
	partialSet := map[int64]struct{}{}
	for _, r := range due {
		if !r.Balance().IsPositive() {
			continue
		}
		dueSet[r.TenantID] = struct{}{}
		if r.Status == domain.StatusPartial {
			partialSet[r.TenantID] = struct{}{}
		}
	}
	paidSet := map[int64]struct{}{}
	for _, r := range collected {
		if _, ok := dueSet[r.TenantID]; !ok {
			paidSet[r.TenantID] = struct{}{}
		}
	}
	return Classification{
		Due:     sortedIDs(dueSet),
		Partial: sortedIDs(partialSet),
		Paid:    sortedIDs(paidSet),
	}
}

// OutstandingDue is the sum of record balances
func OutstandingDue(records []domain.RentRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(billing.Balance(r.DueAmount, r.PaidAmount))
	}
	return total
}

// Compute builds the dashboard from filtered input
func Compute(in Input) Dashboard {
	records := sumPaid(in.CollectedRecords)
	daily := sumEntries(in.DailyEntries)
	outstanding := OutstandingDue(in.DueRecords)
	class := Classify(in.DueRecords, in.CollectedRecords)
	occ := ComputeOccupancy(in.Rooms, in.ActiveTenants)

	return Dashboard{
		TotalRentCollection:     records.Add(daily),
		TotalDailyCollection:    daily,
		TotalDueAmount:          outstanding,
		TotalPendingCollection:  outstanding,
		ActiveTenants:           len(in.ActiveTenants),
		DailyTenants:            len(in.DailyTenants),
		PaidTenantsThisMonth:    len(class.Paid),
		DueTenantsThisMonth:     len(class.Due),
		PartialTenantsThisMonth: len(class.Partial),
		DueTenantIDs:            class.Due,
		PartialTenantIDs:        class.Partial,
		PaidTenantIDs:           class.Paid,
		TotalBeds:               occ.Beds,
		OccupiedBeds:            occ.Occupied,
		VacantBeds:              occ.Vacant,
		Floors:                  occ.Floors,
		CollectionsByTenant:     ByTenant(in.CollectedRecords, in.DailyEntries, in.Universe),
	}
}

// ByTenant attributes collections to tenant names via the universe, falling back
// to the name carried on the record. Ordered by tenant id.
func ByTenant(records []domain.RentRecord, entries []ledger.Entry, universe []domain.Tenant) []TenantCollection {
	names := make(map[int64]domain.Tenant, len(universe))
	for _, t := range universe {
		names[t.ID] = t
	}
	totals := map[int64]*TenantCollection{}
	add := func(id int64, name, room string, amount decimal.Decimal) {
		tc, ok := totals[id]
		if !ok {
			tc = &TenantCollection{TenantID: id, TenantName: name, RoomNumber: room, Amount: decimal.Zero}
			if t, known := names[id]; known {
				tc.TenantName = t.FullName
				tc.RoomNumber = t.RoomNumber
				tc.Active = t.Active
			}
			totals[id] = tc
		}
		tc.Amount = tc.Amount.Add(amount)
	}
	for _, r := range records {
		add(r.TenantID, r.TenantName, r.RoomNumber, r.PaidAmount)
	}
	for _, e := range entries {
		add(e.TenantID, e.TenantName, e.RoomNumber, e.Amount)
	}

	out := make([]TenantCollection, 0, len(totals))
	for _, tc := range totals {
		out = append(out, *tc)
	}
	slices.SortFunc(out, func(a, b TenantCollection) int {
		switch {
		case a.TenantID < b.TenantID:
			return -1
		case a.TenantID > b.TenantID:
			return 1
		}
		return 0
	})
	return out
}

func sumPaid(records []domain.RentRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.PaidAmount)
	}
	return total
}

func sumEntries(entries []ledger.Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}

func sortedIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
