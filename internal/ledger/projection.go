// Package ledger builds the combined view of monthly rent records and daily
// collections and narrows it to an operator-chosen window.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
)

// Entry is a daily collection projected from a daily-accommodation tenant.
// It is never persisted; removing it clears the tenant's daily collection fields.
type Entry struct {
	TenantID        int64             `json:"tenantId"`
	TenantName      string            `json:"tenantName"`
	RoomNumber      string            `json:"roomNumber"`
	Amount          decimal.Decimal   `json:"amount"`
	AccountID       *int64            `json:"accountId"`
	AccountName     string            `json:"accountName,omitempty"`
	TransactionDate domain.Date       `json:"transactionDate"`
	JoiningDate     domain.Date       `json:"joiningDate"`
	CheckoutDate    domain.Date       `json:"checkoutDate"`
	FoodOption      domain.FoodOption `json:"dailyFoodOption,omitempty"`
	StayDays        int               `json:"dailyStayDays"`
}

// Project emits one entry per active daily tenant with a positive collection.
// It does not apply any range.
func Project(tenants []domain.Tenant) []Entry {
	entries := make([]Entry, 0)
	for i := range tenants {
		t := &tenants[i]
		if !t.Active {
			continue
		}
		daily, ok := t.Daily()
		if !ok || !daily.CollectionAmount.IsPositive() {
			continue
		}
		date := daily.TransactionDate
		if date.IsZero() {
			date = t.JoiningDate
		}
		entries = append(entries, Entry{
			TenantID:        t.ID,
			TenantName:      t.FullName,
			RoomNumber:      t.RoomNumber,
			Amount:          daily.CollectionAmount,
			AccountID:       daily.CollectionAccountID,
			TransactionDate: date,
			JoiningDate:     t.JoiningDate,
			CheckoutDate:    t.CheckoutDate,
			FoodOption:      daily.FoodOption,
			StayDays:        daily.StayDays,
		})
	}
	return entries
}

// Accounts indexes accounts by id for tagging
type Accounts map[int64]domain.Account

// IndexAccounts builds an Accounts lookup
func IndexAccounts(accounts []domain.Account) Accounts {
	idx := make(Accounts, len(accounts))
	for _, a := range accounts {
		idx[a.ID] = a
	}
	return idx
}

// Lookup returns the account referenced by id, if it still exists
func (a Accounts) Lookup(id *int64) (domain.Account, bool) {
	if id == nil {
		return domain.Account{}, false
	}
	acc, ok := a[*id]
	return acc, ok
}

// Name returns the account name or "" when untagged or unknown
func (a Accounts) Name(id *int64) string {
	acc, _ := a.Lookup(id)
	return acc.Name
}

// TagEntries fills account names on projected entries
func (a Accounts) TagEntries(entries []Entry) {
	for i := range entries {
		entries[i].AccountName = a.Name(entries[i].AccountID)
	}
}

// TagRecords fills account names on rent records that do not carry one yet
func (a Accounts) TagRecords(records []domain.RentRecord) {
	for i := range records {
		if records[i].AccountName == "" {
			records[i].AccountName = a.Name(records[i].AccountID)
		}
	}
}
