package aggregate

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
	"github.com/aryan0dhankhar/pgledger/internal/ledger"
)

// AccountTotal is the collected amount tagged with one account ("" key = untagged)
type AccountTotal struct {
	AccountKey  string             `json:"accountKey"`
	AccountName string             `json:"accountName"`
	Mode        domain.AccountMode `json:"mode,omitempty"`
	Amount      decimal.Decimal    `json:"amount"`
}

// CollectionSummary totals the collected view after the account filter
type CollectionSummary struct {
	RecordsTotal decimal.Decimal `json:"recordsTotal"`
	DailyTotal   decimal.Decimal `json:"dailyTotal"`
	Total        decimal.Decimal `json:"total"`
	RecordCount  int             `json:"recordCount"`
	EntryCount   int             `json:"entryCount"`
	ByAccount    []AccountTotal  `json:"byAccount"`
}

// Summarize applies the account filter to range-filtered records and entries
// and totals what remains.
func Summarize(records []domain.RentRecord, entries []ledger.Entry, filter ledger.AccountFilter, accounts ledger.Accounts) CollectionSummary {
	records = ledger.RecordsForAccount(records, filter)
	entries = ledger.EntriesForAccount(entries, filter)

	byKey := map[string]*AccountTotal{}
	add := func(id *int64, amount decimal.Decimal) {
		key := domain.AccountKey(id)
		at, ok := byKey[key]
		if !ok {
			at = &AccountTotal{AccountKey: key, Amount: decimal.Zero}
			if acc, found := accounts.Lookup(id); found {
				at.AccountName = acc.Name
				at.Mode = acc.Mode
			}
			byKey[key] = at
		}
		at.Amount = at.Amount.Add(amount)
	}

	s := CollectionSummary{
		RecordsTotal: decimal.Zero,
		DailyTotal:   decimal.Zero,
		RecordCount:  len(records),
		EntryCount:   len(entries),
	}
	for _, r := range records {
		s.RecordsTotal = s.RecordsTotal.Add(r.PaidAmount)
		add(r.AccountID, r.PaidAmount)
	}
	for _, e := range entries {
		s.DailyTotal = s.DailyTotal.Add(e.Amount)
		add(e.AccountID, e.Amount)
	}
	s.Total = s.RecordsTotal.Add(s.DailyTotal)

	s.ByAccount = make([]AccountTotal, 0, len(byKey))
	for _, at := range byKey {
		s.ByAccount = append(s.ByAccount, *at)
	}
	slices.SortFunc(s.ByAccount, func(a, b AccountTotal) int {
		if len(a.AccountKey) != len(b.AccountKey) {
			return len(a.AccountKey) - len(b.AccountKey)
		}
		if a.AccountKey < b.AccountKey {
			return -1
		}
		if a.AccountKey > b.AccountKey {
			return 1
		}
		return 0
	})
	return s
}
