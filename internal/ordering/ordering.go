// Package ordering sorts tenant and ledger rows by one operator-selected key at a time.
package ordering

import (
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/aryan0dhankhar/pgledger/internal/billing"
	"github.com/aryan0dhankhar/pgledger/internal/domain"
	"github.com/aryan0dhankhar/pgledger/internal/ledger"
)

// Direction of a sort
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Tenant sort keys
const (
	TenantFullName    = "fullName"
	TenantRoomNumber  = "roomNumber"
	TenantJoiningDate = "joiningDate"
	TenantDueAmount   = "dueAmount"
)

// Rent and ledger sort keys
const (
	RentBillingMonth = "billingMonth"
	RentTenantName   = "tenantName"
	RentRoomNumber   = "roomNumber"
	RentDue          = "due"
	RentPaidAmount   = "paidAmount"
	RentStatus       = "status"
)

// State is the active sort key and direction. An empty key leaves input order.
type State struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
}

// Toggle flips the direction when key is already active, otherwise selects key ascending
func (s State) Toggle(key string) State {
	if s.Key == key {
		if s.Direction == Desc {
			return State{Key: key, Direction: Asc}
		}
		return State{Key: key, Direction: Desc}
	}
	return State{Key: key, Direction: Asc}
}

// ParseState reads a key and direction from query parameters. Unknown keys are
// rejected against the allowed set; a missing direction means ascending.
func ParseState(key, dir string, allowed []string) (State, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return State{}, nil
	}
	if !slices.Contains(allowed, key) {
		return State{}, domain.Validationf("unknown sort key %q", key)
	}
	switch d := Direction(strings.ToLower(strings.TrimSpace(dir))); d {
	case "", Asc:
		return State{Key: key, Direction: Asc}, nil
	case Desc:
		return State{Key: key, Direction: Desc}, nil
	default:
		return State{}, domain.Validationf("unknown sort direction %q", dir)
	}
}

// TenantKeys and RentKeys list the sortable keys per row type
var (
	TenantKeys = []string{TenantFullName, TenantRoomNumber, TenantJoiningDate, TenantDueAmount}
	RentKeys   = []string{RentBillingMonth, RentTenantName, RentRoomNumber, RentDue, RentPaidAmount, RentStatus}
)

// Comparator orders two rows of T
type Comparator[T any] func(a, b T) int

// Sort stably orders items by the comparator registered for state.Key.
// Rows comparing equal keep their input order in both directions.
func Sort[T any](items []T, state State, comparators map[string]Comparator[T]) {
	cmp, ok := comparators[state.Key]
	if !ok {
		return
	}
	slices.SortStableFunc(items, func(a, b T) int {
		c := cmp(a, b)
		if state.Direction == Desc {
			return -c
		}
		return c
	})
}

// newCollator is created per sort; collators are not safe for concurrent use
func newCollator() *collate.Collator {
	return collate.New(language.English)
}

// RoomCompare puts ground-floor "G" rooms first ordered by their number, then
// numeric rooms numerically, then anything else by collation.
func RoomCompare(col *collate.Collator, a, b string) int {
	ga, na := roomRank(a)
	gb, nb := roomRank(b)
	if ga != gb {
		return ga - gb
	}
	if ga == 2 {
		return col.CompareString(domain.NormalizeRoomNumber(a), domain.NormalizeRoomNumber(b))
	}
	switch {
	case na < nb:
		return -1
	case na > nb:
		return 1
	}
	return 0
}

func roomRank(room string) (int, int) {
	n := domain.NormalizeRoomNumber(room)
	if rest, ok := strings.CutPrefix(n, "G"); ok {
		if v, err := strconv.Atoi(rest); err == nil {
			return 0, v
		}
		return 2, 0
	}
	if v, err := strconv.Atoi(n); err == nil {
		return 1, v
	}
	return 2, 0
}

// SortRooms orders rooms by room number
func SortRooms(rooms []domain.Room) {
	col := newCollator()
	slices.SortStableFunc(rooms, func(a, b domain.Room) int {
		return RoomCompare(col, a.RoomNumber, b.RoomNumber)
	})
}

// SortRoomNumbers orders plain room numbers the same way
func SortRoomNumbers(rooms []string) {
	col := newCollator()
	slices.SortStableFunc(rooms, func(a, b string) int {
		return RoomCompare(col, a, b)
	})
}

// SortTenants orders tenants by state
func SortTenants(tenants []domain.Tenant, state State) {
	col := newCollator()
	Sort(tenants, state, map[string]Comparator[domain.Tenant]{
		TenantFullName: func(a, b domain.Tenant) int {
			return col.CompareString(a.FullName, b.FullName)
		},
		TenantRoomNumber: func(a, b domain.Tenant) int {
			return RoomCompare(col, a.RoomNumber, b.RoomNumber)
		},
		TenantJoiningDate: func(a, b domain.Tenant) int {
			return a.JoiningDate.Compare(b.JoiningDate)
		},
		TenantDueAmount: func(a, b domain.Tenant) int {
			return billing.TenantOutstanding(a).Cmp(billing.TenantOutstanding(b))
		},
	})
}

// SortRecords orders rent records by state. "due" is the outstanding balance.
func SortRecords(records []domain.RentRecord, state State) {
	col := newCollator()
	Sort(records, state, map[string]Comparator[domain.RentRecord]{
		RentBillingMonth: func(a, b domain.RentRecord) int {
			return a.BillingMonth.Compare(b.BillingMonth)
		},
		RentTenantName: func(a, b domain.RentRecord) int {
			return col.CompareString(a.TenantName, b.TenantName)
		},
		RentRoomNumber: func(a, b domain.RentRecord) int {
			return RoomCompare(col, a.RoomNumber, b.RoomNumber)
		},
		RentDue: func(a, b domain.RentRecord) int {
			return a.Balance().Cmp(b.Balance())
		},
		RentPaidAmount: func(a, b domain.RentRecord) int {
			return a.PaidAmount.Cmp(b.PaidAmount)
		},
		RentStatus: func(a, b domain.RentRecord) int {
			return col.CompareString(string(a.Status), string(b.Status))
		},
	})
}

// SortEntries orders daily entries with the rent keys: the transaction date stands
// in for the billing month, the amount for paid, and due is always zero.
func SortEntries(entries []ledger.Entry, state State) {
	col := newCollator()
	Sort(entries, state, map[string]Comparator[ledger.Entry]{
		RentBillingMonth: func(a, b ledger.Entry) int {
			return a.TransactionDate.Compare(b.TransactionDate)
		},
		RentTenantName: func(a, b ledger.Entry) int {
			return col.CompareString(a.TenantName, b.TenantName)
		},
		RentRoomNumber: func(a, b ledger.Entry) int {
			return RoomCompare(col, a.RoomNumber, b.RoomNumber)
		},
		RentDue: func(ledger.Entry, ledger.Entry) int {
			return 0
		},
		RentPaidAmount: func(a, b ledger.Entry) int {
			return a.Amount.Cmp(b.Amount)
		},
		RentStatus: func(ledger.Entry, ledger.Entry) int {
			return 0
		},
	})
}
