// Package billing derives per-tenant and per-record financial fields. Every function
// is pure: inputs are copied, results are returned for the caller to persist.
package billing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
)

// PaymentMode selects how a pay action settles a rent record
type PaymentMode string

const (
	PayFull    PaymentMode = "FULL"
	PayPartial PaymentMode = "PARTIAL"
)

// ParsePaymentMode defaults an empty mode to FULL
func ParsePaymentMode(s string) (PaymentMode, error) {
	switch m := PaymentMode(strings.ToUpper(strings.TrimSpace(s))); m {
	case "":
		return PayFull, nil
	case PayFull, PayPartial:
		return m, nil
	default:
		return "", domain.Validationf("unknown payment mode %q", s)
	}
}

// Payment is an operator's pay action against a rent record
type Payment struct {
	Mode            PaymentMode
	Amount          decimal.Decimal // PARTIAL only
	AccountID       *int64          // nil keeps the record's current tag
	TransactionDate domain.Date     // zero means "now"
}

// ManualEdit is a direct edit of a rent record's amounts. With Outstanding set the
// operator typed the remaining balance rather than the absolute due total.
type ManualEdit struct {
	DueAmount       decimal.Decimal
	PaidAmount      decimal.Decimal
	Outstanding     bool
	AccountID       *int64
	TransactionDate domain.Date
}

func nonNegative(v decimal.Decimal) decimal.Decimal {
	return decimal.Max(v, decimal.Zero)
}

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Min(decimal.Max(v, lo), hi)
}

// Balance is max(due - paid, 0)
func Balance(due, paid decimal.Decimal) decimal.Decimal {
	return nonNegative(due.Sub(paid))
}

// RecordStatus classifies a rent record
func RecordStatus(due, paid decimal.Decimal) domain.PaymentStatus {
	if paid.GreaterThanOrEqual(due) {
		return domain.StatusOnTime
	}
	if !paid.IsPositive() {
		return domain.StatusDue
	}
	return domain.StatusPartial
}

// NormalizeMonthly clamps amounts and derives rentDueAmount and paymentStatus
func NormalizeMonthly(m domain.MonthlyBilling) domain.MonthlyBilling {
	rent := nonNegative(m.Rent)
	deposit := nonNegative(m.Deposit)
	rentPaid := Clamp(m.RentPaidAmount, decimal.Zero, rent)
	depositPaid := Clamp(m.DepositPaidAmount, decimal.Zero, deposit)
	rentDue := Balance(rent, rentPaid)

	out := m
	out.Rent = rent
	out.Deposit = deposit
	out.RentPaidAmount = rentPaid
	out.DepositPaidAmount = depositPaid
	out.RentDueAmount = rentDue
	switch {
	case rentDue.IsZero():
		out.PaymentStatus = domain.StatusOnTime
	case rentPaid.IsPositive():
		out.PaymentStatus = domain.StatusPartial
	default:
		out.PaymentStatus = domain.StatusDue
	}
	if !rentPaid.Add(depositPaid).IsPositive() {
		out.JoiningCollectionAccountID = nil
	}
	return out
}

// NormalizeDaily clamps the collection, fills its date from the joining date (or today)
// and clears date and account when nothing was collected.
func NormalizeDaily(d domain.DailyBilling, joining, today domain.Date) domain.DailyBilling {
	out := d
	out.CollectionAmount = nonNegative(d.CollectionAmount)
	if out.CollectionAmount.IsPositive() {
		if out.TransactionDate.IsZero() {
			out.TransactionDate = joining
		}
		if out.TransactionDate.IsZero() {
			out.TransactionDate = today
		}
	} else {
		out.TransactionDate = domain.Date{}
		out.CollectionAccountID = nil
	}
	if out.StayDays < 1 {
		out.StayDays = 1
	}
	return out
}

// NormalizeTenant applies the write-time rules to a tenant about to be persisted
func NormalizeTenant(t domain.Tenant, today domain.Date) domain.Tenant {
	out := t.Clone()
	out.FullName = strings.TrimSpace(out.FullName)
	out.PhoneNumber = strings.TrimSpace(out.PhoneNumber)
	out.EmergencyContactNumber = strings.TrimSpace(out.EmergencyContactNumber)
	out.EmergencyContactRelationship = strings.TrimSpace(out.EmergencyContactRelationship)
	out.RoomNumber = domain.NormalizeRoomNumber(out.RoomNumber)
	if out.Active {
		out.CheckoutDate = domain.Date{}
	}

	switch b := out.Billing.(type) {
	case *domain.DailyBilling:
		n := NormalizeDaily(*b, out.JoiningDate, today)
		out.Billing = &n
	case *domain.MonthlyBilling:
		n := NormalizeMonthly(*b)
		out.Billing = &n
	default:
		n := NormalizeMonthly(domain.MonthlyBilling{})
		out.Billing = &n
	}
	return out
}

// ApplyPayment computes the update for a pay action. FULL clears the balance;
// PARTIAL adds the requested amount clamped to [0, balance].
func ApplyPayment(r domain.RentRecord, p Payment, now time.Time) (domain.RentUpdate, error) {
	due := nonNegative(r.DueAmount)
	paid := Clamp(r.PaidAmount, decimal.Zero, due)

	var nextPaid decimal.Decimal
	switch p.Mode {
	case PayFull, "":
		nextPaid = due
	case PayPartial:
		nextPaid = paid.Add(Clamp(p.Amount, decimal.Zero, Balance(due, paid)))
	default:
		return domain.RentUpdate{}, domain.Validationf("unknown payment mode %q", p.Mode)
	}

	account := r.AccountID
	if p.AccountID != nil {
		account = p.AccountID
	}
	at := now.UTC()
	if !p.TransactionDate.IsZero() {
		at = p.TransactionDate.Time()
	}
	return domain.RentUpdate{
		DueAmount:     due,
		PaidAmount:    nextPaid,
		Status:        RecordStatus(due, nextPaid),
		AccountID:     account,
		TransactionAt: &at,
	}, nil
}

// NormalizeManualEdit converts an edit into absolute amounts. In outstanding mode the
// stored due is paid + outstanding. Negative amounts are refused.
func NormalizeManualEdit(r domain.RentRecord, e ManualEdit, now time.Time) (domain.RentUpdate, error) {
	if e.DueAmount.IsNegative() || e.PaidAmount.IsNegative() {
		return domain.RentUpdate{}, domain.Validationf("amounts must not be negative")
	}
	paid := e.PaidAmount
	due := e.DueAmount
	if e.Outstanding {
		due = paid.Add(e.DueAmount)
	}
	if paid.GreaterThan(due) {
		return domain.RentUpdate{}, domain.Validationf("paid amount %s exceeds due amount %s", paid, due)
	}

	update := domain.RentUpdate{
		DueAmount:     due,
		PaidAmount:    paid,
		Status:        RecordStatus(due, paid),
		AccountID:     e.AccountID,
		TransactionAt: r.TransactionAt,
	}
	switch {
	case !paid.IsPositive():
		update.TransactionAt = nil
		update.AccountID = nil
	case !e.TransactionDate.IsZero():
		at := e.TransactionDate.Time()
		update.TransactionAt = &at
	case update.TransactionAt == nil || !paid.Equal(r.PaidAmount):
		at := now.UTC()
		update.TransactionAt = &at
	}
	return update, nil
}

// ClearCollection is the update that removes a record's collection
func ClearCollection(r domain.RentRecord) domain.RentUpdate {
	due := nonNegative(r.DueAmount)
	return domain.RentUpdate{
		DueAmount:  due,
		PaidAmount: decimal.Zero,
		Status:     RecordStatus(due, decimal.Zero),
	}
}

// WriteOff settles the outstanding balance by lowering due to paid. The bool is false
// when nothing was ever paid and the record should be removed instead.
func WriteOff(r domain.RentRecord) (domain.RentUpdate, bool) {
	paid := nonNegative(r.PaidAmount)
	if !paid.IsPositive() {
		return domain.RentUpdate{}, false
	}
	return domain.RentUpdate{
		DueAmount:     paid,
		PaidAmount:    paid,
		Status:        domain.StatusOnTime,
		AccountID:     r.AccountID,
		TransactionAt: r.TransactionAt,
	}, true
}

// JoiningLedger is the joining-month record of a monthly tenant: due covers rent and
// deposit, paid is whatever was collected at onboarding.
func JoiningLedger(t domain.Tenant) (domain.RentRecord, bool) {
	m, ok := t.Monthly()
	if !ok || t.JoiningDate.IsZero() {
		return domain.RentRecord{}, false
	}
	due := nonNegative(m.Rent).Add(nonNegative(m.Deposit))
	paid := Clamp(m.RentPaidAmount.Add(m.DepositPaidAmount), decimal.Zero, due)
	return domain.RentRecord{
		TenantID:     t.ID,
		TenantName:   t.FullName,
		RoomNumber:   t.RoomNumber,
		BillingMonth: t.JoiningDate.FirstOfMonth(),
		DueAmount:    due,
		PaidAmount:   paid,
		Status:       RecordStatus(due, paid),
		AccountID:    m.JoiningCollectionAccountID,
	}, true
}

// TenantOutstanding is rent due plus outstanding deposit, zero for daily tenants
func TenantOutstanding(t domain.Tenant) decimal.Decimal {
	m, ok := t.Monthly()
	if !ok {
		return decimal.Zero
	}
	return nonNegative(m.RentDueAmount.Add(m.OutstandingDeposit()))
}

// DueCycle returns the cycle date for which a monthly tenant's current-month due
// record should exist on today. The first cycle ends one day before the joining
// date's monthly anniversary. A cycle that fell in an earlier month is moved to
// the same day of the current month, so no past month is backfilled. ok is
// false when no cycle has arrived this month.
func DueCycle(t domain.Tenant, today domain.Date) (domain.Date, bool) {
	m, ok := t.Monthly()
	if !ok || t.JoiningDate.IsZero() {
		return domain.Date{}, false
	}
	next := t.JoiningDate.AddMonths(1).AddDays(-1)
	if !m.LastDueGeneratedFor.IsZero() {
		next = m.LastDueGeneratedFor.AddMonths(1)
	}
	if next.After(today) {
		return domain.Date{}, false
	}
	first := today.FirstOfMonth()
	if next.Before(first) {
		day := min(next.Time().Day(), first.EndOfMonth().Time().Day())
		next = first.AddDays(day - 1)
	}
	if !next.SameMonth(today) || next.After(today) {
		return domain.Date{}, false
	}
	return next, true
}
