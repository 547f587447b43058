package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RentRecord is one monthly billing obligation of a monthly-model tenant
type RentRecord struct {
	ID            int64           `json:"id"`
	TenantID      int64           `json:"tenantId"`
	TenantName    string          `json:"tenantName"`
	RoomNumber    string          `json:"roomNumber"`
	BillingMonth  Date            `json:"billingMonth"`
	DueAmount     decimal.Decimal `json:"dueAmount"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	Status        PaymentStatus   `json:"status"`
	AccountID     *int64          `json:"accountId"`
	AccountName   string          `json:"accountName,omitempty"`
	TransactionAt *time.Time      `json:"transactionAt"`
	CreatedAt     time.Time       `json:"createdAt,omitzero"`
	UpdatedAt     time.Time       `json:"updatedAt,omitzero"`
}

// Balance is max(due - paid, 0)
func (r RentRecord) Balance() decimal.Decimal {
	return decimal.Max(r.DueAmount.Sub(r.PaidAmount), decimal.Zero)
}

// TransactionDate is the calendar date of the collection, zero when never collected
func (r RentRecord) TransactionDate() Date {
	if r.TransactionAt == nil {
		return Date{}
	}
	return DateOf(r.TransactionAt.UTC())
}

// RentUpdate is a proposed mutation of a rent record for the persistence layer to apply
type RentUpdate struct {
	DueAmount     decimal.Decimal
	PaidAmount    decimal.Decimal
	Status        PaymentStatus
	AccountID     *int64
	TransactionAt *time.Time
}
