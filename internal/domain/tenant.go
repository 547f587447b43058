package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is shared by monthly tenants and rent records
type PaymentStatus string

const (
	StatusOnTime  PaymentStatus = "ON_TIME"
	StatusPartial PaymentStatus = "PARTIAL"
	StatusDue     PaymentStatus = "DUE"
)

// FoodOption applies to daily accommodation only
type FoodOption string

const (
	FoodWith    FoodOption = "WITH_FOOD"
	FoodWithout FoodOption = "WITHOUT_FOOD"
)

// Billing is either *MonthlyBilling or *DailyBilling
type Billing interface {
	billingModel() string
}

// MonthlyBilling is the rent/deposit cycle model
type MonthlyBilling struct {
	Rent                       decimal.Decimal
	RentPaidAmount             decimal.Decimal
	RentDueAmount              decimal.Decimal
	Deposit                    decimal.Decimal
	DepositPaidAmount          decimal.Decimal
	PaymentStatus              PaymentStatus
	JoiningCollectionAccountID *int64
	LastDueGeneratedFor        Date
}

func (*MonthlyBilling) billingModel() string { return "monthly" }

// OutstandingDeposit is max(deposit - depositPaid, 0)
func (m *MonthlyBilling) OutstandingDeposit() decimal.Decimal {
	return decimal.Max(m.Deposit.Sub(m.DepositPaidAmount), decimal.Zero)
}

// DailyBilling is the per-stay model
type DailyBilling struct {
	CollectionAmount    decimal.Decimal
	CollectionAccountID *int64
	TransactionDate     Date
	FoodOption          FoodOption
	StayDays            int
}

func (*DailyBilling) billingModel() string { return "daily" }

// Tenant is a resident snapshot. Billing holds exactly one model.
type Tenant struct {
	ID                           int64
	FullName                     string
	PhoneNumber                  string
	RoomNumber                   string
	JoiningDate                  Date
	CheckoutDate                 Date
	EmergencyContactNumber       string
	EmergencyContactRelationship string
	Active                       bool
	Billing                      Billing
	CreatedAt                    time.Time
	UpdatedAt                    time.Time
}

// Monthly returns the monthly billing fields when the tenant uses that model
func (t *Tenant) Monthly() (*MonthlyBilling, bool) {
	m, ok := t.Billing.(*MonthlyBilling)
	return m, ok && m != nil
}

// Daily returns the daily billing fields when the tenant uses that model
func (t *Tenant) Daily() (*DailyBilling, bool) {
	d, ok := t.Billing.(*DailyBilling)
	return d, ok && d != nil
}

func (t *Tenant) IsDaily() bool {
	_, ok := t.Daily()
	return ok
}

// Clone deep-copies the tenant including its billing variant
func (t Tenant) Clone() Tenant {
	switch b := t.Billing.(type) {
	case *MonthlyBilling:
		if b != nil {
			cp := *b
			cp.JoiningCollectionAccountID = cloneID(b.JoiningCollectionAccountID)
			t.Billing = &cp
		}
	case *DailyBilling:
		if b != nil {
			cp := *b
			cp.CollectionAccountID = cloneID(b.CollectionAccountID)
			t.Billing = &cp
		}
	}
	return t
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// tenantWire is the flat JSON shape shared with clients: both field groups present,
// the inactive model zeroed.
type tenantWire struct {
	ID                             int64           `json:"id"`
	FullName                       string          `json:"fullName"`
	TenantPhoneNumber              string          `json:"tenantPhoneNumber,omitempty"`
	RoomNumber                     string          `json:"roomNumber"`
	JoiningDate                    Date            `json:"joiningDate"`
	CheckoutDate                   Date            `json:"checkoutDate"`
	EmergencyContactNumber         string          `json:"emergencyContactNumber,omitempty"`
	EmergencyContactRelationship   string          `json:"emergencyContactRelationship,omitempty"`
	Active                         bool            `json:"active"`
	DailyAccommodation             bool            `json:"dailyAccommodation"`
	Rent                           decimal.Decimal `json:"rent"`
	RentPaidAmount                 decimal.Decimal `json:"rentPaidAmount"`
	RentDueAmount                  decimal.Decimal `json:"rentDueAmount"`
	Deposit                        decimal.Decimal `json:"deposit"`
	DepositPaidAmount              decimal.Decimal `json:"depositPaidAmount"`
	PaymentStatus                  PaymentStatus   `json:"paymentStatus,omitempty"`
	JoiningCollectionAccountID     *int64          `json:"joiningCollectionAccountId"`
	LastDueGeneratedFor            Date            `json:"lastDueGeneratedFor"`
	DailyCollectionAmount          decimal.Decimal `json:"dailyCollectionAmount"`
	DailyCollectionAccountID       *int64          `json:"dailyCollectionAccountId"`
	DailyCollectionTransactionDate Date            `json:"dailyCollectionTransactionDate"`
	DailyFoodOption                FoodOption      `json:"dailyFoodOption,omitempty"`
	DailyStayDays                  int             `json:"dailyStayDays,omitempty"`
	CreatedAt                      time.Time       `json:"createdAt,omitzero"`
	UpdatedAt                      time.Time       `json:"updatedAt,omitzero"`
}

func (t Tenant) MarshalJSON() ([]byte, error) {
	w := tenantWire{
		ID:                           t.ID,
		FullName:                     t.FullName,
		TenantPhoneNumber:            t.PhoneNumber,
		RoomNumber:                   t.RoomNumber,
		JoiningDate:                  t.JoiningDate,
		CheckoutDate:                 t.CheckoutDate,
		EmergencyContactNumber:       t.EmergencyContactNumber,
		EmergencyContactRelationship: t.EmergencyContactRelationship,
		Active:                       t.Active,
		CreatedAt:                    t.CreatedAt,
		UpdatedAt:                    t.UpdatedAt,
	}
	switch b := t.Billing.(type) {
	case *MonthlyBilling:
		w.Rent = b.Rent
		w.RentPaidAmount = b.RentPaidAmount
		w.RentDueAmount = b.RentDueAmount
		w.Deposit = b.Deposit
		w.DepositPaidAmount = b.DepositPaidAmount
		w.PaymentStatus = b.PaymentStatus
		w.JoiningCollectionAccountID = b.JoiningCollectionAccountID
		w.LastDueGeneratedFor = b.LastDueGeneratedFor
	case *DailyBilling:
		w.DailyAccommodation = true
		w.PaymentStatus = StatusOnTime
		w.DailyCollectionAmount = b.CollectionAmount
		w.DailyCollectionAccountID = b.CollectionAccountID
		w.DailyCollectionTransactionDate = b.TransactionDate
		w.DailyFoodOption = b.FoodOption
		w.DailyStayDays = b.StayDays
	}
	return json.Marshal(w)
}

// UnmarshalJSON picks the billing variant from the dailyAccommodation flag and
// ignores the other model's fields.
func (t *Tenant) UnmarshalJSON(data []byte) error {
	w := tenantWire{Active: true}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*t = Tenant{
		ID:                           w.ID,
		FullName:                     w.FullName,
		PhoneNumber:                  w.TenantPhoneNumber,
		RoomNumber:                   w.RoomNumber,
		JoiningDate:                  w.JoiningDate,
		CheckoutDate:                 w.CheckoutDate,
		EmergencyContactNumber:       w.EmergencyContactNumber,
		EmergencyContactRelationship: w.EmergencyContactRelationship,
		Active:                       w.Active,
		CreatedAt:                    w.CreatedAt,
		UpdatedAt:                    w.UpdatedAt,
	}
	if w.DailyAccommodation {
		t.Billing = &DailyBilling{
			CollectionAmount:    w.DailyCollectionAmount,
			CollectionAccountID: w.DailyCollectionAccountID,
			TransactionDate:     w.DailyCollectionTransactionDate,
			FoodOption:          w.DailyFoodOption,
			StayDays:            w.DailyStayDays,
		}
		return nil
	}
	t.Billing = &MonthlyBilling{
		Rent:                       w.Rent,
		RentPaidAmount:             w.RentPaidAmount,
		RentDueAmount:              w.RentDueAmount,
		Deposit:                    w.Deposit,
		DepositPaidAmount:          w.DepositPaidAmount,
		PaymentStatus:              w.PaymentStatus,
		JoiningCollectionAccountID: w.JoiningCollectionAccountID,
		LastDueGeneratedFor:        w.LastDueGeneratedFor,
	}
	return nil
}
