package models

import "time"

// Payment bill states as reported by the gateway callback.
const (
	BillStatusCreated = "created"
	BillStatusPaid    = "paid"
	BillStatusFailed  = "failed"
)

// PaymentBill is the local ledger row for a gateway bill. One row is created
// per online-banking checkout and updated when the gateway callback arrives.
type PaymentBill struct {
	BaseModel
	OrderRef      string     `gorm:"index" json:"order_ref"`
	BillCode      string     `gorm:"uniqueIndex" json:"bill_code"`
	CustomerName  string     `json:"customer_name"`
	CustomerEmail string     `json:"customer_email"`
	CustomerPhone string     `json:"customer_phone"`
	PackageID     string     `json:"package_id"`
	Amount        float64    `json:"amount"`
	Status        string     `json:"status"`
	PaidAt        *time.Time `json:"paid_at"`
	RawCallback   string     `gorm:"type:text" json:"raw_callback"`
}
