package models

import "time"

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentVerified PaymentStatus = "Verified"
	PaymentRejected PaymentStatus = "Rejected"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentVerified, PaymentRejected:
		return true
	}
	return false
}

const DefaultPaymentMethod = "Bank Transfer"

// RentPayment is unique per (tenant, payment month); the composite index is
// what rejects a second submission for the same month.
type RentPayment struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	TenantID       uint          `gorm:"not null;uniqueIndex:idx_payment_tenant_month" json:"tenant_id"`
	Tenant         *Tenant       `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	Amount         float64       `gorm:"not null" json:"amount"`
	PaymentDate    Date          `gorm:"index" json:"payment_date"`
	PaymentMethod  string        `gorm:"type:varchar(50)" json:"payment_method"`
	TransactionID  string        `gorm:"index" json:"transaction_id"`
	PaymentMonth   Date          `gorm:"not null;uniqueIndex:idx_payment_tenant_month" json:"payment_month"`
	Status         PaymentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	ProofImagePath *string       `json:"proof_image_path"`
	Remarks        *string       `json:"remarks"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
