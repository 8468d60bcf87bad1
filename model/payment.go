package model

import (
	"time"
)

// PaymentStatus captures the lifecycle of a payment record.
// A payment leaves pending exactly once.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Payment gateways
const (
	GatewayZarinpal = "zarinpal"
	GatewayManual   = "manual"
)

// Payment is one checkout attempt. A row is created in pending before the
// user is redirected to the gateway, keyed by the gateway authority code;
// the callback transitions it to paid/failed/cancelled exactly once.
type Payment struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time     `json:"created_at"`
	UserID         uint          `gorm:"not null;index:idx_payment_user_status" json:"user_id"`
	SubscriptionID *uint         `gorm:"index" json:"subscription_id,omitempty"`
	PlanID         *uint         `gorm:"index" json:"plan_id,omitempty"`
	Amount         float64       `gorm:"type:decimal(12,2);not null" json:"amount"`
	Gateway        string        `gorm:"type:varchar(20);default:'zarinpal'" json:"gateway"`
	Status         PaymentStatus `gorm:"type:varchar(20);default:'pending';index:idx_payment_user_status" json:"status"`
	Authority      string        `gorm:"type:varchar(255);uniqueIndex" json:"authority,omitempty"`
	RefID          string        `gorm:"type:varchar(255)" json:"ref_id,omitempty"`
	CardPan        string        `gorm:"type:varchar(32)" json:"card_pan,omitempty"`
	IPAddress      string        `gorm:"type:varchar(45)" json:"-"`
	Description    string        `gorm:"type:text" json:"description"`
	PaidAt         *time.Time    `json:"paid_at,omitempty"`

	User         User              `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Subscription *Subscription     `gorm:"foreignKey:SubscriptionID;constraint:OnDelete:SET NULL" json:"-"`
	Plan         *SubscriptionPlan `gorm:"foreignKey:PlanID;constraint:OnDelete:SET NULL" json:"plan,omitempty"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// IsPaid reports whether the payment completed successfully.
func (p *Payment) IsPaid() bool {
	return p.Status == PaymentStatusPaid
}
