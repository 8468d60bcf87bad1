package model

import (
	"time"

	"gorm.io/gorm"
)

// SubscriptionType is the billing period of a subscription.
type SubscriptionType string

// SubscriptionStatus captures the lifecycle of a subscription:
// pending -> active -> expired; active/pending -> cancelled.
// Re-activation is the only way out of expired/cancelled.
type SubscriptionStatus string

const (
	SubscriptionMonthly   SubscriptionType = "monthly"
	SubscriptionQuarterly SubscriptionType = "quarterly"
	SubscriptionBiannual  SubscriptionType = "biannual"
	SubscriptionYearly    SubscriptionType = "yearly"
	SubscriptionLifetime  SubscriptionType = "lifetime"
)

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// Subscription is the per-user access record gating the case catalog.
// One row per user; never deleted, only status-transitioned.
type Subscription struct {
	ID            uint               `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	UserID        uint               `gorm:"uniqueIndex;not null" json:"user_id"`
	Type          SubscriptionType   `gorm:"type:varchar(20);default:'monthly'" json:"type"`
	Status        SubscriptionStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	StartDate     time.Time          `json:"start_date"`
	EndDate       *time.Time         `json:"end_date,omitempty"` // nil means lifetime access
	Price         float64            `gorm:"type:decimal(12,2);default:0" json:"price"`
	AutoRenew     bool               `gorm:"default:false" json:"auto_renew"`
	TransactionID string             `gorm:"type:varchar(100)" json:"transaction_id,omitempty"`
	Notes         string             `gorm:"type:text" json:"-"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Subscription
func (Subscription) TableName() string {
	return "subscriptions"
}

// DaysRemaining returns the whole days left, or -1 for lifetime access.
func (s *Subscription) DaysRemaining() int {
	if s.EndDate == nil {
		return -1
	}
	remaining := time.Until(*s.EndDate)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Hours() / 24)
}

// SubscriptionPlan is an admin-curated purchasable plan.
type SubscriptionPlan struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	DeletedAt       gorm.DeletedAt   `gorm:"index" json:"-"`
	Name            string           `gorm:"not null" json:"name"`
	DurationType    SubscriptionType `gorm:"type:varchar(20);not null" json:"duration_type"`
	DurationDays    int              `gorm:"not null" json:"duration_days"` // 0 means lifetime
	Price           float64          `gorm:"type:decimal(12,2);not null" json:"price"`
	DiscountPercent int              `gorm:"default:0" json:"discount_percent"`
	Features        string           `gorm:"type:text" json:"features"` // one feature per line
	IsActive        bool             `gorm:"default:true" json:"is_active"`
	IsPopular       bool             `gorm:"default:false" json:"is_popular"`
	OrderIndex      int              `gorm:"default:0" json:"order_index"`
}

// TableName specifies the table name for SubscriptionPlan
func (SubscriptionPlan) TableName() string {
	return "subscription_plans"
}

// FinalPrice returns the plan price after discount.
func (p *SubscriptionPlan) FinalPrice() float64 {
	if p.DiscountPercent <= 0 {
		return p.Price
	}
	return p.Price - p.Price*float64(p.DiscountPercent)/100
}
