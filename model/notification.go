package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationType represents the type/severity of notification
type NotificationType string

const (
	NotificationTypeInfo         NotificationType = "info"
	NotificationTypeSuccess      NotificationType = "success"
	NotificationTypeWarning      NotificationType = "warning"
	NotificationTypeError        NotificationType = "error"
	NotificationTypeAnnouncement NotificationType = "announcement"
)

// NotificationCategory represents the category of notification
type NotificationCategory string

const (
	NotificationCategoryPayment      NotificationCategory = "payment"
	NotificationCategorySubscription NotificationCategory = "subscription"
	NotificationCategoryGeneral      NotificationCategory = "general"
)

// Notification represents a message for one user, or a broadcast when
// UserID is nil.
type Notification struct {
	ID        uint                 `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
	DeletedAt gorm.DeletedAt       `gorm:"index" json:"-"`
	UserID    *uint                `gorm:"index" json:"user_id,omitempty"`
	Type      NotificationType     `gorm:"type:varchar(20);not null" json:"type"`
	Category  NotificationCategory `gorm:"type:varchar(30);not null" json:"category"`
	Title     string               `gorm:"type:varchar(255);not null" json:"title"`
	Message   string               `gorm:"type:text" json:"message"`
	Read      bool                 `gorm:"default:false" json:"read"`
	ReadAt    *time.Time           `json:"read_at,omitempty"`
	ExpiresAt *time.Time           `json:"expires_at,omitempty"`
	Metadata  datatypes.JSON       `gorm:"type:jsonb" json:"metadata,omitempty"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Notification
func (Notification) TableName() string {
	return "notifications"
}

// IsBroadcast reports whether the notification targets all users.
func (n *Notification) IsBroadcast() bool {
	return n.UserID == nil
}

// NotificationMetadata is the common shape stored in Metadata.
type NotificationMetadata struct {
	PaymentID      uint    `json:"payment_id,omitempty"`
	SubscriptionID uint    `json:"subscription_id,omitempty"`
	PlanName       string  `json:"plan_name,omitempty"`
	Amount         float64 `json:"amount,omitempty"`
	RefID          string  `json:"ref_id,omitempty"`
}
