package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/vetcaselab/vetcase-api/model"
	"gorm.io/gorm"
)

// SubscriptionService owns the subscription state machine:
// pending -> active -> expired, active/pending -> cancelled, and
// re-activation out of any state.
type SubscriptionService struct {
	db *gorm.DB
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// GetOrCreate returns the user's subscription row, creating a pending one
// if the user never had any.
func (s *SubscriptionService) GetOrCreate(userID uint) (*model.Subscription, error) {
	var sub model.Subscription
	err := s.db.Where("user_id = ?", userID).First(&sub).Error
	if err == nil {
		return &sub, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	sub = model.Subscription{
		UserID:    userID,
		Status:    model.SubscriptionStatusPending,
		StartDate: time.Now(),
	}
	if err := s.db.Create(&sub).Error; err != nil {
		var existing model.Subscription
		if ferr := s.db.Where("user_id = ?", userID).First(&existing).Error; ferr == nil {
			return &existing, nil
		}
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	return &sub, nil
}

// Activate moves the subscription to active starting now. durationDays of
// 0 grants lifetime access (no end date). Re-activation overwrites dates.
func (s *SubscriptionService) Activate(sub *model.Subscription, durationDays int) error {
	now := time.Now()
	sub.Status = model.SubscriptionStatusActive
	sub.StartDate = now
	if durationDays > 0 {
		end := now.AddDate(0, 0, durationDays)
		sub.EndDate = &end
	} else {
		sub.EndDate = nil
	}

	if err := s.db.Save(sub).Error; err != nil {
		return fmt.Errorf("failed to activate subscription: %w", err)
	}
	return nil
}

// Extend adds days to a still-running subscription, or starts a fresh
// window from now when the previous one has lapsed. Always forces active.
func (s *SubscriptionService) Extend(sub *model.Subscription, days int) error {
	now := time.Now()
	if sub.EndDate != nil && sub.EndDate.After(now) {
		end := sub.EndDate.AddDate(0, 0, days)
		sub.EndDate = &end
	} else {
		end := now.AddDate(0, 0, days)
		sub.EndDate = &end
	}
	sub.Status = model.SubscriptionStatusActive

	if err := s.db.Save(sub).Error; err != nil {
		return fmt.Errorf("failed to extend subscription: %w", err)
	}
	return nil
}

// ErrInvalidTransition is returned for a state change the subscription
// lifecycle does not allow.
var ErrInvalidTransition = errors.New("invalid subscription state transition")

// Cancel moves a pending or active subscription to cancelled.
func (s *SubscriptionService) Cancel(sub *model.Subscription) error {
	if sub.Status != model.SubscriptionStatusActive && sub.Status != model.SubscriptionStatusPending {
		return fmt.Errorf("%w: cannot cancel from %q", ErrInvalidTransition, sub.Status)
	}
	sub.Status = model.SubscriptionStatusCancelled
	if err := s.db.Save(sub).Error; err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}
	return nil
}

// IsActive reports whether the subscription currently grants access.
// An active subscription whose end date has passed is corrected to
// expired here, on read; there is no background sweep.
func (s *SubscriptionService) IsActive(sub *model.Subscription) (bool, error) {
	if sub.Status != model.SubscriptionStatusActive {
		return false, nil
	}

	if sub.EndDate != nil && time.Now().After(*sub.EndDate) {
		sub.Status = model.SubscriptionStatusExpired
		if err := s.db.Model(sub).Update("status", model.SubscriptionStatusExpired).Error; err != nil {
			return false, fmt.Errorf("failed to persist expiry: %w", err)
		}
		s.notifyExpired(sub)
		return false, nil
	}

	return true, nil
}

// notifyExpired tells the user their access lapsed. Runs once, at the
// moment the expired status is persisted. Best effort.
func (s *SubscriptionService) notifyExpired(sub *model.Subscription) {
	userID := sub.UserID
	_, err := NewNotificationService(s.db).Create(CreateNotificationRequest{
		UserID:   &userID,
		Type:     model.NotificationTypeWarning,
		Category: model.NotificationCategorySubscription,
		Title:    "Subscription expired",
		Message:  "Your subscription has ended. Renew to keep access to the case library.",
	})
	if err != nil {
		log.Printf("Failed to create expiry notification for user %d: %v", userID, err)
	}
}

// IsActiveForUser is the gate used by catalog middleware. A user with no
// subscription row has no access.
func (s *SubscriptionService) IsActiveForUser(userID uint) (bool, error) {
	var sub model.Subscription
	err := s.db.Where("user_id = ?", userID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load subscription: %w", err)
	}
	return s.IsActive(&sub)
}

// ListPlans returns purchasable plans in display order.
func (s *SubscriptionService) ListPlans() ([]model.SubscriptionPlan, error) {
	var plans []model.SubscriptionPlan
	err := s.db.Where("is_active = ?", true).
		Order("order_index ASC, price ASC").
		Find(&plans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

// GetPlan loads one active plan.
func (s *SubscriptionService) GetPlan(planID uint) (*model.SubscriptionPlan, error) {
	var plan model.SubscriptionPlan
	err := s.db.Where("id = ? AND is_active = ?", planID, true).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}
