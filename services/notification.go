package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vetcaselab/vetcase-api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationService handles user and broadcast notifications
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a new notification service
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// CreateNotificationRequest represents a request to create a notification.
// A nil UserID makes it a broadcast.
type CreateNotificationRequest struct {
	UserID    *uint
	Type      model.NotificationType
	Category  model.NotificationCategory
	Title     string
	Message   string
	ExpiresAt *time.Time
	Metadata  *model.NotificationMetadata
}

// Create persists a notification.
func (s *NotificationService) Create(req CreateNotificationRequest) (*model.Notification, error) {
	notification := &model.Notification{
		UserID:    req.UserID,
		Type:      req.Type,
		Category:  req.Category,
		Title:     req.Title,
		Message:   req.Message,
		ExpiresAt: req.ExpiresAt,
	}

	if req.Metadata != nil {
		metadataJSON, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		notification.Metadata = datatypes.JSON(metadataJSON)
	}

	if err := s.db.Create(notification).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return notification, nil
}

// ListForUser returns the user's notifications plus live broadcasts,
// newest first.
func (s *NotificationService) ListForUser(userID uint, unreadOnly bool, limit, offset int) ([]model.Notification, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := s.db.Model(&model.Notification{}).
		Where("(user_id = ? OR user_id IS NULL)", userID).
		Where("(expires_at IS NULL OR expires_at > ?)", time.Now())
	if unreadOnly {
		query = query.Where("read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	var notifications []model.Notification
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, total, nil
}

// MarkRead flags one of the user's notifications as read.
func (s *NotificationService) MarkRead(userID, notificationID uint) error {
	now := time.Now()
	result := s.db.Model(&model.Notification{}).
		Where("id = ? AND (user_id = ? OR user_id IS NULL)", notificationID, userID).
		Updates(map[string]interface{}{"read": true, "read_at": now})
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkAllRead flags all of a user's notifications as read.
func (s *NotificationService) MarkAllRead(userID uint) error {
	now := time.Now()
	err := s.db.Model(&model.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Updates(map[string]interface{}{"read": true, "read_at": now}).Error
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

// CleanupOld deletes read or expired notifications older than the cutoff.
// Called from the daily cron job.
func (s *NotificationService) CleanupOld(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	result := s.db.Unscoped().
		Where("created_at < ? AND (read = ? OR (expires_at IS NOT NULL AND expires_at < ?))", cutoff, true, time.Now()).
		Delete(&model.Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to cleanup notifications: %w", result.Error)
	}
	return result.RowsAffected, nil
}
