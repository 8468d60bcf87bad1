package cron

import (
	"fmt"
	"time"

	"github.com/vetcaselab/vetcase-api/model"
	"github.com/vetcaselab/vetcase-api/services"
)

const stalePaymentAge = 24 * time.Hour

// ExpireStalePayments cancels payments left pending for more than a day.
// The user never returned from the gateway, so the checkout is dead.
func (m *CronManager) ExpireStalePayments() (string, error) {
	cutoff := time.Now().Add(-stalePaymentAge)

	result := m.db.Model(&model.Payment{}).
		Where("status = ? AND created_at < ?", model.PaymentStatusPending, cutoff).
		Updates(map[string]interface{}{
			"status": model.PaymentStatusCancelled,
		})
	if result.Error != nil {
		return "", fmt.Errorf("failed to cancel stale payments: %w", result.Error)
	}

	return fmt.Sprintf("cancelled %d stale payments", result.RowsAffected), nil
}

// CleanupNotifications purges read notifications older than 30 days.
func (m *CronManager) CleanupNotifications() (string, error) {
	deleted, err := services.NewNotificationService(m.db).CleanupOld(30 * 24 * time.Hour)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("deleted %d old notifications", deleted), nil
}

// RecomputeProfiles rebuilds profile statistics for every user that has
// progress rows. Normal writes keep profiles current; this repairs any
// drift from crashed requests.
func (m *CronManager) RecomputeProfiles() (string, error) {
	var userIDs []uint
	err := m.db.Model(&model.UserProgress{}).
		Distinct("user_id").
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return "", fmt.Errorf("failed to list users with progress: %w", err)
	}

	progress := services.NewProgressService(m.db)
	failures := 0
	for _, id := range userIDs {
		if err := progress.RecomputeProfile(id); err != nil {
			failures++
		}
	}

	if failures > 0 {
		return "", fmt.Errorf("recomputed %d profiles, %d failed", len(userIDs)-failures, failures)
	}
	return fmt.Sprintf("recomputed %d profiles", len(userIDs)), nil
}
