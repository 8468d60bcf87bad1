package services

import (
	"errors"
	"testing"
	"time"

	"github.com/vetcaselab/vetcase-api/model"
)

func TestActivateAndIsActive(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "09121000001")
	svc := NewSubscriptionService(db)

	sub, err := svc.GetOrCreate(user.ID)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if sub.Status != model.SubscriptionStatusPending {
		t.Errorf("fresh subscription must be pending, got %s", sub.Status)
	}

	if err := svc.Activate(sub, 30); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if sub.EndDate == nil {
		t.Fatal("expected an end date for a 30 day activation")
	}

	active, err := svc.IsActive(sub)
	if err != nil {
		t.Fatalf("IsActive failed: %v", err)
	}
	if !active {
		t.Error("expected subscription to be active")
	}
	if got := sub.DaysRemaining(); got < 29 || got > 30 {
		t.Errorf("expected roughly 30 days remaining, got %d", got)
	}
}

func TestActivateLifetime(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "09121000002")
	svc := NewSubscriptionService(db)

	sub, _ := svc.GetOrCreate(user.ID)
	if err := svc.Activate(sub, 0); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	if sub.EndDate != nil {
		t.Error("lifetime subscription must have no end date")
	}
	if sub.DaysRemaining() != -1 {
		t.Errorf("expected -1 days remaining for lifetime, got %d", sub.DaysRemaining())
	}

	active, err := svc.IsActive(sub)
	if err != nil || !active {
		t.Errorf("lifetime subscription must be active, got active=%v err=%v", active, err)
	}
}

func TestExpiryIsPersistedOnRead(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "09121000003")
	svc := NewSubscriptionService(db)

	sub, _ := svc.GetOrCreate(user.ID)
	past := time.Now().Add(-time.Hour)
	sub.Status = model.SubscriptionStatusActive
	sub.EndDate = &past
	if err := db.Save(sub).Error; err != nil {
		t.Fatalf("failed to backdate subscription: %v", err)
	}

	active, err := svc.IsActive(sub)
	if err != nil {
		t.Fatalf("IsActive failed: %v", err)
	}
	if active {
		t.Error("lapsed subscription must not be active")
	}

	// The transition must have been written, not just computed
	var reloaded model.Subscription
	if err := db.First(&reloaded, sub.ID).Error; err != nil {
		t.Fatalf("failed to reload subscription: %v", err)
	}
	if reloaded.Status != model.SubscriptionStatusExpired {
		t.Errorf("expected persisted status expired, got %s", reloaded.Status)
	}
}

func TestExpiryCreatesNotificationOnce(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "09121000007")
	svc := NewSubscriptionService(db)

	sub, _ := svc.GetOrCreate(user.ID)
	past := time.Now().Add(-time.Hour)
	sub.Status = model.SubscriptionStatusActive
	sub.EndDate = &past
	if err := db.Save(sub).Error; err != nil {
		t.Fatalf("failed to backdate subscription: %v", err)
	}

	if _, err := svc.IsActive(sub); err != nil {
		t.Fatalf("IsActive failed: %v", err)
	}

	var count int64
	db.Model(&model.Notification{}).
		Where("user_id = ? AND category = ?", user.ID, model.NotificationCategorySubscription).
		Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 expiry notification, got %d", count)
	}

	// Reads of an already-expired row do not notify again
	if _, err := svc.IsActiveForUser(user.ID); err != nil {
		t.Fatalf("IsActiveForUser failed: %v", err)
	}
	db.Model(&model.Notification{}).
		Where("user_id = ? AND category = ?", user.ID, model.NotificationCategorySubscription).
		Count(&count)
	if count != 1 {
		t.Errorf("expected still 1 expiry notification, got %d", count)
	}
}

func TestExtendLapsedStartsFromNow(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "09121000004")
	svc := NewSubscriptionService(db)

	sub, _ := svc.GetOrCreate(user.ID)
	past := time.Now().AddDate(0, 0, -10)
	sub.Status = model.SubscriptionStatusExpired
	sub.EndDate = &past
	db.Save(sub)

	if err := svc.Extend(sub, 30); err != nil {
		t.Fatalf("Extend failed: %v", err)
	}

	if sub.Status != model.SubscriptionStatusActive {
		t.Errorf("extend must reactivate, got %s", sub.Status)
	}
	want := time.Now().AddDate(0, 0, 30)
	if sub.EndDate == nil || sub.EndDate.Before(want.Add(-time.Minute)) || sub.EndDate.After(want.Add(time.Minute)) {
		t.Errorf("expected end date around now+30d, got %v", sub.EndDate)
	}
}

func TestExtendRunningAddsToEndDate(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "09121000005")
	svc := NewSubscriptionService(db)

	sub, _ := svc.GetOrCreate(user.ID)
	if err := svc.Activate(sub, 10); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	original := *sub.EndDate

	if err := svc.Extend(sub, 20); err != nil {
		t.Fatalf("Extend failed: %v", err)
	}

	want := original.AddDate(0, 0, 20)
	if !sub.EndDate.Equal(want) {
		t.Errorf("expected end date %v, got %v", want, sub.EndDate)
	}
}

func TestCancelTransitions(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "09121000006")
	svc := NewSubscriptionService(db)

	sub, _ := svc.GetOrCreate(user.ID)
	if err := svc.Cancel(sub); err != nil {
		t.Fatalf("cancelling a pending subscription must work: %v", err)
	}
	if sub.Status != model.SubscriptionStatusCancelled {
		t.Errorf("expected cancelled, got %s", sub.Status)
	}

	// Cancelled is terminal until re-activation
	if err := svc.Cancel(sub); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	// Re-activation is allowed out of cancelled
	if err := svc.Activate(sub, 30); err != nil {
		t.Fatalf("re-activation failed: %v", err)
	}
	if sub.Status != model.SubscriptionStatusActive {
		t.Errorf("expected active after re-activation, got %s", sub.Status)
	}
}

func TestIsActiveForUserWithoutRow(t *testing.T) {
	db := newTestDB(t)
	svc := NewSubscriptionService(db)

	active, err := svc.IsActiveForUser(42)
	if err != nil {
		t.Fatalf("IsActiveForUser failed: %v", err)
	}
	if active {
		t.Error("a user without a subscription row must not be active")
	}
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "09121000007")
	svc := NewSubscriptionService(db)

	first, err := svc.GetOrCreate(user.ID)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	second, err := svc.GetOrCreate(user.ID)
	if err != nil {
		t.Fatalf("second GetOrCreate failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected one subscription row, got %d and %d", first.ID, second.ID)
	}
}
