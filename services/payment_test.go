package services

import (
	"context"
	"errors"
	"testing"

	"github.com/vetcaselab/vetcase-api/model"
	"github.com/vetcaselab/vetcase-api/services/zarinpal"
	"gorm.io/gorm"
)

// fakeGateway is an in-memory Gateway that records verify calls
type fakeGateway struct {
	authority   string
	verifyCalls int
	verifyErr   error
}

func (f *fakeGateway) CreateCheckout(_ context.Context, amount int64, description, callbackURL, mobile, email string) (*zarinpal.Checkout, error) {
	return &zarinpal.Checkout{
		Authority:   f.authority,
		RedirectURL: "https://gateway.example/pay/" + f.authority,
	}, nil
}

func (f *fakeGateway) VerifyCheckout(_ context.Context, authority string, amount int64) (*zarinpal.Verification, error) {
	f.verifyCalls++
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return &zarinpal.Verification{RefID: "REF-12345", CardPan: "6037****1234"}, nil
}

func newPaymentFixture(t *testing.T) (*gorm.DB, *PaymentService, *fakeGateway, *model.User, *model.SubscriptionPlan) {
	t.Helper()
	db := newTestDB(t)
	user := createTestUser(t, db, "09122000001")

	plan := &model.SubscriptionPlan{
		Name:         "Monthly",
		DurationType: model.SubscriptionMonthly,
		DurationDays: 30,
		Price:        490000,
		IsActive:     true,
	}
	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("failed to create plan: %v", err)
	}

	gateway := &fakeGateway{authority: "A0000TEST"}
	svc := NewPaymentService(db, gateway, NewSubscriptionService(db), NewNotificationService(db), "https://example.com/callback")
	return db, svc, gateway, user, plan
}

func TestStartCheckoutCreatesPendingPayment(t *testing.T) {
	db, svc, _, user, plan := newPaymentFixture(t)

	result, err := svc.StartCheckout(context.Background(), user, plan, "10.0.0.1")
	if err != nil {
		t.Fatalf("StartCheckout failed: %v", err)
	}
	if result.Authority != "A0000TEST" {
		t.Errorf("expected gateway authority, got %q", result.Authority)
	}
	if result.RedirectURL == "" {
		t.Error("expected a redirect URL")
	}

	var payment model.Payment
	if err := db.First(&payment, result.PaymentID).Error; err != nil {
		t.Fatalf("payment row missing: %v", err)
	}
	if payment.Status != model.PaymentStatusPending {
		t.Errorf("expected pending, got %s", payment.Status)
	}
	if payment.Amount != plan.FinalPrice() {
		t.Errorf("expected amount %v, got %v", plan.FinalPrice(), payment.Amount)
	}
}

func TestCallbackSettlesPaymentAndActivatesSubscription(t *testing.T) {
	db, svc, gateway, user, plan := newPaymentFixture(t)

	checkout, err := svc.StartCheckout(context.Background(), user, plan, "10.0.0.1")
	if err != nil {
		t.Fatalf("StartCheckout failed: %v", err)
	}

	result, err := svc.HandleCallback(context.Background(), checkout.Authority, "OK")
	if err != nil {
		t.Fatalf("HandleCallback failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Message)
	}
	if result.RefID != "REF-12345" {
		t.Errorf("expected gateway ref id, got %q", result.RefID)
	}

	var payment model.Payment
	db.First(&payment, checkout.PaymentID)
	if payment.Status != model.PaymentStatusPaid {
		t.Errorf("expected paid, got %s", payment.Status)
	}
	if payment.PaidAt == nil {
		t.Error("expected PaidAt to be set")
	}
	if payment.SubscriptionID == nil {
		t.Fatal("expected payment linked to a subscription")
	}

	var sub model.Subscription
	db.First(&sub, *payment.SubscriptionID)
	if sub.Status != model.SubscriptionStatusActive {
		t.Errorf("expected active subscription, got %s", sub.Status)
	}
	if sub.TransactionID != "REF-12345" {
		t.Errorf("expected transaction id from gateway, got %q", sub.TransactionID)
	}
	if gateway.verifyCalls != 1 {
		t.Errorf("expected one verify call, got %d", gateway.verifyCalls)
	}
}

func TestDuplicateCallbackIsIdempotent(t *testing.T) {
	db, svc, gateway, user, plan := newPaymentFixture(t)

	checkout, _ := svc.StartCheckout(context.Background(), user, plan, "10.0.0.1")

	if _, err := svc.HandleCallback(context.Background(), checkout.Authority, "OK"); err != nil {
		t.Fatalf("first callback failed: %v", err)
	}

	var before model.Subscription
	db.Where("user_id = ?", user.ID).First(&before)

	// Gateway redelivers the callback
	replay, err := svc.HandleCallback(context.Background(), checkout.Authority, "OK")
	if err != nil {
		t.Fatalf("replayed callback failed: %v", err)
	}
	if !replay.Success {
		t.Error("replay of a paid callback must still report success")
	}
	if gateway.verifyCalls != 1 {
		t.Errorf("replay must not verify again, got %d calls", gateway.verifyCalls)
	}

	var after model.Subscription
	db.Where("user_id = ?", user.ID).First(&after)
	if !after.EndDate.Equal(*before.EndDate) {
		t.Error("replay must not extend the subscription again")
	}

	var paidCount int64
	db.Model(&model.Payment{}).Where("user_id = ? AND status = ?", user.ID, model.PaymentStatusPaid).Count(&paidCount)
	if paidCount != 1 {
		t.Errorf("expected exactly one paid payment, got %d", paidCount)
	}
}

func TestCallbackPayerCancelled(t *testing.T) {
	db, svc, gateway, user, plan := newPaymentFixture(t)

	checkout, _ := svc.StartCheckout(context.Background(), user, plan, "10.0.0.1")

	result, err := svc.HandleCallback(context.Background(), checkout.Authority, "NOK")
	if err != nil {
		t.Fatalf("HandleCallback failed: %v", err)
	}
	if result.Success {
		t.Error("cancelled payment must not be successful")
	}
	if gateway.verifyCalls != 0 {
		t.Errorf("cancellation must not call verify, got %d calls", gateway.verifyCalls)
	}

	var payment model.Payment
	db.First(&payment, checkout.PaymentID)
	if payment.Status != model.PaymentStatusCancelled {
		t.Errorf("expected cancelled, got %s", payment.Status)
	}

	active, _ := NewSubscriptionService(db).IsActiveForUser(user.ID)
	if active {
		t.Error("cancelled payment must not grant access")
	}
}

func TestCallbackVerificationRejected(t *testing.T) {
	db, svc, gateway, user, plan := newPaymentFixture(t)
	gateway.verifyErr = zarinpal.ErrVerificationFailed

	checkout, _ := svc.StartCheckout(context.Background(), user, plan, "10.0.0.1")

	result, err := svc.HandleCallback(context.Background(), checkout.Authority, "OK")
	if err != nil {
		t.Fatalf("HandleCallback failed: %v", err)
	}
	if result.Success {
		t.Error("rejected verification must not be successful")
	}

	var payment model.Payment
	db.First(&payment, checkout.PaymentID)
	if payment.Status != model.PaymentStatusFailed {
		t.Errorf("expected failed, got %s", payment.Status)
	}
}

func TestCallbackGatewayErrorLeavesPaymentPending(t *testing.T) {
	db, svc, gateway, user, plan := newPaymentFixture(t)
	gateway.verifyErr = zarinpal.ErrGateway

	checkout, _ := svc.StartCheckout(context.Background(), user, plan, "10.0.0.1")

	_, err := svc.HandleCallback(context.Background(), checkout.Authority, "OK")
	if !errors.Is(err, zarinpal.ErrGateway) {
		t.Fatalf("expected gateway error to surface, got %v", err)
	}

	// A transient verify failure must not lose the payment
	var payment model.Payment
	db.First(&payment, checkout.PaymentID)
	if payment.Status != model.PaymentStatusPending {
		t.Errorf("expected payment still pending, got %s", payment.Status)
	}
}

func TestCallbackUnknownAuthority(t *testing.T) {
	_, svc, _, _, _ := newPaymentFixture(t)

	_, err := svc.HandleCallback(context.Background(), "A-UNKNOWN", "OK")
	if !errors.Is(err, ErrPaymentNotFound) {
		t.Errorf("expected ErrPaymentNotFound, got %v", err)
	}
}
