package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/vetcaselab/vetcase-api/model"
	"github.com/vetcaselab/vetcase-api/services/zarinpal"
	"gorm.io/gorm"
)

var (
	// ErrPaymentNotFound means no payment row matches the authority code
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrAlreadySettled means the payment already left pending; the
	// callback is a redelivery and nothing was re-applied
	ErrAlreadySettled = errors.New("payment already settled")
)

// PaymentService drives the checkout flow: a pending Payment row is
// persisted before the user is redirected to the gateway, and the gateway
// callback settles it exactly once.
type PaymentService struct {
	db            *gorm.DB
	gateway       zarinpal.Gateway
	subscriptions *SubscriptionService
	notifications *NotificationService
	callbackURL   string
}

// NewPaymentService creates a new payment service
func NewPaymentService(db *gorm.DB, gateway zarinpal.Gateway, subscriptions *SubscriptionService, notifications *NotificationService, callbackURL string) *PaymentService {
	return &PaymentService{
		db:            db,
		gateway:       gateway,
		subscriptions: subscriptions,
		notifications: notifications,
		callbackURL:   callbackURL,
	}
}

// CheckoutResult is returned to the handler so it can redirect the payer.
type CheckoutResult struct {
	PaymentID   uint   `json:"payment_id"`
	Authority   string `json:"authority"`
	RedirectURL string `json:"redirect_url"`
}

// StartCheckout creates a pending Payment for the plan and registers it
// with the gateway. The Payment row is written only after the gateway
// accepted the request, keyed by the returned authority code.
func (s *PaymentService) StartCheckout(ctx context.Context, user *model.User, plan *model.SubscriptionPlan, clientIP string) (*CheckoutResult, error) {
	amount := int64(plan.FinalPrice())
	description := fmt.Sprintf("Subscription purchase: %s", plan.Name)

	checkout, err := s.gateway.CreateCheckout(ctx, amount, description, s.callbackURL, user.Phone, user.Email)
	if err != nil {
		return nil, err
	}

	payment := model.Payment{
		UserID:      user.ID,
		PlanID:      &plan.ID,
		Amount:      plan.FinalPrice(),
		Gateway:     model.GatewayZarinpal,
		Status:      model.PaymentStatusPending,
		Authority:   checkout.Authority,
		IPAddress:   clientIP,
		Description: description,
	}
	if err := s.db.Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	log.Printf("Payment %d started for user %d, authority %s", payment.ID, user.ID, checkout.Authority)

	return &CheckoutResult{
		PaymentID:   payment.ID,
		Authority:   checkout.Authority,
		RedirectURL: checkout.RedirectURL,
	}, nil
}

// CallbackResult is the envelope returned to the callback handler.
type CallbackResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	PaymentID uint   `json:"payment_id,omitempty"`
	RefID     string `json:"ref_id,omitempty"`
}

// HandleCallback settles the payment identified by the gateway authority
// code. The pending -> paid/failed/cancelled transition happens exactly
// once: a compare-and-set on status guards against redelivered callbacks,
// and a replay for an already-paid payment short-circuits without calling
// the gateway again.
func (s *PaymentService) HandleCallback(ctx context.Context, authority, gatewayStatus string) (*CallbackResult, error) {
	var payment model.Payment
	err := s.db.Where("authority = ?", authority).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}

	// Redelivery of a settled callback is a no-op
	if payment.Status != model.PaymentStatusPending {
		return &CallbackResult{
			Success:   payment.IsPaid(),
			Message:   fmt.Sprintf("payment already %s", payment.Status),
			PaymentID: payment.ID,
			RefID:     payment.RefID,
		}, nil
	}

	// Payer cancelled at the gateway; no verify call needed
	if gatewayStatus != "OK" {
		if err := s.settle(payment.ID, model.PaymentStatusCancelled, nil); err != nil {
			if errors.Is(err, ErrAlreadySettled) {
				return s.settledResult(payment.ID)
			}
			return nil, err
		}
		log.Printf("Payment %d cancelled by payer, authority %s", payment.ID, authority)
		return &CallbackResult{Success: false, Message: "payment cancelled", PaymentID: payment.ID}, nil
	}

	// Verify with the gateway. A failure here leaves the payment pending:
	// the gateway may redeliver the callback and we must not lose a paid
	// transaction to a transient verify error.
	verification, err := s.gateway.VerifyCheckout(ctx, authority, int64(payment.Amount))
	if err != nil {
		if errors.Is(err, zarinpal.ErrVerificationFailed) {
			if serr := s.settle(payment.ID, model.PaymentStatusFailed, nil); serr != nil {
				if errors.Is(serr, ErrAlreadySettled) {
					return s.settledResult(payment.ID)
				}
				return nil, serr
			}
			log.Printf("Payment %d verification rejected, authority %s", payment.ID, authority)
			return &CallbackResult{Success: false, Message: "payment verification failed", PaymentID: payment.ID}, nil
		}
		return nil, err
	}

	if err := s.settle(payment.ID, model.PaymentStatusPaid, verification); err != nil {
		if errors.Is(err, ErrAlreadySettled) {
			// Concurrent callback won the race; report its outcome
			return s.settledResult(payment.ID)
		}
		return nil, err
	}

	log.Printf("Payment %d paid, ref %s", payment.ID, verification.RefID)

	return &CallbackResult{
		Success:   true,
		Message:   "payment successful",
		PaymentID: payment.ID,
		RefID:     verification.RefID,
	}, nil
}

// settle applies the single pending -> final transition in one transaction.
// The UPDATE is conditioned on status still being pending; zero affected
// rows means another callback settled the payment first.
func (s *PaymentService) settle(paymentID uint, status model.PaymentStatus, verification *zarinpal.Verification) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": status}
		if verification != nil {
			now := time.Now()
			updates["ref_id"] = verification.RefID
			updates["card_pan"] = verification.CardPan
			updates["paid_at"] = now
		}

		result := tx.Model(&model.Payment{}).
			Where("id = ? AND status = ?", paymentID, model.PaymentStatusPending).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to settle payment: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrAlreadySettled
		}

		if status != model.PaymentStatusPaid {
			return nil
		}

		// Activate the subscription inside the same transaction so a
		// crash cannot leave a paid payment without access
		var payment model.Payment
		if err := tx.Preload("Plan").First(&payment, paymentID).Error; err != nil {
			return fmt.Errorf("failed to reload payment: %w", err)
		}

		subSvc := NewSubscriptionService(tx)
		sub, err := subSvc.GetOrCreate(payment.UserID)
		if err != nil {
			return err
		}

		durationDays := 30
		subType := model.SubscriptionMonthly
		price := payment.Amount
		if payment.Plan != nil {
			durationDays = payment.Plan.DurationDays
			subType = payment.Plan.DurationType
			price = payment.Plan.FinalPrice()
		}

		sub.Type = subType
		sub.Price = price
		sub.TransactionID = verification.RefID
		if err := subSvc.Activate(sub, durationDays); err != nil {
			return err
		}

		if err := tx.Model(&model.Payment{}).
			Where("id = ?", paymentID).
			Update("subscription_id", sub.ID).Error; err != nil {
			return fmt.Errorf("failed to link payment to subscription: %w", err)
		}

		return nil
	})
}

func (s *PaymentService) settledResult(paymentID uint) (*CallbackResult, error) {
	var payment model.Payment
	if err := s.db.First(&payment, paymentID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload payment: %w", err)
	}
	return &CallbackResult{
		Success:   payment.IsPaid(),
		Message:   fmt.Sprintf("payment already %s", payment.Status),
		PaymentID: payment.ID,
		RefID:     payment.RefID,
	}, nil
}

// NotifyOutcome records a notification for the payer after settlement.
// Failures here are logged, never surfaced: notification delivery must
// not affect payment state.
func (s *PaymentService) NotifyOutcome(result *CallbackResult, userID uint) {
	if s.notifications == nil {
		return
	}

	req := CreateNotificationRequest{
		UserID:   &userID,
		Category: model.NotificationCategoryPayment,
		Metadata: &model.NotificationMetadata{PaymentID: result.PaymentID, RefID: result.RefID},
	}
	if result.Success {
		req.Type = model.NotificationTypeSuccess
		req.Title = "Payment successful"
		req.Message = fmt.Sprintf("Your payment was confirmed. Tracking code: %s", result.RefID)
	} else {
		req.Type = model.NotificationTypeError
		req.Title = "Payment not completed"
		req.Message = result.Message
	}

	if _, err := s.notifications.Create(req); err != nil {
		log.Printf("Failed to create payment notification for user %d: %v", userID, err)
	}
}

// ListForUser returns a user's payments, newest first.
func (s *PaymentService) ListForUser(userID uint, limit int) ([]model.Payment, error) {
	if limit <= 0 {
		limit = 20
	}
	var payments []model.Payment
	err := s.db.Preload("Plan").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}
