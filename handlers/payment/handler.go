package payment

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/vetcaselab/vetcase-api/services"
	"github.com/vetcaselab/vetcase-api/services/zarinpal"
	"github.com/vetcaselab/vetcase-api/utils/middleware"
	"github.com/vetcaselab/vetcase-api/utils/response"
	"gorm.io/gorm"
)

// PaymentHandler serves checkout, the gateway callback and payment history
type PaymentHandler struct {
	db            *gorm.DB
	payments      *services.PaymentService
	subscriptions *services.SubscriptionService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(db *gorm.DB, payments *services.PaymentService, subscriptions *services.SubscriptionService) *PaymentHandler {
	return &PaymentHandler{
		db:            db,
		payments:      payments,
		subscriptions: subscriptions,
	}
}

// Checkout starts a gateway payment for the given plan and returns the
// redirect URL
func (h *PaymentHandler) Checkout(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	planID, err := c.ParamsInt("planID")
	if err != nil || planID < 1 {
		return response.BadRequest(c, "Invalid plan id")
	}

	plan, err := h.subscriptions.GetPlan(uint(planID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Plan not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to load plan")
	}

	result, err := h.payments.StartCheckout(c.Context(), user, plan, c.IP())
	if errors.Is(err, zarinpal.ErrGateway) {
		return response.GatewayError(c, "Payment gateway is unavailable, no charge was made")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to start checkout")
	}

	return response.Success(c, result)
}

// Callback settles a payment when the payer returns from the gateway.
// The gateway redirects here with ?Authority=...&Status=OK|NOK.
func (h *PaymentHandler) Callback(c *fiber.Ctx) error {
	authority := c.Query("Authority")
	status := c.Query("Status")
	if authority == "" {
		return response.BadRequest(c, "Missing Authority parameter")
	}

	result, err := h.payments.HandleCallback(c.Context(), authority, status)
	if errors.Is(err, services.ErrPaymentNotFound) {
		return response.NotFound(c, "Payment not found")
	}
	if errors.Is(err, zarinpal.ErrGateway) {
		// Verification could not run; payment stays pending for retry
		return response.GatewayError(c, "Payment verification is temporarily unavailable")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to process payment callback")
	}

	// Outcome notification is best effort and never blocks the callback
	var paymentUserID uint
	h.db.Table("payments").Select("user_id").Where("id = ?", result.PaymentID).Scan(&paymentUserID)
	if paymentUserID != 0 {
		h.payments.NotifyOutcome(result, paymentUserID)
	}

	return response.Success(c, result)
}

// MyPayments lists the caller's payment history, newest first
func (h *PaymentHandler) MyPayments(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	limit := c.QueryInt("limit", 50)
	payments, err := h.payments.ListForUser(user.ID, limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list payments")
	}

	return response.Success(c, payments)
}
