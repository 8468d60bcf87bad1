package subscription

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/vetcaselab/vetcase-api/model"
	"github.com/vetcaselab/vetcase-api/services"
	"github.com/vetcaselab/vetcase-api/utils/middleware"
	"github.com/vetcaselab/vetcase-api/utils/response"
	"github.com/vetcaselab/vetcase-api/utils/validation"
	"gorm.io/gorm"
)

// SubscriptionHandler serves subscription plans and status
type SubscriptionHandler struct {
	db            *gorm.DB
	subscriptions *services.SubscriptionService
	validator     *validation.Validator
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(db *gorm.DB, subscriptions *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		db:            db,
		subscriptions: subscriptions,
		validator:     validation.NewValidator(),
	}
}

// Plans lists purchasable plans with computed final prices
func (h *SubscriptionHandler) Plans(c *fiber.Ctx) error {
	plans, err := h.subscriptions.ListPlans()
	if err != nil {
		return response.InternalServerError(c, "Failed to list plans")
	}

	type planView struct {
		model.SubscriptionPlan
		FinalPrice float64 `json:"final_price"`
	}
	out := make([]planView, 0, len(plans))
	for _, p := range plans {
		out = append(out, planView{SubscriptionPlan: p, FinalPrice: p.FinalPrice()})
	}

	return response.Success(c, out)
}

// StatusResponse is the caller's subscription state
type StatusResponse struct {
	Subscription  *model.Subscription `json:"subscription"`
	Active        bool                `json:"active"`
	DaysRemaining int                 `json:"days_remaining"`
}

// Me returns the caller's subscription, reconciling expiry on read
func (h *SubscriptionHandler) Me(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	sub, err := h.subscriptions.GetOrCreate(user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load subscription")
	}

	active, err := h.subscriptions.IsActive(sub)
	if err != nil {
		return response.InternalServerError(c, "Failed to check subscription")
	}

	return response.Success(c, StatusResponse{
		Subscription:  sub,
		Active:        active,
		DaysRemaining: sub.DaysRemaining(),
	})
}

// GrantRequest manually activates or extends a user's subscription
type GrantRequest struct {
	UserID       uint `json:"user_id" validate:"required"`
	DurationDays int  `json:"duration_days" validate:"min=0,max=36500"`
}

// Grant activates a subscription without payment (admin support tool).
// duration_days of 0 grants lifetime access.
func (h *SubscriptionHandler) Grant(c *fiber.Ctx) error {
	var req GrantRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	var user model.User
	if err := h.db.First(&user, req.UserID).Error; err != nil {
		return response.NotFound(c, "User not found")
	}

	sub, err := h.subscriptions.GetOrCreate(req.UserID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load subscription")
	}

	if err := h.subscriptions.Activate(sub, req.DurationDays); err != nil {
		return response.InternalServerError(c, "Failed to activate subscription")
	}

	return response.Success(c, sub)
}

// ExtendRequest adds days to a user's subscription
type ExtendRequest struct {
	UserID uint `json:"user_id" validate:"required"`
	Days   int  `json:"days" validate:"required,min=1,max=36500"`
}

// Extend adds days to the user's subscription, activating it if needed
func (h *SubscriptionHandler) Extend(c *fiber.Ctx) error {
	var req ExtendRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	sub, err := h.subscriptions.GetOrCreate(req.UserID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load subscription")
	}

	if err := h.subscriptions.Extend(sub, req.Days); err != nil {
		return response.InternalServerError(c, "Failed to extend subscription")
	}

	return response.Success(c, sub)
}

// CancelRequest cancels a user's subscription
type CancelRequest struct {
	UserID uint `json:"user_id" validate:"required"`
}

// Cancel moves an active or pending subscription to cancelled
func (h *SubscriptionHandler) Cancel(c *fiber.Ctx) error {
	var req CancelRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	sub, err := h.subscriptions.GetOrCreate(req.UserID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load subscription")
	}

	if err := h.subscriptions.Cancel(sub); err != nil {
		if errors.Is(err, services.ErrInvalidTransition) {
			return response.Conflict(c, "Subscription cannot be cancelled from its current state")
		}
		return response.InternalServerError(c, "Failed to cancel subscription")
	}

	return response.Success(c, sub)
}

// CreatePlanRequest authors a subscription plan
type CreatePlanRequest struct {
	Name            string                 `json:"name" validate:"required,min=2,max=100"`
	DurationType    model.SubscriptionType `json:"duration_type" validate:"required,oneof=monthly quarterly biannual yearly lifetime"`
	DurationDays    int                    `json:"duration_days" validate:"min=0,max=36500"`
	Price           float64                `json:"price" validate:"min=0"`
	DiscountPercent int                    `json:"discount_percent" validate:"min=0,max=100"`
	Features        string                 `json:"features"`
	IsPopular       bool                   `json:"is_popular"`
	OrderIndex      int                    `json:"order_index"`
}

// CreatePlan adds a purchasable plan
func (h *SubscriptionHandler) CreatePlan(c *fiber.Ctx) error {
	var req CreatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	plan := model.SubscriptionPlan{
		Name:            req.Name,
		DurationType:    req.DurationType,
		DurationDays:    req.DurationDays,
		Price:           req.Price,
		DiscountPercent: req.DiscountPercent,
		Features:        req.Features,
		IsActive:        true,
		IsPopular:       req.IsPopular,
		OrderIndex:      req.OrderIndex,
	}
	if err := h.db.Create(&plan).Error; err != nil {
		return response.InternalServerError(c, "Failed to create plan")
	}

	return response.Created(c, plan)
}
