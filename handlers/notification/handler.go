package notification

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/vetcaselab/vetcase-api/model"
	"github.com/vetcaselab/vetcase-api/services"
	"github.com/vetcaselab/vetcase-api/utils/middleware"
	"github.com/vetcaselab/vetcase-api/utils/response"
	"github.com/vetcaselab/vetcase-api/utils/validation"
	"gorm.io/gorm"
)

// NotificationHandler serves the in-app notification feed
type NotificationHandler struct {
	notifications *services.NotificationService
	validator     *validation.Validator
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		validator:     validation.NewValidator(),
	}
}

// List returns the caller's notifications plus unexpired broadcasts
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	unreadOnly := c.QueryBool("unread_only", false)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	items, total, err := h.notifications.ListForUser(user.ID, unreadOnly, limit, (page-1)*limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list notifications")
	}

	return response.Paginated(c, items, response.CalculatePagination(page, limit, total))
}

// MarkRead marks one notification as read
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid notification id")
	}

	err = h.notifications.MarkRead(user.ID, uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Notification not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to mark notification read")
	}

	return response.SuccessWithMessage(c, "Notification marked read", nil)
}

// MarkAllRead marks every notification of the caller as read
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	if err := h.notifications.MarkAllRead(user.ID); err != nil {
		return response.InternalServerError(c, "Failed to mark notifications read")
	}

	return response.SuccessWithMessage(c, "All notifications marked read", nil)
}

// BroadcastRequest creates an announcement visible to all users
type BroadcastRequest struct {
	Title     string `json:"title" validate:"required,min=2,max=255"`
	Message   string `json:"message" validate:"required"`
	ExpiresIn int    `json:"expires_in_hours" validate:"min=0,max=8760"`
}

// Broadcast publishes an announcement to every user
func (h *NotificationHandler) Broadcast(c *fiber.Ctx) error {
	var req BroadcastRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	create := services.CreateNotificationRequest{
		Type:     model.NotificationTypeAnnouncement,
		Category: model.NotificationCategoryGeneral,
		Title:    req.Title,
		Message:  req.Message,
	}
	if req.ExpiresIn > 0 {
		expires := time.Now().Add(time.Duration(req.ExpiresIn) * time.Hour)
		create.ExpiresAt = &expires
	}

	notification, err := h.notifications.Create(create)
	if err != nil {
		return response.InternalServerError(c, "Failed to create broadcast")
	}

	return response.Created(c, notification)
}
