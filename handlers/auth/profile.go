package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/vetcaselab/vetcase-api/utils/middleware"
	"github.com/vetcaselab/vetcase-api/utils/response"
	"github.com/vetcaselab/vetcase-api/utils/validation"
)

// UpdateProfileRequest edits the caller's account details
type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"omitempty,min=2,max=100"`
	Email string `json:"email" validate:"omitempty,email"`
}

// Me returns the authenticated user's account
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}
	return response.Success(c, toUserResponse(user))
}

// UpdateProfile updates name and email on the caller's account
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = validation.SanitizeString(req.Name)
	}
	if req.Email != "" {
		updates["email"] = strings.ToLower(strings.TrimSpace(req.Email))
	}
	if len(updates) == 0 {
		return response.Success(c, toUserResponse(user))
	}

	if err := h.db.Model(user).Updates(updates).Error; err != nil {
		return response.InternalServerError(c, "Failed to update profile")
	}

	return response.Success(c, toUserResponse(user))
}
