package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vetcaselab/vetcase-api/model"
	"github.com/vetcaselab/vetcase-api/utils/auth"
	"github.com/vetcaselab/vetcase-api/utils/response"
	"github.com/vetcaselab/vetcase-api/utils/validation"
)

// LoginRequest is a password login
type LoginRequest struct {
	Phone    string `json:"phone" validate:"required,phone"`
	Password string `json:"password" validate:"required"`
}

// Login signs a user in with phone and password
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	phone := validation.NormalizePhone(req.Phone)

	var user model.User
	if err := h.db.Where("phone = ?", phone).First(&user).Error; err != nil {
		return response.Unauthorized(c, "Invalid phone or password")
	}

	if user.PasswordHash == "" {
		// OTP-only account
		return response.Unauthorized(c, "This account uses code-based login")
	}

	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		return response.Unauthorized(c, "Invalid phone or password")
	}

	tokens, err := h.issueTokens(&user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}

	return response.Success(c, tokens)
}
