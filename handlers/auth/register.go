package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/vetcaselab/vetcase-api/model"
	"github.com/vetcaselab/vetcase-api/utils/auth"
	"github.com/vetcaselab/vetcase-api/utils/response"
	"github.com/vetcaselab/vetcase-api/utils/validation"
	"gorm.io/gorm"
)

// RegisterRequest creates a password-based account
type RegisterRequest struct {
	Phone    string `json:"phone" validate:"required,phone"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"omitempty,email"`
}

// Register creates a new account with a password
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	phone := validation.NormalizePhone(req.Phone)

	var existing model.User
	err := h.db.Where("phone = ?", phone).First(&existing).Error
	if err == nil {
		return response.Conflict(c, "An account with this phone already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return response.InternalServerError(c, "Failed to check existing account")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	user := model.User{
		Phone:        phone,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Name:         validation.SanitizeString(req.Name),
		Role:         "student",
	}
	if err := h.db.Create(&user).Error; err != nil {
		return response.InternalServerError(c, "Failed to create account")
	}

	tokens, err := h.issueTokens(&user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}

	return response.Created(c, tokens)
}
