package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vetcaselab/vetcase-api/model"
	"github.com/vetcaselab/vetcase-api/utils/middleware"
	"github.com/vetcaselab/vetcase-api/utils/response"
)

// RefreshRequest exchanges a refresh token for a new pair
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh rotates the token pair using a valid refresh token
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	claims, err := h.jwtManager.ValidateToken(req.RefreshToken)
	if err != nil {
		return response.Unauthorized(c, "Invalid or expired refresh token")
	}
	if claims.TokenType != "refresh" {
		return response.Unauthorized(c, "Invalid or expired refresh token")
	}

	var user model.User
	if err := h.db.First(&user, claims.UserID).Error; err != nil {
		return response.Unauthorized(c, "Account no longer exists")
	}

	// A bumped token version retires every outstanding refresh token
	if user.TokenVersion != claims.TokenVersion {
		return response.Unauthorized(c, "Invalid or expired refresh token")
	}

	tokens, err := h.issueTokens(&user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}

	return response.Success(c, tokens)
}

// Logout invalidates all outstanding tokens for the user
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	err := h.db.Model(user).Update("token_version", user.TokenVersion+1).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to log out")
	}

	return response.SuccessWithMessage(c, "Logged out", nil)
}
