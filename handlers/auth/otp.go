package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/vetcaselab/vetcase-api/model"
	"github.com/vetcaselab/vetcase-api/services"
	"github.com/vetcaselab/vetcase-api/services/sms"
	"github.com/vetcaselab/vetcase-api/utils/response"
	"github.com/vetcaselab/vetcase-api/utils/validation"
	"gorm.io/gorm"
)

// RequestOTPRequest asks for a login code
type RequestOTPRequest struct {
	Phone string `json:"phone" validate:"required,phone"`
}

// VerifyOTPRequest exchanges a code for a token pair
type VerifyOTPRequest struct {
	Phone string `json:"phone" validate:"required,phone"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// RequestOTP sends a one-time login code to the given phone
func (h *AuthHandler) RequestOTP(c *fiber.Ctx) error {
	var req RequestOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	phone := validation.NormalizePhone(req.Phone)

	err := h.otp.Request(c.Context(), phone)
	if errors.Is(err, services.ErrOTPCooldown) {
		return response.TooManyRequests(c, "A code was sent recently, please wait before requesting another")
	}
	if errors.Is(err, sms.ErrSendFailed) {
		return response.GatewayError(c, "Failed to deliver verification code")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to send verification code")
	}

	return response.SuccessWithMessage(c, "Verification code sent", nil)
}

// VerifyOTP validates the code and signs the user in, registering the
// phone on first login
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	phone := validation.NormalizePhone(req.Phone)

	err := h.otp.Verify(c.Context(), phone, req.Code)
	if errors.Is(err, services.ErrOTPInvalid) {
		return response.Unauthorized(c, "Invalid or expired verification code")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to verify code")
	}

	var user model.User
	err = h.db.Where("phone = ?", phone).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = model.User{Phone: phone, Role: "student"}
		if err := h.db.Create(&user).Error; err != nil {
			return response.InternalServerError(c, "Failed to create account")
		}
	} else if err != nil {
		return response.InternalServerError(c, "Failed to load account")
	}

	tokens, err := h.issueTokens(&user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}

	return response.Success(c, tokens)
}
