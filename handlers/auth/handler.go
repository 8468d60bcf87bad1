package auth

import (
	"time"

	"github.com/vetcaselab/vetcase-api/model"
	"github.com/vetcaselab/vetcase-api/services"
	"github.com/vetcaselab/vetcase-api/utils/auth"
	"github.com/vetcaselab/vetcase-api/utils/validation"
	"gorm.io/gorm"
)

// AuthHandler handles registration, login and token management
type AuthHandler struct {
	db         *gorm.DB
	jwtManager *auth.JWTManager
	otp        *services.OTPService
	validator  *validation.Validator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, jwtManager *auth.JWTManager, otp *services.OTPService) *AuthHandler {
	return &AuthHandler{
		db:         db,
		jwtManager: jwtManager,
		otp:        otp,
		validator:  validation.NewValidator(),
	}
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID        uint      `json:"id"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenResponse carries a freshly issued token pair
type TokenResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // seconds
}

func toUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Phone:     user.Phone,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

func (h *AuthHandler) issueTokens(user *model.User) (*TokenResponse, error) {
	accessToken, err := h.jwtManager.GenerateAccessToken(user.ID, user.Phone, user.Role, user.TokenVersion)
	if err != nil {
		return nil, err
	}

	refreshToken, err := h.jwtManager.GenerateRefreshToken(user.ID, user.Phone, user.Role, user.TokenVersion)
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		User:         toUserResponse(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    h.jwtManager.AccessExpirySeconds(),
	}, nil
}
