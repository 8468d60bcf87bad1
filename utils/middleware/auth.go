package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/vetcaselab/vetcase-api/model"
	"github.com/vetcaselab/vetcase-api/utils/auth"
	"github.com/vetcaselab/vetcase-api/utils/response"
	"gorm.io/gorm"
)

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	db         *gorm.DB
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		db:         db,
	}
}

func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (*model.User, *auth.Claims, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, nil, auth.ErrInvalidToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, nil, auth.ErrInvalidToken
	}

	claims, err := m.jwtManager.ValidateToken(parts[1])
	if err != nil {
		return nil, nil, err
	}

	if claims.TokenType != "access" {
		return nil, nil, auth.ErrInvalidToken
	}

	var user model.User
	if err := m.db.First(&user, claims.UserID).Error; err != nil {
		return nil, nil, auth.ErrInvalidToken
	}

	// A bumped token version invalidates all previously issued tokens
	if user.TokenVersion != claims.TokenVersion {
		return nil, nil, auth.ErrInvalidToken
	}

	return &user, claims, nil
}

// Required is middleware that requires a valid JWT access token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, claims, err := m.authenticate(c)
		if err != nil {
			if err == auth.ErrExpiredToken {
				return response.Unauthorized(c, "Token has expired")
			}
			return response.Unauthorized(c, "Invalid or missing token")
		}

		c.Locals("user_id", user.ID)
		c.Locals("user_role", user.Role)
		c.Locals("claims", claims)
		c.Locals("user", user)

		return c.Next()
	}
}

// Optional is middleware that allows requests with or without a token
func (m *AuthMiddleware) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, claims, err := m.authenticate(c)
		if err != nil {
			return c.Next()
		}

		c.Locals("user_id", user.ID)
		c.Locals("user_role", user.Role)
		c.Locals("claims", claims)
		c.Locals("user", user)

		return c.Next()
	}
}

// RequireAdmin requires the admin role on an already-authenticated request
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := GetUser(c)
		if !ok || !user.IsAdmin() {
			return response.Forbidden(c, "Admin access required")
		}
		return c.Next()
	}
}

// GetUser extracts the authenticated user from the request context
func GetUser(c *fiber.Ctx) (*model.User, bool) {
	user, ok := c.Locals("user").(*model.User)
	return user, ok && user != nil
}
