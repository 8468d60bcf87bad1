package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vetcaselab/vetcase-api/utils/response"
)

// SubscriptionChecker reports whether a user currently has catalog access.
// Implementations must apply the lazy expired-on-read correction.
type SubscriptionChecker interface {
	IsActiveForUser(userID uint) (bool, error)
}

// SubscriptionGate guards catalog reads behind an active subscription.
// Admins bypass the check entirely.
type SubscriptionGate struct {
	checker SubscriptionChecker
}

// NewSubscriptionGate creates a new subscription gate
func NewSubscriptionGate(checker SubscriptionChecker) *SubscriptionGate {
	return &SubscriptionGate{checker: checker}
}

// Required returns middleware that rejects non-subscribed students.
// Must run after AuthMiddleware.Required.
func (g *SubscriptionGate) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := GetUser(c)
		if !ok {
			return response.Unauthorized(c, "User not authenticated")
		}

		if user.IsAdmin() {
			return c.Next()
		}

		active, err := g.checker.IsActiveForUser(user.ID)
		if err != nil {
			return response.InternalServerError(c, "Failed to check subscription status")
		}
		if !active {
			return response.SubscriptionRequired(c)
		}

		return c.Next()
	}
}
