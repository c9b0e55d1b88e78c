package middleware

import (
	"context"
	"strings"

	"github.com/campaign-manager/backend/internal/http/dto"
	"github.com/campaign-manager/backend/internal/models"
	"github.com/campaign-manager/backend/internal/rbac"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const CtxPrincipal = "principal"

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

func unauthorized(c *fiber.Ctx, msg string) error {
	reqID, _ := c.Locals(CtxRequestID).(string)
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: msg, RequestID: reqID})
}

// Protect requires a valid "Authorization: Bearer <token>" header and stores
// the authenticated user for the rest of the chain.
func Protect(authn Authenticator, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(tokenStr) == "" {
			return unauthorized(c, "Not authorized to access this route")
		}

		user, err := authn.Authenticate(c.UserContext(), strings.TrimSpace(tokenStr))
		if err != nil {
			log.Debug("authentication failed", zap.Error(err))
			return unauthorized(c, "Not authorized to access this route")
		}

		c.Locals(CtxPrincipal, user)
		return c.Next()
	}
}

// GetPrincipal returns the user stored by Protect.
func GetPrincipal(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(CtxPrincipal).(*models.User)
	return u
}

// Authorize rejects principals whose role is not in roles.
func Authorize(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := GetPrincipal(c)
		if u == nil {
			return unauthorized(c, "Not authorized to access this route")
		}
		if !rbac.HasRole(u.Role, roles...) {
			reqID, _ := c.Locals(CtxRequestID).(string)
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error:     "User role " + u.Role + " is not authorized to access this route",
				RequestID: reqID,
			})
		}
		return c.Next()
	}
}
