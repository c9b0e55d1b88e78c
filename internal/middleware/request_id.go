package middleware

import (
	"github.com/campaign-manager/backend/internal/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const CtxRequestID = "request_id"

const maxRequestIDLen = 64

// RequestIDMiddleware reuses a client supplied X-Request-ID when it is short
// enough and otherwise generates one. The id is stored in Locals and in the
// user context so services can attach it to audit entries.
func RequestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := c.Get(fiber.HeaderXRequestID)
		if reqID == "" || len(reqID) > maxRequestIDLen {
			reqID = uuid.NewString()
		}
		c.Locals(CtxRequestID, reqID)
		c.SetUserContext(logger.WithRequestID(c.UserContext(), reqID))
		c.Set(fiber.HeaderXRequestID, reqID)
		return c.Next()
	}
}
