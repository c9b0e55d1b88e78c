package handlers

import (
	"github.com/campaign-manager/backend/internal/http/dto"
	"github.com/campaign-manager/backend/internal/middleware"
	"github.com/campaign-manager/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type PlatformHandler struct {
	platformService *services.PlatformService
	log             *zap.Logger
}

func NewPlatformHandler(platformService *services.PlatformService, log *zap.Logger) *PlatformHandler {
	return &PlatformHandler{platformService: platformService, log: log}
}

// ListConnections GET /api/platforms/connections
func (h *PlatformHandler) ListConnections(c *fiber.Ctx) error {
	conns, err := h.platformService.List(c.UserContext(), middleware.GetPrincipal(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return list(c, conns, len(conns), nil)
}

// Connect POST /api/platforms/:platform/connect
func (h *PlatformHandler) Connect(c *fiber.Ctx) error {
	var req dto.ConnectRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	result, err := h.platformService.Connect(c.UserContext(), middleware.GetPrincipal(c), c.Params("platform"), services.Credentials{
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		AccountID:    req.AccountID,
		AccountName:  req.AccountName,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, result)
}

// Disconnect DELETE /api/platforms/:platform/disconnect
func (h *PlatformHandler) Disconnect(c *fiber.Ctx) error {
	result, err := h.platformService.Disconnect(c.UserContext(), middleware.GetPrincipal(c), c.Params("platform"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, result)
}
