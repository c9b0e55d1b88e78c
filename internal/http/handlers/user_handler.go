package handlers

import (
	"github.com/campaign-manager/backend/internal/http/dto"
	"github.com/campaign-manager/backend/internal/middleware"
	"github.com/campaign-manager/backend/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService *services.UserService
	validate    *validator.Validate
	log         *zap.Logger
}

func NewUserHandler(userService *services.UserService, validate *validator.Validate, log *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, validate: validate, log: log}
}

func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	p, err := h.userService.Profile(c.UserContext(), middleware.GetPrincipal(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, p)
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	var req dto.UpdateProfileRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, h.log, err)
	}
	u, err := h.userService.UpdateProfile(c.UserContext(), middleware.GetPrincipal(c), services.ProfileUpdate{
		Name:    req.Name,
		Email:   req.Email,
		Company: req.Company,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, u)
}

// ListUsers GET /api/users, admin only.
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	page, err := h.userService.List(c.UserContext(), c.QueryInt("page", 1), c.QueryInt("limit", 25))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return list(c, page.Items, len(page.Items), &page.Pagination)
}
