package handlers

import (
	"github.com/campaign-manager/backend/internal/http/dto"
	"github.com/campaign-manager/backend/internal/middleware"
	"github.com/campaign-manager/backend/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
	log         *zap.Logger
}

func NewAuthHandler(authService *services.AuthService, validate *validator.Validate, log *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, validate: validate, log: log}
}

func (h *AuthHandler) session(c *fiber.Ctx, status int, s *services.Session) error {
	return ok(c, status, dto.NewSessionResponse(s.User, s.Token))
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, h.log, err)
	}

	s, err := h.authService.Register(c.UserContext(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Company:  req.Company,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return h.session(c, fiber.StatusCreated, s)
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return fail(c, fiber.StatusBadRequest, "Please provide an email and password")
	}

	s, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return h.session(c, fiber.StatusOK, s)
}

// Me GET /api/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return ok(c, fiber.StatusOK, middleware.GetPrincipal(c))
}

// Logout GET /api/auth/logout. Tokens are stateless, the client drops its copy.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	return ok(c, fiber.StatusOK, fiber.Map{})
}

// ForgotPassword POST /api/auth/forgotpassword
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.authService.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, "Email sent")
}

// ResetPassword PUT /api/auth/resetpassword/:resettoken
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, h.log, err)
	}
	s, err := h.authService.ResetPassword(c.UserContext(), c.Params("resettoken"), req.Password)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return h.session(c, fiber.StatusOK, s)
}

// UpdatePassword PUT /api/auth/updatepassword
func (h *AuthHandler) UpdatePassword(c *fiber.Ctx) error {
	var req dto.UpdatePasswordRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, h.log, err)
	}
	s, err := h.authService.UpdatePassword(c.UserContext(), middleware.GetPrincipal(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return h.session(c, fiber.StatusOK, s)
}
