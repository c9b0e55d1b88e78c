package handlers

import (
	"github.com/campaign-manager/backend/internal/middleware"
	"github.com/campaign-manager/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
	log              *zap.Logger
}

func NewAnalyticsHandler(analyticsService *services.AnalyticsService, log *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService, log: log}
}

// Dashboard GET /api/analytics/dashboard
func (h *AnalyticsHandler) Dashboard(c *fiber.Ctx) error {
	d, err := h.analyticsService.Dashboard(c.UserContext(), middleware.GetPrincipal(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, d)
}

// CampaignPerformance GET /api/analytics/campaigns/:id/performance
func (h *AnalyticsHandler) CampaignPerformance(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	p, err := h.analyticsService.CampaignPerformance(c.UserContext(), middleware.GetPrincipal(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, p)
}

// Leads GET /api/analytics/leads
func (h *AnalyticsHandler) Leads(c *fiber.Ctx) error {
	a, err := h.analyticsService.LeadAnalytics(c.UserContext(), middleware.GetPrincipal(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, a)
}
