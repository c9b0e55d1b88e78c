package handlers

import (
	"github.com/campaign-manager/backend/internal/http/dto"
	"github.com/campaign-manager/backend/internal/middleware"
	"github.com/campaign-manager/backend/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CampaignHandler struct {
	campaignService *services.CampaignService
	leadService     *services.LeadService
	syncService     *services.SyncService
	validate        *validator.Validate
	log             *zap.Logger
}

func NewCampaignHandler(
	campaignService *services.CampaignService,
	leadService *services.LeadService,
	syncService *services.SyncService,
	validate *validator.Validate,
	log *zap.Logger,
) *CampaignHandler {
	return &CampaignHandler{
		campaignService: campaignService,
		leadService:     leadService,
		syncService:     syncService,
		validate:        validate,
		log:             log,
	}
}

func parseIDs(field string, ids []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(ids))
	for _, s := range ids {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, &services.ValidationError{Field: field, Message: "Invalid id"}
		}
		out = append(out, id)
	}
	return out, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func (h *CampaignHandler) CreateCampaign(c *fiber.Ctx) error {
	var req dto.CampaignRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, h.log, err)
	}
	team, err := parseIDs("team", deref(req.Team))
	if err != nil {
		return respondError(c, h.log, err)
	}

	campaign, err := h.campaignService.Create(c.UserContext(), middleware.GetPrincipal(c), services.CampaignInput{
		Name:           deref(req.Name),
		Description:    deref(req.Description),
		Objective:      deref(req.Objective),
		Status:         deref(req.Status),
		StartDate:      req.StartDate.Value(),
		EndDate:        req.EndDate.Value(),
		Budget:         deref(req.Budget),
		TargetAudience: deref(req.TargetAudience),
		Platforms:      deref(req.Platforms),
		AdCreatives:    deref(req.AdCreatives),
		Team:           team,
		Tags:           deref(req.Tags),
		Notes:          deref(req.Notes),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusCreated, campaign)
}

func (h *CampaignHandler) ListCampaigns(c *fiber.Ctx) error {
	values, err := queryValues(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	page, err := h.campaignService.List(c.UserContext(), middleware.GetPrincipal(c), values)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return list(c, page.Items, len(page.Items), &page.Pagination)
}

func (h *CampaignHandler) GetCampaign(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	campaign, err := h.campaignService.Get(c.UserContext(), middleware.GetPrincipal(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, campaign)
}

func (h *CampaignHandler) UpdateCampaign(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	var req dto.CampaignRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, h.log, err)
	}

	patch := services.CampaignPatch{
		Name:           req.Name,
		Description:    req.Description,
		Objective:      req.Objective,
		Status:         req.Status,
		StartDate:      req.StartDate.Ptr(),
		EndDate:        req.EndDate.Ptr(),
		Budget:         req.Budget,
		TargetAudience: req.TargetAudience,
		Platforms:      req.Platforms,
		AdCreatives:    req.AdCreatives,
		Tags:           req.Tags,
		Notes:          req.Notes,
	}
	if req.Team != nil {
		team, err := parseIDs("team", *req.Team)
		if err != nil {
			return respondError(c, h.log, err)
		}
		patch.Team = &team
	}

	campaign, err := h.campaignService.Update(c.UserContext(), middleware.GetPrincipal(c), id, patch)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, campaign)
}

func (h *CampaignHandler) DeleteCampaign(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.campaignService.Delete(c.UserContext(), middleware.GetPrincipal(c), id); err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{})
}

// GetMetrics GET /api/campaigns/:id/metrics
func (h *CampaignHandler) GetMetrics(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	metrics, err := h.campaignService.Metrics(c.UserContext(), middleware.GetPrincipal(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, metrics)
}

// GetLeads GET /api/campaigns/:id/leads
func (h *CampaignHandler) GetLeads(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	leads, err := h.leadService.ListByCampaign(c.UserContext(), middleware.GetPrincipal(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return list(c, leads, len(leads), nil)
}

// GetActivity GET /api/campaigns/:id/activity
func (h *CampaignHandler) GetActivity(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	entries, err := h.campaignService.Activity(c.UserContext(), middleware.GetPrincipal(c), id, limit)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return list(c, entries, len(entries), nil)
}

// Publish POST /api/campaigns/:id/publish
func (h *CampaignHandler) Publish(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	result, err := h.syncService.Publish(c.UserContext(), middleware.GetPrincipal(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, result)
}

// SyncMetrics POST /api/campaigns/:id/sync
func (h *CampaignHandler) SyncMetrics(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	result, err := h.syncService.SyncMetrics(c.UserContext(), middleware.GetPrincipal(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, result)
}

// ImportLeads POST /api/campaigns/:id/import-leads
func (h *CampaignHandler) ImportLeads(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	var req dto.ImportLeadsRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, h.log, err)
	}
	result, err := h.syncService.ImportLeads(c.UserContext(), middleware.GetPrincipal(c), id, req.Platform, req.FormID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, result)
}
