package handlers

import (
	"github.com/campaign-manager/backend/internal/http/dto"
	"github.com/campaign-manager/backend/internal/middleware"
	"github.com/campaign-manager/backend/internal/models"
	"github.com/campaign-manager/backend/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LeadHandler struct {
	leadService *services.LeadService
	validate    *validator.Validate
	log         *zap.Logger
}

func NewLeadHandler(leadService *services.LeadService, validate *validator.Validate, log *zap.Logger) *LeadHandler {
	return &LeadHandler{leadService: leadService, validate: validate, log: log}
}

func optionalID(field string, s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, &services.ValidationError{Field: field, Message: "Invalid id"}
	}
	return &id, nil
}

func (h *LeadHandler) CreateLead(c *fiber.Ctx) error {
	var req dto.LeadRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, h.log, err)
	}
	src := deref(req.Source)
	campaignID, err := optionalID("source.campaign", src.Campaign)
	if err != nil {
		return respondError(c, h.log, err)
	}
	assignedTo, err := optionalID("assignedTo", req.AssignedTo)
	if err != nil {
		return respondError(c, h.log, err)
	}

	lead, err := h.leadService.Create(c.UserContext(), middleware.GetPrincipal(c), services.LeadInput{
		FirstName: deref(req.FirstName),
		LastName:  deref(req.LastName),
		Email:     deref(req.Email),
		Phone:     deref(req.Phone),
		Status:    deref(req.Status),
		Source: models.LeadSource{
			Platform:    deref(src.Platform),
			Campaign:    deref(campaignID),
			AdCreative:  deref(src.AdCreative),
			LandingPage: deref(src.LandingPage),
		},
		AdditionalInfo: deref(req.AdditionalInfo),
		Notes:          deref(req.Notes),
		AssignedTo:     assignedTo,
		Tags:           deref(req.Tags),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusCreated, lead)
}

func (h *LeadHandler) ListLeads(c *fiber.Ctx) error {
	values, err := queryValues(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	page, err := h.leadService.List(c.UserContext(), middleware.GetPrincipal(c), values)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return list(c, page.Items, len(page.Items), &page.Pagination)
}

func (h *LeadHandler) GetLead(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	lead, err := h.leadService.Get(c.UserContext(), middleware.GetPrincipal(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, lead)
}

// UpdateLead PUT /api/leads/:id. The owner and source campaign are ignored;
// an empty assignedTo clears the assignee.
func (h *LeadHandler) UpdateLead(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	var req dto.LeadRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, h.log, err)
	}
	assignedTo, err := optionalID("assignedTo", req.AssignedTo)
	if err != nil {
		return respondError(c, h.log, err)
	}

	patch := services.LeadPatch{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		Status:         req.Status,
		AdditionalInfo: req.AdditionalInfo,
		Notes:          req.Notes,
		AssignedTo:     assignedTo,
		Unassign:       req.AssignedTo != nil && *req.AssignedTo == "",
		Tags:           req.Tags,
	}
	if req.Source != nil {
		patch.SourcePlatform = req.Source.Platform
		patch.AdCreative = req.Source.AdCreative
		patch.LandingPage = req.Source.LandingPage
	}

	lead, err := h.leadService.Update(c.UserContext(), middleware.GetPrincipal(c), id, patch)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, lead)
}

func (h *LeadHandler) DeleteLead(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.leadService.Delete(c.UserContext(), middleware.GetPrincipal(c), id); err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{})
}
