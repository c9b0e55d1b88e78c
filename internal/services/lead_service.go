package services

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/campaign-manager/backend/internal/events"
	"github.com/campaign-manager/backend/internal/models"
	"github.com/campaign-manager/backend/internal/query"
	"github.com/campaign-manager/backend/internal/rbac"
	"github.com/campaign-manager/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LeadService struct {
	campaigns CampaignStore
	leads     LeadStore
	cache     Cache
	act       activity
	log       *zap.Logger
}

func NewLeadService(
	campaigns CampaignStore,
	leads LeadStore,
	audit AuditStore,
	publisher events.Publisher,
	cache Cache,
	log *zap.Logger,
) *LeadService {
	return &LeadService{
		campaigns: campaigns,
		leads:     leads,
		cache:     cache,
		act:       activity{publisher: publisher, audit: audit, log: log},
		log:       log,
	}
}

type LeadInput struct {
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Status         string
	Source         models.LeadSource
	AdditionalInfo map[string]string
	Notes          string
	AssignedTo     *uuid.UUID
	Tags           []string
}

// LeadPatch holds the fields an update may change. The owner and the source
// campaign are fixed at creation.
type LeadPatch struct {
	FirstName      *string
	LastName       *string
	Email          *string
	Phone          *string
	Status         *string
	SourcePlatform *string
	AdCreative     *string
	LandingPage    *string
	AdditionalInfo *map[string]string
	Notes          *string
	AssignedTo     *uuid.UUID
	Unassign       bool
	Tags           *[]string
}

func (s *LeadService) campaign(ctx context.Context, principal *models.User, id uuid.UUID, perm, verb string) (*models.Campaign, error) {
	c, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(ErrNotFound, "Campaign not found")
		}
		return nil, err
	}
	if !rbac.CanAccess(principal, c.Owner, perm) {
		return nil, newError(ErrForbidden, "Not authorized to %s", verb)
	}
	return c, nil
}

// leadWriteErr turns a dangling assignee reference into a client error.
func leadWriteErr(err error) error {
	if errors.Is(err, repositories.ErrInvalidReference) {
		return invalid("assignedTo", "unknown user")
	}
	return err
}

// Create stores a lead and links it to its source campaign. The insert and
// the link are two separate writes; the link is idempotent.
func (s *LeadService) Create(ctx context.Context, principal *models.User, in LeadInput) (*models.Lead, error) {
	if in.Source.Campaign == uuid.Nil {
		return nil, invalid("source.campaign", "is required")
	}
	c, err := s.campaign(ctx, principal, in.Source.Campaign, rbac.PermWriteAny, "add leads to this campaign")
	if err != nil {
		return nil, err
	}

	l := &models.Lead{
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Email:          strings.TrimSpace(in.Email),
		Phone:          in.Phone,
		Status:         in.Status,
		Source:         in.Source,
		AdditionalInfo: in.AdditionalInfo,
		Notes:          in.Notes,
		Owner:          principal.ID,
		AssignedTo:     in.AssignedTo,
		Tags:           in.Tags,
	}
	l.Source.CampaignName = ""
	l.ApplyDefaults()
	if err := validateLead(l); err != nil {
		return nil, err
	}

	if err := s.leads.Create(ctx, l); err != nil {
		return nil, leadWriteErr(err)
	}
	if err := s.campaigns.AddLead(ctx, c.ID, l.ID); err != nil {
		s.log.Error("failed to link lead to campaign",
			zap.String("lead_id", l.ID.String()), zap.String("campaign_id", c.ID.String()), zap.Error(err))
		return nil, err
	}

	s.act.record(ctx, principal, l.Owner, events.EventLeadCreated, "lead", l.ID, map[string]any{
		"campaign_id": c.ID.String(),
		"platform":    l.Source.Platform,
	})
	invalidateDashboard(ctx, s.cache, s.log, l.Owner, c.Owner)
	return l, nil
}

// populate resolves the source campaign names of leads.
func (s *LeadService) populate(ctx context.Context, leads []models.Lead) error {
	ids := make([]uuid.UUID, 0, len(leads))
	for _, l := range leads {
		ids = append(ids, l.Source.Campaign)
	}
	names, err := s.campaigns.Names(ctx, ids)
	if err != nil {
		return err
	}
	for i := range leads {
		leads[i].Source.CampaignName = names[leads[i].Source.Campaign]
	}
	return nil
}

func (s *LeadService) List(ctx context.Context, principal *models.User, values url.Values) (*ListPage, error) {
	q, err := query.Parse(values, repositories.LeadSchema)
	if err != nil {
		return nil, queryError(err)
	}

	leads, err := s.leads.List(ctx, principal.ID, q)
	if err != nil {
		return nil, err
	}
	total, err := s.leads.Count(ctx, principal.ID, q)
	if err != nil {
		return nil, err
	}
	if err := s.populate(ctx, leads); err != nil {
		return nil, err
	}

	items := make([]any, 0, len(leads))
	for _, l := range leads {
		item, err := query.Project(l, q.Select)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return &ListPage{Items: items, Total: total, Pagination: query.Paginate(q.Page, q.Limit, total)}, nil
}

func (s *LeadService) load(ctx context.Context, principal *models.User, id uuid.UUID, perm, verb string) (*models.Lead, error) {
	l, err := s.leads.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(ErrNotFound, "Lead not found")
		}
		return nil, err
	}
	if !rbac.CanAccess(principal, l.Owner, perm) {
		return nil, newError(ErrForbidden, "Not authorized to %s this lead", verb)
	}
	return l, nil
}

func (s *LeadService) Get(ctx context.Context, principal *models.User, id uuid.UUID) (*models.Lead, error) {
	l, err := s.load(ctx, principal, id, rbac.PermReadAny, "access")
	if err != nil {
		return nil, err
	}
	leads := []models.Lead{*l}
	if err := s.populate(ctx, leads); err != nil {
		return nil, err
	}
	return &leads[0], nil
}

func (s *LeadService) Update(ctx context.Context, principal *models.User, id uuid.UUID, p LeadPatch) (*models.Lead, error) {
	l, err := s.load(ctx, principal, id, rbac.PermWriteAny, "update")
	if err != nil {
		return nil, err
	}

	if p.FirstName != nil {
		l.FirstName = strings.TrimSpace(*p.FirstName)
	}
	if p.LastName != nil {
		l.LastName = strings.TrimSpace(*p.LastName)
	}
	if p.Email != nil {
		l.Email = strings.TrimSpace(*p.Email)
	}
	if p.Phone != nil {
		l.Phone = *p.Phone
	}
	if p.Status != nil {
		l.Status = *p.Status
	}
	if p.SourcePlatform != nil {
		l.Source.Platform = *p.SourcePlatform
	}
	if p.AdCreative != nil {
		l.Source.AdCreative = *p.AdCreative
	}
	if p.LandingPage != nil {
		l.Source.LandingPage = *p.LandingPage
	}
	if p.AdditionalInfo != nil {
		l.AdditionalInfo = *p.AdditionalInfo
	}
	if p.Notes != nil {
		l.Notes = *p.Notes
	}
	switch {
	case p.Unassign:
		l.AssignedTo = nil
	case p.AssignedTo != nil:
		l.AssignedTo = p.AssignedTo
	}
	if p.Tags != nil {
		l.Tags = *p.Tags
	}
	l.ApplyDefaults()
	if err := validateLead(l); err != nil {
		return nil, err
	}

	if err := s.leads.Update(ctx, l); err != nil {
		return nil, leadWriteErr(err)
	}

	s.act.record(ctx, principal, l.Owner, events.EventLeadUpdated, "lead", l.ID, map[string]any{"status": l.Status})
	invalidateDashboard(ctx, s.cache, s.log, l.Owner)

	leads := []models.Lead{*l}
	if err := s.populate(ctx, leads); err != nil {
		return nil, err
	}
	return &leads[0], nil
}

// Delete unlinks the lead from its campaign, then removes it.
func (s *LeadService) Delete(ctx context.Context, principal *models.User, id uuid.UUID) error {
	l, err := s.load(ctx, principal, id, rbac.PermDeleteAny, "delete")
	if err != nil {
		return err
	}
	if err := s.campaigns.RemoveLead(ctx, l.Source.Campaign, l.ID); err != nil {
		return err
	}
	if err := s.leads.Delete(ctx, l.ID); err != nil {
		return err
	}

	s.act.record(ctx, principal, l.Owner, events.EventLeadDeleted, "lead", l.ID, map[string]any{
		"campaign_id": l.Source.Campaign.String(),
	})
	invalidateDashboard(ctx, s.cache, s.log, l.Owner)
	return nil
}

// ListByCampaign returns every lead sourced by a campaign.
func (s *LeadService) ListByCampaign(ctx context.Context, principal *models.User, campaignID uuid.UUID) ([]models.Lead, error) {
	c, err := s.campaign(ctx, principal, campaignID, rbac.PermReadAny, "access leads for this campaign")
	if err != nil {
		return nil, err
	}
	return s.leads.ListByCampaign(ctx, c.ID)
}

func validateLead(l *models.Lead) error {
	if l.FirstName == "" {
		return invalid("firstName", "Please add a first name")
	}
	if l.Email == "" {
		return invalid("email", "Please add an email")
	}
	if !models.IsValidEmail(l.Email) {
		return invalid("email", "Please add a valid email")
	}
	if !models.IsValidLeadStatus(l.Status) {
		return invalid("status", "must be one of %s", strings.Join(models.LeadStatuses, ", "))
	}
	if !models.IsValidLeadSourcePlatform(l.Source.Platform) {
		return invalid("source.platform", "must be one of %s", strings.Join(models.LeadSourcePlatforms, ", "))
	}
	return nil
}
