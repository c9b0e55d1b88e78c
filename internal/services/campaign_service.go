package services

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/campaign-manager/backend/internal/events"
	"github.com/campaign-manager/backend/internal/models"
	"github.com/campaign-manager/backend/internal/query"
	"github.com/campaign-manager/backend/internal/rbac"
	"github.com/campaign-manager/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StatusPusher mirrors a campaign status change onto the ad platforms.
type StatusPusher interface {
	PushStatus(ctx context.Context, c *models.Campaign) error
}

type CampaignService struct {
	campaigns CampaignStore
	leads     LeadStore
	cache     Cache
	pusher    StatusPusher
	act       activity
	log       *zap.Logger
	now       func() time.Time
}

func NewCampaignService(
	campaigns CampaignStore,
	leads LeadStore,
	audit AuditStore,
	publisher events.Publisher,
	cache Cache,
	pusher StatusPusher,
	log *zap.Logger,
) *CampaignService {
	return &CampaignService{
		campaigns: campaigns,
		leads:     leads,
		cache:     cache,
		pusher:    pusher,
		act:       activity{publisher: publisher, audit: audit, log: log},
		log:       log,
		now:       time.Now,
	}
}

type CampaignInput struct {
	Name           string
	Description    string
	Objective      string
	Status         string
	StartDate      time.Time
	EndDate        time.Time
	Budget         models.Budget
	TargetAudience models.TargetAudience
	Platforms      []models.PlatformAllocation
	AdCreatives    []models.AdCreative
	Team           []uuid.UUID
	Tags           []string
	Notes          string
}

// CampaignPatch holds the fields an update may change. Nil means unchanged.
type CampaignPatch struct {
	Name           *string
	Description    *string
	Objective      *string
	Status         *string
	StartDate      *time.Time
	EndDate        *time.Time
	Budget         *models.Budget
	TargetAudience *models.TargetAudience
	Platforms      *[]models.PlatformAllocation
	AdCreatives    *[]models.AdCreative
	Team           *[]uuid.UUID
	Tags           *[]string
	Notes          *string
}

// ListPage is one page of a list endpoint. Items are projected when the
// query selected fields.
type ListPage struct {
	Items      []any
	Total      int64
	Pagination query.Pagination
}

func (s *CampaignService) Create(ctx context.Context, principal *models.User, in CampaignInput) (*models.Campaign, error) {
	c := &models.Campaign{
		Name:           strings.TrimSpace(in.Name),
		Description:    in.Description,
		Objective:      in.Objective,
		Status:         in.Status,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		Budget:         in.Budget,
		TargetAudience: in.TargetAudience,
		Platforms:      mergeAllocations(nil, in.Platforms, s.now().UTC()),
		AdCreatives:    in.AdCreatives,
		Team:           in.Team,
		Tags:           in.Tags,
		Notes:          in.Notes,
		Owner:          principal.ID,
	}
	c.ApplyDefaults(s.now().UTC())
	if err := validateCampaign(c); err != nil {
		return nil, err
	}

	if err := s.campaigns.Create(ctx, c); err != nil {
		return nil, err
	}

	s.act.record(ctx, principal, c.Owner, events.EventCampaignCreated, "campaign", c.ID, map[string]any{"name": c.Name})
	invalidateDashboard(ctx, s.cache, s.log, c.Owner)
	return c, nil
}

// List returns the principal's campaigns matching the query string.
func (s *CampaignService) List(ctx context.Context, principal *models.User, values url.Values) (*ListPage, error) {
	q, err := query.Parse(values, repositories.CampaignSchema)
	if err != nil {
		return nil, queryError(err)
	}

	campaigns, err := s.campaigns.List(ctx, principal.ID, q)
	if err != nil {
		return nil, err
	}
	total, err := s.campaigns.Count(ctx, principal.ID, q)
	if err != nil {
		return nil, err
	}

	items := make([]any, 0, len(campaigns))
	for _, c := range campaigns {
		item, err := query.Project(c, q.Select)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return &ListPage{Items: items, Total: total, Pagination: query.Paginate(q.Page, q.Limit, total)}, nil
}

// load fetches a campaign and enforces the ownership rule.
func (s *CampaignService) load(ctx context.Context, principal *models.User, id uuid.UUID, perm, verb string) (*models.Campaign, error) {
	c, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(ErrNotFound, "Campaign not found")
		}
		return nil, err
	}
	if !rbac.CanAccess(principal, c.Owner, perm) {
		return nil, newError(ErrForbidden, "Not authorized to %s this campaign", verb)
	}
	return c, nil
}

func (s *CampaignService) Get(ctx context.Context, principal *models.User, id uuid.UUID) (*models.Campaign, error) {
	return s.load(ctx, principal, id, rbac.PermReadAny, "access")
}

func (s *CampaignService) Update(ctx context.Context, principal *models.User, id uuid.UUID, p CampaignPatch) (*models.Campaign, error) {
	c, err := s.load(ctx, principal, id, rbac.PermWriteAny, "update")
	if err != nil {
		return nil, err
	}
	prevStatus := c.Status

	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Objective != nil {
		c.Objective = *p.Objective
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.StartDate != nil {
		c.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		c.EndDate = *p.EndDate
	}
	if p.Budget != nil {
		b := *p.Budget
		if b.Currency == "" {
			b.Currency = c.Budget.Currency
		}
		c.Budget = b
	}
	if p.TargetAudience != nil {
		c.TargetAudience = *p.TargetAudience
	}
	if p.Platforms != nil {
		c.Platforms = mergeAllocations(c.Platforms, *p.Platforms, s.now().UTC())
	}
	if p.AdCreatives != nil {
		c.AdCreatives = *p.AdCreatives
	}
	if p.Team != nil {
		c.Team = *p.Team
	}
	if p.Tags != nil {
		c.Tags = *p.Tags
	}
	if p.Notes != nil {
		c.Notes = *p.Notes
	}
	c.ApplyDefaults(s.now().UTC())
	if err := validateCampaign(c); err != nil {
		return nil, err
	}

	if err := s.campaigns.Update(ctx, c); err != nil {
		return nil, err
	}

	payload := map[string]any{"name": c.Name, "status": c.Status}
	s.act.record(ctx, principal, c.Owner, events.EventCampaignUpdated, "campaign", c.ID, payload)
	invalidateDashboard(ctx, s.cache, s.log, c.Owner)

	if c.Status != prevStatus && s.pusher != nil {
		if err := s.pusher.PushStatus(ctx, c); err != nil {
			s.log.Warn("failed to push campaign status to platforms",
				zap.String("campaign_id", c.ID.String()), zap.Error(err))
		}
	}
	return c, nil
}

// mergeAllocations replaces the allocation list while keeping the platform
// campaign id and metrics of platforms that stay, since only a sync writes those.
func mergeAllocations(current, next []models.PlatformAllocation, now time.Time) []models.PlatformAllocation {
	out := make([]models.PlatformAllocation, 0, len(next))
	for _, n := range next {
		idx := slices.IndexFunc(current, func(a models.PlatformAllocation) bool { return a.Name == n.Name })
		if idx >= 0 {
			prev := current[idx]
			n.PlatformCampaignID = prev.PlatformCampaignID
			n.Metrics = prev.Metrics
			n.LastUpdated = prev.LastUpdated
			if n.Status == "" {
				n.Status = prev.Status
			}
		} else {
			n.PlatformCampaignID = ""
			n.Metrics = models.Metrics{}
			n.LastUpdated = now
		}
		out = append(out, n)
	}
	return out
}

// Delete removes a campaign. Its leads are removed with it.
func (s *CampaignService) Delete(ctx context.Context, principal *models.User, id uuid.UUID) error {
	c, err := s.load(ctx, principal, id, rbac.PermDeleteAny, "delete")
	if err != nil {
		return err
	}
	if err := s.campaigns.Delete(ctx, c.ID); err != nil {
		return err
	}

	s.act.record(ctx, principal, c.Owner, events.EventCampaignDeleted, "campaign", c.ID, map[string]any{"name": c.Name})
	invalidateDashboard(ctx, s.cache, s.log, c.Owner)
	return nil
}

type PlatformMetrics struct {
	Platform    string         `json:"platform"`
	Metrics     models.Metrics `json:"metrics"`
	Status      string         `json:"status"`
	LastUpdated time.Time      `json:"lastUpdated"`
}

type CampaignMetrics struct {
	TotalMetrics    models.Metrics    `json:"totalMetrics"`
	PlatformMetrics []PlatformMetrics `json:"platformMetrics"`
	LeadCount       int               `json:"leadCount"`
}

func (s *CampaignService) Metrics(ctx context.Context, principal *models.User, id uuid.UUID) (*CampaignMetrics, error) {
	c, err := s.load(ctx, principal, id, rbac.PermReadAny, "access")
	if err != nil {
		return nil, err
	}
	leads, err := s.leads.ListByCampaign(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	out := &CampaignMetrics{
		TotalMetrics:    c.TotalMetrics(),
		PlatformMetrics: make([]PlatformMetrics, 0, len(c.Platforms)),
		LeadCount:       len(leads),
	}
	for _, p := range c.Platforms {
		out.PlatformMetrics = append(out.PlatformMetrics, PlatformMetrics{
			Platform: p.Name, Metrics: p.Metrics, Status: p.Status, LastUpdated: p.LastUpdated,
		})
	}
	return out, nil
}

// Activity returns the audit trail of a campaign, newest first.
func (s *CampaignService) Activity(ctx context.Context, principal *models.User, id uuid.UUID, limit int) ([]models.AuditLog, error) {
	c, err := s.load(ctx, principal, id, rbac.PermReadAny, "access")
	if err != nil {
		return nil, err
	}
	if s.act.audit == nil {
		return []models.AuditLog{}, nil
	}
	return s.act.audit.ListByEntity(ctx, "campaign", c.ID, limit)
}

func validateCampaign(c *models.Campaign) error {
	if c.Name == "" {
		return invalid("name", "Please add a campaign name")
	}
	if c.Objective == "" {
		return invalid("objective", "Please select a campaign objective")
	}
	if !models.IsValidObjective(c.Objective) {
		return invalid("objective", "must be one of %s", strings.Join(models.CampaignObjectives, ", "))
	}
	if !models.IsValidCampaignStatus(c.Status) {
		return invalid("status", "must be one of %s", strings.Join(models.CampaignStatuses, ", "))
	}
	if c.StartDate.IsZero() {
		return invalid("startDate", "Please add a start date")
	}
	if c.EndDate.IsZero() {
		return invalid("endDate", "Please add an end date")
	}
	if c.Budget.Total <= 0 {
		return invalid("budget.total", "Please add a total budget")
	}
	if c.Budget.Daily != nil && *c.Budget.Daily < 0 {
		return invalid("budget.daily", "must not be negative")
	}
	if ar := c.TargetAudience.AgeRange; ar != nil {
		if ar.Min != nil && (*ar.Min < 13 || *ar.Min > 65) {
			return invalid("targetAudience.ageRange.min", "must be between 13 and 65")
		}
		if ar.Max != nil && (*ar.Max < 13 || *ar.Max > 65) {
			return invalid("targetAudience.ageRange.max", "must be between 13 and 65")
		}
	}
	for _, g := range c.TargetAudience.Gender {
		if !slices.Contains(models.Genders, g) {
			return invalid("targetAudience.gender", "must be one of %s", strings.Join(models.Genders, ", "))
		}
	}

	seen := map[string]bool{}
	for _, p := range c.Platforms {
		if !models.IsValidPlatform(p.Name) {
			return invalid("platforms.name", "unknown platform %q", p.Name)
		}
		if seen[p.Name] {
			return invalid("platforms.name", "platform %q listed twice", p.Name)
		}
		seen[p.Name] = true
		if !slices.Contains(models.AllocationStatuses, p.Status) {
			return invalid("platforms.status", "must be one of %s", strings.Join(models.AllocationStatuses, ", "))
		}
		if p.Budget < 0 {
			return invalid("platforms.budget", "must not be negative")
		}
	}
	for _, cr := range c.AdCreatives {
		if cr.Name == "" {
			return invalid("adCreatives.name", "is required")
		}
		if !slices.Contains(models.CreativeTypes, cr.Type) {
			return invalid("adCreatives.type", "must be one of %s", strings.Join(models.CreativeTypes, ", "))
		}
		for _, p := range cr.Platforms {
			if !models.IsValidPlatform(p) {
				return invalid("adCreatives.platforms", "unknown platform %q", p)
			}
		}
	}
	return nil
}
