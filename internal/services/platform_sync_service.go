package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campaign-manager/backend/internal/events"
	"github.com/campaign-manager/backend/internal/models"
	"github.com/campaign-manager/backend/internal/platforms"
	"github.com/campaign-manager/backend/internal/rbac"
	"github.com/campaign-manager/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClientFactory builds an API client for a stored connection.
type ClientFactory interface {
	Client(conn *models.PlatformConnection, sink platforms.TokenSink) (platforms.Client, error)
}

// SyncService pushes campaigns to the ad platforms and pulls their metrics back.
type SyncService struct {
	campaigns CampaignStore
	conns     ConnectionStore
	clients   ClientFactory
	leads     *LeadService
	cache     Cache
	act       activity
	log       *zap.Logger
	now       func() time.Time
}

func NewSyncService(
	campaigns CampaignStore,
	conns ConnectionStore,
	clients ClientFactory,
	leads *LeadService,
	audit AuditStore,
	publisher events.Publisher,
	cache Cache,
	log *zap.Logger,
) *SyncService {
	return &SyncService{
		campaigns: campaigns,
		conns:     conns,
		clients:   clients,
		leads:     leads,
		cache:     cache,
		act:       activity{publisher: publisher, audit: audit, log: log},
		log:       log,
		now:       time.Now,
	}
}

// AllocationResult reports what happened to one platform allocation.
type AllocationResult struct {
	Platform           string `json:"platform"`
	PlatformCampaignID string `json:"platformCampaignId,omitempty"`
	Status             string `json:"status"`
	Error              string `json:"error,omitempty"`
}

type SyncResult struct {
	Campaign *models.Campaign   `json:"campaign"`
	Results  []AllocationResult `json:"results"`
}

func (s *SyncService) load(ctx context.Context, principal *models.User, id uuid.UUID, verb string) (*models.Campaign, error) {
	c, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Campaign not found")
	}
	if !rbac.CanAccess(principal, c.Owner, rbac.PermWriteAny) {
		return nil, newError(ErrForbidden, "Not authorized to %s this campaign", verb)
	}
	return c, nil
}

// clientFor returns a client bound to the owner's active connection, or nil
// when the owner has not connected platform.
func (s *SyncService) clientFor(ctx context.Context, owner uuid.UUID, platform string) (platforms.Client, error) {
	conn, err := s.conns.Get(ctx, owner, platform)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !conn.IsActive() {
		return nil, nil
	}
	return s.clients.Client(conn, s.tokenSink(conn.ID))
}

// tokenSink stores access tokens a client obtained through a refresh.
func (s *SyncService) tokenSink(connID uuid.UUID) platforms.TokenSink {
	return func(ctx context.Context, accessToken string, expiresIn time.Duration) error {
		return s.conns.UpdateAccessToken(ctx, connID, accessToken, s.now().Add(expiresIn))
	}
}

// upstream logs a platform failure and returns the client-facing message.
func (s *SyncService) upstream(op string, c *models.Campaign, platform string, err error) string {
	s.log.Warn("ad platform call failed",
		zap.String("op", op),
		zap.String("campaign_id", c.ID.String()),
		zap.String("platform", platform),
		zap.Error(err))
	if errors.Is(err, platforms.ErrUpstream) {
		return fmt.Sprintf("%s request failed", platform)
	}
	return err.Error()
}

// Publish creates a remote campaign for every allocation that has none yet
// and whose platform the owner has connected. Failed allocations are marked
// with the error status and reported in the results.
func (s *SyncService) Publish(ctx context.Context, principal *models.User, id uuid.UUID) (*SyncResult, error) {
	c, err := s.load(ctx, principal, id, "publish")
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	results := make([]AllocationResult, 0, len(c.Platforms))
	published := 0
	for i := range c.Platforms {
		a := &c.Platforms[i]
		if a.PlatformCampaignID != "" {
			results = append(results, AllocationResult{Platform: a.Name, PlatformCampaignID: a.PlatformCampaignID, Status: a.Status})
			continue
		}

		client, err := s.clientFor(ctx, c.Owner, a.Name)
		if err != nil && !errors.Is(err, platforms.ErrUnsupported) {
			return nil, err
		}
		if client == nil {
			results = append(results, AllocationResult{Platform: a.Name, Status: a.Status, Error: "platform not connected"})
			continue
		}

		spec := platforms.CampaignSpec{
			Name:      c.Name,
			Objective: c.Objective,
			Status:    c.Status,
			Budget:    c.Budget,
			StartDate: c.StartDate,
			EndDate:   c.EndDate,
		}
		if a.Budget > 0 {
			spec.Budget = models.Budget{Total: a.Budget, Currency: c.Budget.Currency}
		}

		externalID, err := client.CreateCampaign(ctx, spec)
		a.LastUpdated = now
		if err != nil {
			a.Status = models.AllocationStatusError
			results = append(results, AllocationResult{Platform: a.Name, Status: a.Status, Error: s.upstream("create", c, a.Name, err)})
			continue
		}
		a.PlatformCampaignID = externalID
		a.Status = models.AllocationStatusActive
		published++
		results = append(results, AllocationResult{Platform: a.Name, PlatformCampaignID: externalID, Status: a.Status})
	}

	if err := s.campaigns.UpdatePlatforms(ctx, c.ID, c.Platforms); err != nil {
		return nil, err
	}
	if published > 0 {
		s.act.record(ctx, principal, c.Owner, events.EventCampaignPublished, "campaign", c.ID, map[string]any{"published": published})
	}
	return &SyncResult{Campaign: c, Results: results}, nil
}

// SyncMetrics refreshes the metrics of every published allocation of a campaign.
func (s *SyncService) SyncMetrics(ctx context.Context, principal *models.User, id uuid.UUID) (*SyncResult, error) {
	c, err := s.load(ctx, principal, id, "sync")
	if err != nil {
		return nil, err
	}
	results, err := s.sync(ctx, principal, c)
	if err != nil {
		return nil, err
	}
	return &SyncResult{Campaign: c, Results: results}, nil
}

func (s *SyncService) sync(ctx context.Context, actor *models.User, c *models.Campaign) ([]AllocationResult, error) {
	now := s.now().UTC()
	results := make([]AllocationResult, 0, len(c.Platforms))
	clients := map[string]platforms.Client{}
	synced := 0

	for i := range c.Platforms {
		a := &c.Platforms[i]
		if a.PlatformCampaignID == "" {
			continue
		}
		client, ok := clients[a.Name]
		if !ok {
			var err error
			client, err = s.clientFor(ctx, c.Owner, a.Name)
			if err != nil && !errors.Is(err, platforms.ErrUnsupported) {
				return nil, err
			}
			clients[a.Name] = client
		}
		if client == nil {
			results = append(results, AllocationResult{Platform: a.Name, PlatformCampaignID: a.PlatformCampaignID, Status: a.Status, Error: "platform not connected"})
			continue
		}

		m, err := client.GetMetrics(ctx, a.PlatformCampaignID)
		if err != nil {
			results = append(results, AllocationResult{
				Platform: a.Name, PlatformCampaignID: a.PlatformCampaignID, Status: a.Status,
				Error: s.upstream("metrics", c, a.Name, err),
			})
			continue
		}
		a.Metrics = m
		a.LastUpdated = now
		synced++
		results = append(results, AllocationResult{Platform: a.Name, PlatformCampaignID: a.PlatformCampaignID, Status: a.Status})
	}

	if synced == 0 {
		return results, nil
	}
	if err := s.campaigns.UpdatePlatforms(ctx, c.ID, c.Platforms); err != nil {
		return nil, err
	}
	s.act.record(ctx, actor, c.Owner, events.EventCampaignMetricsSynced, "campaign", c.ID, map[string]any{"synced": synced})
	invalidateDashboard(ctx, s.cache, s.log, c.Owner)
	return results, nil
}

type SyncReport struct {
	Campaigns int
	Synced    int
	Failed    int
}

// SyncAll refreshes the metrics of every published campaign. A failing
// campaign is logged and does not stop the run.
func (s *SyncService) SyncAll(ctx context.Context) (SyncReport, error) {
	var report SyncReport
	campaigns, err := s.campaigns.ListPublished(ctx)
	if err != nil {
		return report, err
	}

	for i := range campaigns {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		c := &campaigns[i]
		report.Campaigns++
		results, err := s.sync(ctx, nil, c)
		if err != nil {
			s.log.Error("metrics sync failed", zap.String("campaign_id", c.ID.String()), zap.Error(err))
			report.Failed++
			continue
		}
		for _, r := range results {
			if r.Error != "" {
				report.Failed++
			} else {
				report.Synced++
			}
		}
	}
	return report, nil
}

// PushStatus mirrors the campaign status onto every published allocation.
func (s *SyncService) PushStatus(ctx context.Context, c *models.Campaign) error {
	var errs []error
	for _, a := range c.Platforms {
		if a.PlatformCampaignID == "" {
			continue
		}
		client, err := s.clientFor(ctx, c.Owner, a.Name)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a.Name, err))
			continue
		}
		if client == nil {
			continue
		}
		if err := client.UpdateStatus(ctx, a.PlatformCampaignID, c.Status); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a.Name, err))
		}
	}
	return errors.Join(errs...)
}

type ImportResult struct {
	Imported   int      `json:"imported"`
	Skipped    int      `json:"skipped"`
	Duplicates int      `json:"duplicates"`
	Errors     []string `json:"errors,omitempty"`
}

// ImportLeads pulls the submissions of a platform lead form into a campaign.
// Submissions that fail lead validation are skipped.
func (s *SyncService) ImportLeads(ctx context.Context, principal *models.User, campaignID uuid.UUID, platform, formID string) (*ImportResult, error) {
	if strings.TrimSpace(formID) == "" {
		return nil, invalid("formId", "is required")
	}
	c, err := s.load(ctx, principal, campaignID, "import leads into")
	if err != nil {
		return nil, err
	}

	client, err := s.clientFor(ctx, c.Owner, platform)
	if err != nil {
		if errors.Is(err, platforms.ErrUnsupported) {
			return nil, invalid("platform", "Invalid platform")
		}
		return nil, err
	}
	if client == nil {
		return nil, newError(ErrInvalid, "%s is not connected", platform)
	}
	fetcher, ok := client.(platforms.LeadFetcher)
	if !ok {
		return nil, newError(ErrInvalid, "%s does not support lead import", platform)
	}

	imported, err := fetcher.FetchLeads(ctx, formID)
	if err != nil {
		return nil, newError(ErrUpstream, "%s", s.upstream("leads", c, platform, err))
	}

	existing, err := s.leads.ListByCampaign(ctx, principal, c.ID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(existing))
	for _, l := range existing {
		if id := l.AdditionalInfo["platformLeadId"]; id != "" && l.Source.Platform == platform {
			seen[id] = true
		}
	}

	res := &ImportResult{}
	for _, il := range imported {
		if il.PlatformLeadID != "" && seen[il.PlatformLeadID] {
			res.Duplicates++
			continue
		}
		info := map[string]string{}
		for k, v := range il.AdditionalInfo {
			info[k] = v
		}
		if il.PlatformLeadID != "" {
			info["platformLeadId"] = il.PlatformLeadID
		}
		_, err := s.leads.Create(ctx, principal, LeadInput{
			FirstName:      il.FirstName,
			LastName:       il.LastName,
			Email:          il.Email,
			Phone:          il.Phone,
			Source:         models.LeadSource{Platform: platform, Campaign: c.ID, AdCreative: il.AdName},
			AdditionalInfo: info,
		})
		if err != nil {
			if errors.Is(err, ErrInvalid) {
				res.Skipped++
				res.Errors = append(res.Errors, err.Error())
				continue
			}
			return nil, err
		}
		if il.PlatformLeadID != "" {
			seen[il.PlatformLeadID] = true
		}
		res.Imported++
	}
	return res, nil
}
