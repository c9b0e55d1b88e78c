package services

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/campaign-manager/backend/internal/models"
	"github.com/campaign-manager/backend/internal/rbac"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	recentLimit       = 5
	topCampaignsLimit = 10
	leadSeriesDays    = 30
)

func dashboardKey(owner uuid.UUID) string {
	return "dashboard:" + owner.String()
}

// invalidateDashboard drops the cached dashboards of owners. Cache errors are
// logged; a stale entry expires on its own.
func invalidateDashboard(ctx context.Context, cache Cache, log *zap.Logger, owners ...uuid.UUID) {
	if cache == nil {
		return
	}
	keys := make([]string, 0, len(owners))
	for _, o := range owners {
		key := dashboardKey(o)
		if !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}
	if err := cache.Delete(ctx, keys...); err != nil {
		log.Warn("failed to invalidate dashboard cache", zap.Strings("keys", keys), zap.Error(err))
	}
}

type AnalyticsService struct {
	campaigns CampaignStore
	leads     LeadStore
	cache     Cache
	cacheTTL  time.Duration
	log       *zap.Logger
	now       func() time.Time
}

func NewAnalyticsService(campaigns CampaignStore, leads LeadStore, cache Cache, cacheTTL time.Duration, log *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		campaigns: campaigns,
		leads:     leads,
		cache:     cache,
		cacheTTL:  cacheTTL,
		log:       log,
		now:       time.Now,
	}
}

type CampaignStats struct {
	Active int64 `json:"active"`
	Total  int64 `json:"total"`
}

type LeadStats struct {
	Total      int64                `json:"total"`
	ByStatus   []models.CountBucket `json:"byStatus"`
	ByPlatform []models.CountBucket `json:"byPlatform"`
}

type PerformanceMetrics struct {
	TotalSpend       float64 `json:"totalSpend"`
	TotalImpressions int64   `json:"totalImpressions"`
	TotalClicks      int64   `json:"totalClicks"`
	TotalConversions int64   `json:"totalConversions"`
	OverallCTR       float64 `json:"overallCTR"`
	OverallCPC       float64 `json:"overallCPC"`
	OverallCPM       float64 `json:"overallCPM"`
	OverallCPL       float64 `json:"overallCPL"`
}

type RecentCampaign struct {
	ID           uuid.UUID      `json:"_id"`
	Name         string         `json:"name"`
	Status       string         `json:"status"`
	StartDate    time.Time      `json:"startDate"`
	EndDate      time.Time      `json:"endDate"`
	Budget       BudgetTotal    `json:"budget"`
	TotalMetrics models.Metrics `json:"totalMetrics"`
}

type BudgetTotal struct {
	Total float64 `json:"total"`
}

type RecentLeadSource struct {
	Platform string              `json:"platform"`
	Campaign *models.CampaignRef `json:"campaign"`
}

type RecentLead struct {
	ID        uuid.UUID        `json:"_id"`
	FirstName string           `json:"firstName"`
	LastName  string           `json:"lastName"`
	Email     string           `json:"email"`
	Status    string           `json:"status"`
	Source    RecentLeadSource `json:"source"`
	CreatedAt time.Time        `json:"createdAt"`
}

type Dashboard struct {
	CampaignStats      CampaignStats      `json:"campaignStats"`
	LeadStats          LeadStats          `json:"leadStats"`
	PerformanceMetrics PerformanceMetrics `json:"performanceMetrics"`
	RecentCampaigns    []RecentCampaign   `json:"recentCampaigns"`
	RecentLeads        []RecentLead       `json:"recentLeads"`
}

// Dashboard summarizes the principal's campaigns and leads. The result is
// cached per user until a campaign or lead write invalidates it.
func (s *AnalyticsService) Dashboard(ctx context.Context, principal *models.User) (*Dashboard, error) {
	key := dashboardKey(principal.ID)
	if s.cache != nil {
		raw, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.Warn("dashboard cache read failed", zap.Error(err))
		} else if ok {
			var d Dashboard
			if err := json.Unmarshal(raw, &d); err == nil {
				return &d, nil
			}
			s.log.Warn("dashboard cache entry is corrupt", zap.String("key", key))
		}
	}

	d, err := s.buildDashboard(ctx, principal.ID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.cacheTTL > 0 {
		raw, err := json.Marshal(d)
		if err == nil {
			err = s.cache.Set(ctx, key, raw, s.cacheTTL)
		}
		if err != nil {
			s.log.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return d, nil
}

func (s *AnalyticsService) buildDashboard(ctx context.Context, owner uuid.UUID) (*Dashboard, error) {
	var (
		d   Dashboard
		err error
	)

	if d.CampaignStats.Active, err = s.campaigns.CountByStatus(ctx, owner, models.CampaignStatusActive); err != nil {
		return nil, err
	}
	if d.CampaignStats.Total, err = s.campaigns.CountByStatus(ctx, owner, ""); err != nil {
		return nil, err
	}
	if d.LeadStats.Total, err = s.leads.CountByOwner(ctx, owner); err != nil {
		return nil, err
	}
	if d.LeadStats.ByStatus, err = s.leads.CountByStatus(ctx, owner); err != nil {
		return nil, err
	}
	if d.LeadStats.ByPlatform, err = s.leads.CountByPlatform(ctx, owner); err != nil {
		return nil, err
	}

	campaigns, err := s.campaigns.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	var total models.Metrics
	for _, c := range campaigns {
		for _, p := range c.Platforms {
			total.Add(p.Metrics)
		}
	}
	total.Derive()
	d.PerformanceMetrics = PerformanceMetrics{
		TotalSpend:       total.Spend,
		TotalImpressions: total.Impressions,
		TotalClicks:      total.Clicks,
		TotalConversions: total.Conversions,
		OverallCTR:       total.CTR,
		OverallCPC:       total.CPC,
		OverallCPM:       total.CPM,
		OverallCPL:       models.Ratio(total.Spend, float64(d.LeadStats.Total)),
	}

	recent, err := s.campaigns.Recent(ctx, owner, recentLimit)
	if err != nil {
		return nil, err
	}
	d.RecentCampaigns = make([]RecentCampaign, 0, len(recent))
	for _, c := range recent {
		d.RecentCampaigns = append(d.RecentCampaigns, RecentCampaign{
			ID:           c.ID,
			Name:         c.Name,
			Status:       c.Status,
			StartDate:    c.StartDate,
			EndDate:      c.EndDate,
			Budget:       BudgetTotal{Total: c.Budget.Total},
			TotalMetrics: c.TotalMetrics(),
		})
	}

	leads, err := s.leads.Recent(ctx, owner, recentLimit)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(leads))
	for _, l := range leads {
		ids = append(ids, l.Source.Campaign)
	}
	names, err := s.campaigns.Names(ctx, ids)
	if err != nil {
		return nil, err
	}
	d.RecentLeads = make([]RecentLead, 0, len(leads))
	for _, l := range leads {
		item := RecentLead{
			ID:        l.ID,
			FirstName: l.FirstName,
			LastName:  l.LastName,
			Email:     l.Email,
			Status:    l.Status,
			Source:    RecentLeadSource{Platform: l.Source.Platform},
			CreatedAt: l.CreatedAt,
		}
		if name, ok := names[l.Source.Campaign]; ok {
			item.Source.Campaign = &models.CampaignRef{ID: l.Source.Campaign, Name: name}
		}
		d.RecentLeads = append(d.RecentLeads, item)
	}
	return &d, nil
}

type LeadAnalytics struct {
	LeadsByCampaign           []models.CampaignLeadCount `json:"leadsByCampaign"`
	LeadsByDate               []models.DailyCount        `json:"leadsByDate"`
	ConversionRatesByPlatform []models.PlatformFunnel    `json:"conversionRatesByPlatform"`
}

// LeadAnalytics returns the top campaigns by lead count, a zero-filled daily
// series of the last 30 UTC days ending today, and the funnel per platform.
func (s *AnalyticsService) LeadAnalytics(ctx context.Context, principal *models.User) (*LeadAnalytics, error) {
	top, err := s.leads.TopCampaigns(ctx, principal.ID, topCampaignsLimit)
	if err != nil {
		return nil, err
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(leadSeriesDays - 1))
	daily, err := s.leads.DailyCounts(ctx, principal.ID, since)
	if err != nil {
		return nil, err
	}
	series := make([]models.DailyCount, 0, leadSeriesDays)
	for day := since; !day.After(today); day = day.AddDate(0, 0, 1) {
		key := models.DayKey(day)
		series = append(series, models.DailyCount{Date: key, Count: daily[key]})
	}

	campaigns, err := s.campaigns.ListByOwner(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	byPlatform := map[string]*models.Metrics{}
	for _, c := range campaigns {
		for _, p := range c.Platforms {
			m, ok := byPlatform[p.Name]
			if !ok {
				m = &models.Metrics{}
				byPlatform[p.Name] = m
			}
			m.Add(p.Metrics)
		}
	}
	funnels := make([]models.PlatformFunnel, 0, len(byPlatform))
	for name, m := range byPlatform {
		funnels = append(funnels, models.NewPlatformFunnel(name, *m))
	}
	slices.SortFunc(funnels, func(a, b models.PlatformFunnel) int {
		return strings.Compare(a.Platform, b.Platform)
	})

	if top == nil {
		top = []models.CampaignLeadCount{}
	}
	return &LeadAnalytics{
		LeadsByCampaign:           top,
		LeadsByDate:               series,
		ConversionRatesByPlatform: funnels,
	}, nil
}

type PerformanceSeries struct {
	Impressions []int64   `json:"impressions"`
	Clicks      []int64   `json:"clicks"`
	Conversions []int64   `json:"conversions"`
	Spend       []float64 `json:"spend"`
	CTR         []float64 `json:"ctr,omitempty"`
	CPC         []float64 `json:"cpc,omitempty"`
	CPM         []float64 `json:"cpm,omitempty"`
}

type CampaignPerformance struct {
	Timeframes []string                     `json:"timeframes"`
	Metrics    PerformanceSeries            `json:"metrics"`
	Platforms  map[string]PerformanceSeries `json:"platforms"`
}

// CampaignPerformance returns the performance of a campaign over its last
// seven periods. Platforms do not expose history yet, so the series is a
// fixed sample.
func (s *AnalyticsService) CampaignPerformance(ctx context.Context, principal *models.User, id uuid.UUID) (*CampaignPerformance, error) {
	c, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Campaign not found")
	}
	if !rbac.CanAccess(principal, c.Owner, rbac.PermReadAny) {
		return nil, newError(ErrForbidden, "Not authorized to access this campaign")
	}
	return samplePerformance(), nil
}

func samplePerformance() *CampaignPerformance {
	return &CampaignPerformance{
		Timeframes: []string{"Day 1", "Day 2", "Day 3", "Day 4", "Day 5", "Day 6", "Day 7"},
		Metrics: PerformanceSeries{
			Impressions: []int64{1200, 1500, 1800, 2100, 2400, 2700, 3000},
			Clicks:      []int64{120, 150, 180, 210, 240, 270, 300},
			Conversions: []int64{12, 15, 18, 21, 24, 27, 30},
			Spend:       []float64{50, 60, 70, 80, 90, 100, 110},
			CTR:         []float64{10, 10, 10, 10, 10, 10, 10},
			CPC:         []float64{0.42, 0.4, 0.39, 0.38, 0.38, 0.37, 0.37},
			CPM:         []float64{41.67, 40.0, 38.89, 38.1, 37.5, 37.04, 36.67},
		},
		Platforms: map[string]PerformanceSeries{
			models.PlatformFacebook: {
				Impressions: []int64{600, 750, 900, 1050, 1200, 1350, 1500},
				Clicks:      []int64{60, 75, 90, 105, 120, 135, 150},
				Conversions: []int64{6, 8, 9, 11, 12, 14, 15},
				Spend:       []float64{25, 30, 35, 40, 45, 50, 55},
			},
			models.PlatformGoogle: {
				Impressions: []int64{400, 500, 600, 700, 800, 900, 1000},
				Clicks:      []int64{40, 50, 60, 70, 80, 90, 100},
				Conversions: []int64{4, 5, 6, 7, 8, 9, 10},
				Spend:       []float64{15, 20, 25, 30, 35, 40, 45},
			},
			models.PlatformLinkedIn: {
				Impressions: []int64{200, 250, 300, 350, 400, 450, 500},
				Clicks:      []int64{20, 25, 30, 35, 40, 45, 50},
				Conversions: []int64{2, 2, 3, 3, 4, 4, 5},
				Spend:       []float64{10, 10, 10, 10, 10, 10, 10},
			},
		},
	}
}
