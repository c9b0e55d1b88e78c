package services

import (
	"context"
	"testing"
	"time"

	"github.com/campaign-manager/backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, models.RoleUser)

	c := f.campaign(t, owner, "Spring",
		models.PlatformAllocation{Name: models.PlatformFacebook},
		models.PlatformAllocation{Name: models.PlatformGoogle},
	)
	c.Platforms[0].Metrics = models.Metrics{Impressions: 3000, Clicks: 150, Conversions: 10, Spend: 300}
	c.Platforms[1].Metrics = models.Metrics{Impressions: 1000, Clicks: 50, Conversions: 10, Spend: 100}
	require.NoError(t, f.store.Campaigns().UpdatePlatforms(ctx, c.ID, c.Platforms))
	status := models.CampaignStatusActive
	_, err := f.campaigns.Update(ctx, owner, c.ID, CampaignPatch{Status: &status})
	require.NoError(t, err)
	f.campaign(t, owner, "Draft")
	f.lead(t, owner, c.ID, 1)
	f.lead(t, owner, c.ID, 2)

	d, err := f.analytics.Dashboard(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, CampaignStats{Active: 1, Total: 2}, d.CampaignStats)
	assert.EqualValues(t, 2, d.LeadStats.Total)
	assert.Equal(t, []models.CountBucket{{Key: "new", Count: 2}}, d.LeadStats.ByStatus)
	assert.Equal(t, []models.CountBucket{{Key: "facebook", Count: 2}}, d.LeadStats.ByPlatform)

	pm := d.PerformanceMetrics
	assert.InDelta(t, 400.0, pm.TotalSpend, 1e-9)
	assert.EqualValues(t, 4000, pm.TotalImpressions)
	assert.EqualValues(t, 200, pm.TotalClicks)
	assert.EqualValues(t, 20, pm.TotalConversions)
	assert.InDelta(t, 5.0, pm.OverallCTR, 1e-9)
	assert.InDelta(t, 2.0, pm.OverallCPC, 1e-9)
	assert.InDelta(t, 100.0, pm.OverallCPM, 1e-9)
	assert.InDelta(t, 200.0, pm.OverallCPL, 1e-9)

	require.Len(t, d.RecentCampaigns, 2)
	assert.Equal(t, "Draft", d.RecentCampaigns[0].Name)
	require.Len(t, d.RecentLeads, 2)
	require.NotNil(t, d.RecentLeads[0].Source.Campaign)
	assert.Equal(t, "Spring", d.RecentLeads[0].Source.Campaign.Name)
}

func TestDashboardEmpty(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, models.RoleUser)

	d, err := f.analytics.Dashboard(context.Background(), owner)
	require.NoError(t, err)
	assert.Zero(t, d.PerformanceMetrics.OverallCTR)
	assert.Zero(t, d.PerformanceMetrics.OverallCPL)
	assert.Empty(t, d.RecentCampaigns)
	assert.Empty(t, d.RecentLeads)
}

func TestDashboardCacheInvalidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, models.RoleUser)
	c := f.campaign(t, owner, "Spring")

	d, err := f.analytics.Dashboard(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, d.LeadStats.Total)

	_, cached, err := f.cache.Get(ctx, dashboardKey(owner.ID))
	require.NoError(t, err)
	assert.True(t, cached)

	f.lead(t, owner, c.ID, 1)

	_, cached, err = f.cache.Get(ctx, dashboardKey(owner.ID))
	require.NoError(t, err)
	assert.False(t, cached, "lead write drops the cached dashboard")

	d, err = f.analytics.Dashboard(ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 1, d.LeadStats.Total)
}

func TestLeadAnalytics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, models.RoleUser)
	today := time.Now().UTC().Truncate(24 * time.Hour)
	f.analytics.now = func() time.Time { return today.Add(12 * time.Hour) }

	big := f.campaign(t, owner, "Big",
		models.PlatformAllocation{Name: models.PlatformLinkedIn},
		models.PlatformAllocation{Name: models.PlatformFacebook},
	)
	small := f.campaign(t, owner, "Small", models.PlatformAllocation{Name: models.PlatformFacebook})
	big.Platforms[0].Metrics = models.Metrics{Impressions: 100, Clicks: 10, Conversions: 2, Spend: 50}
	big.Platforms[1].Metrics = models.Metrics{Impressions: 1000, Clicks: 100, Conversions: 5, Spend: 100}
	small.Platforms[0].Metrics = models.Metrics{Impressions: 1000, Clicks: 100, Conversions: 5, Spend: 100}
	require.NoError(t, f.store.Campaigns().UpdatePlatforms(ctx, big.ID, big.Platforms))
	require.NoError(t, f.store.Campaigns().UpdatePlatforms(ctx, small.ID, small.Platforms))

	old := f.lead(t, owner, big.ID, 1)
	f.store.Leads().SetCreatedAt(old.ID, today.AddDate(0, 0, -3).Add(time.Hour))
	ancient := f.lead(t, owner, big.ID, 2)
	f.store.Leads().SetCreatedAt(ancient.ID, today.AddDate(0, 0, -45))
	f.lead(t, owner, big.ID, 3)
	f.lead(t, owner, small.ID, 4)

	a, err := f.analytics.LeadAnalytics(ctx, owner)
	require.NoError(t, err)

	require.Len(t, a.LeadsByCampaign, 2)
	assert.Equal(t, big.ID, a.LeadsByCampaign[0].CampaignID)
	assert.Equal(t, "Big", a.LeadsByCampaign[0].CampaignName)
	assert.EqualValues(t, 3, a.LeadsByCampaign[0].Count)

	require.Len(t, a.LeadsByDate, 30)
	assert.Equal(t, models.DayKey(today.AddDate(0, 0, -29)), a.LeadsByDate[0].Date)
	assert.Equal(t, models.DayKey(today), a.LeadsByDate[29].Date)
	assert.EqualValues(t, 1, a.LeadsByDate[26].Count)
	assert.EqualValues(t, 2, a.LeadsByDate[29].Count)
	var total int64
	for _, d := range a.LeadsByDate {
		total += d.Count
	}
	assert.EqualValues(t, 3, total, "leads older than 30 days are left out")

	require.Len(t, a.ConversionRatesByPlatform, 2)
	fb := a.ConversionRatesByPlatform[0]
	assert.Equal(t, models.PlatformFacebook, fb.Platform)
	assert.EqualValues(t, 2000, fb.Impressions)
	assert.InDelta(t, 10.0, fb.CTR, 1e-9)
	assert.InDelta(t, 5.0, fb.ConversionRate, 1e-9)
	assert.InDelta(t, 20.0, fb.CostPerConversion, 1e-9)
	assert.Equal(t, models.PlatformLinkedIn, a.ConversionRatesByPlatform[1].Platform)
}

func TestCampaignPerformance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, models.RoleUser)
	stranger := f.user(t, models.RoleUser)
	c := f.campaign(t, owner, "Spring")

	p, err := f.analytics.CampaignPerformance(ctx, owner, c.ID)
	require.NoError(t, err)
	assert.Len(t, p.Timeframes, 7)
	assert.Equal(t, "Day 1", p.Timeframes[0])
	assert.Len(t, p.Platforms, 3)
	assert.Equal(t, []int64{6, 8, 9, 11, 12, 14, 15}, p.Platforms[models.PlatformFacebook].Conversions)

	_, err = f.analytics.CampaignPerformance(ctx, stranger, c.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.analytics.CampaignPerformance(ctx, owner, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
