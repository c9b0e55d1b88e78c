package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/campaign-manager/backend/internal/events"
	"github.com/campaign-manager/backend/internal/models"
	"github.com/campaign-manager/backend/internal/platforms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) connect(t *testing.T, u *models.User, platform string) {
	t.Helper()
	_, err := f.platforms.Connect(context.Background(), u, platform, Credentials{AccessToken: "t", RefreshToken: "r", AccountID: "1"})
	require.NoError(t, err)
}

func TestPublish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, models.RoleUser)
	stranger := f.user(t, models.RoleUser)
	f.connect(t, owner, models.PlatformFacebook)
	f.connect(t, owner, models.PlatformLinkedIn)
	f.clients.failures[models.PlatformLinkedIn] = &platforms.StatusError{Platform: "linkedin", Status: 500, Body: "boom"}

	c := f.campaign(t, owner, "Launch",
		models.PlatformAllocation{Name: models.PlatformFacebook, Budget: 250},
		models.PlatformAllocation{Name: models.PlatformGoogle},
		models.PlatformAllocation{Name: models.PlatformLinkedIn},
	)

	_, err := f.sync.Publish(ctx, stranger, c.ID)
	require.ErrorIs(t, err, ErrForbidden)

	res, err := f.sync.Publish(ctx, owner, c.ID)
	require.NoError(t, err)
	require.Len(t, res.Results, 3)

	assert.Equal(t, "facebook-1", res.Results[0].PlatformCampaignID)
	assert.Equal(t, models.AllocationStatusActive, res.Results[0].Status)
	assert.Equal(t, "platform not connected", res.Results[1].Error)
	assert.Equal(t, models.AllocationStatusError, res.Results[2].Status)
	assert.Equal(t, "linkedin request failed", res.Results[2].Error)

	require.Len(t, f.clients.created, 1)
	assert.InDelta(t, 250.0, f.clients.created[0].Budget.Total, 1e-9)

	stored, err := f.campaigns.Get(ctx, owner, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "facebook-1", stored.Platforms[0].PlatformCampaignID)
	assert.Equal(t, models.AllocationStatusPending, stored.Platforms[1].Status)
	assert.Contains(t, f.events.Types(), events.EventCampaignPublished)

	// published allocations are left alone
	res, err = f.sync.Publish(ctx, owner, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "facebook-1", res.Results[0].PlatformCampaignID)
	assert.Len(t, f.clients.created, 1)
}

func TestSyncMetrics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, models.RoleUser)
	f.connect(t, owner, models.PlatformFacebook)

	c := f.campaign(t, owner, "Launch", models.PlatformAllocation{Name: models.PlatformFacebook})
	_, err := f.sync.Publish(ctx, owner, c.ID)
	require.NoError(t, err)

	m := models.Metrics{Impressions: 2000, Clicks: 100, Conversions: 4, Spend: 50}
	m.Derive()
	f.clients.metrics["facebook-1"] = m

	_, err = f.analytics.Dashboard(ctx, owner)
	require.NoError(t, err)

	res, err := f.sync.SyncMetrics(ctx, owner, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2000, res.Campaign.Platforms[0].Metrics.Impressions)

	d, err := f.analytics.Dashboard(ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 2000, d.PerformanceMetrics.TotalImpressions, "sync invalidates the dashboard")
}

func TestSyncAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, models.RoleUser)
	f.connect(t, owner, models.PlatformFacebook)
	f.connect(t, owner, models.PlatformGoogle)

	a := f.campaign(t, owner, "A", models.PlatformAllocation{Name: models.PlatformFacebook})
	b := f.campaign(t, owner, "B", models.PlatformAllocation{Name: models.PlatformGoogle})
	f.campaign(t, owner, "Unpublished", models.PlatformAllocation{Name: models.PlatformFacebook})
	active := models.CampaignStatusActive
	for _, c := range []*models.Campaign{a, b} {
		_, err := f.sync.Publish(ctx, owner, c.ID)
		require.NoError(t, err)
		_, err = f.campaigns.Update(ctx, owner, c.ID, CampaignPatch{Status: &active})
		require.NoError(t, err)
	}
	f.clients.failures[models.PlatformGoogle] = fmt.Errorf("%w: timeout", platforms.ErrUpstream)
	f.clients.metrics["facebook-1"] = models.Metrics{Impressions: 10}

	report, err := f.sync.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncReport{Campaigns: 2, Synced: 1, Failed: 1}, report)

	got, err := f.campaigns.Get(ctx, owner, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 10, got.Platforms[0].Metrics.Impressions)
}

func TestStatusChangePushedToPlatforms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, models.RoleUser)
	f.connect(t, owner, models.PlatformFacebook)

	c := f.campaign(t, owner, "Launch", models.PlatformAllocation{Name: models.PlatformFacebook})
	_, err := f.sync.Publish(ctx, owner, c.ID)
	require.NoError(t, err)

	status := models.CampaignStatusPaused
	_, err = f.campaigns.Update(ctx, owner, c.ID, CampaignPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusPaused, f.clients.statuses["facebook-1"])

	name := "Renamed"
	delete(f.clients.statuses, "facebook-1")
	_, err = f.campaigns.Update(ctx, owner, c.ID, CampaignPatch{Name: &name})
	require.NoError(t, err)
	assert.NotContains(t, f.clients.statuses, "facebook-1", "unchanged status is not pushed")
}

func TestImportLeads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, models.RoleUser)
	f.connect(t, owner, models.PlatformFacebook)
	c := f.campaign(t, owner, "Forms")

	f.clients.imported = []platforms.ImportedLead{
		{PlatformLeadID: "l1", FirstName: "Ana", Email: "ana@example.com", AdName: "hero"},
		{PlatformLeadID: "l2", FirstName: "Bad", Email: "not-an-email"},
	}

	_, err := f.sync.ImportLeads(ctx, owner, c.ID, models.PlatformLinkedIn, "form-1")
	assert.ErrorIs(t, err, ErrInvalid, "linkedin is not connected")

	res, err := f.sync.ImportLeads(ctx, owner, c.ID, models.PlatformFacebook, "form-1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Skipped)

	leads, err := f.leads.ListByCampaign(ctx, owner, c.ID)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "hero", leads[0].Source.AdCreative)
	assert.Equal(t, "l1", leads[0].AdditionalInfo["platformLeadId"])

	f.clients.imported = append(f.clients.imported,
		platforms.ImportedLead{PlatformLeadID: "l3", FirstName: "Cy", Email: "cy@example.com"},
		platforms.ImportedLead{PlatformLeadID: "l3", FirstName: "Cy", Email: "cy@example.com"},
	)
	res, err = f.sync.ImportLeads(ctx, owner, c.ID, models.PlatformFacebook, "form-1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 2, res.Duplicates, "l1 is already stored and l3 repeats within the batch")
	assert.Equal(t, 1, res.Skipped)

	leads, err = f.leads.ListByCampaign(ctx, owner, c.ID)
	require.NoError(t, err)
	assert.Len(t, leads, 2)
}
