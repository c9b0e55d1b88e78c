package services

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/campaign-manager/backend/internal/cache"
	"github.com/campaign-manager/backend/internal/config"
	"github.com/campaign-manager/backend/internal/events"
	"github.com/campaign-manager/backend/internal/models"
	"github.com/campaign-manager/backend/internal/repositories/memstore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	store     *memstore.Store
	events    *events.Recorder
	cache     *cache.Memory
	cfg       *config.Config
	clients   *fakeFactory
	auth      *AuthService
	users     *UserService
	campaigns *CampaignService
	leads     *LeadService
	analytics *AnalyticsService
	platforms *PlatformService
	sync      *SyncService
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:             "test-secret",
		JWTExpiration:         time.Hour,
		ResetTokenTTL:         10 * time.Minute,
		BcryptCost:            4,
		DashboardCacheTTL:     time.Minute,
		FacebookTokenLifetime: 60 * 24 * time.Hour,
		GoogleTokenLifetime:   time.Hour,
		LinkedInTokenLifetime: 60 * 24 * time.Hour,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zap.NewNop()
	f := &fixture{
		store:   memstore.New(),
		events:  &events.Recorder{},
		cache:   cache.NewMemory(),
		cfg:     testConfig(),
		clients: newFakeFactory(),
	}
	users := f.store.Users()
	campaigns := f.store.Campaigns()
	leads := f.store.Leads()
	conns := f.store.PlatformConnections()
	audit := f.store.Audit()

	f.auth = NewAuthService(f.cfg, users, f.events, audit, log)
	f.users = NewUserService(users, conns, log)
	f.leads = NewLeadService(campaigns, leads, audit, f.events, f.cache, log)
	f.sync = NewSyncService(campaigns, conns, f.clients, f.leads, audit, f.events, f.cache, log)
	f.campaigns = NewCampaignService(campaigns, leads, audit, f.events, f.cache, f.sync, log)
	f.analytics = NewAnalyticsService(campaigns, leads, f.cache, f.cfg.DashboardCacheTTL, log)
	f.platforms = NewPlatformService(f.cfg, conns, audit, f.events, log)
	return f
}

func (f *fixture) user(t *testing.T, role string) *models.User {
	t.Helper()
	u := &models.User{
		Name:         "User " + role,
		Email:        uuid.NewString()[:8] + "@example.com",
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

func campaignInput(name string) CampaignInput {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return CampaignInput{
		Name:      name,
		Objective: "awareness",
		StartDate: start,
		EndDate:   start.AddDate(0, 1, 0),
		Budget:    models.Budget{Total: 1000},
	}
}

func (f *fixture) campaign(t *testing.T, owner *models.User, name string, platforms ...models.PlatformAllocation) *models.Campaign {
	t.Helper()
	in := campaignInput(name)
	in.Platforms = platforms
	c, err := f.campaigns.Create(context.Background(), owner, in)
	require.NoError(t, err)
	return c
}

func (f *fixture) lead(t *testing.T, owner *models.User, campaignID uuid.UUID, n int) *models.Lead {
	t.Helper()
	l, err := f.leads.Create(context.Background(), owner, LeadInput{
		FirstName: "Lead" + strconv.Itoa(n),
		Email:     "lead" + strconv.Itoa(n) + "@example.com",
		Source:    models.LeadSource{Platform: models.PlatformFacebook, Campaign: campaignID},
	})
	require.NoError(t, err)
	return l
}
