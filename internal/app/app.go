// Package app wires stores, services and handlers for the binaries.
package app

import (
	"github.com/campaign-manager/backend/internal/config"
	"github.com/campaign-manager/backend/internal/events"
	apphttp "github.com/campaign-manager/backend/internal/http"
	"github.com/campaign-manager/backend/internal/http/dto"
	"github.com/campaign-manager/backend/internal/http/handlers"
	"github.com/campaign-manager/backend/internal/platforms"
	"github.com/campaign-manager/backend/internal/repositories"
	"github.com/campaign-manager/backend/internal/repositories/memstore"
	"github.com/campaign-manager/backend/internal/services"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Stores struct {
	Users       services.UserStore
	Campaigns   services.CampaignStore
	Leads       services.LeadStore
	Connections services.ConnectionStore
	Audit       services.AuditStore
}

func PostgresStores(pool *pgxpool.Pool) Stores {
	return Stores{
		Users:       repositories.NewUserRepo(pool),
		Campaigns:   repositories.NewCampaignRepo(pool),
		Leads:       repositories.NewLeadRepo(pool),
		Connections: repositories.NewPlatformConnectionRepo(pool),
		Audit:       repositories.NewAuditRepo(pool),
	}
}

func MemoryStores(s *memstore.Store) Stores {
	return Stores{
		Users:       s.Users(),
		Campaigns:   s.Campaigns(),
		Leads:       s.Leads(),
		Connections: s.PlatformConnections(),
		Audit:       s.Audit(),
	}
}

func PlatformOptions(cfg *config.Config) platforms.Options {
	return platforms.Options{
		FacebookAPIURL:       cfg.FacebookAPIURL,
		GoogleAdsAPIURL:      cfg.GoogleAdsAPIURL,
		GoogleOAuthTokenURL:  cfg.GoogleOAuthTokenURL,
		GoogleClientID:       cfg.GoogleClientID,
		GoogleClientSecret:   cfg.GoogleClientSecret,
		GoogleDeveloperToken: cfg.GoogleDeveloperToken,
		LinkedInAPIURL:       cfg.LinkedInAPIURL,
		Timeout:              cfg.PlatformHTTPTimeout,
	}
}

type Services struct {
	Auth      *services.AuthService
	User      *services.UserService
	Campaign  *services.CampaignService
	Lead      *services.LeadService
	Analytics *services.AnalyticsService
	Platform  *services.PlatformService
	Sync      *services.SyncService
}

// NewServices builds every service. The sync service is built before the
// campaign service, which pushes status changes through it.
func NewServices(
	cfg *config.Config,
	st Stores,
	cache services.Cache,
	publisher events.Publisher,
	clients services.ClientFactory,
	log *zap.Logger,
) *Services {
	s := &Services{}
	s.Auth = services.NewAuthService(cfg, st.Users, publisher, st.Audit, log)
	s.User = services.NewUserService(st.Users, st.Connections, log)
	s.Lead = services.NewLeadService(st.Campaigns, st.Leads, st.Audit, publisher, cache, log)
	s.Sync = services.NewSyncService(st.Campaigns, st.Connections, clients, s.Lead, st.Audit, publisher, cache, log)
	s.Campaign = services.NewCampaignService(st.Campaigns, st.Leads, st.Audit, publisher, cache, s.Sync, log)
	s.Analytics = services.NewAnalyticsService(st.Campaigns, st.Leads, cache, cfg.DashboardCacheTTL, log)
	s.Platform = services.NewPlatformService(cfg, st.Connections, st.Audit, publisher, log)
	return s
}

// Handlers builds the HTTP handlers over svc. hub may be nil.
func (svc *Services) Handlers(hub *handlers.WSHub, log *zap.Logger) apphttp.Handlers {
	v := dto.NewValidator()
	return apphttp.Handlers{
		Auth:      handlers.NewAuthHandler(svc.Auth, v, log),
		User:      handlers.NewUserHandler(svc.User, v, log),
		Campaign:  handlers.NewCampaignHandler(svc.Campaign, svc.Lead, svc.Sync, v, log),
		Lead:      handlers.NewLeadHandler(svc.Lead, v, log),
		Analytics: handlers.NewAnalyticsHandler(svc.Analytics, log),
		Platform:  handlers.NewPlatformHandler(svc.Platform, log),
		WS:        hub,
	}
}
