package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/campaign-manager/backend/internal/config"
	"github.com/campaign-manager/backend/internal/events"
	"github.com/campaign-manager/backend/internal/models"
	"github.com/campaign-manager/backend/internal/repositories"
	"go.uber.org/zap"
)

// ConnectablePlatforms are the platforms with a connect flow.
var ConnectablePlatforms = []string{models.PlatformFacebook, models.PlatformGoogle, models.PlatformLinkedIn}

type PlatformService struct {
	cfg   *config.Config
	conns ConnectionStore
	act   activity
	log   *zap.Logger
	now   func() time.Time
}

func NewPlatformService(cfg *config.Config, conns ConnectionStore, audit AuditStore, publisher events.Publisher, log *zap.Logger) *PlatformService {
	return &PlatformService{
		cfg:   cfg,
		conns: conns,
		act:   activity{publisher: publisher, audit: audit, log: log},
		log:   log,
		now:   time.Now,
	}
}

type Credentials struct {
	AccessToken  string
	RefreshToken string
	AccountID    string
	AccountName  string
}

type ConnectResult struct {
	Platform  string `json:"platform"`
	Connected bool   `json:"connected"`
	AccountID string `json:"accountId,omitempty"`
}

// Connect stores the principal's credentials for platform, replacing any
// previous connection. A missing refresh token keeps the stored one.
func (s *PlatformService) Connect(ctx context.Context, principal *models.User, platform string, creds Credentials) (*ConnectResult, error) {
	if !slices.Contains(ConnectablePlatforms, platform) {
		return nil, invalid("platform", "Invalid platform")
	}
	creds.AccessToken = strings.TrimSpace(creds.AccessToken)
	creds.RefreshToken = strings.TrimSpace(creds.RefreshToken)
	creds.AccountID = strings.TrimSpace(creds.AccountID)

	if platform == models.PlatformGoogle {
		if creds.AccessToken == "" || creds.RefreshToken == "" || creds.AccountID == "" {
			return nil, invalid("", "Please provide access token, refresh token, and account ID")
		}
	} else if creds.AccessToken == "" || creds.AccountID == "" {
		return nil, invalid("", "Please provide access token and account ID")
	}

	expiresAt := s.now().Add(s.cfg.TokenLifetime(platform))
	conn := &models.PlatformConnection{
		User:        principal.ID,
		Platform:    platform,
		AccessToken: creds.AccessToken,
		ExpiresAt:   &expiresAt,
		AccountID:   &creds.AccountID,
		Status:      models.ConnectionStatusActive,
	}
	if creds.RefreshToken != "" {
		conn.RefreshToken = &creds.RefreshToken
	}
	if creds.AccountName != "" {
		conn.AccountName = &creds.AccountName
	}
	if err := s.conns.Upsert(ctx, conn); err != nil {
		return nil, err
	}

	s.act.record(ctx, principal, principal.ID, events.EventPlatformConnected, "platform_connection", conn.ID, map[string]any{
		"platform":   platform,
		"account_id": creds.AccountID,
	})
	return &ConnectResult{Platform: platform, Connected: true, AccountID: creds.AccountID}, nil
}

// Disconnect revokes the principal's connection to platform. Disconnecting a
// platform that was never connected succeeds without creating a row.
func (s *PlatformService) Disconnect(ctx context.Context, principal *models.User, platform string) (*ConnectResult, error) {
	if !models.IsValidPlatform(platform) {
		return nil, invalid("platform", "Invalid platform")
	}

	conn, err := s.conns.Get(ctx, principal.ID, platform)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return &ConnectResult{Platform: platform}, nil
	case err != nil:
		return nil, err
	}

	if err := s.conns.SetStatus(ctx, principal.ID, platform, models.ConnectionStatusRevoked); err != nil {
		return nil, err
	}
	s.act.record(ctx, principal, principal.ID, events.EventPlatformDisconnected, "platform_connection", conn.ID, map[string]any{
		"platform": platform,
	})
	return &ConnectResult{Platform: platform}, nil
}

func (s *PlatformService) List(ctx context.Context, principal *models.User) ([]models.ConnectionSummary, error) {
	conns, err := s.conns.ListByUser(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	out := make([]models.ConnectionSummary, 0, len(conns))
	for i := range conns {
		out = append(out, conns[i].Summary())
	}
	return out, nil
}

// ExpireStale marks active connections past their expiry as expired. Google
// connections are skipped since their clients refresh on demand.
func (s *PlatformService) ExpireStale(ctx context.Context) (int64, error) {
	n, err := s.conns.ExpireStale(ctx, s.now(), []string{models.PlatformGoogle})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("expired platform connections", zap.Int64("count", n))
	}
	return n, nil
}
