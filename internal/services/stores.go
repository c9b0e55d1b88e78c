package services

import (
	"context"
	"time"

	"github.com/campaign-manager/backend/internal/models"
	"github.com/campaign-manager/backend/internal/query"
	"github.com/google/uuid"
)

// The store interfaces are satisfied by the pgx repositories and by memstore.

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	UpdateProfile(ctx context.Context, u *models.User) error
	SetPassword(ctx context.Context, id uuid.UUID, hash string) error
	SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expire time.Time) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
}

type CampaignStore interface {
	Create(ctx context.Context, c *models.Campaign) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
	Update(ctx context.Context, c *models.Campaign) error
	UpdatePlatforms(ctx context.Context, id uuid.UUID, platforms []models.PlatformAllocation) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddLead(ctx context.Context, campaignID, leadID uuid.UUID) error
	RemoveLead(ctx context.Context, campaignID, leadID uuid.UUID) error
	List(ctx context.Context, owner uuid.UUID, q query.ListQuery) ([]models.Campaign, error)
	Count(ctx context.Context, owner uuid.UUID, q query.ListQuery) (int64, error)
	CountByStatus(ctx context.Context, owner uuid.UUID, status string) (int64, error)
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]models.Campaign, error)
	Recent(ctx context.Context, owner uuid.UUID, limit int) ([]models.Campaign, error)
	ListPublished(ctx context.Context) ([]models.Campaign, error)
	Names(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

type LeadStore interface {
	Create(ctx context.Context, l *models.Lead) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	Update(ctx context.Context, l *models.Lead) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, owner uuid.UUID, q query.ListQuery) ([]models.Lead, error)
	Count(ctx context.Context, owner uuid.UUID, q query.ListQuery) (int64, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]models.Lead, error)
	CountByOwner(ctx context.Context, owner uuid.UUID) (int64, error)
	Recent(ctx context.Context, owner uuid.UUID, limit int) ([]models.Lead, error)
	CountByStatus(ctx context.Context, owner uuid.UUID) ([]models.CountBucket, error)
	CountByPlatform(ctx context.Context, owner uuid.UUID) ([]models.CountBucket, error)
	TopCampaigns(ctx context.Context, owner uuid.UUID, limit int) ([]models.CampaignLeadCount, error)
	DailyCounts(ctx context.Context, owner uuid.UUID, since time.Time) (map[string]int64, error)
}

type ConnectionStore interface {
	Upsert(ctx context.Context, p *models.PlatformConnection) error
	Get(ctx context.Context, userID uuid.UUID, platform string) (*models.PlatformConnection, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PlatformConnection, error)
	SetStatus(ctx context.Context, userID uuid.UUID, platform, status string) error
	UpdateAccessToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error
	ExpireStale(ctx context.Context, now time.Time, skip []string) (int64, error)
}

type AuditStore interface {
	Log(ctx context.Context, entry models.AuditLog) error
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]models.AuditLog, error)
}

// Cache stores serialized values with a TTL. A nil Cache disables caching.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
