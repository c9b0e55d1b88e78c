package repositories

import (
	"context"
	"time"

	"github.com/campaign-manager/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const connectionColumns = `id, user_id, platform, access_token, refresh_token, expires_at,
	account_id, account_name, status, metadata, created_at, updated_at`

type PlatformConnectionRepo struct {
	pool *pgxpool.Pool
}

func NewPlatformConnectionRepo(pool *pgxpool.Pool) *PlatformConnectionRepo {
	return &PlatformConnectionRepo{pool: pool}
}

func scanConnection(row pgx.Row) (*models.PlatformConnection, error) {
	var p models.PlatformConnection
	err := row.Scan(&p.ID, &p.User, &p.Platform, &p.AccessToken, &p.RefreshToken, &p.ExpiresAt,
		&p.AccountID, &p.AccountName, &p.Status, &p.Metadata, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

// Upsert inserts or overwrites the (user, platform) connection. A nil refresh
// token keeps the stored one.
func (r *PlatformConnectionRepo) Upsert(ctx context.Context, p *models.PlatformConnection) error {
	if p.Metadata == nil {
		p.Metadata = map[string]any{}
	}
	return scanInto(r.pool.QueryRow(ctx, `
		INSERT INTO platform_connections (user_id, platform, access_token, refresh_token,
		                                  expires_at, account_id, account_name, status, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, platform) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = COALESCE(EXCLUDED.refresh_token, platform_connections.refresh_token),
			expires_at = EXCLUDED.expires_at,
			account_id = EXCLUDED.account_id,
			account_name = EXCLUDED.account_name,
			status = EXCLUDED.status,
			metadata = EXCLUDED.metadata,
			updated_at = now()
		RETURNING `+connectionColumns,
		p.User, p.Platform, p.AccessToken, p.RefreshToken, p.ExpiresAt,
		p.AccountID, p.AccountName, p.Status, p.Metadata), p)
}

func scanInto(row pgx.Row, dst *models.PlatformConnection) error {
	got, err := scanConnection(row)
	if err != nil {
		return err
	}
	*dst = *got
	return nil
}

func (r *PlatformConnectionRepo) Get(ctx context.Context, userID uuid.UUID, platform string) (*models.PlatformConnection, error) {
	return scanConnection(r.pool.QueryRow(ctx, `
		SELECT `+connectionColumns+` FROM platform_connections WHERE user_id = $1 AND platform = $2
	`, userID, platform))
}

func (r *PlatformConnectionRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PlatformConnection, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+connectionColumns+` FROM platform_connections WHERE user_id = $1 ORDER BY platform
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conns := []models.PlatformConnection{}
	for rows.Next() {
		p, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		conns = append(conns, *p)
	}
	return conns, rows.Err()
}

func (r *PlatformConnectionRepo) SetStatus(ctx context.Context, userID uuid.UUID, platform, status string) error {
	return requireAffected(r.pool.Exec(ctx, `
		UPDATE platform_connections SET status = $1, updated_at = now()
		WHERE user_id = $2 AND platform = $3
	`, status, userID, platform))
}

// UpdateAccessToken stores a refreshed access token and its new expiry.
func (r *PlatformConnectionRepo) UpdateAccessToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	return requireAffected(r.pool.Exec(ctx, `
		UPDATE platform_connections SET access_token = $1, expires_at = $2, status = 'active', updated_at = now()
		WHERE id = $3
	`, token, expiresAt, id))
}

// ExpireStale marks active connections past their expiry as expired, skipping
// the given platforms. It returns the number of rows changed.
func (r *PlatformConnectionRepo) ExpireStale(ctx context.Context, now time.Time, skip []string) (int64, error) {
	if skip == nil {
		skip = []string{}
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE platform_connections SET status = 'expired', updated_at = now()
		WHERE status = 'active' AND expires_at IS NOT NULL AND expires_at < $1
		  AND NOT (platform = ANY($2))
	`, now, skip)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
