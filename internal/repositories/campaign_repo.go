package repositories

import (
	"context"

	"github.com/campaign-manager/backend/internal/models"
	"github.com/campaign-manager/backend/internal/query"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const campaignColumns = `id, name, description, objective, status, start_date, end_date,
	budget, target_audience, platforms, ad_creatives, leads, owner_id, team, tags, notes,
	created_at, updated_at`

type CampaignRepo struct {
	pool *pgxpool.Pool
}

func NewCampaignRepo(pool *pgxpool.Pool) *CampaignRepo {
	return &CampaignRepo{pool: pool}
}

func scanCampaign(row pgx.Row) (*models.Campaign, error) {
	var c models.Campaign
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Objective, &c.Status,
		&c.StartDate, &c.EndDate, &c.Budget, &c.TargetAudience, &c.Platforms,
		&c.AdCreatives, &c.Leads, &c.Owner, &c.Team, &c.Tags, &c.Notes,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func collectCampaigns(rows pgx.Rows, err error) ([]models.Campaign, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []models.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, rows.Err()
}

func (r *CampaignRepo) Create(ctx context.Context, c *models.Campaign) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO campaigns (name, description, objective, status, start_date, end_date,
		                       budget, target_audience, platforms, ad_creatives, leads,
		                       owner_id, team, tags, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at
	`, c.Name, c.Description, c.Objective, c.Status, c.StartDate, c.EndDate,
		c.Budget, c.TargetAudience, c.Platforms, c.AdCreatives, c.Leads,
		c.Owner, c.Team, c.Tags, c.Notes,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return mapErr(err)
}

func (r *CampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	return scanCampaign(r.pool.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id))
}

// Update writes every mutable column. owner_id and leads are left untouched.
func (r *CampaignRepo) Update(ctx context.Context, c *models.Campaign) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE campaigns SET name = $1, description = $2, objective = $3, status = $4,
		       start_date = $5, end_date = $6, budget = $7, target_audience = $8,
		       platforms = $9, ad_creatives = $10, team = $11, tags = $12, notes = $13,
		       updated_at = now()
		WHERE id = $14
		RETURNING updated_at
	`, c.Name, c.Description, c.Objective, c.Status, c.StartDate, c.EndDate,
		c.Budget, c.TargetAudience, c.Platforms, c.AdCreatives, c.Team, c.Tags, c.Notes,
		c.ID).Scan(&c.UpdatedAt)
	return mapErr(err)
}

// UpdatePlatforms replaces the allocation list after a platform sync.
func (r *CampaignRepo) UpdatePlatforms(ctx context.Context, id uuid.UUID, platforms []models.PlatformAllocation) error {
	return requireAffected(r.pool.Exec(ctx, `
		UPDATE campaigns SET platforms = $1, updated_at = now() WHERE id = $2
	`, platforms, id))
}

// Delete removes the campaign; its leads go with it through the foreign key.
func (r *CampaignRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return requireAffected(r.pool.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id))
}

// AddLead appends leadID to the back-references unless already present.
func (r *CampaignRepo) AddLead(ctx context.Context, campaignID, leadID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE campaigns SET leads = array_append(leads, $2), updated_at = now()
		WHERE id = $1 AND NOT ($2 = ANY(leads))
	`, campaignID, leadID)
	return err
}

// RemoveLead drops leadID from the back-references. Absent ids are a no-op.
func (r *CampaignRepo) RemoveLead(ctx context.Context, campaignID, leadID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE campaigns SET leads = array_remove(leads, $2), updated_at = now()
		WHERE id = $1 AND $2 = ANY(leads)
	`, campaignID, leadID)
	return err
}

func ownerWhere(owner uuid.UUID) *query.Where {
	w := &query.Where{}
	w.Add("owner_id = ?", owner)
	return w
}

// List returns one page of owner's campaigns matching q.
func (r *CampaignRepo) List(ctx context.Context, owner uuid.UUID, q query.ListQuery) ([]models.Campaign, error) {
	w := ownerWhere(owner)
	q.Apply(w, CampaignSchema)
	sql := `SELECT ` + campaignColumns + ` FROM campaigns` + w.String() + q.OrderBy(CampaignSchema) + q.PageClause(w)
	return collectCampaigns(r.pool.Query(ctx, sql, w.Args()...))
}

// Count returns how many of owner's campaigns match q, ignoring paging.
func (r *CampaignRepo) Count(ctx context.Context, owner uuid.UUID, q query.ListQuery) (int64, error) {
	w := ownerWhere(owner)
	q.Apply(w, CampaignSchema)
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM campaigns`+w.String(), w.Args()...).Scan(&n)
	return n, err
}

// CountByStatus counts owner's campaigns, restricted to status when non-empty.
func (r *CampaignRepo) CountByStatus(ctx context.Context, owner uuid.UUID, status string) (int64, error) {
	w := ownerWhere(owner)
	if status != "" {
		w.Add("status = ?", status)
	}
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM campaigns`+w.String(), w.Args()...).Scan(&n)
	return n, err
}

func (r *CampaignRepo) ListByOwner(ctx context.Context, owner uuid.UUID) ([]models.Campaign, error) {
	return collectCampaigns(r.pool.Query(ctx, `
		SELECT `+campaignColumns+` FROM campaigns WHERE owner_id = $1 ORDER BY created_at DESC
	`, owner))
}

func (r *CampaignRepo) Recent(ctx context.Context, owner uuid.UUID, limit int) ([]models.Campaign, error) {
	return collectCampaigns(r.pool.Query(ctx, `
		SELECT `+campaignColumns+` FROM campaigns WHERE owner_id = $1
		ORDER BY created_at DESC, id ASC LIMIT $2
	`, owner, limit))
}

// ListPublished returns campaigns with at least one allocation live on a platform.
func (r *CampaignRepo) ListPublished(ctx context.Context) ([]models.Campaign, error) {
	return collectCampaigns(r.pool.Query(ctx, `
		SELECT `+campaignColumns+` FROM campaigns c
		WHERE status IN ('active', 'paused') AND EXISTS (
			SELECT 1 FROM jsonb_array_elements(c.platforms) p
			WHERE coalesce(p->>'platformCampaignId', '') <> ''
		)
	`))
}

// Names resolves campaign ids to names. Missing ids are omitted.
func (r *CampaignRepo) Names(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM campaigns WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}
